// Copyright 2026 Conductor OSS
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

package docconv

import (
	"errors"
	"fmt"
)

// UnsupportedFormatError is returned when the requested output format is not one of the supported targets.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Format == "" {
		return "unsupported format"
	}
	return fmt.Sprintf("unsupported format %q (supported: %s)", e.Format, supportedFormatList())
}

// MissingPartError is returned when a required request part is absent.
type MissingPartError struct {
	// Part is "file" or "format".
	Part string
}

func (e *MissingPartError) Error() string {
	return "missing " + e.Part
}

// RenderError is returned when building the output document failed.
type RenderError struct {
	Format Format
	Err    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Format, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// IsUnsupportedFormat reports whether the error is an UnsupportedFormatError.
func IsUnsupportedFormat(err error) bool {
	var target *UnsupportedFormatError
	return errors.As(err, &target)
}

// IsMissingPart reports whether the error is a MissingPartError.
func IsMissingPart(err error) bool {
	var target *MissingPartError
	return errors.As(err, &target)
}
