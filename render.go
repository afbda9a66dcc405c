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
	"context"
	"path/filepath"
	"strings"
)

// Format is a conversion target.
type Format string

const (
	FormatPDF      Format = "pdf"
	FormatDOCX     Format = "docx"
	FormatText     Format = "txt"
	FormatHTML     Format = "html"
	FormatMarkdown Format = "md"
)

// Formats lists the supported targets in display order.
var Formats = []Format{FormatPDF, FormatDOCX, FormatText, FormatHTML, FormatMarkdown}

var formatMIMETypes = map[Format]string{
	FormatPDF:      "application/pdf",
	FormatDOCX:     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	FormatText:     "text/plain; charset=utf-8",
	FormatHTML:     "text/html; charset=utf-8",
	FormatMarkdown: "text/markdown; charset=utf-8",
}

// MIMEType returns the content type of rendered output.
func (f Format) MIMEType() string {
	return formatMIMETypes[f]
}

// ParseFormat resolves a format name. Matching ignores case, surrounding
// whitespace and a leading dot.
func ParseFormat(s string) (Format, error) {
	f := Format(normalizeExtension(s))
	if _, ok := formatMIMETypes[f]; !ok {
		return "", &UnsupportedFormatError{Format: s}
	}
	return f, nil
}

func supportedFormatList() string {
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// Render encodes doc as f.
func (c *Converter) Render(ctx context.Context, doc *Document, f Format) (*Output, error) {
	var (
		data []byte
		err  error
	)
	switch f {
	case FormatPDF:
		data, err = c.renderPDF(doc)
	case FormatDOCX:
		data, err = c.renderDOCX(doc)
	case FormatText:
		data = []byte(doc.Text)
	case FormatHTML:
		data, err = renderHTML(doc)
	case FormatMarkdown:
		data, err = c.renderMarkdown(doc)
	default:
		return nil, &UnsupportedFormatError{Format: string(f)}
	}
	if err != nil {
		c.logger.ErrorContext(ctx, "render failed", "format", f, "filename", doc.Filename, "error", err)
		return nil, &RenderError{Format: f, Err: err}
	}

	c.logger.DebugContext(ctx, "rendered document", "format", f, "filename", doc.Filename, "size", len(data))
	return &Output{
		Data:     data,
		MIMEType: f.MIMEType(),
		Filename: outputFilename(doc.Filename, f),
	}, nil
}

// outputFilename swaps the source extension for the target one.
func outputFilename(src string, f Format) string {
	base := filepath.Base(strings.ReplaceAll(src, `\`, "/"))
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if src == "" || stem == "" || stem == "." || stem == "/" {
		stem = "converted"
	}
	return stem + "." + string(f)
}
