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

// Package docconv converts uploaded documents (email containers, office
// documents, structured text, markup) into PDF, DOCX, plain text, HTML or
// Markdown.
//
// Conversion runs in two stages that share nothing but a *Document value:
//
//	c := docconv.New()
//	doc := c.Extract(ctx, docconv.Input{Data: data, Filename: "mail.msg"})
//	out, err := c.Render(ctx, doc, docconv.FormatPDF)
//
// Extraction never fails; every source kind has a salvage path that yields
// some text. Rendering fails only for internal encoding errors.
package docconv

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

type fontSet struct {
	regular []byte
	bold    []byte
}

// Converter is the document conversion engine. It is immutable after New and
// safe for concurrent use.
type Converter struct {
	logger       *slog.Logger
	keepDataURIs bool
	fonts        fontSet
	pageSize     string
}

// New creates a Converter with the given options.
func New(opts ...Option) *Converter {
	c := &Converter{
		logger:   slog.Default(),
		fonts:    fontSet{regular: goregular.TTF, bold: gobold.TTF},
		pageSize: "A4",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Convert extracts in and renders it as format.
func (c *Converter) Convert(ctx context.Context, in Input, format string) (*Output, error) {
	if in.Data == nil && in.Filename == "" {
		return nil, &MissingPartError{Part: "file"}
	}
	if strings.TrimSpace(format) == "" {
		return nil, &MissingPartError{Part: "format"}
	}
	f, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}

	doc := c.Extract(ctx, in)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.Render(ctx, doc, f)
}

// Extract builds the intermediate document for in. It always returns a
// document; malformed sources are salvaged.
func (c *Converter) Extract(ctx context.Context, in Input) *Document {
	kind := SourceKindFor(in.Filename)
	c.logger.DebugContext(ctx, "extracting document", "filename", in.Filename, "source", kind, "size", len(in.Data))

	doc, err := c.extractorFor(kind)(in.Data, in.Filename)
	if err != nil {
		// Every chain ends in a salvage arm; this only triggers on a bug in one.
		c.logger.ErrorContext(ctx, "extraction chain failed", "filename", in.Filename, "source", kind, "error", err)
		doc = &Document{Text: decodeText(in.Data, "")}
	}

	doc.Source = kind
	doc.Filename = in.Filename
	c.finish(doc, in)
	return doc
}

// finish fills fallbacks so that the Document invariants hold.
func (c *Converter) finish(doc *Document, in Input) {
	if doc.Text == "" && len(in.Data) > 0 {
		doc.Text = "[no readable text content found in " + displayName(in.Filename) + "]"
	}
	if doc.HTML == "" {
		doc.HTML = preformatted(doc.Text)
	}
	if doc.Title == "" {
		if doc.Email != nil && doc.Email.Subject != "" {
			doc.Title = doc.Email.Subject
		} else {
			doc.Title = titleFromFilename(in.Filename)
		}
	}
}

func displayName(filename string) string {
	if filename == "" {
		return "upload"
	}
	return filepath.Base(filename)
}

func titleFromFilename(filename string) string {
	if filename == "" {
		return "Converted document"
	}
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
