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
	"path/filepath"
	"strings"
)

// KindEmail is the Document.Kind value for email-like sources.
const KindEmail = "email"

// Document is the intermediate value passed from extraction to rendering.
type Document struct {
	// Text is the normalized plain-text view. Empty only for zero-byte sources.
	Text string
	// HTML is an HTML body fragment.
	HTML string
	// Title is a display title used for document properties.
	Title string
	// Email is set only for email-like sources.
	Email *EmailMetadata

	Source   SourceKind
	Filename string
}

// Kind returns "email" for email-like sources and "" otherwise.
func (d *Document) Kind() string {
	if d.Email != nil {
		return KindEmail
	}
	return ""
}

// EmailMetadata holds the header fields of an email-like source.
type EmailMetadata struct {
	Subject     string
	Sender      string
	Recipients  string
	CC          string
	Date        string
	Attachments []Attachment
	// Body is the message body text, without the synthesized header block.
	Body string
}

// Attachment describes one attachment of an email.
type Attachment struct {
	Name        string
	Size        int64
	ContentType string
}

// SourceKind identifies how a source is extracted.
type SourceKind int

const (
	// SourceText is the default arm: anything not listed below.
	SourceText SourceKind = iota
	SourceMSG
	SourceEML
	SourceDOCX
	SourceHTML
	SourceCSV
	SourceJSON
	SourceXLSX
	SourceXLS
	SourcePDF
	SourceFeed
	SourcePPTX
	SourceEPUB
	SourceNotebook
)

var sourceKindNames = [...]string{
	SourceText:     "text",
	SourceMSG:      "msg",
	SourceEML:      "eml",
	SourceDOCX:     "docx",
	SourceHTML:     "html",
	SourceCSV:      "csv",
	SourceJSON:     "json",
	SourceXLSX:     "xlsx",
	SourceXLS:      "xls",
	SourcePDF:      "pdf",
	SourceFeed:     "feed",
	SourcePPTX:     "pptx",
	SourceEPUB:     "epub",
	SourceNotebook: "ipynb",
}

func (k SourceKind) String() string {
	if int(k) < len(sourceKindNames) {
		return sourceKindNames[k]
	}
	return "unknown"
}

// SourceKindFor resolves the source kind from a filename's extension.
func SourceKindFor(filename string) SourceKind {
	switch normalizeExtension(filepath.Ext(filename)) {
	case "msg":
		return SourceMSG
	case "eml":
		return SourceEML
	case "docx":
		return SourceDOCX
	case "html", "htm":
		return SourceHTML
	case "csv":
		return SourceCSV
	case "json":
		return SourceJSON
	case "xlsx":
		return SourceXLSX
	case "xls":
		return SourceXLS
	case "pdf":
		return SourcePDF
	case "rss", "atom", "xml":
		return SourceFeed
	case "pptx":
		return SourcePPTX
	case "epub":
		return SourceEPUB
	case "ipynb":
		return SourceNotebook
	default:
		return SourceText
	}
}

func normalizeExtension(ext string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
}

// Input is a decoded upload.
type Input struct {
	Data     []byte
	Filename string
}

// Output is a rendered conversion result.
type Output struct {
	Data     []byte
	MIMEType string
	Filename string
}
