package docconv

import (
	"fmt"
	"html"
	"path/filepath"
)

// extractFunc turns raw bytes into a Document or reports why it could not.
type extractFunc func(data []byte, filename string) (*Document, error)

// orElse runs primary and, when it fails or panics, fallback. The failure is
// logged so degraded results stay visible.
func (c *Converter) orElse(name string, primary, fallback extractFunc) extractFunc {
	return func(data []byte, filename string) (*Document, error) {
		doc, err := guarded(primary)(data, filename)
		if err == nil {
			return doc, nil
		}
		c.logger.Warn("extraction degraded to fallback",
			"extractor", name,
			"filename", filepath.Base(filename),
			"error", err,
		)
		return fallback(data, filename)
	}
}

// guarded converts a panic inside a third-party parser into an error.
func guarded(fn extractFunc) extractFunc {
	return func(data []byte, filename string) (doc *Document, err error) {
		defer func() {
			if r := recover(); r != nil {
				doc, err = nil, fmt.Errorf("parser panic: %v", r)
			}
		}()
		return fn(data, filename)
	}
}

// extractorFor returns the extraction chain for a source kind. Each chain
// ends in an arm that cannot fail.
func (c *Converter) extractorFor(kind SourceKind) extractFunc {
	switch kind {
	case SourceMSG:
		return c.orElse("msg", c.extractMSG, salvageText)
	case SourceEML:
		return c.orElse("eml", c.extractEML, extractText)
	case SourceDOCX:
		return c.orElse("docx", extractDOCX, c.orElse("docx-chardata", extractDOCXCharData, salvageText))
	case SourceHTML:
		return extractHTML
	case SourceCSV:
		return extractCSV
	case SourceJSON:
		return extractJSON
	case SourceXLSX:
		return c.orElse("xlsx", extractXLSX, salvageText)
	case SourceXLS:
		return c.orElse("xls", extractXLS, salvageText)
	case SourcePDF:
		return c.orElse("pdf", extractPDF, salvageText)
	case SourceFeed:
		return c.orElse("feed", extractFeed, extractText)
	case SourcePPTX:
		return c.orElse("pptx", extractPPTX, salvageText)
	case SourceEPUB:
		return c.orElse("epub", extractEPUB, salvageText)
	case SourceNotebook:
		return c.orElse("ipynb", extractNotebook, extractJSON)
	case SourceText:
		return extractText
	default:
		panic(fmt.Sprintf("docconv: no extractor for source kind %d", kind))
	}
}

// extractText treats the buffer as text. Valid UTF-8 passes through unchanged.
func extractText(data []byte, filename string) (*Document, error) {
	text := decodeText(data, "")
	return &Document{Text: text, HTML: preformatted(text)}, nil
}

// salvageText keeps the longest contiguous run of printable ASCII.
func salvageText(data []byte, filename string) (*Document, error) {
	text := longestPrintableRun(data)
	if text == "" {
		text = "[no readable text could be recovered from " + displayName(filename) + "]"
	}
	return &Document{Text: text, HTML: preformatted(text)}, nil
}

func longestPrintableRun(data []byte) string {
	bestStart, bestLen := 0, 0
	start := -1
	for i := 0; i <= len(data); i++ {
		if i < len(data) && isPrintableASCII(data[i]) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 && i-start > bestLen {
			bestStart, bestLen = start, i-start
		}
		start = -1
	}
	if bestLen == 0 {
		return ""
	}
	return trimSpaceLines(string(data[bestStart : bestStart+bestLen]))
}

func isPrintableASCII(b byte) bool {
	return (b >= 0x20 && b < 0x7F) || b == '\n' || b == '\r' || b == '\t'
}

func preformatted(text string) string {
	return "<pre>" + html.EscapeString(text) + "</pre>"
}
