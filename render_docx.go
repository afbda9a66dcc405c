package docconv

import (
	"bytes"
	"strings"

	"github.com/nicholasgasior/docconv-go/internal/ooxml"
)

var (
	docxSubjectRun = &ooxml.RunProps{Bold: &struct{}{}, Size: &ooxml.Val{Val: "32"}}
	docxHeaderRun  = &ooxml.RunProps{Color: &ooxml.Val{Val: "555555"}, Size: &ooxml.Val{Val: "20"}}
)

// renderDOCX writes a single-section word-processing document with one
// paragraph per line of text.
func (c *Converter) renderDOCX(doc *Document) ([]byte, error) {
	w := ooxml.NewWordDocument(c.pageSize)

	body := doc.Text
	if m := doc.Email; m != nil {
		w.AddText(m.Subject, docxSubjectRun)
		for _, f := range m.headerFields()[1:] {
			w.AddText(f.Label+": "+f.Value, docxHeaderRun)
		}
		w.AddRule()
		body = m.Body
	}

	for _, line := range strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n") {
		w.AddText(line, nil)
	}

	var buf bytes.Buffer
	if err := ooxml.WritePackage(&buf, w, doc.Title, "docconv"); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
