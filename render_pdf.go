package docconv

import (
	"bytes"
	"strings"

	"github.com/go-pdf/fpdf"
)

const (
	pdfFont     = "body"
	pdfMargin   = 20.0
	pdfBodySize = 10.5
	pdfLineH    = 5.0
)

// renderPDF lays out the document on pages of the configured size. Emails
// get a shaded header panel and a rule above the body.
func (c *Converter) renderPDF(doc *Document) ([]byte, error) {
	pdf := fpdf.New("P", "mm", pdfPageSize(c.pageSize), "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.AddUTF8FontFromBytes(pdfFont, "", c.fonts.regular)
	pdf.AddUTF8FontFromBytes(pdfFont, "B", c.fonts.bold)
	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator("docconv", true)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	width := pageW - 2*pdfMargin

	body := doc.Text
	if doc.Email != nil {
		writePDFEmailHeader(pdf, doc.Email, width)
		body = doc.Email.Body
	}

	pdf.SetFont(pdfFont, "", pdfBodySize)
	pdf.SetTextColor(0, 0, 0)
	pdf.MultiCell(width, pdfLineH, pdfText(body), "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writePDFEmailHeader(pdf *fpdf.Fpdf, m *EmailMetadata, width float64) {
	pdf.SetFillColor(242, 242, 242)
	pdf.SetFont(pdfFont, "B", 14)
	pdf.MultiCell(width, 8, pdfText(m.Subject), "", "L", true)

	pdf.SetFont(pdfFont, "", 9.5)
	pdf.SetTextColor(85, 85, 85)
	for _, f := range m.headerFields()[1:] {
		pdf.MultiCell(width, pdfLineH, pdfText(f.Label+": "+f.Value), "", "L", true)
	}
	pdf.SetTextColor(0, 0, 0)

	pdf.Ln(3)
	y := pdf.GetY()
	pdf.SetDrawColor(153, 153, 153)
	pdf.SetLineWidth(0.3)
	pdf.Line(pdfMargin, y, pdfMargin+width, y)
	pdf.Ln(5)
}

// pdfText expands tabs, which the layout engine has no glyph for.
func pdfText(s string) string {
	return strings.ReplaceAll(s, "\t", "    ")
}

func pdfPageSize(size string) string {
	switch strings.ToLower(size) {
	case "a3", "a5", "letter", "legal":
		return size
	default:
		return "A4"
	}
}
