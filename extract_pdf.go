package docconv

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDF reads the text layer page by page.
func extractPDF(data []byte, filename string) (*Document, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}

	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		if text := strings.TrimSpace(pageText(page)); text != "" {
			pages = append(pages, text)
		}
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("PDF has no text layer")
	}

	var markup strings.Builder
	for _, p := range pages {
		markup.WriteString(`<div class="page">`)
		markup.WriteString(preformatted(p))
		markup.WriteString(`</div>`)
	}
	return &Document{
		Text: strings.Join(pages, "\n\n"),
		HTML: markup.String(),
	}, nil
}

// pageText orders the page's glyph runs top to bottom, left to right, and
// starts a new line whenever the baseline moves.
func pageText(page pdf.Page) string {
	content := page.Content()
	texts := content.Text
	if len(texts) == 0 {
		return ""
	}
	sort.SliceStable(texts, func(i, j int) bool {
		if abs(texts[i].Y-texts[j].Y) > 2 {
			return texts[i].Y > texts[j].Y
		}
		return texts[i].X < texts[j].X
	})

	var b strings.Builder
	lastY := texts[0].Y
	lastEnd := texts[0].X
	for i, t := range texts {
		switch {
		case i == 0:
		case abs(t.Y-lastY) > 2:
			b.WriteString("\n")
		case t.X-lastEnd > t.FontSize*0.25:
			b.WriteString(" ")
		}
		b.WriteString(t.S)
		lastY = t.Y
		lastEnd = t.X + t.W
	}
	return b.String()
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
