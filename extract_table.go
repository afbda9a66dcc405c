package docconv

import (
	"bytes"
	"encoding/json"
	"html"
	"strings"
)

// extractCSV splits on newlines and then on commas. Quoted fields are not
// interpreted; a comma inside quotes still separates cells.
func extractCSV(data []byte, filename string) (*Document, error) {
	text := decodeText(data, "")
	rows := splitCSV(text)
	return &Document{
		Text: text,
		HTML: renderHTMLTable(rows),
	}, nil
}

func splitCSV(text string) [][]string {
	text = strings.TrimRight(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	rows := make([][]string, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, strings.Split(strings.TrimSuffix(line, "\r"), ","))
	}
	return rows
}

// renderHTMLTable renders rows as an HTML table with the first row as header.
// Short rows are padded to the header width.
func renderHTMLTable(rows [][]string) string {
	if len(rows) == 0 {
		return "<table></table>"
	}
	numCols := len(rows[0])

	var b strings.Builder
	b.WriteString("<table>")
	for i, row := range rows {
		tag := "td"
		if i == 0 {
			tag = "th"
		}
		b.WriteString("<tr>")
		for col := 0; col < max(numCols, len(row)); col++ {
			cell := ""
			if col < len(row) {
				cell = strings.TrimSpace(row[col])
			}
			b.WriteString("<" + tag + ">" + html.EscapeString(cell) + "</" + tag + ">")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</table>")
	return b.String()
}

// renderTextTable renders rows as tab-separated lines.
func renderTextTable(rows [][]string) string {
	var b strings.Builder
	for _, row := range rows {
		b.WriteString(strings.Join(row, "\t"))
		b.WriteString("\n")
	}
	return b.String()
}

// extractJSON re-indents valid JSON; invalid JSON passes through raw.
func extractJSON(data []byte, filename string) (*Document, error) {
	raw := decodeText(data, "")
	text := raw

	var out bytes.Buffer
	if err := json.Indent(&out, []byte(raw), "", "  "); err == nil {
		text = out.String()
	}
	return &Document{Text: text, HTML: preformatted(text)}, nil
}
