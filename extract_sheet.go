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
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

type sheet struct {
	name string
	rows [][]string
}

// extractXLSX reads every sheet of an Office Open XML workbook.
func extractXLSX(data []byte, filename string) (*Document, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open XLSX: %w", err)
	}
	defer f.Close()

	var sheets []sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil || len(rows) == 0 {
			continue
		}
		sheets = append(sheets, sheet{name: name, rows: rows})
	}
	return sheetsDocument(sheets), nil
}

// extractXLS reads every sheet of a legacy BIFF workbook from memory.
func extractXLS(data []byte, filename string) (*Document, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open XLS: %w", err)
	}

	var sheets []sheet
	for i := 0; i < wb.NumSheets(); i++ {
		ws := wb.GetSheet(i)
		if ws == nil {
			continue
		}
		name := ws.Name
		if name == "" {
			name = fmt.Sprintf("Sheet%d", i+1)
		}

		var rows [][]string
		for r := 0; r <= int(ws.MaxRow); r++ {
			row := ws.Row(r)
			if row == nil {
				continue
			}
			cells := make([]string, 0, row.LastCol())
			for col := 0; col < row.LastCol(); col++ {
				cells = append(cells, row.Col(col))
			}
			rows = append(rows, cells)
		}
		if len(rows) > 0 {
			sheets = append(sheets, sheet{name: name, rows: rows})
		}
	}
	return sheetsDocument(sheets), nil
}

// sheetsDocument lays out sheets as titled sections: tab-separated text and
// one HTML table per sheet.
func sheetsDocument(sheets []sheet) *Document {
	var text, markup strings.Builder
	for i, s := range sheets {
		if i > 0 {
			text.WriteString("\n")
		}
		fmt.Fprintf(&text, "%s\n\n", s.name)
		text.WriteString(renderTextTable(s.rows))

		fmt.Fprintf(&markup, "<h2>%s</h2>", html.EscapeString(s.name))
		markup.WriteString(renderHTMLTable(s.rows))
	}
	doc := &Document{Text: strings.TrimRight(text.String(), "\n"), HTML: markup.String()}
	if len(sheets) > 0 {
		doc.Title = sheets[0].name
	}
	return doc
}
