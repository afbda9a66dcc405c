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
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"net/url"
	"strings"

	"github.com/nicholasgasior/docconv-go/internal/ooxml"
)

// docxStyle is a named paragraph style from word/styles.xml.
type docxStyle struct {
	name string
}

// docxState tracks the walker's position inside document.xml.
type docxState struct {
	inRun       bool
	inText      bool
	inTableCell bool
	inList      bool
	bold        bool
	italic      bool
	strike      bool
	styleID     string
	listNumID   string
	hyperRef    string
}

// docxWalker accumulates the HTML and text views of a DOCX body.
type docxWalker struct {
	rels   map[string]ooxml.Relationship
	styles map[string]docxStyle

	s        docxState
	textBuf  strings.Builder
	paraHTML strings.Builder
	paraText strings.Builder

	cellHTML strings.Builder
	cellText strings.Builder
	rowHTML  []string
	rowText  []string
	rowsHTML [][]string
	rowsText [][]string

	blocks   []string
	lines    []string
	listOpen bool
	title    string
}

// extractDOCX walks word/document.xml and produces HTML (headings, lists,
// tables, bold/italic/strike, hyperlinks) and paragraph text.
func extractDOCX(data []byte, filename string) (*Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open DOCX ZIP: %w", err)
	}

	docData, err := ooxml.ReadFileFromZip(zr, "word/document.xml")
	if err != nil {
		return nil, fmt.Errorf("read document.xml: %w", err)
	}

	rels, _ := ooxml.ParseRelationshipsFromReader(zr, "word/_rels/document.xml.rels")
	w := &docxWalker{
		rels:   rels,
		styles: parseDOCXStyles(zr),
	}
	if err := w.walk(docData); err != nil {
		return nil, fmt.Errorf("parse document.xml: %w", err)
	}

	return &Document{
		Text:  strings.Join(w.lines, "\n"),
		HTML:  strings.Join(w.blocks, "\n"),
		Title: w.title,
	}, nil
}

// extractDOCXCharData keeps every character-data run of document.xml, one
// line per paragraph, for documents the structured walker rejects.
func extractDOCXCharData(data []byte, filename string) (*Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open DOCX ZIP: %w", err)
	}
	docData, err := ooxml.ReadFileFromZip(zr, "word/document.xml")
	if err != nil {
		return nil, fmt.Errorf("read document.xml: %w", err)
	}

	decoder := xml.NewDecoder(bytes.NewReader(docData))
	decoder.Strict = false
	var b strings.Builder
	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.EndElement:
			if t.Name.Local == "p" {
				b.WriteString("\n")
			}
		}
	}

	text := trimSpaceLines(b.String())
	if text == "" {
		return nil, fmt.Errorf("document.xml has no character data")
	}
	return &Document{Text: text}, nil
}

func parseDOCXStyles(zr *zip.Reader) map[string]docxStyle {
	styles := make(map[string]docxStyle)
	data, err := ooxml.ReadFileFromZip(zr, "word/styles.xml")
	if err != nil {
		return styles
	}

	decoder := xml.NewDecoder(bytes.NewReader(data))
	var currentID string
	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "style":
				currentID = attrValue(t, "styleId")
			case "name":
				if currentID != "" {
					styles[currentID] = docxStyle{name: attrValue(t, "val")}
				}
			}
		case xml.EndElement:
			if t.Name.Local == "style" {
				currentID = ""
			}
		}
	}
	return styles
}

func (w *docxWalker) walk(docData []byte) error {
	decoder := xml.NewDecoder(bytes.NewReader(docData))
	for {
		tok, err := decoder.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			w.start(t, decoder)
		case xml.CharData:
			if w.s.inText {
				w.textBuf.Write(t)
			}
		case xml.EndElement:
			w.end(t)
		}
	}
	w.closeList()
	return nil
}

func (w *docxWalker) start(t xml.StartElement, decoder *xml.Decoder) {
	switch t.Name.Local {
	case "p":
		if w.s.inTableCell && w.cellText.Len() > 0 {
			w.cellHTML.WriteString("<br/>")
			w.cellText.WriteString(" ")
		}
		w.paraHTML.Reset()
		w.paraText.Reset()
		w.s.styleID = ""
		w.s.listNumID = ""
		w.s.inList = false

	case "pStyle":
		w.s.styleID = attrValue(t, "val")

	case "numPr":
		w.s.inList = true

	case "numId":
		w.s.listNumID = attrValue(t, "val")

	case "r":
		w.s.inRun = true
		w.s.bold, w.s.italic, w.s.strike = false, false, false

	case "b":
		w.s.bold = attrValue(t, "val") != "0"

	case "i":
		w.s.italic = attrValue(t, "val") != "0"

	case "strike":
		w.s.strike = attrValue(t, "val") != "0"

	case "t":
		w.s.inText = true
		w.textBuf.Reset()

	case "tab":
		if w.s.inRun {
			w.write("\t", "\t")
		}

	case "br", "cr":
		if w.s.inRun {
			w.write("<br/>", "\n")
		}

	case "hyperlink":
		for _, attr := range t.Attr {
			if attr.Name.Space == ooxml.NSRelDoc && attr.Name.Local == "id" {
				if rel, ok := w.rels[attr.Value]; ok {
					w.s.hyperRef = linkTarget(rel.Target)
				}
			}
		}

	case "tbl":
		w.closeList()
		w.rowsHTML, w.rowsText = nil, nil

	case "tr":
		w.rowHTML, w.rowText = nil, nil

	case "tc":
		w.s.inTableCell = true
		w.cellHTML.Reset()
		w.cellText.Reset()

	case "drawing", "pict":
		if alt := skipDrawing(decoder); alt != "" {
			w.write("["+html.EscapeString(alt)+"]", "["+alt+"]")
		}
	}
}

func (w *docxWalker) end(t xml.EndElement) {
	switch t.Name.Local {
	case "t":
		if !w.s.inText {
			return
		}
		w.s.inText = false
		text := w.textBuf.String()
		markup := html.EscapeString(text)
		if w.s.bold {
			markup = "<b>" + markup + "</b>"
		}
		if w.s.italic {
			markup = "<i>" + markup + "</i>"
		}
		if w.s.strike {
			markup = "<s>" + markup + "</s>"
		}
		if w.s.hyperRef != "" {
			markup = `<a href="` + html.EscapeString(w.s.hyperRef) + `">` + markup + "</a>"
		}
		w.write(markup, text)

	case "r":
		w.s.inRun = false

	case "hyperlink":
		w.s.hyperRef = ""

	case "p":
		w.endParagraph()

	case "tc":
		w.rowHTML = append(w.rowHTML, w.cellHTML.String())
		w.rowText = append(w.rowText, strings.TrimSpace(w.cellText.String()))
		w.s.inTableCell = false

	case "tr":
		w.rowsHTML = append(w.rowsHTML, w.rowHTML)
		w.rowsText = append(w.rowsText, w.rowText)

	case "tbl":
		w.endTable()
	}
}

// write appends to the current cell or paragraph.
func (w *docxWalker) write(markup, text string) {
	if w.s.inTableCell {
		w.cellHTML.WriteString(markup)
		w.cellText.WriteString(text)
		return
	}
	w.paraHTML.WriteString(markup)
	w.paraText.WriteString(text)
}

func (w *docxWalker) endParagraph() {
	if w.s.inTableCell {
		return
	}

	markup := w.paraHTML.String()
	text := w.paraText.String()

	level := headingLevel(w.s.styleID, w.styles)
	isItem := w.s.inList && w.s.listNumID != "" && w.s.listNumID != "0"
	if !isItem {
		w.closeList()
	}

	switch {
	case level > 0:
		tag := fmt.Sprintf("h%d", level)
		w.blocks = append(w.blocks, "<"+tag+">"+markup+"</"+tag+">")
		if w.title == "" {
			w.title = strings.TrimSpace(text)
		}
	case isItem:
		if !w.listOpen {
			w.blocks = append(w.blocks, "<ul>")
			w.listOpen = true
		}
		w.blocks = append(w.blocks, "<li>"+markup+"</li>")
		text = "- " + text
	case markup != "":
		w.blocks = append(w.blocks, "<p>"+markup+"</p>")
	}
	w.lines = append(w.lines, text)
}

func (w *docxWalker) closeList() {
	if w.listOpen {
		w.blocks = append(w.blocks, "</ul>")
		w.listOpen = false
	}
}

func (w *docxWalker) endTable() {
	if len(w.rowsHTML) == 0 {
		return
	}
	var b strings.Builder
	b.WriteString("<table>")
	for i, row := range w.rowsHTML {
		tag := "td"
		if i == 0 {
			tag = "th"
		}
		b.WriteString("<tr>")
		for _, cell := range row {
			b.WriteString("<" + tag + ">" + cell + "</" + tag + ">")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</table>")
	w.blocks = append(w.blocks, b.String())
	w.lines = append(w.lines, strings.TrimRight(renderTextTable(w.rowsText), "\n"))
}

// headingLevel returns the heading level (1-6) for a style, or 0 if not a heading.
func headingLevel(styleID string, styles map[string]docxStyle) int {
	if styleID == "" {
		return 0
	}
	names := []string{strings.ToLower(styleID)}
	if st, ok := styles[styleID]; ok {
		names = append(names, strings.ToLower(st.name))
	}
	for _, name := range names {
		if name == "title" {
			return 1
		}
		for i := 1; i <= 6; i++ {
			if name == fmt.Sprintf("heading%d", i) || name == fmt.Sprintf("heading %d", i) {
				return i
			}
		}
	}
	return 0
}

// skipDrawing consumes a drawing or pict element and returns its alt text.
func skipDrawing(decoder *xml.Decoder) string {
	depth := 1
	var alt string
	for depth > 0 {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if t.Name.Local == "docPr" {
				alt = attrValue(t, "descr")
			}
		case xml.EndElement:
			depth--
		}
	}
	return alt
}

func attrValue(t xml.StartElement, local string) string {
	for _, attr := range t.Attr {
		if attr.Name.Local == local {
			return attr.Value
		}
	}
	return ""
}

// linkTarget returns target when it is a web or mail link, and "" for any
// other scheme or a relative target.
func linkTarget(target string) string {
	target = strings.TrimSpace(target)
	u, err := url.Parse(target)
	if err != nil {
		return ""
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "mailto":
		return target
	}
	return ""
}
