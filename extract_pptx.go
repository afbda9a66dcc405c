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
	"math"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/nicholasgasior/docconv-go/internal/ooxml"
)

const presentationPart = "ppt/presentation.xml"

// slideShape is one positioned element of a slide.
type slideShape struct {
	top, left int64
	title     bool
	lines     []string
	table     [][]string
	alt       string
}

// extractPPTX lays out slides in presentation order, shapes top to bottom,
// followed by the speaker notes of each slide.
func extractPPTX(data []byte, filename string) (*Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pptx: %w", err)
	}

	parts, err := slideParts(zr)
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		return nil, errors.New("pptx has no slides")
	}

	var text, markup strings.Builder
	var title string
	for i, part := range parts {
		raw, err := ooxml.ReadFileFromZip(zr, part)
		if err != nil {
			continue
		}

		fmt.Fprintf(&text, "Slide %d\n", i+1)
		fmt.Fprintf(&markup, `<section class="slide"><p class="slide-number">Slide %d</p>`, i+1)

		for _, sh := range slideShapes(raw) {
			switch {
			case sh.table != nil:
				text.WriteString(renderTextTable(sh.table))
				markup.WriteString(renderHTMLTable(sh.table))
			case sh.alt != "":
				fmt.Fprintf(&text, "[%s]\n", sh.alt)
				fmt.Fprintf(&markup, "<p>[%s]</p>", html.EscapeString(sh.alt))
			case sh.title:
				heading := strings.Join(sh.lines, " ")
				if title == "" {
					title = heading
				}
				text.WriteString(heading + "\n")
				markup.WriteString("<h2>" + html.EscapeString(heading) + "</h2>")
			default:
				for _, line := range sh.lines {
					text.WriteString(line + "\n")
					markup.WriteString("<p>" + html.EscapeString(line) + "</p>")
				}
			}
		}

		if notes := slideNotes(zr, part); len(notes) > 0 {
			text.WriteString("Notes:\n")
			markup.WriteString(`<aside class="notes">`)
			for _, line := range notes {
				text.WriteString(line + "\n")
				markup.WriteString("<p>" + html.EscapeString(line) + "</p>")
			}
			markup.WriteString("</aside>")
		}

		text.WriteString("\n")
		markup.WriteString("</section>")
	}

	return &Document{
		Text:  strings.TrimSpace(text.String()),
		HTML:  markup.String(),
		Title: title,
	}, nil
}

// slideParts returns slide part names in presentation order. Packages
// without a readable slide list fall back to the numbered slide parts.
func slideParts(zr *zip.Reader) ([]string, error) {
	pres, err := ooxml.ReadFileFromZip(zr, presentationPart)
	if err != nil {
		return nil, fmt.Errorf("read presentation: %w", err)
	}
	rels, err := ooxml.ParseRelationshipsFromReader(zr, ooxml.RelsPathFor(presentationPart))
	if err != nil {
		return nil, err
	}

	var parts []string
	dec := xml.NewDecoder(bytes.NewReader(pres))
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "sldId" {
			continue
		}
		for _, a := range se.Attr {
			if a.Name.Local == "id" && a.Name.Space == ooxml.NSRelDoc {
				if rel, ok := rels[a.Value]; ok {
					parts = append(parts, ooxml.ResolveTarget(presentationPart, rel.Target))
				}
			}
		}
	}
	if len(parts) > 0 {
		return parts, nil
	}

	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, "ppt/slides/slide") && path.Ext(f.Name) == ".xml" {
			parts = append(parts, f.Name)
		}
	}
	sort.Slice(parts, func(i, j int) bool {
		return slideNumber(parts[i]) < slideNumber(parts[j])
	})
	return parts, nil
}

func slideNumber(part string) int {
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(path.Base(part), "slide"), ".xml"))
	if err != nil {
		return math.MaxInt
	}
	return n
}

func slideShapes(raw []byte) []slideShape {
	var root xmlNode
	if err := xml.Unmarshal(raw, &root); err != nil {
		return nil
	}
	var shapes []slideShape
	collectShapes(&root, &shapes)
	sort.SliceStable(shapes, func(i, j int) bool {
		if shapes[i].top != shapes[j].top {
			return shapes[i].top < shapes[j].top
		}
		return shapes[i].left < shapes[j].left
	})
	return shapes
}

func collectShapes(n *xmlNode, shapes *[]slideShape) {
	switch n.XMLName.Local {
	case "sp":
		sh := slideShape{lines: textBodyLines(n.child("txBody"))}
		if len(sh.lines) == 0 {
			return
		}
		switch n.child("nvSpPr").child("nvPr").child("ph").attr("type") {
		case "title", "ctrTitle":
			sh.title = true
		}
		shapePosition(n, &sh)
		*shapes = append(*shapes, sh)
		return
	case "pic":
		sh := slideShape{alt: collapseWhitespace(n.child("nvPicPr").child("cNvPr").attr("descr"))}
		if sh.alt == "" {
			return
		}
		shapePosition(n, &sh)
		*shapes = append(*shapes, sh)
		return
	case "graphicFrame":
		tbl := n.descendant("tbl")
		if tbl == nil {
			return
		}
		sh := slideShape{table: slideTable(tbl)}
		if len(sh.table) == 0 {
			return
		}
		shapePosition(n, &sh)
		*shapes = append(*shapes, sh)
		return
	}
	for i := range n.Children {
		collectShapes(&n.Children[i], shapes)
	}
}

// shapePosition reads the offset from spPr/xfrm, or xfrm directly for
// graphic frames. Unpositioned shapes sort last.
func shapePosition(n *xmlNode, sh *slideShape) {
	sh.top, sh.left = math.MaxInt64, math.MaxInt64
	xfrm := n.child("spPr").child("xfrm")
	if xfrm == nil {
		xfrm = n.child("xfrm")
	}
	off := xfrm.child("off")
	if v, err := strconv.ParseInt(off.attr("y"), 10, 64); err == nil {
		sh.top = v
	}
	if v, err := strconv.ParseInt(off.attr("x"), 10, 64); err == nil {
		sh.left = v
	}
}

// textBodyLines returns one line per non-empty a:p of a text body.
func textBodyLines(body *xmlNode) []string {
	if body == nil {
		return nil
	}
	var lines []string
	for _, p := range body.children("p") {
		var b strings.Builder
		for _, t := range p.descendants("t") {
			b.WriteString(t.Content)
		}
		if line := strings.TrimSpace(b.String()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func slideTable(tbl *xmlNode) [][]string {
	var rows [][]string
	for _, tr := range tbl.children("tr") {
		var row []string
		for _, tc := range tr.children("tc") {
			row = append(row, strings.Join(textBodyLines(tc.child("txBody")), " "))
		}
		rows = append(rows, row)
	}
	return rows
}

// slideNotes returns the speaker-notes lines of a slide, without the slide
// image, number, header, footer and date placeholders.
func slideNotes(zr *zip.Reader, slidePart string) []string {
	rels, err := ooxml.ParseRelationshipsFromReader(zr, ooxml.RelsPathFor(slidePart))
	if err != nil {
		return nil
	}
	for _, rel := range rels {
		if rel.Type != ooxml.RelNotesSlide {
			continue
		}
		raw, err := ooxml.ReadFileFromZip(zr, ooxml.ResolveTarget(slidePart, rel.Target))
		if err != nil {
			return nil
		}
		var root xmlNode
		if err := xml.Unmarshal(raw, &root); err != nil {
			return nil
		}
		var lines []string
		for _, sp := range root.descendants("sp") {
			switch sp.child("nvSpPr").child("nvPr").child("ph").attr("type") {
			case "sldNum", "sldImg", "hdr", "ftr", "dt":
				continue
			}
			lines = append(lines, textBodyLines(sp.child("txBody"))...)
		}
		return lines
	}
	return nil
}

// xmlNode is a generic element tree. Lookups on a nil node return nil so
// optional paths can be chained.
type xmlNode struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []xmlNode  `xml:",any"`
	Content  string     `xml:",chardata"`
}

func (n *xmlNode) attr(local string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attrs {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func (n *xmlNode) child(local string) *xmlNode {
	if n == nil {
		return nil
	}
	for i := range n.Children {
		if n.Children[i].XMLName.Local == local {
			return &n.Children[i]
		}
	}
	return nil
}

func (n *xmlNode) children(local string) []*xmlNode {
	if n == nil {
		return nil
	}
	var out []*xmlNode
	for i := range n.Children {
		if n.Children[i].XMLName.Local == local {
			out = append(out, &n.Children[i])
		}
	}
	return out
}

func (n *xmlNode) descendant(local string) *xmlNode {
	if n == nil {
		return nil
	}
	for i := range n.Children {
		if n.Children[i].XMLName.Local == local {
			return &n.Children[i]
		}
		if found := n.Children[i].descendant(local); found != nil {
			return found
		}
	}
	return nil
}

func (n *xmlNode) descendants(local string) []*xmlNode {
	if n == nil {
		return nil
	}
	var out []*xmlNode
	for i := range n.Children {
		if n.Children[i].XMLName.Local == local {
			out = append(out, &n.Children[i])
		}
		out = append(out, n.Children[i].descendants(local)...)
	}
	return out
}
