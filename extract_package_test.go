package docconv

import (
	"context"
	"strings"
	"testing"
)

const (
	nsPresentation = `xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"`
	nsPackageRels  = `xmlns="http://schemas.openxmlformats.org/package/2006/relationships"`
)

func testPPTX(t *testing.T) []byte {
	t.Helper()
	return buildZip(t, map[string]string{
		"ppt/presentation.xml": `<p:presentation ` + nsPresentation + `><p:sldIdLst>` +
			`<p:sldId id="256" r:id="rId3"/><p:sldId id="257" r:id="rId2"/>` +
			`</p:sldIdLst></p:presentation>`,
		"ppt/_rels/presentation.xml.rels": `<Relationships ` + nsPackageRels + `>` +
			`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide1.xml"/>` +
			`<Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide2.xml"/>` +
			`</Relationships>`,
		// First in presentation order; the body shape precedes the title in
		// the document but sits lower on the slide.
		"ppt/slides/slide2.xml": `<p:sld ` + nsPresentation + `><p:cSld><p:spTree>` +
			`<p:sp><p:nvSpPr><p:cNvPr id="3" name="Body"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr>` +
			`<p:spPr><a:xfrm><a:off x="100" y="2000"/></a:xfrm></p:spPr>` +
			`<p:txBody><a:p><a:r><a:t>Revenue </a:t></a:r><a:r><a:t>up</a:t></a:r></a:p><a:p/></p:txBody></p:sp>` +
			`<p:sp><p:nvSpPr><p:cNvPr id="2" name="Title"/><p:cNvSpPr/><p:nvPr><p:ph type="title"/></p:nvPr></p:nvSpPr>` +
			`<p:spPr><a:xfrm><a:off x="100" y="100"/></a:xfrm></p:spPr>` +
			`<p:txBody><a:p><a:r><a:t>Quarterly review</a:t></a:r></a:p></p:txBody></p:sp>` +
			`</p:spTree></p:cSld></p:sld>`,
		"ppt/slides/slide1.xml": `<p:sld ` + nsPresentation + `><p:cSld><p:spTree>` +
			`<p:graphicFrame><p:xfrm><a:off x="0" y="500"/></p:xfrm><a:graphic><a:graphicData><a:tbl>` +
			`<a:tr><a:tc><a:txBody><a:p><a:r><a:t>Region</a:t></a:r></a:p></a:txBody></a:tc>` +
			`<a:tc><a:txBody><a:p><a:r><a:t>Total</a:t></a:r></a:p></a:txBody></a:tc></a:tr>` +
			`<a:tr><a:tc><a:txBody><a:p><a:r><a:t>EU</a:t></a:r></a:p></a:txBody></a:tc>` +
			`<a:tc><a:txBody><a:p><a:r><a:t>42</a:t></a:r></a:p></a:txBody></a:tc></a:tr>` +
			`</a:tbl></a:graphicData></a:graphic></p:graphicFrame>` +
			`</p:spTree></p:cSld></p:sld>`,
		"ppt/slides/_rels/slide1.xml.rels": `<Relationships ` + nsPackageRels + `>` +
			`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/notesSlide" Target="../notesSlides/notesSlide1.xml"/>` +
			`</Relationships>`,
		"ppt/notesSlides/notesSlide1.xml": `<p:notes ` + nsPresentation + `><p:cSld><p:spTree>` +
			`<p:sp><p:nvSpPr><p:cNvPr id="2" name="Number"/><p:cNvSpPr/><p:nvPr><p:ph type="sldNum"/></p:nvPr></p:nvSpPr>` +
			`<p:txBody><a:p><a:r><a:t>1</a:t></a:r></a:p></p:txBody></p:sp>` +
			`<p:sp><p:nvSpPr><p:cNvPr id="3" name="Notes"/><p:cNvSpPr/><p:nvPr><p:ph type="body"/></p:nvPr></p:nvSpPr>` +
			`<p:txBody><a:p><a:r><a:t>Mention churn</a:t></a:r></a:p></p:txBody></p:sp>` +
			`</p:spTree></p:cSld></p:notes>`,
	})
}

func TestExtractPPTX(t *testing.T) {
	doc, err := extractPPTX(testPPTX(t), "deck.pptx")
	if err != nil {
		t.Fatal(err)
	}

	want := "Slide 1\nQuarterly review\nRevenue up\n\nSlide 2\nRegion\tTotal\nEU\t42\nNotes:\nMention churn"
	if doc.Text != want {
		t.Errorf("Text = %q, want %q", doc.Text, want)
	}
	if doc.Title != "Quarterly review" {
		t.Errorf("Title = %q", doc.Title)
	}
	for _, frag := range []string{
		"<h2>Quarterly review</h2>",
		"<p>Revenue up</p>",
		"<th>Region</th><th>Total</th>",
		`<aside class="notes"><p>Mention churn</p></aside>`,
	} {
		if !strings.Contains(doc.HTML, frag) {
			t.Errorf("HTML missing %q:\n%s", frag, doc.HTML)
		}
	}
}

func TestSlidePartsFallsBackToNumberedParts(t *testing.T) {
	data := buildZip(t, map[string]string{
		"ppt/presentation.xml":   `<p:presentation ` + nsPresentation + `/>`,
		"ppt/slides/slide10.xml": `<p:sld ` + nsPresentation + `/>`,
		"ppt/slides/slide2.xml":  `<p:sld ` + nsPresentation + `/>`,
	})
	doc, err := extractPPTX(data, "deck.pptx")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Text != "Slide 1\n\nSlide 2" {
		t.Errorf("Text = %q", doc.Text)
	}
}

func testEPUB(t *testing.T) []byte {
	t.Helper()
	return buildZip(t, map[string]string{
		"mimetype": "application/epub+zip",
		"META-INF/container.xml": `<?xml version="1.0"?>` +
			`<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container"><rootfiles>` +
			`<rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>` +
			`</rootfiles></container>`,
		"OEBPS/content.opf": `<package xmlns="http://www.idpf.org/2007/opf" version="3.0">` +
			`<metadata xmlns:dc="http://purl.org/dc/elements/1.1/">` +
			`<dc:title>Field Notes</dc:title><dc:creator>A. Writer</dc:creator><dc:creator>B. Editor</dc:creator>` +
			`<dc:language>en</dc:language></metadata>` +
			`<manifest><item id="c1" href="text/ch1.xhtml" media-type="application/xhtml+xml"/>` +
			`<item id="c2" href="text/ch2.xhtml" media-type="application/xhtml+xml"/>` +
			`<item id="css" href="style.css" media-type="text/css"/></manifest>` +
			`<spine><itemref idref="c2"/><itemref idref="c1"/><itemref idref="css"/></spine></package>`,
		"OEBPS/text/ch1.xhtml": `<html><body><p>Alpha text</p></body></html>`,
		"OEBPS/text/ch2.xhtml": `<html><head><title>Chapter two</title></head><body><h1>Second</h1><p>Beta text</p></body></html>`,
		"OEBPS/style.css":      `p { color: red }`,
	})
}

func TestExtractEPUB(t *testing.T) {
	doc, err := extractEPUB(testEPUB(t), "book.epub")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Title != "Field Notes" {
		t.Errorf("Title = %q", doc.Title)
	}

	last := -1
	for _, want := range []string{"Field Notes", "Authors: A. Writer, B. Editor", "Language: en", "Second", "Beta text", "Alpha text"} {
		i := strings.Index(doc.Text, want)
		if i <= last {
			t.Fatalf("%q missing or out of order in %q", want, doc.Text)
		}
		last = i
	}
	if strings.Contains(doc.Text, "Chapter two") || strings.Contains(doc.Text, "color") {
		t.Errorf("head or stylesheet leaked into text: %q", doc.Text)
	}
	if strings.Count(doc.HTML, `<section class="chapter">`) != 2 {
		t.Errorf("HTML = %s", doc.HTML)
	}
}

const testNotebook = `{
  "metadata": {"kernelspec": {"language": "python"}},
  "cells": [
    {"cell_type": "markdown", "source": ["# Churn study\n", "Intro text"]},
    {"cell_type": "code", "source": "print(1+1)", "outputs": [{"output_type": "stream", "text": ["2\n"]}]},
    {"cell_type": "code", "source": "x", "outputs": [{"output_type": "execute_result", "data": {"text/plain": "'x'"}}]},
    {"cell_type": "code", "source": [], "outputs": []}
  ]
}`

func TestExtractNotebook(t *testing.T) {
	doc, err := extractNotebook([]byte(testNotebook), "analysis.ipynb")
	if err != nil {
		t.Fatal(err)
	}
	want := "# Churn study\nIntro text\n\nprint(1+1)\n\n2\n\nx\n\n'x'"
	if doc.Text != want {
		t.Errorf("Text = %q, want %q", doc.Text, want)
	}
	if doc.Title != "Churn study" {
		t.Errorf("Title = %q", doc.Title)
	}
	for _, frag := range []string{`<code class="language-python">print(1+1)</code>`, `<pre class="output">2</pre>`} {
		if !strings.Contains(doc.HTML, frag) {
			t.Errorf("HTML missing %q:\n%s", frag, doc.HTML)
		}
	}
}

func TestPackageSalvage(t *testing.T) {
	c := newTestConverter()
	tests := []struct {
		filename string
		data     string
		want     string
	}{
		{"deck.pptx", "\x00\x01not a zip at all\x02", "not a zip at all"},
		{"book.epub", "\x00\x01plain bytes here\x02", "plain bytes here"},
		{"bad.ipynb", `{"cells": oops}`, `{"cells": oops}`},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			doc := c.Extract(context.Background(), Input{Data: []byte(tt.data), Filename: tt.filename})
			if doc.Text != tt.want {
				t.Errorf("Text = %q, want %q", doc.Text, tt.want)
			}
		})
	}
}
