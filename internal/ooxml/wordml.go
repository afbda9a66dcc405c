package ooxml

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Page dimensions in twentieths of a point.
var pageSizes = map[string][2]int{
	"A3":     {16838, 23811},
	"A4":     {11906, 16838},
	"A5":     {8391, 11906},
	"LETTER": {12240, 15840},
	"LEGAL":  {12240, 20160},
}

// WordDocument is the word/document.xml part. Element names carry the w:
// prefix literally so the marshalled output matches what Word writes.
type WordDocument struct {
	XMLName xml.Name `xml:"w:document"`
	W       string   `xml:"xmlns:w,attr"`
	R       string   `xml:"xmlns:r,attr"`
	Body    Body     `xml:"w:body"`
}

// Body holds the paragraphs of the single section.
type Body struct {
	Paragraphs []Paragraph  `xml:"w:p"`
	Section    SectionProps `xml:"w:sectPr"`
}

type Paragraph struct {
	Props *ParagraphProps `xml:"w:pPr,omitempty"`
	Runs  []Run           `xml:"w:r"`
}

// ParagraphProps children are declared in schema order.
type ParagraphProps struct {
	Border  *ParagraphBorder `xml:"w:pBdr,omitempty"`
	Spacing *Spacing         `xml:"w:spacing,omitempty"`
}

type ParagraphBorder struct {
	Bottom Border `xml:"w:bottom"`
}

type Border struct {
	Val   string `xml:"w:val,attr"`
	Size  int    `xml:"w:sz,attr"`
	Space int    `xml:"w:space,attr"`
	Color string `xml:"w:color,attr"`
}

type Spacing struct {
	After int `xml:"w:after,attr"`
}

type Run struct {
	Props *RunProps `xml:"w:rPr,omitempty"`
	Text  Text      `xml:"w:t"`
}

// RunProps children are declared in schema order.
type RunProps struct {
	Bold  *struct{} `xml:"w:b,omitempty"`
	Color *Val      `xml:"w:color,omitempty"`
	Size  *Val      `xml:"w:sz,omitempty"`
}

type Val struct {
	Val string `xml:"w:val,attr"`
}

type Text struct {
	Space string `xml:"xml:space,attr,omitempty"`
	Value string `xml:",chardata"`
}

type SectionProps struct {
	PageSize   PageSize   `xml:"w:pgSz"`
	PageMargin PageMargin `xml:"w:pgMar"`
}

type PageSize struct {
	W int `xml:"w:w,attr"`
	H int `xml:"w:h,attr"`
}

type PageMargin struct {
	Top    int `xml:"w:top,attr"`
	Right  int `xml:"w:right,attr"`
	Bottom int `xml:"w:bottom,attr"`
	Left   int `xml:"w:left,attr"`
	Header int `xml:"w:header,attr"`
	Footer int `xml:"w:footer,attr"`
	Gutter int `xml:"w:gutter,attr"`
}

// NewWordDocument returns an empty document with one section of the named
// page size (A3, A4, A5, Letter or Legal; unknown names fall back to A4) and one-inch
// margins.
func NewWordDocument(pageSize string) *WordDocument {
	dims, ok := pageSizes[strings.ToUpper(pageSize)]
	if !ok {
		dims = pageSizes["A4"]
	}
	return &WordDocument{
		W: NSWordprocessingML,
		R: NSRelDoc,
		Body: Body{
			Section: SectionProps{
				PageSize: PageSize{W: dims[0], H: dims[1]},
				PageMargin: PageMargin{
					Top: 1440, Right: 1440, Bottom: 1440, Left: 1440,
					Header: 708, Footer: 708,
				},
			},
		},
	}
}

// TextRun returns a run that preserves leading and trailing spaces.
func TextRun(text string, props *RunProps) Run {
	return Run{Props: props, Text: Text{Space: "preserve", Value: text}}
}

// Add appends a paragraph.
func (d *WordDocument) Add(p Paragraph) {
	d.Body.Paragraphs = append(d.Body.Paragraphs, p)
}

// AddText appends a paragraph holding a single run. Empty text produces an
// empty paragraph.
func (d *WordDocument) AddText(text string, props *RunProps) {
	if text == "" {
		d.Add(Paragraph{})
		return
	}
	d.Add(Paragraph{Runs: []Run{TextRun(text, props)}})
}

// AddRule appends an empty paragraph with a bottom border.
func (d *WordDocument) AddRule() {
	d.Add(Paragraph{Props: &ParagraphProps{
		Border:  &ParagraphBorder{Bottom: Border{Val: "single", Size: 6, Space: 1, Color: "999999"}},
		Spacing: &Spacing{After: 240},
	}})
}

type contentTypes struct {
	XMLName   xml.Name     `xml:"Types"`
	Xmlns     string       `xml:"xmlns,attr"`
	Defaults  []ctDefault  `xml:"Default"`
	Overrides []ctOverride `xml:"Override"`
}

type ctDefault struct {
	Extension   string `xml:"Extension,attr"`
	ContentType string `xml:"ContentType,attr"`
}

type ctOverride struct {
	PartName    string `xml:"PartName,attr"`
	ContentType string `xml:"ContentType,attr"`
}

type coreProperties struct {
	XMLName xml.Name `xml:"cp:coreProperties"`
	CP      string   `xml:"xmlns:cp,attr"`
	DC      string   `xml:"xmlns:dc,attr"`
	Title   string   `xml:"dc:title"`
	Creator string   `xml:"dc:creator"`
}

// WritePackage writes a complete .docx package holding doc to w.
func WritePackage(w io.Writer, doc *WordDocument, title, creator string) error {
	zw := zip.NewWriter(w)

	parts := []struct {
		name string
		v    any
	}{
		{"[Content_Types].xml", contentTypes{
			Xmlns: NSContentTypes,
			Defaults: []ctDefault{
				{Extension: "rels", ContentType: ContentTypeRels},
				{Extension: "xml", ContentType: "application/xml"},
			},
			Overrides: []ctOverride{
				{PartName: "/word/document.xml", ContentType: ContentTypeDocument},
				{PartName: "/docProps/core.xml", ContentType: ContentTypeCore},
			},
		}},
		{"_rels/.rels", Relationships{
			Xmlns: NSRelationships,
			Relationships: []Relationship{
				{ID: "rId1", Type: RelOfficeDocument, Target: "word/document.xml"},
				{ID: "rId2", Type: RelCoreProperties, Target: "docProps/core.xml"},
			},
		}},
		{"word/document.xml", doc},
		{"word/_rels/document.xml.rels", Relationships{Xmlns: NSRelationships}},
		{"docProps/core.xml", coreProperties{
			CP:      NSCoreProperties,
			DC:      NSDublinCore,
			Title:   title,
			Creator: creator,
		}},
	}

	for _, p := range parts {
		if err := writeXMLPart(zw, p.name, p.v); err != nil {
			return err
		}
	}
	return zw.Close()
}

func writeXMLPart(zw *zip.Writer, name string, v any) error {
	fw, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := io.WriteString(fw, xml.Header); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := xml.NewEncoder(fw).Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return nil
}
