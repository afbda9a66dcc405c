package docconv

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/japanese"
)

func TestSourceKindFor(t *testing.T) {
	tests := []struct {
		filename string
		want     SourceKind
	}{
		{"mail.MSG", SourceMSG},
		{"mail.eml", SourceEML},
		{"doc.docx", SourceDOCX},
		{"page.htm", SourceHTML},
		{"page.html", SourceHTML},
		{"t.csv", SourceCSV},
		{"d.json", SourceJSON},
		{"book.xlsx", SourceXLSX},
		{"book.xls", SourceXLS},
		{"paper.pdf", SourcePDF},
		{"news.rss", SourceFeed},
		{"news.atom", SourceFeed},
		{"deck.pptx", SourcePPTX},
		{"book.EPUB", SourceEPUB},
		{"analysis.ipynb", SourceNotebook},
		{"notes.txt", SourceText},
		{"notes.md", SourceText},
		{"noext", SourceText},
		{"", SourceText},
	}
	for _, tt := range tests {
		if got := SourceKindFor(tt.filename); got != tt.want {
			t.Errorf("SourceKindFor(%q) = %s, want %s", tt.filename, got, tt.want)
		}
	}
}

func TestEveryKindHasExtractor(t *testing.T) {
	c := newTestConverter()
	for k := range sourceKindNames {
		if c.extractorFor(SourceKind(k)) == nil {
			t.Errorf("no extractor for %s", SourceKind(k))
		}
	}
}

func TestExtractDOCX(t *testing.T) {
	styles := `<?xml version="1.0"?><w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		`<w:style w:type="paragraph" w:styleId="Berschrift1"><w:name w:val="heading 1"/></w:style></w:styles>`
	body := docxBody(
		`<w:p><w:pPr><w:pStyle w:val="Berschrift1"/></w:pPr><w:r><w:t>Annual Report</w:t></w:r></w:p>` +
			`<w:p><w:r><w:rPr><w:b/></w:rPr><w:t>Bold</w:t></w:r><w:r><w:t xml:space="preserve"> and plain &amp; more</w:t></w:r></w:p>` +
			`<w:p><w:pPr><w:numPr><w:ilvl w:val="0"/><w:numId w:val="1"/></w:numPr></w:pPr><w:r><w:t>first item</w:t></w:r></w:p>` +
			`<w:p><w:pPr><w:numPr><w:ilvl w:val="0"/><w:numId w:val="1"/></w:numPr></w:pPr><w:r><w:t>second item</w:t></w:r></w:p>` +
			`<w:tbl><w:tr><w:tc><w:p><w:r><w:t>h1</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>h2</w:t></w:r></w:p></w:tc></w:tr>` +
			`<w:tr><w:tc><w:p><w:r><w:t>v1</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>v2</w:t></w:r></w:p></w:tc></w:tr></w:tbl>`,
	)

	doc, err := extractDOCX(buildDOCX(t, body, styles), "r.docx")
	if err != nil {
		t.Fatalf("extractDOCX: %v", err)
	}

	if doc.Title != "Annual Report" {
		t.Errorf("Title = %q", doc.Title)
	}
	for _, want := range []string{
		"<h1>Annual Report</h1>",
		"<p><b>Bold</b> and plain &amp; more</p>",
		"<ul>\n<li>first item</li>\n<li>second item</li>\n</ul>",
		"<table><tr><th>h1</th><th>h2</th></tr><tr><td>v1</td><td>v2</td></tr></table>",
	} {
		if !strings.Contains(doc.HTML, want) {
			t.Errorf("HTML missing %q:\n%s", want, doc.HTML)
		}
	}
	wantText := "Annual Report\nBold and plain & more\n- first item\n- second item\nh1\th2\nv1\tv2"
	if doc.Text != wantText {
		t.Errorf("Text = %q\nwant   %q", doc.Text, wantText)
	}
}

func TestDOCXHyperlinkSchemes(t *testing.T) {
	link := func(id, text string) string {
		return `<w:p><w:hyperlink r:id="` + id + `"><w:r><w:t>` + text + `</w:t></w:r></w:hyperlink></w:p>`
	}
	rel := func(id, target string) string {
		return `<Relationship Id="` + id + `" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink" Target="` + target + `" TargetMode="External"/>`
	}
	data := buildZip(t, map[string]string{
		"word/document.xml": docxBody(link("rId1", "site") + link("rId2", "mail") + link("rId3", "evil") +
			link("rId4", "shouty") + link("rId5", "local")),
		"word/_rels/document.xml.rels": `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
			rel("rId1", "https://example.com/a?b=1&amp;c=2") +
			rel("rId2", "mailto:team@example.com") +
			rel("rId3", "javascript:alert(1)") +
			rel("rId4", " JaVaScript:alert(2)") +
			rel("rId5", "media/image1.png") +
			`</Relationships>`,
	})

	doc, err := extractDOCX(data, "links.docx")
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		fragment string
		present  bool
	}{
		{`<a href="https://example.com/a?b=1&amp;c=2">site</a>`, true},
		{`<a href="mailto:team@example.com">mail</a>`, true},
		{`<p>evil</p>`, true},
		{`<p>shouty</p>`, true},
		{`<p>local</p>`, true},
		{`javascript`, false},
		{`media/image1.png`, false},
	}
	for _, tt := range tests {
		if got := strings.Contains(strings.ToLower(doc.HTML), strings.ToLower(tt.fragment)); got != tt.present {
			t.Errorf("HTML contains %q = %v, want %v:\n%s", tt.fragment, got, tt.present, doc.HTML)
		}
	}
}

func TestLinkTarget(t *testing.T) {
	tests := []struct {
		target string
		want   string
	}{
		{"http://example.com", "http://example.com"},
		{"HTTPS://example.com/x", "HTTPS://example.com/x"},
		{"mailto:a@example.com", "mailto:a@example.com"},
		{"javascript:alert(1)", ""},
		{"vbscript:msgbox", ""},
		{"data:text/html,<script>", ""},
		{"file:///etc/passwd", ""},
		{"../media/x.png", ""},
		{"java\tscript:alert(1)", ""},
	}
	for _, tt := range tests {
		if got := linkTarget(tt.target); got != tt.want {
			t.Errorf("linkTarget(%q) = %q, want %q", tt.target, got, tt.want)
		}
	}
}

func TestDOCXSalvageChain(t *testing.T) {
	c := newTestConverter()

	// Malformed XML: the walker fails, the char-data reader still recovers text.
	broken := buildDOCX(t, `<w:document><w:body><w:p><w:t>Recovered words</w:t></w:p><w:p><w:t>more`, "")
	doc := c.Extract(context.Background(), Input{Data: broken, Filename: "b.docx"})
	if !strings.Contains(doc.Text, "Recovered words") {
		t.Errorf("Text = %q", doc.Text)
	}

	// Not a zip at all: printable-run salvage.
	doc = c.Extract(context.Background(), Input{Data: []byte("\x01\x02plain bytes here\x03"), Filename: "c.docx"})
	if doc.Text != "plain bytes here" {
		t.Errorf("Text = %q", doc.Text)
	}
}

func TestExtractHTML(t *testing.T) {
	markup := `<html><head><title> My Page </title><style>p{}</style></head>` +
		`<body><script>alert(1)</script><p>Fish &amp; chips</p><div>second   block</div></body></html>`
	doc, err := extractHTML([]byte(markup), "p.html")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Title != "My Page" {
		t.Errorf("Title = %q", doc.Title)
	}
	if doc.Text != "Fish & chips\nsecond block" {
		t.Errorf("Text = %q", doc.Text)
	}
	if doc.HTML != markup {
		t.Error("HTML must pass through unmodified")
	}
}

func TestSanitizeBodyHTML(t *testing.T) {
	got := sanitizeBodyHTML(`<p onclick="x()">Hi <b>there</b></p><script>alert(1)</script><iframe src="https://x"></iframe>`)
	if got != "<p>Hi <b>there</b></p>" {
		t.Errorf("sanitizeBodyHTML = %q", got)
	}
}

func TestExtractJSON(t *testing.T) {
	doc, _ := extractJSON([]byte(`{"b":1,"a":[1,2]}`), "d.json")
	want := "{\n  \"b\": 1,\n  \"a\": [\n    1,\n    2\n  ]\n}"
	if doc.Text != want {
		t.Errorf("Text = %q", doc.Text)
	}

	doc, _ = extractJSON([]byte(`{not json`), "d.json")
	if doc.Text != "{not json" {
		t.Errorf("invalid JSON not passed through: %q", doc.Text)
	}
}

func TestExtractCSVPadsShortRows(t *testing.T) {
	doc, _ := extractCSV([]byte("a,b,c\r\n1\r\n\"x,y\",z\r\n"), "t.csv")
	want := "<table><tr><th>a</th><th>b</th><th>c</th></tr>" +
		"<tr><td>1</td><td></td><td></td></tr>" +
		"<tr><td>&#34;x</td><td>y&#34;</td><td>z</td></tr></table>"
	if doc.HTML != want {
		t.Errorf("HTML = %s\nwant   %s", doc.HTML, want)
	}
}

func TestDecodeTextCharsetHint(t *testing.T) {
	sjis, err := japanese.ShiftJIS.NewEncoder().Bytes([]byte("名前,年齢,住所\n佐藤太郎,30,東京\n"))
	if err != nil {
		t.Fatal(err)
	}
	if got := decodeText(sjis, "cp932"); got != "名前,年齢,住所\n佐藤太郎,30,東京\n" {
		t.Errorf("decodeText(cp932) = %q", got)
	}
	if got := decodeText([]byte("caf\xe9"), "windows-1252"); got != "café" {
		t.Errorf("decodeText(windows-1252) = %q", got)
	}
}

func TestExtractXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "Name")
	f.SetCellValue("Sheet1", "B1", "Qty")
	f.SetCellValue("Sheet1", "A2", "Widget")
	f.SetCellValue("Sheet1", "B2", 7)
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}

	doc, err := extractXLSX(buf.Bytes(), "book.xlsx")
	if err != nil {
		t.Fatalf("extractXLSX: %v", err)
	}
	if doc.Text != "Sheet1\n\nName\tQty\nWidget\t7" {
		t.Errorf("Text = %q", doc.Text)
	}
	if !strings.Contains(doc.HTML, "<h2>Sheet1</h2><table><tr><th>Name</th><th>Qty</th></tr><tr><td>Widget</td><td>7</td></tr></table>") {
		t.Errorf("HTML = %s", doc.HTML)
	}
}

func TestSpreadsheetSalvage(t *testing.T) {
	c := newTestConverter()
	for _, name := range []string{"a.xlsx", "a.xls", "a.pdf"} {
		doc := c.Extract(context.Background(), Input{Data: []byte("\x00\x01readable fragment\x02"), Filename: name})
		if doc.Text != "readable fragment" {
			t.Errorf("%s: Text = %q", name, doc.Text)
		}
	}
}

func TestExtractFeed(t *testing.T) {
	rss := `<?xml version="1.0"?><rss version="2.0"><channel><title>Dev Blog</title>` +
		`<description>News</description>` +
		`<item><title>Release 2.0</title><link>https://example.com/2</link>` +
		`<pubDate>Mon, 02 Mar 2026 10:00:00 GMT</pubDate>` +
		`<description>&lt;p&gt;Now with &lt;b&gt;more&lt;/b&gt;&lt;/p&gt;</description></item>` +
		`</channel></rss>`

	doc, err := extractFeed([]byte(rss), "news.rss")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Title != "Dev Blog" {
		t.Errorf("Title = %q", doc.Title)
	}
	for _, want := range []string{"Release 2.0", "Published: Mon, 02 Mar 2026 10:00:00 GMT", "Now with more"} {
		if !strings.Contains(doc.Text, want) {
			t.Errorf("Text missing %q:\n%s", want, doc.Text)
		}
	}
	if strings.Contains(doc.Text, "<rss") {
		t.Error("Text contains raw feed markup")
	}

	c := newTestConverter()
	plain := c.Extract(context.Background(), Input{Data: []byte("<config>not a feed</config>"), Filename: "c.xml"})
	if plain.Text != "<config>not a feed</config>" {
		t.Errorf("non-feed XML should fall back to text, got %q", plain.Text)
	}
}

func TestLongestPrintableRun(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"\x00\x01", ""},
		{"ab\x00abcd\x00a", "abcd"},
		{"\x00 line one\r\nline two \x00", "line one\nline two"},
	}
	for _, tt := range tests {
		if got := longestPrintableRun([]byte(tt.in)); got != tt.want {
			t.Errorf("longestPrintableRun(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtractTextPreservesUTF8(t *testing.T) {
	data := []byte("naïve — text\r\nwith CRLF\n")
	doc, _ := extractText(data, "n.txt")
	if doc.Text != string(data) {
		t.Errorf("Text = %q", doc.Text)
	}

	doc, _ = extractText(append([]byte{0xEF, 0xBB, 0xBF}, "bom"...), "b.txt")
	if doc.Text != "bom" {
		t.Errorf("BOM not dropped: %q", doc.Text)
	}
}

func TestFinishFallbacks(t *testing.T) {
	c := newTestConverter()
	doc := &Document{}
	c.finish(doc, Input{Data: []byte("<p></p>"), Filename: "dir/empty.html"})
	if doc.Text != "[no readable text content found in empty.html]" {
		t.Errorf("Text = %q", doc.Text)
	}
	if doc.Title != "empty" {
		t.Errorf("Title = %q", doc.Title)
	}
	if doc.HTML == "" {
		t.Error("HTML not filled")
	}

	doc = &Document{}
	c.finish(doc, Input{Filename: "zero.txt"})
	if doc.Text != "" {
		t.Errorf("zero-byte source Text = %q, want empty", doc.Text)
	}
}

func TestWhitespaceTextKept(t *testing.T) {
	c := newTestConverter()
	data := []byte("   \n\t\n")

	doc := c.Extract(context.Background(), Input{Data: data, Filename: "blank.txt"})
	if doc.Text != string(data) {
		t.Errorf("Text = %q, want the original whitespace", doc.Text)
	}
	if doc.Title != "blank" {
		t.Errorf("Title = %q", doc.Title)
	}
	if doc.Source != SourceText || doc.Filename != "blank.txt" {
		t.Errorf("Source/Filename = %s/%s", doc.Source, doc.Filename)
	}

	out, err := c.Convert(context.Background(), Input{Data: data, Filename: "blank.txt"}, "txt")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out.Data, data) {
		t.Errorf("txt round trip = %q, want %q", out.Data, data)
	}
}
