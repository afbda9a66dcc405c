package docconv

import (
	"fmt"
	"html"
	"strings"

	"github.com/dustin/go-humanize"
)

// dividerWidth is the number of glyphs in the header/body divider.
const dividerWidth = 60

// Divider separates the header block from the body in the canonical email
// text layout.
var Divider = strings.Repeat("─", dividerWidth)

// headerField is one labelled line of the email header block.
type headerField struct {
	Label string
	Value string
}

// headerFields returns the header block lines in display order. Subject,
// From and To are always present; CC, Date and Attachments only when set.
func (m *EmailMetadata) headerFields() []headerField {
	fields := []headerField{
		{"Subject", m.Subject},
		{"From", m.Sender},
		{"To", m.Recipients},
	}
	if m.CC != "" {
		fields = append(fields, headerField{"CC", m.CC})
	}
	if m.Date != "" {
		fields = append(fields, headerField{"Date", m.Date})
	}
	if len(m.Attachments) > 0 {
		fields = append(fields, headerField{"Attachments", m.attachmentList()})
	}
	return fields
}

// attachmentList joins attachment names with their humanized sizes.
func (m *EmailMetadata) attachmentList() string {
	names := make([]string, 0, len(m.Attachments))
	for _, a := range m.Attachments {
		name := a.Name
		if name == "" {
			name = "unnamed"
		}
		if a.Size > 0 {
			name = fmt.Sprintf("%s (%s)", name, humanize.Bytes(uint64(a.Size)))
		}
		names = append(names, name)
	}
	return strings.Join(names, ", ")
}

// canonicalText renders the header block, the divider and the body.
func (m *EmailMetadata) canonicalText() string {
	var b strings.Builder
	for _, f := range m.headerFields() {
		fmt.Fprintf(&b, "%s: %s\n", f.Label, f.Value)
	}
	b.WriteString("\n")
	b.WriteString(Divider)
	b.WriteString("\n\n")
	b.WriteString(m.Body)
	return b.String()
}

// headerHTML renders the styled header block of the HTML view.
func (m *EmailMetadata) headerHTML() string {
	var b strings.Builder
	b.WriteString(`<div class="email-header">`)
	fmt.Fprintf(&b, `<h2 class="email-subject">%s</h2>`, html.EscapeString(m.Subject))
	b.WriteString(`<table class="email-fields">`)
	for _, f := range m.headerFields()[1:] {
		fmt.Fprintf(&b, `<tr><th>%s:</th><td>%s</td></tr>`, f.Label, html.EscapeString(f.Value))
	}
	b.WriteString(`</table></div>`)
	b.WriteString(`<hr class="email-divider"/>`)
	return b.String()
}

// newEmailDocument builds the Document for an email-like source. bodyHTML is
// the sanitized HTML body; when empty the text body is shown preformatted.
func newEmailDocument(m *EmailMetadata, bodyHTML string) *Document {
	m.Body = trimSpaceLines(m.Body)
	body := bodyHTML
	if strings.TrimSpace(body) == "" {
		body = preformatted(m.Body)
	}
	return &Document{
		Text:  m.canonicalText(),
		HTML:  m.headerHTML() + `<div class="email-body">` + body + `</div>`,
		Title: m.Subject,
		Email: m,
	}
}
