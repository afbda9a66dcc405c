package docconv

import (
	"bytes"
	"html/template"
)

var htmlShell = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", Helvetica, Arial, sans-serif; line-height: 1.5; max-width: 960px; margin: 2em auto; padding: 0 1em; color: #222; }
.email-header { background: #f2f2f2; border: 1px solid #ddd; border-radius: 4px; padding: 0.75em 1em; }
.email-subject { margin: 0 0 0.5em; }
.email-fields th { text-align: left; padding-right: 1em; color: #555; font-weight: normal; vertical-align: top; }
.email-divider { border: 0; border-top: 1px solid #999; margin: 1.5em 0; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ccc; padding: 0.25em 0.5em; }
.email-fields td, .email-fields th { border: 0; }
pre { white-space: pre-wrap; word-wrap: break-word; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// renderHTML wraps the fragment in a standalone document.
func renderHTML(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	err := htmlShell.Execute(&buf, struct {
		Title string
		Body  template.HTML
	}{
		Title: doc.Title,
		Body:  template.HTML(doc.HTML),
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
