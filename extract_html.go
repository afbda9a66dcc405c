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
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

var (
	// stripPolicy removes all markup.
	stripPolicy = bluemonday.StrictPolicy()
	// bodyPolicy keeps formatting markup of email bodies and drops scripts,
	// handlers and remote-fetching attributes.
	bodyPolicy = newBodyPolicy()

	reScript    = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script>`)
	reStyle     = regexp.MustCompile(`(?is)<style\b[^>]*>.*?</style>`)
	reHead      = regexp.MustCompile(`(?is)<head\b[^>]*>.*?</head>`)
	reBlockTags = regexp.MustCompile(`(?i)<\s*(br|/p|/div|/tr|/li|/h[1-6]|/table|/blockquote|/pre)\b[^>]*>`)
)

func newBodyPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("p", "br", "div", "span", "h1", "h2", "h3", "h4", "h5", "h6")
	p.AllowElements("strong", "em", "b", "i", "u", "s", "code", "pre", "blockquote")
	p.AllowElements("ul", "ol", "li", "table", "thead", "tbody", "tr", "th", "td")
	p.AllowAttrs("style").OnElements("span", "div", "p", "td", "th", "table")
	p.AllowAttrs("class").Globally()
	p.AllowAttrs("colspan", "rowspan").OnElements("td", "th")
	p.AllowURLSchemes("http", "https", "mailto", "cid", "data")
	p.RequireParseableURLs(true)
	return p
}

// extractHTML strips markup for the text view and passes the original
// markup through as the HTML view.
func extractHTML(data []byte, filename string) (*Document, error) {
	markup := decodeText(data, "")
	return &Document{
		Text:  htmlToText(markup),
		HTML:  markup,
		Title: extractHTMLTitle(markup),
	}, nil
}

// htmlToText removes tags, decodes entities and collapses whitespace.
// Block-level closing tags become line breaks so paragraphs stay apart.
func htmlToText(markup string) string {
	markup = reHead.ReplaceAllString(markup, "")
	markup = reScript.ReplaceAllString(markup, "")
	markup = reStyle.ReplaceAllString(markup, "")
	markup = reBlockTags.ReplaceAllString(markup, "\n$0")
	text := stripPolicy.Sanitize(markup)
	return collapseWhitespace(html.UnescapeString(text))
}

// sanitizeBodyHTML prepares a foreign HTML body (email, e-book chapter) for
// embedding in a fragment.
func sanitizeBodyHTML(markup string) string {
	markup = reHead.ReplaceAllString(markup, "")
	return strings.TrimSpace(bodyPolicy.Sanitize(markup))
}

// extractHTMLTitle extracts the title from an HTML document.
func extractHTMLTitle(markup string) string {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return ""
	}

	var title string
	var find func(*html.Node)
	find = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil {
				title = n.FirstChild.Data
			}
			return
		}
		for c := n.FirstChild; c != nil && title == ""; c = c.NextSibling {
			find(c)
		}
	}
	find(doc)

	return strings.TrimSpace(title)
}
