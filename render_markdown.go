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
	"fmt"
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

var reDataURI = regexp.MustCompile(`(data:[a-zA-Z0-9/+.-]+;base64,)[A-Za-z0-9+/=]{64,}`)

// renderMarkdown converts the HTML fragment. Plain-text sources skip the
// conversion so their bytes survive unchanged.
func (c *Converter) renderMarkdown(doc *Document) ([]byte, error) {
	if isPlainSource(doc) {
		return []byte(doc.Text), nil
	}

	markup := reScript.ReplaceAllString(doc.HTML, "")
	markup = reStyle.ReplaceAllString(markup, "")
	md, err := htmlToMarkdown(markup)
	if err != nil {
		return nil, fmt.Errorf("convert HTML to markdown: %w", err)
	}
	if !c.keepDataURIs {
		md = truncateDataURIs(md)
	}
	return []byte(normalizeOutput(md) + "\n"), nil
}

// isPlainSource reports whether the fragment is only the escaped text view.
func isPlainSource(doc *Document) bool {
	return doc.Source == SourceText && doc.Email == nil && strings.HasPrefix(doc.HTML, "<pre>")
}

func htmlToMarkdown(markup string) (string, error) {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(
				commonmark.WithHeadingStyle("atx"),
			),
			table.NewTablePlugin(),
		),
	)
	return conv.ConvertString(markup)
}

// truncateDataURIs truncates large base64 data URIs to data:mime/type;base64...
func truncateDataURIs(md string) string {
	return reDataURI.ReplaceAllString(md, "${1}...")
}
