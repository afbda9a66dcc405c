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
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strings"
)

// notebook is the JSON structure of a Jupyter notebook.
type notebook struct {
	Metadata struct {
		KernelSpec *struct {
			Language string `json:"language"`
		} `json:"kernelspec"`
	} `json:"metadata"`
	Cells []notebookCell `json:"cells"`
}

type notebookCell struct {
	CellType string          `json:"cell_type"`
	Source   json.RawMessage `json:"source"`
	Outputs  []struct {
		Text json.RawMessage            `json:"text"`
		Data map[string]json.RawMessage `json:"data"`
	} `json:"outputs"`
}

// extractNotebook lays out markdown, code and text outputs of each cell.
// Markdown cells stay as written.
func extractNotebook(data []byte, filename string) (*Document, error) {
	var nb notebook
	if err := json.Unmarshal(data, &nb); err != nil {
		return nil, fmt.Errorf("parse notebook: %w", err)
	}
	if nb.Cells == nil {
		return nil, errors.New("notebook has no cells")
	}

	language := "python"
	if ks := nb.Metadata.KernelSpec; ks != nil && ks.Language != "" {
		language = ks.Language
	}

	var sections, blocks []string
	var title string
	for _, cell := range nb.Cells {
		source := strings.TrimRight(notebookString(cell.Source), "\n")
		if strings.TrimSpace(source) == "" && len(cell.Outputs) == 0 {
			continue
		}

		switch cell.CellType {
		case "markdown":
			if title == "" {
				title = markdownHeading(source)
			}
			sections = append(sections, source)
			blocks = append(blocks, `<div class="markdown-cell">`+preformatted(source)+"</div>")
		case "code":
			if strings.TrimSpace(source) != "" {
				sections = append(sections, source)
				blocks = append(blocks, fmt.Sprintf(`<pre><code class="language-%s">%s</code></pre>`,
					html.EscapeString(language), html.EscapeString(source)))
			}
			for _, out := range cell.Outputs {
				result := notebookString(out.Text)
				if result == "" {
					result = notebookString(out.Data["text/plain"])
				}
				if result = strings.TrimRight(result, "\n"); result != "" {
					sections = append(sections, result)
					blocks = append(blocks, `<pre class="output">`+html.EscapeString(result)+"</pre>")
				}
			}
		default:
			sections = append(sections, source)
			blocks = append(blocks, preformatted(source))
		}
	}

	return &Document{
		Text:  strings.Join(sections, "\n\n"),
		HTML:  strings.Join(blocks, "\n"),
		Title: title,
	}, nil
}

// notebookString decodes a notebook text field, which is either a string or
// a list of lines.
func notebookString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var lines []string
	if err := json.Unmarshal(raw, &lines); err == nil {
		return strings.Join(lines, "")
	}
	return ""
}

func markdownHeading(source string) string {
	for _, line := range strings.Split(source, "\n") {
		if line = strings.TrimSpace(line); strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}
	return ""
}
