package docconv

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/mmcdole/gofeed"
)

// extractFeed lays out an RSS or Atom feed as a titled list of items.
func extractFeed(data []byte, filename string) (*Document, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	var text, markup strings.Builder
	if feed.Title != "" {
		fmt.Fprintf(&text, "%s\n", feed.Title)
		fmt.Fprintf(&markup, "<h1>%s</h1>", html.EscapeString(feed.Title))
	}
	if feed.Description != "" {
		desc := feedContent(feed.Description)
		fmt.Fprintf(&text, "%s\n", desc)
		fmt.Fprintf(&markup, "<p>%s</p>", html.EscapeString(desc))
	}

	for _, item := range feed.Items {
		text.WriteString("\n")
		markup.WriteString(`<div class="feed-item">`)
		if item.Title != "" {
			fmt.Fprintf(&text, "%s\n", item.Title)
			title := html.EscapeString(item.Title)
			if item.Link != "" {
				title = `<a href="` + html.EscapeString(item.Link) + `">` + title + `</a>`
			}
			fmt.Fprintf(&markup, "<h2>%s</h2>", title)
		}

		date := item.Published
		if date == "" {
			date = item.Updated
		}
		if date != "" {
			fmt.Fprintf(&text, "Published: %s\n", date)
			fmt.Fprintf(&markup, `<p class="feed-date">%s</p>`, html.EscapeString(date))
		}

		content := item.Content
		if content == "" {
			content = item.Description
		}
		if content != "" {
			fmt.Fprintf(&text, "\n%s\n", feedContent(content))
			if strings.Contains(content, "<") {
				markup.WriteString(bodyPolicy.Sanitize(content))
			} else {
				fmt.Fprintf(&markup, "<p>%s</p>", html.EscapeString(content))
			}
		}
		markup.WriteString(`</div>`)
	}

	return &Document{
		Text:  strings.TrimSpace(text.String()),
		HTML:  markup.String(),
		Title: strings.TrimSpace(feed.Title),
	}, nil
}

// feedContent strips markup from item content that carries HTML.
func feedContent(content string) string {
	if strings.Contains(content, "<") && strings.Contains(content, ">") {
		return htmlToText(content)
	}
	return strings.TrimSpace(content)
}
