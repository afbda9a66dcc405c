package docconv

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"path"
	"strings"

	"github.com/nicholasgasior/docconv-go/internal/ooxml"
)

// epubPackage is the subset of the OPF package document that is read.
type epubPackage struct {
	Metadata struct {
		Titles      []string `xml:"title"`
		Creators    []string `xml:"creator"`
		Language    string   `xml:"language"`
		Publisher   string   `xml:"publisher"`
		Date        string   `xml:"date"`
		Description string   `xml:"description"`
	} `xml:"metadata"`
	Manifest []struct {
		ID        string `xml:"id,attr"`
		Href      string `xml:"href,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"manifest>item"`
	Spine []struct {
		IDRef string `xml:"idref,attr"`
	} `xml:"spine>itemref"`
}

// extractEPUB reads the book metadata and the spine documents in reading
// order.
func extractEPUB(data []byte, filename string) (*Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open epub: %w", err)
	}

	opfPath, err := epubRootFile(zr)
	if err != nil {
		return nil, err
	}
	raw, err := ooxml.ReadFileFromZip(zr, opfPath)
	if err != nil {
		return nil, fmt.Errorf("read package document: %w", err)
	}
	var pkg epubPackage
	if err := xml.Unmarshal(raw, &pkg); err != nil {
		return nil, fmt.Errorf("parse package document: %w", err)
	}

	hrefs := make(map[string]string, len(pkg.Manifest))
	for _, item := range pkg.Manifest {
		if strings.Contains(item.MediaType, "html") {
			hrefs[item.ID] = item.Href
		}
	}

	var text, markup strings.Builder
	meta := pkg.Metadata
	title := ""
	if len(meta.Titles) > 0 {
		title = strings.TrimSpace(meta.Titles[0])
	}
	if title != "" {
		text.WriteString(title + "\n")
		markup.WriteString("<h1>" + html.EscapeString(title) + "</h1>")
	}
	for _, field := range []struct{ label, value string }{
		{"Authors", strings.Join(meta.Creators, ", ")},
		{"Publisher", meta.Publisher},
		{"Date", meta.Date},
		{"Language", meta.Language},
	} {
		if v := strings.TrimSpace(field.value); v != "" {
			fmt.Fprintf(&text, "%s: %s\n", field.label, v)
			fmt.Fprintf(&markup, "<p><strong>%s:</strong> %s</p>", field.label, html.EscapeString(v))
		}
	}
	if desc := htmlToText(meta.Description); desc != "" {
		text.WriteString("\n" + desc + "\n")
		markup.WriteString("<p>" + html.EscapeString(desc) + "</p>")
	}

	chapters := 0
	base := path.Dir(opfPath)
	for _, ref := range pkg.Spine {
		href, ok := hrefs[ref.IDRef]
		if !ok {
			continue
		}
		page, err := ooxml.ReadFileFromZip(zr, path.Join(base, href))
		if err != nil {
			continue
		}
		body := string(page)
		chapter := htmlToText(body)
		if chapter == "" {
			continue
		}
		chapters++
		text.WriteString("\n" + chapter + "\n")
		markup.WriteString(`<section class="chapter">` + sanitizeBodyHTML(body) + "</section>")
	}
	if chapters == 0 && title == "" {
		return nil, errors.New("epub has no readable content")
	}

	return &Document{
		Text:  strings.TrimSpace(text.String()),
		HTML:  markup.String(),
		Title: title,
	}, nil
}

// epubRootFile returns the package document path named by
// META-INF/container.xml.
func epubRootFile(zr *zip.Reader) (string, error) {
	raw, err := ooxml.ReadFileFromZip(zr, "META-INF/container.xml")
	if err != nil {
		return "", fmt.Errorf("read container: %w", err)
	}
	var container struct {
		RootFiles []struct {
			FullPath string `xml:"full-path,attr"`
		} `xml:"rootfiles>rootfile"`
	}
	if err := xml.Unmarshal(raw, &container); err != nil {
		return "", fmt.Errorf("parse container: %w", err)
	}
	for _, rf := range container.RootFiles {
		if rf.FullPath != "" {
			return rf.FullPath, nil
		}
	}
	return "", errors.New("container lists no rootfile")
}
