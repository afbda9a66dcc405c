package docconv

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"github.com/gabriel-vasile/mimetype"
)

// maxInlinePart bounds how much of a single text part is read into memory.
const maxInlinePart = 32 << 20

// extractEML parses an RFC 5322 message: headers, the first text/plain and
// text/html parts, and attachment names and sizes.
func (c *Converter) extractEML(data []byte, filename string) (*Document, error) {
	mr, err := mail.CreateReader(bytes.NewReader(data))
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, fmt.Errorf("parse message: %w", err)
	}
	defer mr.Close()

	m := &EmailMetadata{}
	if m.Subject, err = mr.Header.Subject(); err != nil {
		m.Subject = mr.Header.Get("Subject")
	}
	m.Sender = headerAddresses(mr.Header, "From")
	m.Recipients = headerAddresses(mr.Header, "To")
	m.CC = headerAddresses(mr.Header, "Cc")
	if t, err := mr.Header.Date(); err == nil && !t.IsZero() {
		m.Date = formatDate(t)
	} else {
		m.Date = strings.TrimSpace(mr.Header.Get("Date"))
	}

	var textBody, htmlBody string
	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if message.IsUnknownCharset(err) || message.IsUnknownEncoding(err) {
				continue
			}
			c.logger.Warn("stopped reading message parts", "filename", displayName(filename), "error", err)
			break
		}

		switch h := p.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := h.ContentType()
			if contentType == "" {
				contentType = "text/plain"
			}
			body, _ := io.ReadAll(io.LimitReader(p.Body, maxInlinePart))
			switch {
			case contentType == "text/plain" && textBody == "":
				textBody = string(body)
			case contentType == "text/html" && htmlBody == "":
				htmlBody = string(body)
			}
		case *mail.AttachmentHeader:
			m.Attachments = append(m.Attachments, readAttachment(h, p.Body))
		}
	}

	if m.Subject == "" && m.Sender == "" && textBody == "" && htmlBody == "" {
		return nil, errors.New("no message headers or body found")
	}

	if strings.TrimSpace(textBody) == "" && htmlBody != "" {
		textBody = htmlToText(htmlBody)
	}
	m.Body = cleanText(textBody)

	var bodyHTML string
	if htmlBody != "" {
		bodyHTML = sanitizeBodyHTML(htmlBody)
	}
	return newEmailDocument(m, bodyHTML), nil
}

func headerAddresses(h mail.Header, key string) string {
	list, err := h.AddressList(key)
	if err != nil || len(list) == 0 {
		return strings.TrimSpace(h.Get(key))
	}
	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, formatAddress(a.Name, a.Address))
	}
	return strings.Join(out, ", ")
}

// readAttachment counts the attachment's bytes and sniffs its type when the
// declared type is missing or generic.
func readAttachment(h *mail.AttachmentHeader, body io.Reader) Attachment {
	name, err := h.Filename()
	if err != nil || name == "" {
		_, params, _ := mime.ParseMediaType(h.Get("Content-Type"))
		name = params["name"]
	}

	data, _ := io.ReadAll(body)
	contentType, _, _ := h.ContentType()
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mimetype.Detect(data).String()
	}
	return Attachment{Name: name, Size: int64(len(data)), ContentType: contentType}
}
