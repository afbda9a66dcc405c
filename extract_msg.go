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
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-message/textproto"
	"github.com/gabriel-vasile/mimetype"
	"github.com/richardlehane/mscfb"
	"golang.org/x/text/encoding/unicode"
)

// MAPI property ids read from Outlook messages.
const (
	propSubject           = 0x0037
	propClientSubmitTime  = 0x0039
	propSentRepName       = 0x0042
	propTransportHeaders  = 0x007D
	propSenderEmail       = 0x0C1F
	propSenderName        = 0x0C1A
	propRecipientType     = 0x0C15
	propDisplayCC         = 0x0E03
	propDisplayTo         = 0x0E04
	propDeliveryTime      = 0x0E06
	propBody              = 0x1000
	propBodyHTML          = 0x1013
	propDisplayName       = 0x3001
	propEmailAddress      = 0x3003
	propSMTPAddress       = 0x39FE
	propAttachData        = 0x3701
	propAttachFilename    = 0x3704
	propAttachLongName    = 0x3707
	propAttachMIMETag     = 0x370E
	propInternetCodePage  = 0x3FDE
	propMessageCodePage   = 0x3FFD
	propSenderSMTPAddress = 0x5D01
)

// MAPI property types.
const (
	typeInt32   = 0x0003
	typeString8 = 0x001E
	typeUnicode = 0x001F
	typeSysTime = 0x0040
	typeBinary  = 0x0102
)

const (
	substgPrefix     = "__substg1.0_"
	recipPrefix      = "__recip_version1.0_"
	attachPrefix     = "__attach_version1.0_"
	propertiesStream = "__properties_version1.0"
	embeddedPrefix   = substgPrefix + "3701"

	// Fixed-length property stream header sizes.
	topLevelPropsHeader  = 32
	subObjectPropsHeader = 8
)

const (
	recipientTo = 1
	recipientCC = 2
)

// msgEntry is one stream of the compound file with its storage path.
type msgEntry struct {
	path []string
	name string
	data []byte
}

func (e msgEntry) scope() string {
	if len(e.path) == 0 {
		return ""
	}
	return e.path[0]
}

// embedded reports whether the stream belongs to a message attached to the
// outer one.
func (e msgEntry) embedded() bool {
	for _, p := range e.path {
		if strings.HasPrefix(p, embeddedPrefix) {
			return true
		}
	}
	return false
}

// msgFields is the message content recovered by one reading pass.
type msgFields struct {
	subject     string
	sender      string
	to          string
	cc          string
	date        string
	body        string
	bodyHTML    string
	attachments []Attachment
}

func (f msgFields) empty() bool {
	return f.subject == "" && f.sender == "" && f.to == "" && f.body == "" && f.bodyHTML == "" && len(f.attachments) == 0
}

// extractMSG reads an Outlook .msg file twice, once following the storage
// layout and once scanning every stream by property id, and merges the two.
func (c *Converter) extractMSG(data []byte, filename string) (*Document, error) {
	entries, err := readCompoundEntries(data)
	if err != nil {
		return nil, err
	}

	structured := structuredMSGFields(entries)
	scanned := scannedMSGFields(entries)
	f := mergeMSGFields(structured, scanned)
	if f.empty() {
		return nil, errors.New("no message properties found")
	}
	c.logger.Debug("parsed outlook message",
		"filename", displayName(filename),
		"streams", len(entries),
		"attachments", len(f.attachments),
	)

	body := f.body
	if strings.TrimSpace(body) == "" && f.bodyHTML != "" {
		body = htmlToText(f.bodyHTML)
	}

	m := &EmailMetadata{
		Subject:     f.subject,
		Sender:      f.sender,
		Recipients:  f.to,
		CC:          f.cc,
		Date:        f.date,
		Attachments: f.attachments,
		Body:        cleanText(cleanMojibake(body)),
	}
	var bodyHTML string
	if f.bodyHTML != "" {
		bodyHTML = sanitizeBodyHTML(f.bodyHTML)
	}
	return newEmailDocument(m, bodyHTML), nil
}

// readCompoundEntries lists every non-empty stream of a compound file.
func readCompoundEntries(data []byte) ([]msgEntry, error) {
	doc, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open compound file: %w", err)
	}

	var entries []msgEntry
	for f, err := doc.Next(); err == nil; f, err = doc.Next() {
		if f.Size <= 0 || f.Size > int64(len(data)) {
			continue
		}
		buf := make([]byte, f.Size)
		if _, err := io.ReadFull(f, buf); err != nil {
			continue
		}
		path := append([]string(nil), f.Path...)
		if len(path) > 0 && path[0] == "Root Entry" {
			path = path[1:]
		}
		entries = append(entries, msgEntry{path: path, name: f.Name, data: buf})
	}
	if len(entries) == 0 {
		return nil, errors.New("compound file has no streams")
	}
	return entries, nil
}

// parseSubstgName splits "__substg1.0_IIIITTTT" into property id and type.
func parseSubstgName(name string) (id, typ uint16, ok bool) {
	if !strings.HasPrefix(name, substgPrefix) {
		return 0, 0, false
	}
	hex := strings.TrimPrefix(name, substgPrefix)
	if len(hex) < 8 {
		return 0, 0, false
	}
	v, err := strconv.ParseUint(hex[:8], 16, 32)
	if err != nil {
		return 0, 0, false
	}
	return uint16(v >> 16), uint16(v), true
}

// fixedProp is one 16-byte entry of a property stream.
type fixedProp struct {
	typ   uint16
	value uint64
}

func parseFixedProps(data []byte, header int) map[uint16]fixedProp {
	props := make(map[uint16]fixedProp)
	if len(data) <= header {
		return props
	}
	for off := header; off+16 <= len(data); off += 16 {
		tag := binary.LittleEndian.Uint32(data[off:])
		props[uint16(tag>>16)] = fixedProp{
			typ:   uint16(tag),
			value: binary.LittleEndian.Uint64(data[off+8:]),
		}
	}
	return props
}

// propStore holds the variable-length properties of one storage.
type propStore struct {
	streams  map[uint16]msgEntry
	types    map[uint16]uint16
	fixed    map[uint16]fixedProp
	codePage int
}

func newPropStore() *propStore {
	return &propStore{
		streams: make(map[uint16]msgEntry),
		types:   make(map[uint16]uint16),
		fixed:   make(map[uint16]fixedProp),
	}
}

// str returns a string property decoded according to its declared type.
func (p *propStore) str(id uint16) string {
	e, ok := p.streams[id]
	if !ok {
		return ""
	}
	switch p.types[id] {
	case typeUnicode:
		return decodeUTF16LE(e.data)
	case typeString8, typeBinary:
		return decodeString8(e.data, p.codePage)
	}
	return ""
}

func (p *propStore) raw(id uint16) []byte {
	if e, ok := p.streams[id]; ok {
		return e.data
	}
	return nil
}

func (p *propStore) sysTime(ids ...uint16) time.Time {
	for _, id := range ids {
		if fp, ok := p.fixed[id]; ok && fp.typ == typeSysTime {
			if t := filetimeToTime(fp.value); !t.IsZero() {
				return t
			}
		}
	}
	return time.Time{}
}

func (p *propStore) long(id uint16) (int, bool) {
	fp, ok := p.fixed[id]
	if !ok || fp.typ != typeInt32 {
		return 0, false
	}
	return int(uint32(fp.value)), true
}

// structuredMSGFields follows the message layout: top-level properties,
// one storage per recipient and one per attachment.
func structuredMSGFields(entries []msgEntry) msgFields {
	top := newPropStore()
	recips := make(map[string]*propStore)
	attachs := make(map[string]*propStore)

	for _, e := range entries {
		var store *propStore
		header := subObjectPropsHeader
		switch scope := e.scope(); {
		case len(e.path) == 0:
			store, header = top, topLevelPropsHeader
		case len(e.path) == 1 && strings.HasPrefix(scope, recipPrefix):
			store = storeFor(recips, scope)
		case len(e.path) == 1 && strings.HasPrefix(scope, attachPrefix):
			store = storeFor(attachs, scope)
		default:
			continue
		}

		if e.name == propertiesStream {
			store.fixed = parseFixedProps(e.data, header)
			continue
		}
		if id, typ, ok := parseSubstgName(e.name); ok {
			store.streams[id] = e
			store.types[id] = typ
		}
	}

	top.codePage = messageCodePage(top)
	for _, s := range recips {
		s.codePage = top.codePage
	}
	for _, s := range attachs {
		s.codePage = top.codePage
	}

	f := msgFields{
		subject:  top.str(propSubject),
		sender:   formatAddress(firstNonEmpty(top.str(propSenderName), top.str(propSentRepName)), firstNonEmpty(top.str(propSenderSMTPAddress), top.str(propSenderEmail))),
		body:     top.str(propBody),
		bodyHTML: top.str(propBodyHTML),
	}
	if t := top.sysTime(propClientSubmitTime, propDeliveryTime); !t.IsZero() {
		f.date = formatDate(t)
	}

	var to, cc []string
	for _, key := range sortedKeys(recips) {
		r := recips[key]
		addr := formatAddress(r.str(propDisplayName), firstNonEmpty(r.str(propSMTPAddress), r.str(propEmailAddress)))
		if addr == "" {
			continue
		}
		kind, ok := r.long(propRecipientType)
		if !ok {
			kind = recipientTo
		}
		switch kind {
		case recipientTo:
			to = append(to, addr)
		case recipientCC:
			cc = append(cc, addr)
		}
	}
	f.to = firstNonEmpty(strings.Join(to, ", "), top.str(propDisplayTo))
	f.cc = firstNonEmpty(strings.Join(cc, ", "), top.str(propDisplayCC))

	for _, key := range sortedKeys(attachs) {
		a := attachs[key]
		name := firstNonEmpty(a.str(propAttachLongName), a.str(propAttachFilename), a.str(propDisplayName))
		data := a.raw(propAttachData)
		if name == "" && len(data) == 0 {
			continue
		}
		contentType := a.str(propAttachMIMETag)
		if contentType == "" && len(data) > 0 {
			contentType = mimetype.Detect(data).String()
		}
		f.attachments = append(f.attachments, Attachment{
			Name:        cleanText(name),
			Size:        int64(len(data)),
			ContentType: contentType,
		})
	}
	return f
}

// scannedMSGFields indexes every stream of the file by property id,
// ignoring storage layout and declared types. Shallower streams win.
// Streams of an attached message only contribute attachment names.
func scannedMSGFields(entries []msgEntry) msgFields {
	sorted := append([]msgEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].path) < len(sorted[j].path)
	})

	byID := make(map[uint16]string)
	var attachNames []string
	seenAttach := make(map[string]bool)
	for _, e := range sorted {
		id, _, ok := parseSubstgName(e.name)
		if !ok {
			continue
		}
		if id == propAttachLongName || id == propAttachFilename {
			scope := e.scope()
			if name := guessDecode(e.data); name != "" && !seenAttach[scope] {
				seenAttach[scope] = true
				attachNames = append(attachNames, name)
			}
			continue
		}
		if e.embedded() {
			continue
		}
		if _, done := byID[id]; done {
			continue
		}
		if s := guessDecode(e.data); s != "" {
			byID[id] = s
		}
	}

	f := msgFields{
		subject:  byID[propSubject],
		sender:   formatAddress(firstNonEmpty(byID[propSenderName], byID[propSentRepName]), firstNonEmpty(byID[propSenderSMTPAddress], byID[propSenderEmail])),
		to:       byID[propDisplayTo],
		cc:       byID[propDisplayCC],
		body:     byID[propBody],
		bodyHTML: byID[propBodyHTML],
		date:     headerDate(byID[propTransportHeaders]),
	}
	for _, name := range attachNames {
		f.attachments = append(f.attachments, Attachment{Name: cleanText(name)})
	}
	return f
}

// mergeMSGFields takes each field from primary when it is non-empty and from
// secondary otherwise. Every string is cleaned afterwards.
func mergeMSGFields(primary, secondary msgFields) msgFields {
	f := msgFields{
		subject:     firstNonEmpty(primary.subject, secondary.subject),
		sender:      firstNonEmpty(primary.sender, secondary.sender),
		to:          firstNonEmpty(primary.to, secondary.to),
		cc:          firstNonEmpty(primary.cc, secondary.cc),
		date:        firstNonEmpty(primary.date, secondary.date),
		body:        firstNonEmpty(primary.body, secondary.body),
		bodyHTML:    firstNonEmpty(primary.bodyHTML, secondary.bodyHTML),
		attachments: primary.attachments,
	}
	if len(f.attachments) == 0 {
		f.attachments = secondary.attachments
	}
	for _, s := range []*string{&f.subject, &f.sender, &f.to, &f.cc, &f.date} {
		*s = strings.TrimSpace(cleanText(cleanMojibake(*s)))
	}
	return f
}

func messageCodePage(top *propStore) int {
	for _, id := range []uint16{propInternetCodePage, propMessageCodePage} {
		if cp, ok := top.long(id); ok && cp > 0 {
			return cp
		}
	}
	return 1252
}

func decodeUTF16LE(b []byte) string {
	out, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(b)
	if err != nil {
		return ""
	}
	return strings.TrimRight(string(out), "\x00")
}

func decodeString8(b []byte, codePage int) string {
	b = bytes.TrimRight(b, "\x00")
	if utf8.Valid(b) {
		return string(b)
	}
	out, err := encodingForCodePage(codePage).NewDecoder().Bytes(b)
	if err != nil {
		return string(bytes.ToValidUTF8(b, nil))
	}
	return string(out)
}

// guessDecode decodes a stream without trusting its declared type: data
// with many NUL bytes in odd positions is taken as UTF-16LE.
func guessDecode(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	var s string
	if looksUTF16LE(b) {
		s = decodeUTF16LE(b)
	} else {
		s = decodeString8(b, 1252)
	}
	if !mostlyPrintable(s) {
		return ""
	}
	return s
}

func looksUTF16LE(b []byte) bool {
	if len(b) < 2 || len(b)%2 != 0 {
		return false
	}
	zeros := 0
	for i := 1; i < len(b); i += 2 {
		if b[i] == 0 {
			zeros++
		}
	}
	return zeros*2 >= len(b)/2
}

func mostlyPrintable(s string) bool {
	if s == "" {
		return false
	}
	total, bad := 0, 0
	for _, r := range s {
		total++
		if r == '\uFFFD' || (r < 0x20 && r != '\n' && r != '\r' && r != '\t') {
			bad++
		}
	}
	return bad*10 <= total
}

// filetimeToTime converts 100-nanosecond intervals since 1601-01-01.
func filetimeToTime(ft uint64) time.Time {
	const unixEpoch = 116444736000000000
	if ft <= unixEpoch {
		return time.Time{}
	}
	d := ft - unixEpoch
	return time.Unix(int64(d/1e7), int64(d%1e7)*100).UTC()
}

// headerDate pulls the Date field out of raw transport headers. Lines that
// cannot be parsed end the header but keep what came before.
func headerDate(headers string) string {
	if headers == "" {
		return ""
	}
	r := bufio.NewReader(strings.NewReader(strings.ReplaceAll(headers, "\r\n", "\n") + "\n\n"))
	th, _ := textproto.ReadHeader(r)
	h := mail.Header{Header: message.Header{Header: th}}
	t, err := h.Date()
	if err != nil {
		return strings.TrimSpace(h.Get("Date"))
	}
	if t.IsZero() {
		return ""
	}
	return formatDate(t)
}

func formatDate(t time.Time) string {
	return t.Format(time.RFC1123Z)
}

// formatAddress renders "Name <email>", or whichever of the two is known.
func formatAddress(name, email string) string {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if !strings.Contains(email, "@") {
		email = ""
	}
	switch {
	case name == "":
		return email
	case email == "" || strings.EqualFold(name, email):
		return name
	default:
		return name + " <" + email + ">"
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func sortedKeys(m map[string]*propStore) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func storeFor(m map[string]*propStore, key string) *propStore {
	s, ok := m[key]
	if !ok {
		s = newPropStore()
		m[key] = s
	}
	return s
}
