package docconv

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	reTrailingWhitespace = regexp.MustCompile(`[ \t]+\n`)
	reMultipleNewlines   = regexp.MustCompile(`\n{3,}`)
	reCRLF               = regexp.MustCompile(`\r\n?`)
	reSpaceRuns          = regexp.MustCompile(`[ \t\f\v\x{00a0}]+`)
)

// normalizeOutput tidies generated markdown:
// - CRLF -> LF
// - control characters dropped (\n and \t kept)
// - trailing whitespace stripped per line
// - 3+ newlines collapsed to 2
// - leading/trailing whitespace trimmed
func normalizeOutput(s string) string {
	s = cleanText(s)
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	s = reTrailingWhitespace.ReplaceAllString(s, "\n")
	s = reMultipleNewlines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// cleanText makes s valid UTF-8 with LF line endings and no control
// characters other than newline and tab.
func cleanText(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	s = reCRLF.ReplaceAllString(s, "\n")
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) || r == '\uFFFD' || r == '\uFEFF' {
			return -1
		}
		return r
	}, s)
}

// collapseWhitespace joins all whitespace runs into single spaces while
// keeping paragraph breaks (blank lines) as a single newline.
func collapseWhitespace(s string) string {
	s = reCRLF.ReplaceAllString(s, "\n")
	lines := strings.Split(s, "\n")
	var out []string
	blank := false
	for _, line := range lines {
		line = strings.TrimSpace(reSpaceRuns.ReplaceAllString(line, " "))
		if line == "" {
			blank = len(out) > 0
			continue
		}
		if blank {
			out = append(out, "")
			blank = false
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// trimSpaceLines trims trailing spaces on each line and surrounding blank lines.
func trimSpaceLines(s string) string {
	s = reCRLF.ReplaceAllString(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	s = reTrailingWhitespace.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}

// mojibakeRepair maps UTF-8 text that was decoded as Windows-1252 back to the
// intended characters. Order matters: longer runs first.
var mojibakeRepair = strings.NewReplacer(
	"â€™", "’",
	"â€˜", "‘",
	"â€œ", "“",
	"â€\u009d", "”",
	"â€“", "–",
	"â€”", "—",
	"â€¦", "…",
	"â€¢", "•",
	"â‚¬", "€",
	"Ã©", "é",
	"Ã¨", "è",
	"Ãª", "ê",
	"Ã«", "ë",
	"Ã¡", "á",
	"Ã¢", "â",
	"Ã¤", "ä",
	"Ã§", "ç",
	"Ã®", "î",
	"Ã¯", "ï",
	"Ã³", "ó",
	"Ã´", "ô",
	"Ã¶", "ö",
	"Ãº", "ú",
	"Ã¼", "ü",
	"Ã±", "ñ",
	"ÃŸ", "ß",
	"Â ", " ",
	"Â·", "·",
	"Â°", "°",
	"Â©", "©",
	"Â®", "®",
)

// cleanMojibake repairs known mojibake runs and drops what cannot be repaired.
func cleanMojibake(s string) string {
	s = mojibakeRepair.Replace(s)
	// A leftover "â€" prefix has lost its third byte; nothing sensible remains.
	return strings.ReplaceAll(s, "â€", "")
}
