package docconv

import "log/slog"

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the logger used for salvage and render diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Converter) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithKeepDataURIs configures whether to keep full data URIs in markdown output
// (default: false, which truncates them to data:mime/type;base64...).
func WithKeepDataURIs(keep bool) Option {
	return func(c *Converter) {
		c.keepDataURIs = keep
	}
}

// WithFonts replaces the embedded PDF fonts with TrueType data, e.g. a font
// with wider script coverage. bold may be nil to reuse regular.
func WithFonts(regular, bold []byte) Option {
	return func(c *Converter) {
		if len(regular) == 0 {
			return
		}
		c.fonts.regular = regular
		c.fonts.bold = bold
		if len(bold) == 0 {
			c.fonts.bold = regular
		}
	}
}

// WithPageSize sets the PDF page size ("A4", "Letter", "Legal", "A5").
func WithPageSize(size string) Option {
	return func(c *Converter) {
		if size != "" {
			c.pageSize = size
		}
	}
}
