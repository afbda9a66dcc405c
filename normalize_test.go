package docconv

import "testing"

func TestNormalization(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "trailing whitespace",
			input: "hello   \nworld   \n",
			want:  "hello\nworld",
		},
		{
			name:  "multiple newlines",
			input: "hello\n\n\n\n\nworld",
			want:  "hello\n\nworld",
		},
		{
			name:  "crlf",
			input: "hello\r\nworld\r\n",
			want:  "hello\nworld",
		},
		{
			name:  "control characters",
			input: "hello\x00world\x01test",
			want:  "helloworldtest",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeOutput(tt.input)
			if got != tt.want {
				t.Errorf("normalizeOutput(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"a\r\nb\rc", "a\nb\nc"},
		{"tab\tkept\x07", "tab\tkept"},
		{"bad\xffbyte", "badbyte"},
		{"\uFEFFbom \uFFFDreplacement", "bom replacement"},
	}
	for _, tt := range tests {
		if got := cleanText(tt.input); got != tt.want {
			t.Errorf("cleanText(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCleanMojibake(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Itâ€™s fine", "It’s fine"},
		{"CafÃ© crÃ¨me", "Café crème"},
		{"â€œquotedâ€\u009d", "“quoted”"},
		{"stray â€ run", "stray  run"},
		{"untouched", "untouched"},
	}
	for _, tt := range tests {
		if got := cleanMojibake(tt.input); got != tt.want {
			t.Errorf("cleanMojibake(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCollapseWhitespace(t *testing.T) {
	got := collapseWhitespace("  one   two \n\n\n   three four  \n")
	if want := "one two\n\nthree four"; got != want {
		t.Errorf("collapseWhitespace = %q, want %q", got, want)
	}
}
