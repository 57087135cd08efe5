package textutil

import (
	"strings"
	"testing"
)

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"plain title", "plain title"},
		{"  padded  ", "padded"},
		{"a/b\\c:d", "a-b-c-d"},
		{`what? "quoted" <tag> |pipe|`, "what quoted tag pipe"},
		{"spaced \t out", "spaced out"},
		{"trailing dots...", "trailing dots"},
		{"nul\x00byte", "nulbyte"},
		{"", ""},
		{"???", ""},
	}
	for _, tc := range cases {
		if got := SanitizeFileName(tc.in); got != tc.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeFileNameCapsLength(t *testing.T) {
	got := SanitizeFileName(strings.Repeat("x", 500))
	if n := len([]rune(got)); n != maxFileNameRunes {
		t.Fatalf("sanitized length = %d, want %d", n, maxFileNameRunes)
	}
}
