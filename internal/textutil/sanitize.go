// Package textutil provides filename sanitization for titles that come from
// untrusted sources, such as downloaded media metadata.
package textutil

import "strings"

// maxFileNameRunes bounds sanitized names so yt-dlp titles cannot overflow
// filesystem name limits once an extension is appended.
const maxFileNameRunes = 120

func mapRune(r rune) rune {
	switch r {
	case '/', '\\', ':', '*':
		return '-'
	case '?', '"', '<', '>', '|', '\x00':
		return -1
	}
	if r < 0x20 {
		return -1
	}
	return r
}

// SanitizeFileName makes a title safe to use as a filename. Path separators,
// colons, and asterisks become dashes; control characters and other unsafe
// runes are dropped; runs of whitespace collapse to single spaces; the result
// is capped in length and trimmed. Returns "" when nothing usable remains.
func SanitizeFileName(name string) string {
	cleaned := strings.Map(mapRune, name)
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if cleaned == "" {
		return ""
	}
	runes := []rune(cleaned)
	if len(runes) > maxFileNameRunes {
		cleaned = strings.TrimSpace(string(runes[:maxFileNameRunes]))
	}
	return strings.Trim(cleaned, ". ")
}
