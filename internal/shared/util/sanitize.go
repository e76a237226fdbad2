package util

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	maxFileNameRunes = 255
	fallbackFileName = "document"
)

// SanitizeFileName reduces a client-supplied name to a display-safe base
// name: directories and control characters are dropped and the result is
// capped at 255 runes, keeping the extension.
func SanitizeFileName(name string) string {
	s := strings.TrimSpace(name)
	if i := strings.LastIndexAny(s, `/\`); i >= 0 {
		s = s[i+1:]
	}
	s = strings.Map(func(r rune) rune {
		if r == utf8.RuneError || unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	s = strings.TrimSpace(s)
	if s == "" || s == "." || s == ".." {
		return fallbackFileName
	}
	if utf8.RuneCountInString(s) <= maxFileNameRunes {
		return s
	}
	runes := []rune(s)
	ext := ""
	if dot := strings.LastIndexByte(s, '.'); dot > 0 && len(s)-dot <= 10 {
		ext = s[dot:]
	}
	keep := maxFileNameRunes - utf8.RuneCountInString(ext)
	return string(runes[:keep]) + ext
}
