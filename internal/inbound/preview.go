package inbound

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const previewMaxLength = 200

var whitespaceRun = regexp.MustCompile(`\s+`)

// GeneratePreview collapses whitespace in the plain-text body and truncates
// it to previewMaxLength characters for inbox listings. Truncation counts
// runes, not bytes, so a multibyte character is never split. It returns nil
// when the message has no text body.
func GeneratePreview(text string) *string {
	if text == "" {
		return nil
	}

	cleaned := strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
	if utf8.RuneCountInString(cleaned) > previewMaxLength {
		runes := []rune(cleaned)
		cleaned = string(runes[:previewMaxLength]) + "..."
	}
	return &cleaned
}
