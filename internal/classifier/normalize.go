package classifier

import (
	"regexp"
	"strings"
)

var (
	urlPattern        = regexp.MustCompile(`https?://\S+|www\.\S+`)
	emailPattern      = regexp.MustCompile(`\S+@\S+\.\S+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Normalize strips URLs and email-like tokens from raw ticket text and
// collapses whitespace runs to single spaces. Total: malformed input still
// yields a string, possibly empty.
func Normalize(text string) string {
	text = urlPattern.ReplaceAllString(text, " ")
	text = emailPattern.ReplaceAllString(text, " ")
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
