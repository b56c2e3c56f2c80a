package utils

import "strings"

// CollapseWhitespace collapses every run of whitespace (spaces, tabs,
// newlines) into a single space and trims the result. All extracted
// document text goes through this before matching.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TruncateRunes cuts s to at most max characters. The cut is by rune, not
// byte, so multi-byte text is never split mid-character.
func TruncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
