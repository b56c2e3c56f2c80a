package format

import (
	"strings"

	"github.com/gomarkdown/markdown"
)

// ToHTML renders an answer's markdown to HTML for clients that want a
// formatted body alongside the plain text.
func ToHTML(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	return strings.TrimSpace(string(markdown.ToHTML([]byte(text), nil, nil)))
}
