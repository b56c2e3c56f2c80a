package composer

import (
	"fmt"
	"strings"

	"github.com/jdkato/prose/v2"

	"github.com/ZanRoberto/Tecnaria-V3-sub000/documents"
	"github.com/ZanRoberto/Tecnaria-V3-sub000/utils"
)

// assembleContext concatenates the whole local corpus, labelled per
// document, capped at the configured character limit with the cut at a
// sentence boundary when possible.
func (c *Composer) assembleContext(records []documents.Record) string {
	if len(records) == 0 {
		return ""
	}

	var b strings.Builder
	for _, r := range records {
		if r.Text == "" {
			continue
		}
		b.WriteString(fmt.Sprintf("[Documento: %s]\n%s\n\n", r.RelPath, r.Text))
	}

	return capAtSentenceBoundary(strings.TrimSpace(b.String()), c.opts.ContextMaxChars)
}

// capAtSentenceBoundary trims text to at most max characters, preferring
// to end on a complete sentence. When sentence segmentation fails or no
// sentence fits, it falls back to a plain character cut.
func capAtSentenceBoundary(text string, max int) string {
	if len([]rune(text)) <= max {
		return text
	}

	doc, err := prose.NewDocument(text, prose.WithExtraction(false), prose.WithTagging(false))
	if err != nil {
		return utils.TruncateRunes(text, max)
	}

	var b strings.Builder
	total := 0
	for _, sent := range doc.Sentences() {
		n := len([]rune(sent.Text)) + 1
		if total+n > max {
			break
		}
		b.WriteString(sent.Text)
		b.WriteString(" ")
		total += n
	}

	capped := strings.TrimSpace(b.String())
	if capped == "" {
		return utils.TruncateRunes(text, max)
	}
	return capped
}
