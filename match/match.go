package match

import (
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/ZanRoberto/Tecnaria-V3-sub000/utils"
)

// Candidate is one text fragment competing for the best match: a document
// body, a knowledge phrasing or a remote page, identified by its source.
type Candidate struct {
	ID   string
	Text string
}

// Result is the winning candidate with its bounded 0-100 score. Text is
// truncated to the matcher's maximum length.
type Result struct {
	ID    string
	Score int
	Text  string
}

// Matcher ranks candidates against a query with a partial-ratio style
// fuzzy score. Score is injectable so tests can use a deterministic
// function.
type Matcher struct {
	Threshold int
	MaxLen    int
	Score     func(query, candidate string) int
}

func New(threshold, maxLen int) *Matcher {
	return &Matcher{
		Threshold: threshold,
		MaxLen:    maxLen,
		Score:     partialRatio,
	}
}

func partialRatio(query, candidate string) int {
	return fuzzy.PartialRatio(strings.ToLower(query), strings.ToLower(candidate))
}

// BestMatch returns the highest-scoring candidate at or above the
// threshold. Ties keep the earliest candidate. Returns false when no
// candidate clears the threshold.
func (m *Matcher) BestMatch(query string, candidates []Candidate) (*Result, bool) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, false
	}

	score := m.Score
	if score == nil {
		score = partialRatio
	}

	var best *Result
	for _, c := range candidates {
		if c.Text == "" {
			continue
		}
		s := score(query, c.Text)
		if best == nil || s > best.Score {
			best = &Result{ID: c.ID, Score: s, Text: c.Text}
		}
	}

	if best == nil || best.Score < m.Threshold {
		return nil, false
	}
	best.Text = utils.TruncateRunes(best.Text, m.MaxLen)
	return best, true
}
