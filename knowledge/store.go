package knowledge

import (
	"math/rand"
	"strings"
	"unicode"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Store answers exact-or-fuzzy lookups against the loaded knowledge set.
// It is a pure reader: the underlying Base never changes after startup.
type Store struct {
	base      *Base
	threshold int
	score     func(a, b string) int
	logger    *zap.Logger
}

// Hit is a successful lookup: the winning entry and its match score (0-100).
type Hit struct {
	Entry *Entry
	Score int
}

func NewStore(base *Base, threshold int, logger *zap.Logger) *Store {
	if base == nil {
		base = &Base{}
	}
	return &Store{
		base:      base,
		threshold: threshold,
		score:     fuzzy.Ratio,
		logger:    logger,
	}
}

// Base exposes the loaded knowledge set for health reporting and language
// configuration.
func (s *Store) Base() *Base {
	return s.base
}

// Lookup scores the question against every phrasing of every entry and
// returns the best entry when its score clears the threshold. A score equal
// to the threshold is accepted. An exact match after normalization wins
// immediately with the maximum score.
func (s *Store) Lookup(question string) (*Hit, bool) {
	q := Normalize(question)
	if q == "" {
		return nil, false
	}

	for i := range s.base.Items {
		for _, phrasing := range s.base.Items[i].Questions {
			if Normalize(phrasing) == q {
				return &Hit{Entry: &s.base.Items[i], Score: 100}, true
			}
		}
	}

	var best *Hit
	for i := range s.base.Items {
		for _, phrasing := range s.base.Items[i].Questions {
			score := s.score(q, Normalize(phrasing))
			if best == nil || score > best.Score {
				best = &Hit{Entry: &s.base.Items[i], Score: score}
			}
		}
	}

	if best == nil || best.Score < s.threshold {
		return nil, false
	}
	s.logger.Debug("Knowledge lookup matched",
		zap.String("id", best.Entry.ID),
		zap.Int("score", best.Score))
	return best, true
}

// Response resolves the surfaced answer text for a hit. Fixed entries
// always return the canonical answer; dynamic entries pick a response
// variant uniformly at random, falling back to the canonical answer when
// no variants exist. rng is not locked here; concurrent callers must
// serialize access to it.
func (h *Hit) Response(rng *rand.Rand) string {
	e := h.Entry
	if e.Mode == ModeDynamic && len(e.ResponseVariants) > 0 {
		return e.ResponseVariants[rng.Intn(len(e.ResponseVariants))]
	}
	return e.Canonical
}

// newDiacriticStripper returns a fresh transformer chain; transform.Chain
// values carry per-use state and are not safe for concurrent use, so each
// Normalize call builds its own.
func newDiacriticStripper() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// Normalize lowercases, strips diacritics and punctuation, and collapses
// whitespace so "Che cos'è la P560?" and "che cose la p560" compare equal.
func Normalize(s string) string {
	s = strings.ToLower(s)
	if stripped, _, err := transform.String(newDiacriticStripper(), s); err == nil {
		s = stripped
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
