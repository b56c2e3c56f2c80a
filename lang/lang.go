package lang

import (
	"context"

	"github.com/abadojack/whatlanggo"
	"go.uber.org/zap"
)

// UnknownLang marks a failed or unreliable detection. An unknown question
// is treated as already being in the pivot language.
const UnknownLang = "unknown"

// Detector classifies the language of a text as an ISO 639-1 code, or
// UnknownLang on failure.
type Detector interface {
	Detect(text string) string
}

// Translator is the pass-through contract to the translation provider.
// Source may be "auto".
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// WhatlangDetector detects via trigram statistics, no network involved.
type WhatlangDetector struct{}

func (WhatlangDetector) Detect(text string) string {
	info := whatlanggo.Detect(text)
	code := info.Lang.Iso6391()
	if code == "" {
		return UnknownLang
	}
	return code
}

// Normalizer sequences translation around the matching pipeline: question
// into the pivot language before matching, answer back to the user's
// language after. Either direction failing falls back to the untranslated
// text.
type Normalizer struct {
	detector   Detector
	translator Translator
	pivot      string
	supported  map[string]bool
	fallback   string
	logger     *zap.Logger
}

func NewNormalizer(detector Detector, translator Translator, pivot string, supported []string, fallback string, logger *zap.Logger) *Normalizer {
	set := make(map[string]bool, len(supported))
	for _, l := range supported {
		set[l] = true
	}
	return &Normalizer{
		detector:   detector,
		translator: translator,
		pivot:      pivot,
		supported:  set,
		fallback:   fallback,
		logger:     logger,
	}
}

// Normalize detects the question's language and returns the detected code
// plus the question in the pivot language. When detection fails or already
// matches the pivot, no translation call is made.
func (n *Normalizer) Normalize(ctx context.Context, question string) (string, string) {
	detected := n.detector.Detect(question)
	if detected == UnknownLang || detected == n.pivot {
		return detected, question
	}

	translated, err := n.translator.Translate(ctx, question, "auto", n.pivot)
	if err != nil || translated == "" {
		n.logger.Warn("Question translation failed, matching the original text",
			zap.String("detected", detected), zap.Error(err))
		return detected, question
	}
	return detected, translated
}

// Denormalize localizes the answer toward the detected language. Unknown
// or pivot targets skip translation; an unsupported target is replaced by
// the configured fallback language. Failures return the answer untouched.
func (n *Normalizer) Denormalize(ctx context.Context, answer, target string) string {
	if target == UnknownLang || target == n.pivot || answer == "" {
		return answer
	}
	if !n.supported[target] {
		target = n.fallback
		if target == "" || target == n.pivot {
			return answer
		}
	}

	translated, err := n.translator.Translate(ctx, answer, n.pivot, target)
	if err != nil || translated == "" {
		n.logger.Warn("Answer translation failed, returning pivot-language text",
			zap.String("target", target), zap.Error(err))
		return answer
	}
	return translated
}
