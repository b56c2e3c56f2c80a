package knowledge

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Mode selects how an entry's answer text is surfaced: a fixed entry always
// returns its canonical answer, a dynamic one picks among response variants.
type Mode int

const (
	ModeFixed Mode = iota
	ModeDynamic
)

func (m Mode) String() string {
	if m == ModeDynamic {
		return "dynamic"
	}
	return "fixed"
}

func (m *Mode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fixed", "static":
		*m = ModeFixed
	case "dynamic", "variant", "varied":
		*m = ModeDynamic
	default:
		return fmt.Errorf("unknown mode %q", s)
	}
	return nil
}

func (m Mode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// Entry is one canonical question/answer item from the knowledge file.
type Entry struct {
	ID               string   `json:"id"`
	Tags             []string `json:"tags"`
	Questions        []string `json:"questions"`
	Canonical        string   `json:"canonical"`
	ResponseVariants []string `json:"response_variants"`
	Mode             Mode     `json:"mode"`
}

// Meta carries the knowledge file's language contract: the pivot language
// the corpus is written in, the translation targets the assistant accepts,
// and the fallback when detection yields something unsupported.
type Meta struct {
	Version        string   `json:"version"`
	Language       string   `json:"language"`
	SupportedLangs []string `json:"supported_langs"`
	FallbackLang   string   `json:"fallback_lang"`
}

// Base is the full knowledge file as loaded from disk. It is immutable
// after startup.
type Base struct {
	Family           string  `json:"family"`
	LockToCore       bool    `json:"lock_to_core"`
	VariantsStrategy string  `json:"variants_strategy"`
	Items            []Entry `json:"items"`
	Meta             Meta    `json:"meta"`
}
