package lang

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

type stubDetector struct {
	lang string
}

func (d stubDetector) Detect(string) string { return d.lang }

type countingTranslator struct {
	calls  int
	result string
	err    error
}

func (t *countingTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	t.calls++
	if t.err != nil {
		return "", t.err
	}
	if t.result != "" {
		return t.result, nil
	}
	return "[" + target + "] " + text, nil
}

func newTestNormalizer(detector Detector, translator Translator) *Normalizer {
	return NewNormalizer(detector, translator,
		"it", []string{"it", "en", "fr", "de", "es"}, "en", zap.NewNop())
}

func TestNormalizePivotShortCircuit(t *testing.T) {
	translator := &countingTranslator{}
	n := newTestNormalizer(stubDetector{lang: "it"}, translator)

	detected, pivotQ := n.Normalize(context.Background(), "Che cos'è la P560?")
	if detected != "it" {
		t.Errorf("detected = %s, want it", detected)
	}
	if pivotQ != "Che cos'è la P560?" {
		t.Errorf("question changed: %q", pivotQ)
	}
	if translator.calls != 0 {
		t.Errorf("translator called %d times, want 0", translator.calls)
	}
}

func TestNormalizeUnknownSkipsTranslation(t *testing.T) {
	translator := &countingTranslator{}
	n := newTestNormalizer(stubDetector{lang: UnknownLang}, translator)

	detected, pivotQ := n.Normalize(context.Background(), "???")
	if detected != UnknownLang {
		t.Errorf("detected = %s, want unknown", detected)
	}
	if pivotQ != "???" || translator.calls != 0 {
		t.Error("unknown language must not trigger translation")
	}
}

func TestNormalizeTranslatesForeignQuestion(t *testing.T) {
	translator := &countingTranslator{}
	n := newTestNormalizer(stubDetector{lang: "en"}, translator)

	_, pivotQ := n.Normalize(context.Background(), "What is the P560?")
	if pivotQ != "[it] What is the P560?" {
		t.Errorf("pivot question = %q", pivotQ)
	}
	if translator.calls != 1 {
		t.Errorf("translator calls = %d, want 1", translator.calls)
	}
}

func TestNormalizeTranslationFailureFallsBack(t *testing.T) {
	translator := &countingTranslator{err: fmt.Errorf("provider down")}
	n := newTestNormalizer(stubDetector{lang: "en"}, translator)

	detected, pivotQ := n.Normalize(context.Background(), "What is the P560?")
	if detected != "en" {
		t.Errorf("detected = %s, want en", detected)
	}
	if pivotQ != "What is the P560?" {
		t.Errorf("failed translation must keep original, got %q", pivotQ)
	}
}

func TestDenormalize(t *testing.T) {
	tests := []struct {
		name      string
		target    string
		err       error
		want      string
		wantCalls int
	}{
		{name: "pivot_target_skips", target: "it", want: "risposta", wantCalls: 0},
		{name: "unknown_target_skips", target: UnknownLang, want: "risposta", wantCalls: 0},
		{name: "supported_target_translates", target: "fr", want: "[fr] risposta", wantCalls: 1},
		{name: "unsupported_target_uses_fallback", target: "ja", want: "[en] risposta", wantCalls: 1},
		{name: "failure_returns_original", target: "fr", err: fmt.Errorf("boom"), want: "risposta", wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			translator := &countingTranslator{err: tt.err}
			n := newTestNormalizer(stubDetector{lang: "it"}, translator)

			got := n.Denormalize(context.Background(), "risposta", tt.target)
			if got != tt.want {
				t.Errorf("Denormalize = %q, want %q", got, tt.want)
			}
			if translator.calls != tt.wantCalls {
				t.Errorf("translator calls = %d, want %d", translator.calls, tt.wantCalls)
			}
		})
	}
}

func TestWhatlangDetector(t *testing.T) {
	d := WhatlangDetector{}

	if got := d.Detect("Questa è una frase scritta interamente in lingua italiana per la prova."); got != "it" {
		t.Errorf("Detect(italian) = %s, want it", got)
	}
	if got := d.Detect(""); got != UnknownLang {
		t.Errorf("Detect(empty) = %s, want unknown", got)
	}
}

func TestGoogleTranslator(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("sl"); got != "auto" {
			t.Errorf("sl = %s, want auto", got)
		}
		if got := r.URL.Query().Get("tl"); got != "it" {
			t.Errorf("tl = %s, want it", got)
		}
		fmt.Fprint(w, `[[["Che cos'è ","What is ",null],["la P560?","the P560?",null]],null,"en"]`)
	}))
	defer srv.Close()

	tr := NewGoogleTranslator(srv.URL, time.Second, zap.NewNop())
	got, err := tr.Translate(context.Background(), "What is the P560?", "auto", "it")
	if err != nil {
		t.Fatalf("Translate returned error: %v", err)
	}
	if got != "Che cos'è la P560?" {
		t.Errorf("Translate = %q", got)
	}
}

func TestGoogleTranslatorServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	tr := NewGoogleTranslator(srv.URL, time.Second, zap.NewNop())
	if _, err := tr.Translate(context.Background(), "testo", "auto", "en"); err == nil {
		t.Error("expected error on non-200 response")
	}
}
