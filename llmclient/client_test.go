package llmclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ZanRoberto/Tecnaria-V3-sub000/config"
	apperrors "github.com/ZanRoberto/Tecnaria-V3-sub000/errors"
)

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		OpenAIAPIKey:      "test-key",
		OpenAIBaseURL:     baseURL,
		OpenAIModel:       "gpt-4o-mini",
		HTTPTimeout:       2 * time.Second,
		MaxRetries:        3,
		RetryDelaySeconds: time.Millisecond,
	}
}

func TestChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.Model != "gpt-4o-mini" {
			t.Errorf("model = %s", req.Model)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("messages = %+v", req.Messages)
		}
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"Risposta tecnica."}}]}`)
	}))
	defer srv.Close()

	client := New(testConfig(srv.URL), zap.NewNop())
	got, err := client.Chat(context.Background(), []Message{
		{Role: "system", Content: "Sei un esperto tecnico."},
		{Role: "user", Content: "Che cos'è la P560?"},
	}, nil)
	if err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}
	if got != "Risposta tecnica." {
		t.Errorf("Chat = %q", got)
	}
}

func TestChatRetriesOnOverload(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`)
	}))
	defer srv.Close()

	client := New(testConfig(srv.URL), zap.NewNop())
	got, err := client.Chat(context.Background(), []Message{{Role: "user", Content: "q"}}, nil)
	if err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}
	if got != "ok" {
		t.Errorf("Chat = %q", got)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestChatExhaustedRetriesReportLastStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := New(testConfig(srv.URL), zap.NewNop())
	_, err := client.Chat(context.Background(), []Message{{Role: "user", Content: "q"}}, nil)
	if !apperrors.IsExternalService(err) {
		t.Fatalf("error = %v, want ErrExternalService", err)
	}
	if !strings.Contains(err.Error(), "503") {
		t.Errorf("error %q should carry the last retryable status", err)
	}
}

func TestChatBackoffHonorsContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.RetryDelaySeconds = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	client := New(cfg, zap.NewNop())
	_, err := client.Chat(ctx, []Message{{Role: "user", Content: "q"}}, nil)
	if err == nil {
		t.Fatal("expected an error after context cancellation")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("backoff ignored cancellation, took %v", elapsed)
	}
}

func TestChatServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad prompt", http.StatusBadRequest)
	}))
	defer srv.Close()

	client := New(testConfig(srv.URL), zap.NewNop())
	_, err := client.Chat(context.Background(), []Message{{Role: "user", Content: "q"}}, nil)
	if !apperrors.IsExternalService(err) {
		t.Errorf("error = %v, want ErrExternalService", err)
	}
}

func TestChatWithoutAPIKey(t *testing.T) {
	cfg := testConfig("http://unused")
	cfg.OpenAIAPIKey = ""

	client := New(cfg, zap.NewNop())
	_, err := client.Chat(context.Background(), []Message{{Role: "user", Content: "q"}}, nil)
	if !apperrors.IsConfigMissing(err) {
		t.Errorf("error = %v, want ErrConfigMissing", err)
	}
}
