package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/ZanRoberto/Tecnaria-V3-sub000/composer"
	"github.com/ZanRoberto/Tecnaria-V3-sub000/config"
	"github.com/ZanRoberto/Tecnaria-V3-sub000/knowledge"
)

type stubService struct{}

func (stubService) Answer(context.Context, string) composer.Answer {
	return composer.Answer{Text: "risposta", Source: "knowledge"}
}

func newTestServer(perMinute, burst int) *Server {
	base := &knowledge.Base{
		Family: "P560",
		Items:  []knowledge.Entry{{ID: "P560-001", Questions: []string{"q"}, Canonical: "a"}},
		Meta:   knowledge.Meta{Version: "3.0"},
	}
	cfg := &config.Config{RateLimitPerMinute: perMinute, RateLimitBurst: burst}
	return NewServer(stubService{}, base, cfg, zap.NewNop())
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(60, 10)
	defer srv.limiter.Stop()

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["ok"] != true {
		t.Error("health ok flag missing")
	}
	if resp["items"].(float64) != 1 {
		t.Errorf("items = %v, want 1", resp["items"])
	}
	families, ok := resp["families"].([]any)
	if !ok || len(families) != 1 || families[0] != "P560" {
		t.Errorf("families = %v, want [P560]", resp["families"])
	}
}

func TestAskEndpointRateLimited(t *testing.T) {
	srv := newTestServer(1, 2) // burst of 2, slow refill
	defer srv.limiter.Stop()

	post := func() int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"domanda":"q"}`))
		req.Header.Set("Content-Type", "application/json")
		srv.Router().ServeHTTP(w, req)
		return w.Code
	}

	if got := post(); got != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", got)
	}
	if got := post(); got != http.StatusOK {
		t.Fatalf("second request status = %d, want 200", got)
	}
	if got := post(); got != http.StatusTooManyRequests {
		t.Errorf("third request status = %d, want 429", got)
	}
}
