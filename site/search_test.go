package site

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ZanRoberto/Tecnaria-V3-sub000/match"
)

func newTestClient(t *testing.T, cfg Config, threshold int) *Client {
	t.Helper()
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Second
	}
	c, err := NewClient(cfg, match.New(threshold, 3000), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestSearchUsesSearchEndpointLinks(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
<script>tracking()</script>
<p>Connettori CTF chiodatrice P560: posa a sparo su travi in acciaio.</p>
<p>Altezze disponibili: 20, 40, 60, 80 mm.</p>
</body></html>`)
	}))
	defer page.Close()

	search := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><body>
<a class="result__a" href="%s/connettori.html">Connettori CTF</a>
<a class="result__a" href="https://altrosito.example/x">fuori dominio</a>
</body></html>`, page.URL)
	}))
	defer search.Close()

	c := newTestClient(t, Config{
		Domain:    "127.0.0.1",
		SearchURL: search.URL,
	}, 60)

	res, err := c.Search(context.Background(), "connettori CTF chiodatrice P560")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if res == nil {
		t.Fatal("expected a result")
	}
	if res.URL != page.URL+"/connettori.html" {
		t.Errorf("result URL = %s", res.URL)
	}
	if res.Snippet == "" || res.Score < 60 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestSearchFallsBackToFixedPages(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><p>Chiodatrici SPIT P560 per connettori a sparo.</p></body></html>`)
	}))
	defer page.Close()

	c := newTestClient(t, Config{
		Domain:        "tecnaria.com",
		SearchURL:     "", // no search endpoint configured
		FallbackPages: []string{page.URL},
	}, 60)

	res, err := c.Search(context.Background(), "chiodatrici SPIT P560")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if res == nil || res.URL != page.URL {
		t.Fatalf("expected fallback page result, got %+v", res)
	}
}

func TestSearchBelowThresholdReturnsNoResult(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><p>pagina completamente estranea al quesito</p></body></html>`)
	}))
	defer page.Close()

	c := newTestClient(t, Config{
		Domain:        "tecnaria.com",
		FallbackPages: []string{page.URL},
	}, 60)
	c.matcher.Score = func(q, cand string) int { return 59 }

	res, err := c.Search(context.Background(), "domanda")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if res != nil {
		t.Errorf("below-threshold page should yield no result, got %+v", res)
	}
}

func TestSearchUnreachablePagesReturnError(t *testing.T) {
	c := newTestClient(t, Config{
		Domain:        "tecnaria.com",
		FallbackPages: []string{"http://127.0.0.1:1/irraggiungibile"},
		Timeout:       200 * time.Millisecond,
	}, 60)

	if _, err := c.Search(context.Background(), "domanda"); err == nil {
		t.Error("expected an error when no page can be fetched")
	}
}

func TestPageTextIsCached(t *testing.T) {
	var hits int32
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		fmt.Fprint(w, `<html><body><p>Connettori per solai misti legno calcestruzzo.</p></body></html>`)
	}))
	defer page.Close()

	c := newTestClient(t, Config{
		Domain:        "tecnaria.com",
		FallbackPages: []string{page.URL},
	}, 10)

	for i := 0; i < 3; i++ {
		if _, err := c.Search(context.Background(), "connettori solai legno"); err != nil {
			t.Fatal(err)
		}
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("page fetched %d times, want 1 (LRU cached)", got)
	}
}
