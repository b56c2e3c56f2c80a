package site

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"

	apperrors "github.com/ZanRoberto/Tecnaria-V3-sub000/errors"
	"github.com/ZanRoberto/Tecnaria-V3-sub000/match"
)

const (
	userAgent      = "Mozilla/5.0 (compatible; TecnariaBot/3.0)"
	maxSearchLinks = 5
)

// Result is a relevant snippet from the product site with its provenance.
type Result struct {
	URL     string
	Score   int
	Snippet string
}

// Config for the site search stage.
type Config struct {
	Domain        string
	SearchURL     string
	FallbackPages []string
	Timeout       time.Duration
	PageCacheSize int
}

// Client searches the product site: it asks an HTML search endpoint for
// pages under the configured domain, falls back to a fixed page list when
// the search yields nothing, and fuzzy-ranks the fetched page text against
// the question.
type Client struct {
	cfg        Config
	httpClient *http.Client
	matcher    *match.Matcher
	pageCache  *lru.Cache
	logger     *zap.Logger
}

func NewClient(cfg Config, matcher *match.Matcher, logger *zap.Logger) (*Client, error) {
	size := cfg.PageCacheSize
	if size <= 0 {
		size = 32
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, apperrors.WrapError(err, "create page cache")
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		matcher:    matcher,
		pageCache:  cache,
		logger:     logger,
	}, nil
}

// Search returns the best-scoring page snippet above threshold, or
// (nil, nil) when nothing on the site is relevant enough.
func (c *Client) Search(ctx context.Context, question string) (*Result, error) {
	urls := c.searchLinks(ctx, question)
	if len(urls) == 0 {
		urls = c.cfg.FallbackPages
	}

	var candidates []match.Candidate
	for _, pageURL := range urls {
		text := c.pageText(ctx, pageURL)
		if text == "" {
			continue
		}
		candidates = append(candidates, match.Candidate{ID: pageURL, Text: text})
	}
	if len(candidates) == 0 {
		return nil, apperrors.WrapError(apperrors.ErrExternalService, "no site page could be fetched")
	}

	res, ok := c.matcher.BestMatch(question, candidates)
	if !ok {
		return nil, nil
	}
	return &Result{URL: res.ID, Score: res.Score, Snippet: res.Text}, nil
}

// searchLinks queries the search endpoint with a site: restricted query
// and collects result links under the domain. Failures yield an empty
// list; the caller falls back to the fixed pages.
func (c *Client) searchLinks(ctx context.Context, question string) []string {
	if c.cfg.SearchURL == "" {
		return nil
	}

	params := url.Values{}
	params.Set("q", fmt.Sprintf("site:%s %s", c.cfg.Domain, question))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.SearchURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Site search request failed", zap.Error(err))
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Site search non-200", zap.String("status", resp.Status))
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		c.logger.Warn("Site search response unparsable", zap.Error(err))
		return nil
	}

	var links []string
	doc.Find("a.result__a, a.result-link").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, ok := s.Attr("href")
		if !ok || !strings.Contains(href, c.cfg.Domain) {
			return true
		}
		links = append(links, href)
		return len(links) < maxSearchLinks
	})
	return links
}

// pageText fetches a page and extracts its paragraph text, cached by URL.
func (c *Client) pageText(ctx context.Context, pageURL string) string {
	if cached, ok := c.pageCache.Get(pageURL); ok {
		return cached.(string)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Site page fetch failed", zap.String("url", pageURL), zap.Error(err))
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		c.logger.Warn("Site page unparsable", zap.String("url", pageURL), zap.Error(err))
		return ""
	}

	doc.Find("script, style, iframe, noscript").Remove()

	var paragraphs []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			paragraphs = append(paragraphs, t)
		}
	})

	text := strings.Join(paragraphs, "\n")
	if text == "" {
		text = strings.TrimSpace(doc.Text())
	}

	c.pageCache.Add(pageURL, text)
	return text
}
