package lang

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/ZanRoberto/Tecnaria-V3-sub000/errors"
	"go.uber.org/zap"
)

// GoogleTranslator calls the public translate endpoint the way
// deep-translator does: a GET with source/target codes and the text, the
// response being a nested JSON array whose first element holds the
// translated segments.
type GoogleTranslator struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewGoogleTranslator(baseURL string, timeout time.Duration, logger *zap.Logger) *GoogleTranslator {
	return &GoogleTranslator{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (t *GoogleTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	if source == "" {
		source = "auto"
	}

	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", source)
	params.Set("tl", target)
	params.Set("dt", "t")
	params.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", apperrors.WrapError(err, "create translate request")
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", apperrors.WrapError(apperrors.ErrExternalService, err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperrors.WrapError(err, "read translate response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", apperrors.WrapErrorf(apperrors.ErrExternalService,
			"translate server status %s", resp.Status)
	}

	translated, err := decodeTranslation(body)
	if err != nil {
		return "", err
	}
	return translated, nil
}

// decodeTranslation joins the segment texts out of the provider's
// [[["segment","original",...],...],...] payload.
func decodeTranslation(body []byte) (string, error) {
	var payload []json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode translate response: %w", err)
	}
	if len(payload) == 0 {
		return "", fmt.Errorf("empty translate response")
	}

	var segments [][]json.RawMessage
	if err := json.Unmarshal(payload[0], &segments); err != nil {
		return "", fmt.Errorf("decode translate segments: %w", err)
	}

	var b strings.Builder
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		var piece string
		if err := json.Unmarshal(seg[0], &piece); err == nil {
			b.WriteString(piece)
		}
	}
	return b.String(), nil
}
