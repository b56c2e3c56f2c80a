package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ZanRoberto/Tecnaria-V3-sub000/config"
	apperrors "github.com/ZanRoberto/Tecnaria-V3-sub000/errors"
)

// Message is one chat turn sent to the completion endpoint.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Client talks to an OpenAI-compatible chat completions endpoint with a
// uniform timeout and bounded retries when the service reports overload.
type Client struct {
	cfg        *config.Config
	httpClient *http.Client
	logger     *zap.Logger
}

func New(cfg *config.Config, logger *zap.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		logger:     logger,
	}
}

// Chat performs a non-streaming chat completion call.
// temperature is optional; pass nil to use the server default.
func (c *Client) Chat(ctx context.Context, messages []Message, temperature *float64) (string, error) {
	if c.cfg.OpenAIAPIKey == "" {
		return "", apperrors.WrapError(apperrors.ErrConfigMissing, "OPENAI_API_KEY not set")
	}

	reqBody := chatRequest{
		Model:       c.cfg.OpenAIModel,
		Messages:    messages,
		Temperature: temperature,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	url := fmt.Sprintf("%s/chat/completions", strings.TrimRight(c.cfg.OpenAIBaseURL, "/"))

	var resp *http.Response
	var lastErr error
	for attempt := 0; attempt < c.maxRetries(); attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
		if err != nil {
			return "", fmt.Errorf("create chat request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.cfg.OpenAIAPIKey)

		r, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			// Do not retry on context cancellation/deadline
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if r.StatusCode == http.StatusServiceUnavailable || r.StatusCode == http.StatusTooManyRequests {
			io.Copy(io.Discard, r.Body)
			r.Body.Close()
			lastErr = fmt.Errorf("llm server status %s", r.Status)
			c.logger.Warn("LLM service busy, retrying",
				zap.Int("attempt", attempt+1), zap.Int("status", r.StatusCode))
			if !c.backoffSleep(ctx, attempt) {
				break
			}
			continue
		}
		resp = r
		break
	}
	if resp == nil {
		return "", apperrors.WrapErrorf(apperrors.ErrExternalService,
			"no response from LLM server: %v", lastErr)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read chat response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", apperrors.WrapErrorf(apperrors.ErrExternalService,
			"llm server status %s: %s", resp.Status, string(bodyBytes))
	}

	var cr chatResponse
	if err := json.Unmarshal(bodyBytes, &cr); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return "", apperrors.WrapError(apperrors.ErrExternalService, "no response choices from llm server")
	}
	return cr.Choices[0].Message.Content, nil
}

func (c *Client) maxRetries() int {
	if c.cfg.MaxRetries <= 0 {
		return 1
	}
	return c.cfg.MaxRetries
}

// backoffSleep waits base * 2^attempt, returning false when the context
// is cancelled first.
func (c *Client) backoffSleep(ctx context.Context, attempt int) bool {
	base := c.cfg.RetryDelaySeconds
	if base <= 0 {
		base = time.Second
	}
	timer := time.NewTimer(base * time.Duration(1<<attempt))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
