// Package openai implements the LLM and embedding providers against an
// OpenAI-compatible HTTP API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/smartswap/backend/internal/domain"
)

const (
	defaultBaseURL           = "https://api.openai.com/v1"
	defaultTimeout           = 30 * time.Second
	defaultRequestsPerMinute = 60
	defaultMaxAttempts       = 3
)

// Config holds provider client configuration. An empty APIKey yields a
// client that reports itself unavailable.
type Config struct {
	APIKey            string
	BaseURL           string
	Model             string
	Timeout           time.Duration
	RequestsPerMinute int
	MaxAttempts       int
	Logger            zerolog.Logger
}

// apiError is the error envelope returned by OpenAI-compatible APIs
type apiError struct {
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// client carries the transport shared by the chat and embedding clients
type client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	model       string
	limiter     *rate.Limiter
	maxAttempts int
	backoff     time.Duration
	logger      zerolog.Logger
}

func newClient(cfg Config, defaultModel, component string) *client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = defaultRequestsPerMinute
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}

	perSecond := rate.Limit(float64(cfg.RequestsPerMinute) / 60)
	burst := cfg.RequestsPerMinute / 10
	if burst < 1 {
		burst = 1
	}

	return &client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		model:       cfg.Model,
		limiter:     rate.NewLimiter(perSecond, burst),
		maxAttempts: cfg.MaxAttempts,
		backoff:     500 * time.Millisecond,
		logger:      cfg.Logger.With().Str("component", component).Logger(),
	}
}

func (c *client) available() bool {
	return c.apiKey != ""
}

// post sends body as JSON to path and decodes a 200 response into out.
// 429 and 5xx responses and transport errors are retried with linear backoff.
func (c *client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt-1) * c.backoff):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		respBody, status, err := c.do(ctx, path, payload)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn().Err(err).Int("attempt", attempt).Str("path", path).Msg("request failed")
			lastErr = fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
			continue
		}

		switch {
		case status == http.StatusOK:
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("%w: failed to decode response: %v", domain.ErrProviderFailure, err)
			}
			return nil
		case status == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("%w: %w: status %d", domain.ErrProviderFailure, domain.ErrRateLimited, status)
		case status >= 500:
			lastErr = fmt.Errorf("%w: status %d: %s", domain.ErrProviderFailure, status, errorMessage(respBody))
		default:
			return fmt.Errorf("%w: status %d: %s", domain.ErrProviderFailure, status, errorMessage(respBody))
		}

		c.logger.Warn().Int("attempt", attempt).Int("status", status).Str("path", path).Msg("provider returned error status")
	}

	return lastErr
}

func (c *client) do(ctx context.Context, path string, payload []byte) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("User-Agent", "SmartSwap/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

func errorMessage(body []byte) string {
	var envelope apiError
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
		return envelope.Error.Message
	}
	const maxBody = 200
	if len(body) > maxBody {
		return string(body[:maxBody])
	}
	return string(body)
}
