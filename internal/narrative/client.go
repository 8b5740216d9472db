package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultTimeout    = 60 * time.Second
	defaultMaxTokens  = 1024
	defaultRetryDelay = 2 * time.Second
	defaultRPM        = 30
	maxErrorBody      = 512
)

// StatusOverloaded is the non-standard status Anthropic uses for overload
const StatusOverloaded = 529

// Config configures a single provider client
type Config struct {
	APIKey            string
	Model             string
	BaseURL           string
	MaxTokens         int
	MaxRetries        int
	RetryDelay        time.Duration
	Timeout           time.Duration
	RequestsPerMinute float64
}

func (c Config) withDefaults(baseURL, model string) Config {
	if strings.TrimSpace(c.BaseURL) == "" {
		c.BaseURL = baseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if strings.TrimSpace(c.Model) == "" {
		c.Model = model
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = defaultMaxTokens
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = defaultRetryDelay
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.RequestsPerMinute <= 0 {
		c.RequestsPerMinute = defaultRPM
	}
	return c
}

// APIError is a non-2xx provider response
type APIError struct {
	Provider   string
	StatusCode int
	Type       string
	Message    string
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("%s: request failed (%d %s): %s", e.Provider, e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("%s: request failed (%d): %s", e.Provider, e.StatusCode, e.Message)
}

// Retryable reports whether the request may succeed if repeated
func (e *APIError) Retryable() bool {
	switch e.StatusCode {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable, StatusOverloaded:
		return true
	}
	return e.Type == "overloaded_error" || strings.Contains(strings.ToLower(e.Message), "overloaded")
}

// httpClient posts JSON with rate limiting and retries on overload
type httpClient struct {
	provider string
	cfg      Config
	client   *http.Client
	limiter  *rate.Limiter
}

func newHTTPClient(provider string, cfg Config) *httpClient {
	return &httpClient{
		provider: provider,
		cfg:      cfg,
		client:   &http.Client{Timeout: cfg.Timeout},
		limiter:  rate.NewLimiter(rate.Limit(cfg.RequestsPerMinute/60), 1),
	}
}

// postJSON sends payload to path and decodes the response into out
func (c *httpClient) postJSON(ctx context.Context, path string, headers map[string]string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", c.provider, err)
	}

	attempts := c.cfg.MaxRetries + 1
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		respBody, err := c.do(ctx, path, headers, body)
		if err == nil {
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("%s: decode response: %w", c.provider, err)
			}
			return nil
		}
		lastErr = err

		apiErr, ok := err.(*APIError)
		if !ok || !apiErr.Retryable() || attempt == attempts-1 {
			return err
		}
		delay := apiErr.RetryAfter
		if delay <= 0 {
			delay = c.cfg.RetryDelay
		}
		if err := sleepWithContext(ctx, delay); err != nil {
			return err
		}
	}
	return lastErr
}

func (c *httpClient) do(ctx context.Context, path string, headers map[string]string, body []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.provider, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", c.provider, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, c.apiError(resp, respBody)
	}
	return respBody, nil
}

// apiError understands both providers' {"error": {"type", "message"}} envelopes
func (c *httpClient) apiError(resp *http.Response, body []byte) *APIError {
	apiErr := &APIError{
		Provider:   c.provider,
		StatusCode: resp.StatusCode,
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
	}

	var envelope struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		apiErr.Type = envelope.Error.Type
		apiErr.Message = envelope.Error.Message
		return apiErr
	}

	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody]
	}
	apiErr.Message = msg
	return apiErr
}

func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if when, err := http.ParseTime(value); err == nil {
		if wait := time.Until(when); wait > 0 {
			return wait
		}
	}
	return 0
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
