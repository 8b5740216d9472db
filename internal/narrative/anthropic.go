package narrative

import (
	"context"
	"errors"
	"strings"
)

const (
	anthropicBaseURL = "https://api.anthropic.com"
	anthropicModel   = "claude-3-5-sonnet-latest"
	anthropicVersion = "2023-06-01"
)

// AnthropicClient calls the Messages API
type AnthropicClient struct {
	http *httpClient
}

// NewAnthropicClient creates a client; an API key is required
func NewAnthropicClient(cfg Config) (*AnthropicClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("anthropic: api key is required")
	}
	cfg = cfg.withDefaults(anthropicBaseURL, anthropicModel)
	return &AnthropicClient{http: newHTTPClient("anthropic", cfg)}, nil
}

func (c *AnthropicClient) Name() string { return "anthropic" }

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// Generate sends prompt as a single user message and joins the text blocks of the reply
func (c *AnthropicClient) Generate(ctx context.Context, prompt string) (string, error) {
	cfg := c.http.cfg
	req := anthropicRequest{
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
		System:    SystemPrompt,
		Messages:  []anthropicMessage{{Role: "user", Content: prompt}},
	}
	headers := map[string]string{
		"x-api-key":         cfg.APIKey,
		"anthropic-version": anthropicVersion,
	}

	var resp anthropicResponse
	if err := c.http.postJSON(ctx, "/v1/messages", headers, req, &resp); err != nil {
		return "", err
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", errors.New("anthropic: response has no text content")
	}
	return b.String(), nil
}
