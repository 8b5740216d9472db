package narrative

import (
	"context"
	"errors"
	"strings"
)

const (
	openAIBaseURL = "https://api.openai.com"
	openAIModel   = "gpt-4o-mini"
)

// OpenAIClient calls the Chat Completions API
type OpenAIClient struct {
	http *httpClient
}

// NewOpenAIClient creates a client; an API key is required
func NewOpenAIClient(cfg Config) (*OpenAIClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("openai: api key is required")
	}
	cfg = cfg.withDefaults(openAIBaseURL, openAIModel)
	return &OpenAIClient{http: newHTTPClient("openai", cfg)}, nil
}

func (c *OpenAIClient) Name() string { return "openai" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens,omitempty"`
	Messages  []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate sends the system and user messages and returns the first choice
func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	cfg := c.http.cfg
	req := chatRequest{
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
		Messages: []chatMessage{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: prompt},
		},
	}
	headers := map[string]string{"Authorization": "Bearer " + cfg.APIKey}

	var resp chatResponse
	if err := c.http.postJSON(ctx, "/v1/chat/completions", headers, req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", errors.New("openai: response has no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
