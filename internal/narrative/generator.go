// Package narrative turns derived indicators into LLM-written commentary.
//
// Summarize and BuildPrompt produce the request text. Generator is implemented
// by AnthropicClient and OpenAIClient; Chain tries several in order, so a
// configured Anthropic key is preferred and OpenAI is the fallback.
package narrative

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"bopcli/internal/config"
	"bopcli/pkg/contracts/domain"
)

// ErrNoProvider is returned when no provider has an API key
var ErrNoProvider = errors.New("no narrative provider configured")

// Generator produces text for a prompt
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// Chain tries each generator in order and returns the first success
type Chain struct {
	generators []Generator
	logger     *slog.Logger
}

// NewChain builds a fallback chain
func NewChain(logger *slog.Logger, generators ...Generator) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{
		generators: generators,
		logger:     logger.With(slog.String("component", "narrative")),
	}
}

func (c *Chain) Name() string { return "chain" }

// Generate returns the first provider's answer, or all failures joined
func (c *Chain) Generate(ctx context.Context, prompt string) (string, error) {
	if len(c.generators) == 0 {
		return "", ErrNoProvider
	}

	var errs []error
	for _, g := range c.generators {
		text, err := g.Generate(ctx, prompt)
		if err == nil {
			c.logger.InfoContext(ctx, "narrative generated",
				slog.String("provider", g.Name()),
				slog.Int("chars", len(text)))
			return text, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		c.logger.WarnContext(ctx, "narrative provider failed",
			slog.String("provider", g.Name()),
			slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	return "", fmt.Errorf("all narrative providers failed: %w", errors.Join(errs...))
}

// New builds the provider chain from configuration, Anthropic first
func New(cfg config.NarrativeConfig, logger *slog.Logger) (*Chain, error) {
	var generators []Generator

	if cfg.AnthropicAPIKey != "" {
		client, err := NewAnthropicClient(Config{
			APIKey:            cfg.AnthropicAPIKey,
			Model:             cfg.AnthropicModel,
			BaseURL:           cfg.AnthropicBaseURL,
			MaxTokens:         cfg.MaxTokens,
			MaxRetries:        cfg.MaxRetries,
			RetryDelay:        cfg.RetryDelay,
			Timeout:           cfg.Timeout,
			RequestsPerMinute: cfg.RequestsPerMinute,
		})
		if err != nil {
			return nil, err
		}
		generators = append(generators, client)
	}

	if cfg.OpenAIAPIKey != "" {
		client, err := NewOpenAIClient(Config{
			APIKey:            cfg.OpenAIAPIKey,
			Model:             cfg.OpenAIModel,
			BaseURL:           cfg.OpenAIBaseURL,
			MaxTokens:         cfg.MaxTokens,
			MaxRetries:        cfg.MaxRetries,
			RetryDelay:        cfg.RetryDelay,
			Timeout:           cfg.Timeout,
			RequestsPerMinute: cfg.RequestsPerMinute,
		})
		if err != nil {
			return nil, err
		}
		generators = append(generators, client)
	}

	if len(generators) == 0 {
		return nil, ErrNoProvider
	}
	return NewChain(logger, generators...), nil
}

// Analyze summarizes records, builds the prompt and asks g for commentary
func Analyze(ctx context.Context, g Generator, records []domain.Record, maxRows int) (string, error) {
	return g.Generate(ctx, BuildPrompt(Summarize(records, maxRows)))
}
