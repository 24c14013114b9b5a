// Package llm provides a single chat-completion client shared by every
// AI-backed component. The backend is any OpenAI-compatible endpoint
// (OpenAI, OpenRouter, DeepSeek) selected purely by configuration.
package llm

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/hualin/feishu-weather-bot/internal/retry"
)

// Completer is the capability the interpreter and advisor depend on.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error)
}

const completionTemperature = 0.7

// Client implements Completer on top of go-openai, retrying transient
// completion failures with exponential backoff.
type Client struct {
	api         *openai.Client
	model       string
	maxAttempts int
	baseDelay   time.Duration
	log         *slog.Logger
}

// Options configures a Client.
type Options struct {
	APIKey      string
	BaseURL     string // empty means the default OpenAI endpoint
	Model       string
	MaxAttempts int
	BaseDelay   time.Duration
}

// NewClient constructs a Client for the configured endpoint.
func NewClient(opts Options, log *slog.Logger) *Client {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	return &Client{
		api:         openai.NewClientWithConfig(cfg),
		model:       opts.Model,
		maxAttempts: opts.MaxAttempts,
		baseDelay:   opts.BaseDelay,
		log:         log,
	}
}

// Complete sends one system+user exchange and returns the assistant text.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	return retry.Do(ctx, func(ctx context.Context) (string, error) {
		resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: userPrompt},
			},
			MaxTokens:   maxTokens,
			Temperature: completionTemperature,
		})
		if err != nil {
			c.log.Warn("completion attempt failed", "model", c.model, "err", err)
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", errors.New("completion returned no choices")
		}
		return resp.Choices[0].Message.Content, nil
	}, c.maxAttempts, c.baseDelay)
}
