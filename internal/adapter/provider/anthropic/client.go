// Package anthropic adapts the Anthropic Messages API to the
// text-generation port used by the AI services.
package anthropic

import (
	"context"
	"fmt"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/stridewear/shop-backend/internal/config"
)

// Client wraps an Anthropic API client with the configured model,
// token budget, and per-request timeout.
type Client struct {
	api       anthropic.Client
	model     string
	maxTokens int64
	timeout   time.Duration
}

// New creates a Client from AI configuration.
func New(cfg config.AIConfig) *Client {
	return &Client{
		api:       anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		timeout:   cfg.RequestTimeout,
	}
}

// Generate sends one prompt and returns the model's text response.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("llm api call: %w", err)
	}

	if len(msg.Content) == 0 {
		return "", fmt.Errorf("empty llm response")
	}

	return msg.Content[0].Text, nil
}
