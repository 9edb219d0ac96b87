package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/time/rate"

	"github.com/polyterm/polyterm/internal/config"
)

// anthropicGenerator 基于 Claude Messages API 的生成器
type anthropicGenerator struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	limiter   *rate.Limiter
}

func newAnthropicGenerator(cfg config.LLMConfig, limiter *rate.Limiter) (*anthropicGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic api key is missing")
	}
	model := cfg.Model
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 8192
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &anthropicGenerator{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
		limiter:   limiter,
	}, nil
}

func (g *anthropicGenerator) GenerateJSON(ctx context.Context, prompt string) (map[string]any, error) {
	maxRetries := 3
	baseDelay := 2 * time.Second
	var lastErr error

	for i := 0; i <= maxRetries; i++ {
		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("limiter wait error: %w", err)
			}
		}

		params := anthropic.MessageNewParams{
			Model:     anthropic.Model(g.model),
			MaxTokens: g.maxTokens,
			System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		}

		resp, err := g.client.Messages.New(ctx, params)
		if err != nil {
			if isRateLimited(err) && i < maxRetries {
				lastErr = err
				delay := baseDelay * time.Duration(1<<i)
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(delay):
					continue
				}
			}
			return nil, err
		}

		var text strings.Builder
		for _, block := range resp.Content {
			if block.Type == "text" {
				text.WriteString(block.Text)
			}
		}

		obj, err := parseJSONObject(text.String())
		if err != nil {
			lastErr = err
			if i < maxRetries {
				continue
			}
			return nil, lastErr
		}
		return obj, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %v", lastErr)
}
