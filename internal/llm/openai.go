package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/time/rate"

	"github.com/polyterm/polyterm/internal/config"
)

// openaiGenerator 基于 eino 的 OpenAI 兼容生成器
type openaiGenerator struct {
	chatModel model.ChatModel
	limiter   *rate.Limiter
}

func newOpenAIGenerator(ctx context.Context, cfg config.LLMConfig, limiter *rate.Limiter) (*openaiGenerator, error) {
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("llm init failed: %w", err)
	}
	return &openaiGenerator{chatModel: chatModel, limiter: limiter}, nil
}

func (g *openaiGenerator) GenerateJSON(ctx context.Context, prompt string) (map[string]any, error) {
	maxRetries := 3
	baseDelay := 2 * time.Second
	var lastErr error

	for i := 0; i <= maxRetries; i++ {
		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("limiter wait error: %w", err)
			}
		}

		messages := []*schema.Message{
			{Role: schema.System, Content: systemPrompt},
			{Role: schema.User, Content: prompt},
		}

		resp, err := g.chatModel.Generate(ctx, messages)
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

		obj, err := parseJSONObject(resp.Content)
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
