package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/polyterm/polyterm/internal/config"

	"golang.org/x/time/rate"
)

// systemPrompt 约束模型只输出 JSON
const systemPrompt = "You are a JSON generator. Output a single JSON object and nothing else."

// Generator 结构化生成能力。实现返回解析好的 JSON 对象；
// 解析失败或调用失败返回错误，由编排器降级处理。
type Generator interface {
	GenerateJSON(ctx context.Context, prompt string) (map[string]any, error)
}

// NewGenerator 根据配置创建生成器实例
func NewGenerator(ctx context.Context, cfg config.LLMConfig, limiter *rate.Limiter) (Generator, error) {
	switch cfg.Provider {
	case "openai", "":
		return newOpenAIGenerator(ctx, cfg, limiter)
	case "anthropic":
		return newAnthropicGenerator(cfg, limiter)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}

// parseJSONObject 清理可能的 markdown 标记后解析
func parseJSONObject(raw string) (map[string]any, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)

	var obj map[string]any
	if err := json.Unmarshal([]byte(clean), &obj); err != nil {
		return nil, fmt.Errorf("json unmarshal error: %w, content: %s", err, clean)
	}
	return obj, nil
}

func isRateLimited(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "too many requests")
}
