package analysis

import (
	"github.com/polyterm/polyterm/internal/models"
)

// 结构化抽取缺字段时的占位默认值
const (
	defaultHeadline     = "Analysis complete."
	defaultWhatHappened = "Data analyzed."
	defaultWhyNow       = "Market active."
	defaultWhatToWatch  = "Price action."
)

func asString(v any, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	}
	return 0
}

func asMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func asStrings(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// BuildResult 把生成器返回的松散 JSON 校验并固化为 Result。
// 所有缺失字段填入文档化默认值，分数收敛到合法区间，
// 因此即使输入是空对象，产出也满足 Result 模式。
func BuildResult(raw map[string]any, citations []models.Citation, newsPosts, commentTotal int) *models.ExplainMoveResult {
	if raw == nil {
		raw = map[string]any{}
	}

	drivers := make([]models.Driver, 0)
	if list, ok := raw["drivers"].([]any); ok {
		for _, item := range list {
			m := asMap(item)
			name := asString(m["driver"], "")
			if name == "" {
				continue
			}
			drivers = append(drivers, models.Driver{
				Driver:       name,
				EvidenceURLs: asStrings(m["evidence_urls"]),
				Confidence:   clamp(asFloat(m["confidence"]), 0, 1),
			})
		}
	}

	sentiment := asMap(raw["sentiment"])
	narrative := asMap(raw["narrative"])

	if citations == nil {
		citations = []models.Citation{}
	}

	return &models.ExplainMoveResult{
		HeadlineSummary: asString(raw["headline_summary"], defaultHeadline),
		Drivers:         drivers,
		Sentiment: models.SentimentMetrics{
			NewsScore:   clamp(asFloat(sentiment["news_score"]), -1, 1),
			RedditScore: clamp(asFloat(sentiment["reddit_score"]), -1, 1),
			VolumeMetrics: models.VolumeMetrics{
				Posts:    newsPosts,
				Comments: commentTotal,
			},
			KeyPhrases: asStrings(sentiment["key_phrases"]),
		},
		Narrative: models.Narrative{
			WhatHappened: asString(narrative["what_happened"], defaultWhatHappened),
			WhyNow:       asString(narrative["why_now"], defaultWhyNow),
			WhatToWatch:  asString(narrative["what_to_watch"], defaultWhatToWatch),
		},
		Citations: citations,
	}
}
