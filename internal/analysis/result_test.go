package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/polyterm/polyterm/internal/models"
)

func TestBuildResult_EmptyInput(t *testing.T) {
	result := BuildResult(map[string]any{}, nil, 0, 0)

	assert.Equal(t, "Analysis complete.", result.HeadlineSummary)
	assert.Equal(t, "Data analyzed.", result.Narrative.WhatHappened)
	assert.Equal(t, "Market active.", result.Narrative.WhyNow)
	assert.Equal(t, "Price action.", result.Narrative.WhatToWatch)
	assert.NotNil(t, result.Drivers)
	assert.NotNil(t, result.Citations)
	assert.Empty(t, result.Drivers)
}

func TestBuildResult_NilMap(t *testing.T) {
	result := BuildResult(nil, nil, 2, 5)
	assert.Equal(t, 2, result.Sentiment.VolumeMetrics.Posts)
	assert.Equal(t, 5, result.Sentiment.VolumeMetrics.Comments)
}

func TestBuildResult_ScoreClamping(t *testing.T) {
	raw := map[string]any{
		"sentiment": map[string]any{
			"news_score":   float64(3.5),
			"reddit_score": float64(-9),
		},
	}
	result := BuildResult(raw, nil, 0, 0)
	assert.Equal(t, 1.0, result.Sentiment.NewsScore)
	assert.Equal(t, -1.0, result.Sentiment.RedditScore)
}

func TestBuildResult_Drivers(t *testing.T) {
	raw := map[string]any{
		"drivers": []any{
			map[string]any{
				"driver":        "Fed rate decision",
				"evidence_urls": []any{"https://example.com/fed"},
				"confidence":    float64(1.7),
			},
			map[string]any{"driver": ""}, // 无名驱动因素应被跳过
			"not a map",
		},
	}
	result := BuildResult(raw, nil, 0, 0)

	assert.Len(t, result.Drivers, 1)
	assert.Equal(t, "Fed rate decision", result.Drivers[0].Driver)
	assert.Equal(t, 1.0, result.Drivers[0].Confidence)
	assert.Equal(t, []string{"https://example.com/fed"}, result.Drivers[0].EvidenceURLs)
}

func TestBuildResult_CitationsPassedThrough(t *testing.T) {
	cites := []models.Citation{{URL: "https://example.com", SourceType: "news", Title: "T"}}
	result := BuildResult(map[string]any{}, cites, 1, 0)
	assert.Equal(t, cites, result.Citations)
}

func TestBuildResult_WellFormed(t *testing.T) {
	raw := map[string]any{
		"headline_summary": "BTC rallied on ETF inflows.",
		"sentiment": map[string]any{
			"news_score":   float64(0.4),
			"reddit_score": float64(-0.2),
			"key_phrases":  []any{"etf inflows", "halving"},
		},
		"narrative": map[string]any{
			"what_happened": "Inflows spiked.",
			"why_now":       "ETF approval.",
			"what_to_watch": "Fed minutes.",
		},
	}
	result := BuildResult(raw, nil, 3, 12)

	assert.Equal(t, "BTC rallied on ETF inflows.", result.HeadlineSummary)
	assert.Equal(t, 0.4, result.Sentiment.NewsScore)
	assert.Equal(t, []string{"etf inflows", "halving"}, result.Sentiment.KeyPhrases)
	assert.Equal(t, "Inflows spiked.", result.Narrative.WhatHappened)
	assert.Equal(t, models.VolumeMetrics{Posts: 3, Comments: 12}, result.Sentiment.VolumeMetrics)
}
