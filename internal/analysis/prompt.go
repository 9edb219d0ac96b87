package analysis

import "fmt"

const promptTemplate = `Analyze the following prediction market: %q

Based on the provided corpus of news and social media content, explain the recent price moves and narrative.

Corpus:
%s

Return a JSON object with the following structure:
{
	"headline_summary": "string",
	"drivers": [
		{ "driver": "string", "evidence_urls": ["url1", "url2"], "confidence": 0.9 }
	],
	"sentiment": {
		"news_score": -1.0,
		"reddit_score": -1.0,
		"key_phrases": ["phrase1", "phrase2"]
	},
	"narrative": {
		"what_happened": "string",
		"why_now": "string",
		"what_to_watch": "string"
	}
}
news_score 与 reddit_score 为 [-1,1] 区间的浮点数。只输出 JSON，不要包含任何 markdown 标记。`

// buildAnalysisPrompt 生成结构化抽取提示词
func buildAnalysisPrompt(question, corpus string) string {
	return fmt.Sprintf(promptTemplate, question, corpus)
}
