package models

import "time"

// Market 基础市场信息 (Polymarket gamma)
type Market struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Description   string   `json:"description,omitempty"`
	Outcomes      []string `json:"outcomes"`
	OutcomePrices []string `json:"outcome_prices"`
	Active        bool     `json:"active"`
	Closed        bool     `json:"closed"`
	Volume        float64  `json:"volume"`
	Liquidity     float64  `json:"liquidity"`
	EndDate       string   `json:"end_date,omitempty"`
	ImageURL      string   `json:"image_url,omitempty"`
	GroupID       string   `json:"group_id,omitempty"`
	ClobTokenIDs  []string `json:"clob_token_ids,omitempty"`
}

// Event 市场所属事件
type Event struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Description  string  `json:"description,omitempty"`
	Active       bool    `json:"active"`
	Closed       bool    `json:"closed"`
	Volume       float64 `json:"volume"`
	Liquidity    float64 `json:"liquidity"`
	EndDate      string  `json:"end_date"`
	ImageURL     string  `json:"image_url,omitempty"`
	MarketsCount int     `json:"markets_count"`
	Category     string  `json:"category,omitempty"`
}

// OrderbookLevel 订单簿单档
type OrderbookLevel struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// Orderbook 订单簿快照
type Orderbook struct {
	Bids      []OrderbookLevel `json:"bids"`
	Asks      []OrderbookLevel `json:"asks"`
	Timestamp time.Time        `json:"timestamp"`
}

// MarketSnapshot 市场实时快照
type MarketSnapshot struct {
	MarketID     string                      `json:"market_id"`
	Question     string                      `json:"question"`
	Price        float64                     `json:"price"`
	Midpoint     float64                     `json:"midpoint"`
	BidTop       float64                     `json:"bid_top,omitempty"`
	AskTop       float64                     `json:"ask_top,omitempty"`
	Spread       float64                     `json:"spread"`
	DepthLadders map[string][]OrderbookLevel `json:"depth_ladders"`
	Timestamp    time.Time                   `json:"timestamp"`
	TokenID      string                      `json:"token_id"`
}

// TimeseriesPoint 价格历史点
type TimeseriesPoint struct {
	Timestamp string  `json:"timestamp"`
	Price     float64 `json:"price"`
}

// JobStatus 分析任务生命周期状态
type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Job 单次分析任务的存储记录。completed 必须带 Result，failed 必须带 Error。
type Job struct {
	ID       string             `json:"analysis_id"`
	Status   JobStatus          `json:"status"`
	Progress float64            `json:"progress"`
	Error    string             `json:"error,omitempty"`
	Result   *ExplainMoveResult `json:"result,omitempty"`
}

// Citation 语料中每篇文档的引用，顺序与语料块一一对应
type Citation struct {
	URL         string    `json:"url"`
	SourceType  string    `json:"source_type"` // "news" | "reddit"
	Title       string    `json:"title"`
	ExtractedAt time.Time `json:"extracted_at"`
}

// Driver 价格变动驱动因素
type Driver struct {
	Driver       string   `json:"driver"`
	EvidenceURLs []string `json:"evidence_urls"`
	Confidence   float64  `json:"confidence"`
}

// VolumeMetrics 检索量统计
type VolumeMetrics struct {
	Posts    int `json:"posts"`
	Comments int `json:"comments"`
}

// SentimentMetrics 情绪指标，分数范围 [-1,1]
type SentimentMetrics struct {
	NewsScore     float64       `json:"news_score"`
	RedditScore   float64       `json:"reddit_score"`
	VolumeMetrics VolumeMetrics `json:"volume_metrics"`
	KeyPhrases    []string      `json:"key_phrases"`
}

// Narrative 叙事三段
type Narrative struct {
	WhatHappened string `json:"what_happened"`
	WhyNow       string `json:"why_now"`
	WhatToWatch  string `json:"what_to_watch"`
}

// ExplainMoveResult 一次成功分析的最终产物，生成后不可变
type ExplainMoveResult struct {
	HeadlineSummary string           `json:"headline_summary"`
	Drivers         []Driver         `json:"drivers"`
	Sentiment       SentimentMetrics `json:"sentiment"`
	Narrative       Narrative        `json:"narrative"`
	Citations       []Citation       `json:"citations"`
}

// AnalysisRequest 分析请求，接受后不可变
type AnalysisRequest struct {
	MarketID         string `json:"market_id"`
	LookbackDays     int    `json:"lookback_days"`
	NewsQuery        string `json:"news_query,omitempty"`
	IncludeReddit    *bool  `json:"include_reddit,omitempty"`
	MaxNewsSources   int    `json:"max_news_sources"`
	MaxRedditThreads int    `json:"max_reddit_threads"`
}

// RedditEnabled 默认开启社交检索
func (r *AnalysisRequest) RedditEnabled() bool {
	return r.IncludeReddit == nil || *r.IncludeReddit
}

// ApplyDefaults 填充未指定的可选字段
func (r *AnalysisRequest) ApplyDefaults() {
	if r.LookbackDays <= 0 {
		r.LookbackDays = 30
	}
	if r.MaxNewsSources <= 0 {
		r.MaxNewsSources = 10
	}
	if r.MaxRedditThreads <= 0 {
		r.MaxRedditThreads = 10
	}
}

// ArchivedAnalysis 归档库中的历史分析摘要
type ArchivedAnalysis struct {
	JobID           string    `json:"job_id"`
	MarketID        string    `json:"market_id"`
	HeadlineSummary string    `json:"headline_summary"`
	CreatedAt       time.Time `json:"created_at"`
}

// AnalysisResponse 提交与轮询的响应体
type AnalysisResponse struct {
	AnalysisID string             `json:"analysis_id"`
	Status     JobStatus          `json:"status"`
	Progress   float64            `json:"progress"`
	Error      string             `json:"error,omitempty"`
	Result     *ExplainMoveResult `json:"result,omitempty"`
}
