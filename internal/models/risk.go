package models

// Position 持仓描述，用于风险计算
type Position struct {
	Shares   float64 `json:"shares"`
	AvgPrice float64 `json:"avg_price"`
}

// ScenarioPnl 单情景盈亏
type ScenarioPnl struct {
	PositionValueDelta float64 `json:"position_value_delta"`
	MaxLoss            float64 `json:"max_loss"`
	MaxGain            float64 `json:"max_gain"`
}

// Scenario 单个冲击情景
type Scenario struct {
	Name           string      `json:"name"`
	ShockPct       float64     `json:"shock_pct"`
	ProjectedPrice float64     `json:"projected_price"`
	Pnl            ScenarioPnl `json:"pnl"`
}

// ScenarioResult 情景分析结果
type ScenarioResult struct {
	BasePrice   float64        `json:"base_price"`
	Scenarios   []Scenario     `json:"scenarios"`
	SliderModel map[string]any `json:"slider_model"`
}

// MonteCarloResult 蒙特卡洛模拟结果，bands 为各分位数路径
type MonteCarloResult struct {
	HorizonDays int                  `json:"horizon_days"`
	NPaths      int                  `json:"n_paths"`
	Bands       map[string][]float64 `json:"bands"`
	SamplePaths [][]float64          `json:"sample_paths,omitempty"`
}

// SlippageEstimate 指定单量下的滑点估计
type SlippageEstimate struct {
	OrderSizeUSD         float64 `json:"order_size_usd"`
	ExpectedAvgFillPrice float64 `json:"expected_avg_fill_price"`
	SlippagePct          float64 `json:"slippage_pct"`
}

// WallLevel 订单簿大单墙
type WallLevel struct {
	Price   float64 `json:"price"`
	SizeUSD float64 `json:"size_usd"`
	Side    string  `json:"side"` // "bid" | "ask"
}

// LiquidityMetrics 流动性指标
type LiquidityMetrics struct {
	MarketID          string             `json:"market_id"`
	SlippageEstimates []SlippageEstimate `json:"slippage_estimates"`
	WallLevels        []WallLevel        `json:"wall_levels"`
}

// HedgeMarket 候选对冲市场
type HedgeMarket struct {
	MarketID                  string  `json:"market_id"`
	Reason                    string  `json:"reason"`
	CorrelationProxy          float64 `json:"correlation_proxy"`
	LiquidityScore            float64 `json:"liquidity_score"`
	SuggestedSize             float64 `json:"suggested_size"`
	ExpectedDownsideReduction float64 `json:"expected_downside_reduction"`
}

// HedgeRecommendation 对冲建议
type HedgeRecommendation struct {
	HedgeMarkets []HedgeMarket `json:"hedge_markets"`
	Caveats      []string      `json:"caveats"`
}
