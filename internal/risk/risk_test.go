package risk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyterm/polyterm/internal/models"
)

func TestComputeScenarios(t *testing.T) {
	snapshot := &models.MarketSnapshot{MarketID: "m1", Price: 0.5}
	position := models.Position{Shares: 100, AvgPrice: 0.4}

	result := ComputeScenarios(snapshot, position, []float64{-10, 20})

	require.Len(t, result.Scenarios, 2)
	assert.Equal(t, 0.5, result.BasePrice)

	down := result.Scenarios[0]
	assert.Equal(t, "-10% Shock", down.Name)
	assert.Equal(t, 0.45, down.ProjectedPrice)
	assert.Equal(t, -5.0, down.Pnl.PositionValueDelta)
	assert.Equal(t, 60.0, down.Pnl.MaxGain)  // 100 * (1 - 0.4)
	assert.Equal(t, -40.0, down.Pnl.MaxLoss) // 100 * (0 - 0.4)

	up := result.Scenarios[1]
	assert.Equal(t, 0.6, up.ProjectedPrice)
	assert.Equal(t, 10.0, up.Pnl.PositionValueDelta)
}

func TestComputeScenarios_PriceBounds(t *testing.T) {
	snapshot := &models.MarketSnapshot{Price: 0.9}
	result := ComputeScenarios(snapshot, models.Position{Shares: 10}, []float64{50, -200})

	assert.Equal(t, 0.999, result.Scenarios[0].ProjectedPrice)
	assert.Equal(t, 0.001, result.Scenarios[1].ProjectedPrice)
}

func TestComputeScenarios_ZeroAvgPriceFallsBackToBase(t *testing.T) {
	snapshot := &models.MarketSnapshot{Price: 0.5}
	result := ComputeScenarios(snapshot, models.Position{Shares: 10}, []float64{0})
	assert.Equal(t, 5.0, result.Scenarios[0].Pnl.MaxGain) // 10 * (1 - 0.5)
}

func TestCalculateSlippage_FullFill(t *testing.T) {
	asks := []models.OrderbookLevel{
		{Price: 0.50, Size: 1000}, // 500 USD
		{Price: 0.55, Size: 2000}, // 1100 USD
	}

	est := calculateSlippage(asks, 1000)
	assert.Equal(t, 1000.0, est.OrderSizeUSD)
	// 500 USD 吃满第一档 1000 股，剩余 500 USD 在 0.55 档成交 909.09 股
	assert.InDelta(t, 0.5238, est.ExpectedAvgFillPrice, 0.001)
	assert.Greater(t, est.SlippagePct, 0.0)
}

func TestCalculateSlippage_PartialFillFloor(t *testing.T) {
	asks := []models.OrderbookLevel{{Price: 0.5, Size: 100}} // 仅 50 USD 深度

	est := calculateSlippage(asks, 10000)
	assert.GreaterOrEqual(t, est.SlippagePct, 20.0)
}

func TestCalculateSlippage_EmptyBook(t *testing.T) {
	est := calculateSlippage(nil, 1000)
	assert.Equal(t, 100.0, est.SlippagePct)
	assert.Equal(t, 0.0, est.ExpectedAvgFillPrice)
}

func TestComputeLiquidityMetrics_Walls(t *testing.T) {
	book := &models.Orderbook{
		Bids: []models.OrderbookLevel{
			{Price: 0.50, Size: 10000}, // 5000 USD，占比远超 10%
			{Price: 0.49, Size: 100},
			{Price: 0.48, Size: 100},
		},
		Asks: []models.OrderbookLevel{
			{Price: 0.51, Size: 100},
			{Price: 0.52, Size: 100},
		},
	}

	metrics := ComputeLiquidityMetrics(book, "m1")

	assert.Equal(t, "m1", metrics.MarketID)
	assert.Len(t, metrics.SlippageEstimates, 5)

	var bidWalls int
	for _, w := range metrics.WallLevels {
		if w.Side == "bid" {
			bidWalls++
			assert.Equal(t, 0.50, w.Price)
		}
	}
	assert.Equal(t, 1, bidWalls)
}

func TestRunMonteCarlo_Bounds(t *testing.T) {
	series := []models.TimeseriesPoint{
		{Price: 0.50}, {Price: 0.52}, {Price: 0.48}, {Price: 0.55}, {Price: 0.53},
	}

	result := RunMonteCarlo(series, 10, 200)

	assert.Equal(t, 10, result.HorizonDays)
	assert.Equal(t, 200, result.NPaths)
	require.Len(t, result.SamplePaths, 5)

	for _, band := range []string{"p5", "p25", "p50", "p75", "p95"} {
		values := result.Bands[band]
		require.Len(t, values, 11, "band %s", band)
		for _, v := range values {
			assert.GreaterOrEqual(t, v, 0.001)
			assert.LessOrEqual(t, v, 0.999)
		}
	}

	// 分位数顺序在每个时点都必须成立
	for d := 0; d <= 10; d++ {
		assert.LessOrEqual(t, result.Bands["p5"][d], result.Bands["p50"][d])
		assert.LessOrEqual(t, result.Bands["p50"][d], result.Bands["p95"][d])
	}

	// 全部路径从当前价出发
	for _, path := range result.SamplePaths {
		assert.Equal(t, 0.53, path[0])
	}
}

func TestRunMonteCarlo_FallbackOnShortHistory(t *testing.T) {
	result := RunMonteCarlo([]models.TimeseriesPoint{{Price: 0.5}}, 5, 100)

	require.Len(t, result.Bands["p50"], 6)
	for _, v := range result.Bands["p50"] {
		assert.Equal(t, 0.5, v)
	}
	assert.Nil(t, result.SamplePaths)
}

func TestPercentileSorted(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}
	assert.Equal(t, 3.0, percentileSorted(sorted, 50))
	assert.Equal(t, 1.0, percentileSorted(sorted, 0))
	assert.Equal(t, 5.0, percentileSorted(sorted, 100))
	assert.InDelta(t, 1.2, percentileSorted(sorted, 5), 1e-9)
}

func TestStddev(t *testing.T) {
	assert.InDelta(t, 2.0, stddev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-9)
	assert.Equal(t, 0.0, stddev(nil))
	assert.True(t, !math.IsNaN(stddev([]float64{1})))
}

func TestSuggestHedges(t *testing.T) {
	current := &models.Market{
		ID:            "m1",
		GroupID:       "event-1",
		OutcomePrices: []string{"0.6"},
	}
	related := []models.Market{
		{ID: "m1", GroupID: "event-1"},                          // 自身应被排除
		{ID: "m2", GroupID: "event-1", Liquidity: 2_000_000},    // 同事件，高流动性
		{ID: "m3", GroupID: "other", Liquidity: 500_000},        // 异事件
		{ID: "m4", GroupID: "event-1", Liquidity: 100_000},      // 同事件，低流动性
		{ID: "m5", GroupID: "other", Liquidity: 900_000},
		{ID: "m6", GroupID: "other", Liquidity: 100},
		{ID: "m7", GroupID: "other", Liquidity: 200},
	}

	rec := SuggestHedges(current, models.Position{Shares: 100}, related)

	require.Len(t, rec.HedgeMarkets, 5)
	assert.Len(t, rec.Caveats, 3)

	// 同事件市场排在前面，组内按流动性降序
	assert.Equal(t, "m2", rec.HedgeMarkets[0].MarketID)
	assert.Equal(t, 0.7, rec.HedgeMarkets[0].CorrelationProxy)
	assert.Equal(t, 1.0, rec.HedgeMarkets[0].LiquidityScore)
	assert.Equal(t, "m4", rec.HedgeMarkets[1].MarketID)
	assert.Equal(t, 0.3, rec.HedgeMarkets[2].CorrelationProxy)

	// 建议规模 = 持仓价值 * 相关性 * 0.5 = 100*0.6*0.7*0.5
	assert.Equal(t, 21.0, rec.HedgeMarkets[0].SuggestedSize)
}

func TestSuggestHedges_NoRelatedMarkets(t *testing.T) {
	current := &models.Market{ID: "m1"}
	rec := SuggestHedges(current, models.Position{}, nil)
	assert.Empty(t, rec.HedgeMarkets)
	assert.NotEmpty(t, rec.Caveats)
}
