package risk

import (
	"github.com/polyterm/polyterm/internal/models"
)

// 滑点测试使用的标准单量（USD）
var standardOrderSizes = []float64{1000, 5000, 10000, 50000, 100000}

// 大单墙阈值：单档名义金额超过前 50 档总深度的 10%
const (
	wallDepthLevels = 50
	wallThreshold   = 0.1
)

// ComputeLiquidityMetrics 从订单簿推导滑点曲线与大单墙。
// 滑点按买入 Yes（吃 ask）口径计算。
func ComputeLiquidityMetrics(orderbook *models.Orderbook, marketID string) *models.LiquidityMetrics {
	estimates := make([]models.SlippageEstimate, 0, len(standardOrderSizes))
	for _, size := range standardOrderSizes {
		estimates = append(estimates, calculateSlippage(orderbook.Asks, size))
	}

	walls := make([]models.WallLevel, 0)
	walls = append(walls, findWalls(orderbook.Bids, "bid")...)
	walls = append(walls, findWalls(orderbook.Asks, "ask")...)

	return &models.LiquidityMetrics{
		MarketID:          marketID,
		SlippageEstimates: estimates,
		WallLevels:        walls,
	}
}

func findWalls(levels []models.OrderbookLevel, side string) []models.WallLevel {
	if len(levels) > wallDepthLevels {
		levels = levels[:wallDepthLevels]
	}

	var totalDepth float64
	for _, l := range levels {
		totalDepth += l.Size * l.Price
	}

	walls := make([]models.WallLevel, 0)
	for _, l := range levels {
		notional := l.Size * l.Price
		if notional > totalDepth*wallThreshold {
			walls = append(walls, models.WallLevel{
				Price:   l.Price,
				SizeUSD: round2(notional),
				Side:    side,
			})
		}
	}
	return walls
}

// calculateSlippage 沿订单簿逐档成交目标金额，部分成交时滑点至少按 20% 计
func calculateSlippage(levels []models.OrderbookLevel, targetUSD float64) models.SlippageEstimate {
	if len(levels) == 0 {
		return models.SlippageEstimate{OrderSizeUSD: targetUSD, ExpectedAvgFillPrice: 0, SlippagePct: 100}
	}

	remaining := targetUSD
	var totalShares float64
	bestPrice := levels[0].Price

	for _, level := range levels {
		levelUSD := level.Size * level.Price
		if remaining <= levelUSD {
			if level.Price > 0 {
				totalShares += remaining / level.Price
			}
			remaining = 0
			break
		}
		totalShares += level.Size
		remaining -= levelUSD
	}

	if totalShares == 0 {
		return models.SlippageEstimate{OrderSizeUSD: targetUSD, ExpectedAvgFillPrice: 0, SlippagePct: 100}
	}

	avgPrice := targetUSD / totalShares
	var slippage float64
	if bestPrice > 0 {
		slippage = (avgPrice - bestPrice) / bestPrice
	}
	if remaining > 0 && slippage < 0.2 {
		slippage = 0.2
	}

	return models.SlippageEstimate{
		OrderSizeUSD:         targetUSD,
		ExpectedAvgFillPrice: round4(avgPrice),
		SlippagePct:          round2(slippage * 100),
	}
}
