package risk

import (
	"fmt"
	"math"

	"github.com/polyterm/polyterm/internal/models"
)

// 预测市场价格合法区间，避免情景价格越界
const (
	priceFloor = 0.001
	priceCeil  = 0.999
)

func boundPrice(p float64) float64 {
	return math.Max(priceFloor, math.Min(priceCeil, p))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// ComputeScenarios 对持仓施加一组百分比冲击并计算各情景下的盈亏。
// shock 以百分比表示（-10 表示下跌 10%）。
func ComputeScenarios(snapshot *models.MarketSnapshot, position models.Position, shocks []float64) *models.ScenarioResult {
	basePrice := snapshot.Price
	shares := position.Shares
	avgPrice := position.AvgPrice
	if avgPrice == 0 {
		avgPrice = basePrice
	}

	scenarios := make([]models.Scenario, 0, len(shocks))
	for _, shock := range shocks {
		projected := boundPrice(basePrice * (1 + shock/100.0))

		currentValue := shares * basePrice
		projectedValue := shares * projected
		delta := projectedValue - currentValue

		// Yes 持仓的极值：价格到 1 为最大收益，到 0 为最大亏损
		var maxGain, maxLoss float64
		if shares > 0 {
			maxGain = shares * (1.0 - avgPrice)
			maxLoss = shares * (0.0 - avgPrice)
		}

		scenarios = append(scenarios, models.Scenario{
			Name:           fmt.Sprintf("%g%% Shock", shock),
			ShockPct:       shock,
			ProjectedPrice: round4(projected),
			Pnl: models.ScenarioPnl{
				PositionValueDelta: round2(delta),
				MaxLoss:            round2(maxLoss),
				MaxGain:            round2(maxGain),
			},
		})
	}

	return &models.ScenarioResult{
		BasePrice: basePrice,
		Scenarios: scenarios,
		SliderModel: map[string]any{
			"unit": "pct",
			"min":  -50,
			"max":  50,
			"step": 1,
		},
	}
}
