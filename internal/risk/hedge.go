package risk

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/polyterm/polyterm/internal/models"
)

// 对冲相关性启发式：同事件 0.7，否则按品类近似 0.3
const (
	correlationSameGroup = 0.7
	correlationDefault   = 0.3
	maxHedgeMarkets      = 5
)

// SuggestHedges 在相关市场中挑选对冲候选，按相关性与流动性排序取前五。
func SuggestHedges(current *models.Market, position models.Position, related []models.Market) *models.HedgeRecommendation {
	shares := position.Shares

	currentPrice := 0.5
	if len(current.OutcomePrices) > 0 {
		if p, err := strconv.ParseFloat(current.OutcomePrices[0], 64); err == nil {
			currentPrice = p
		}
	}
	currentValue := shares * currentPrice

	hedges := make([]models.HedgeMarket, 0, len(related))
	for _, rm := range related {
		if rm.ID == current.ID {
			continue
		}

		correlation := correlationDefault
		if rm.GroupID != "" && rm.GroupID == current.GroupID {
			correlation = correlationSameGroup
		}

		liquidityScore := rm.Liquidity / 1000000
		if liquidityScore > 1 {
			liquidityScore = 1
		}

		hedges = append(hedges, models.HedgeMarket{
			MarketID:                  rm.ID,
			Reason:                    fmt.Sprintf("High correlation proxy (%g) due to shared event/category.", correlation),
			CorrelationProxy:          correlation,
			LiquidityScore:            round2(liquidityScore),
			SuggestedSize:             round2(currentValue * correlation * 0.5),
			ExpectedDownsideReduction: round2(correlation * 0.4 * 100),
		})
	}

	sort.SliceStable(hedges, func(i, j int) bool {
		if hedges[i].CorrelationProxy != hedges[j].CorrelationProxy {
			return hedges[i].CorrelationProxy > hedges[j].CorrelationProxy
		}
		return hedges[i].LiquidityScore > hedges[j].LiquidityScore
	})

	if len(hedges) > maxHedgeMarkets {
		hedges = hedges[:maxHedgeMarkets]
	}

	return &models.HedgeRecommendation{
		HedgeMarkets: hedges,
		Caveats: []string{
			"Correlation proxies are estimated based on metadata and category overlap.",
			"Liquidity scores represent the depth of the hedge market.",
			"Hedge suggestions do not account for individual risk tolerance.",
		},
	}
}
