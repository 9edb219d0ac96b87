package risk

import (
	"math"
	"math/rand"
	"sort"

	"github.com/polyterm/polyterm/internal/models"
)

// 价格历史按小时采样，按 sqrt(24) 换算为日波动率
const hoursPerDay = 24

// RunMonteCarlo 基于价格历史做几何布朗运动模拟，产出各分位数价格带。
// 历史不足两点时退化为固定波动率的解析带。
func RunMonteCarlo(timeseries []models.TimeseriesPoint, horizonDays, nPaths int) *models.MonteCarloResult {
	if horizonDays <= 0 {
		horizonDays = 30
	}
	if nPaths <= 0 {
		nPaths = 1000
	}
	if len(timeseries) < 2 {
		return fallbackResult(horizonDays, nPaths)
	}

	prices := make([]float64, len(timeseries))
	for i, p := range timeseries {
		prices[i] = p.Price
	}

	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			continue
		}
		returns = append(returns, (prices[i]-prices[i-1])/prices[i-1])
	}
	if len(returns) == 0 {
		return fallbackResult(horizonDays, nPaths)
	}

	dailyVol := stddev(returns) * math.Sqrt(hoursPerDay)
	currentPrice := prices[len(prices)-1]

	// S_t = S_{t-1} * exp((mu - sigma^2/2) dt + sigma sqrt(dt) Z)
	// 预测市场假设漂移为零
	drift := -0.5 * dailyVol * dailyVol

	paths := make([][]float64, nPaths)
	for i := range paths {
		path := make([]float64, horizonDays+1)
		path[0] = boundPrice(currentPrice)
		for t := 1; t <= horizonDays; t++ {
			z := rand.NormFloat64()
			path[t] = boundPrice(path[t-1] * math.Exp(drift+dailyVol*z))
		}
		paths[i] = path
	}

	bands := map[string][]float64{
		"p5":  make([]float64, horizonDays+1),
		"p25": make([]float64, horizonDays+1),
		"p50": make([]float64, horizonDays+1),
		"p75": make([]float64, horizonDays+1),
		"p95": make([]float64, horizonDays+1),
	}
	column := make([]float64, nPaths)
	for t := 0; t <= horizonDays; t++ {
		for i := range paths {
			column[i] = paths[i][t]
		}
		sort.Float64s(column)
		bands["p5"][t] = percentileSorted(column, 5)
		bands["p25"][t] = percentileSorted(column, 25)
		bands["p50"][t] = percentileSorted(column, 50)
		bands["p75"][t] = percentileSorted(column, 75)
		bands["p95"][t] = percentileSorted(column, 95)
	}

	sampleCount := 5
	if sampleCount > nPaths {
		sampleCount = nPaths
	}

	return &models.MonteCarloResult{
		HorizonDays: horizonDays,
		NPaths:      nPaths,
		Bands:       bands,
		SamplePaths: paths[:sampleCount],
	}
}

// fallbackResult 历史不足时的解析近似带，波动率取 0.05
func fallbackResult(horizonDays, nPaths int) *models.MonteCarloResult {
	const (
		base = 0.5
		vol  = 0.05
	)

	band := func(mult float64) []float64 {
		out := make([]float64, horizonDays+1)
		for d := 0; d <= horizonDays; d++ {
			v := base + mult*vol*math.Sqrt(float64(d))
			out[d] = math.Max(0.01, math.Min(0.99, v))
		}
		return out
	}

	p50 := make([]float64, horizonDays+1)
	for d := range p50 {
		p50[d] = base
	}

	return &models.MonteCarloResult{
		HorizonDays: horizonDays,
		NPaths:      nPaths,
		Bands: map[string][]float64{
			"p5":  band(-1.96),
			"p25": band(-0.67),
			"p50": p50,
			"p75": band(0.67),
			"p95": band(1.96),
		},
	}
}

func stddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)))
}

// percentileSorted 线性插值分位数，输入必须已升序
func percentileSorted(sorted []float64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := pct / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
