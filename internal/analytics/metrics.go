package analytics

import (
	"math"
	"time"

	"LiveEdge/internal/domain/models"
)

// Volatility regimes.
const (
	RegimeUnknown  = "unknown"
	RegimeCalm     = "calm"
	RegimeModerate = "moderate"
	RegimeHigh     = "high"
	RegimeShock    = "shock"
)

// VolatilityReport describes recent price movement.
type VolatilityReport struct {
	Market string  `json:"market"`
	StdDev float64 `json:"stdDev"`
	Regime string  `json:"regime"`
	Points int     `json:"points"`
}

// Volatility computes the standard deviation of the last 20 absolute price
// moves and classifies the regime.
func (e *Engine) Volatility(key string) VolatilityReport {
	report := VolatilityReport{Market: key, Regime: RegimeUnknown}
	prices, _, ok := e.snapshotWindow(key)
	if !ok || len(prices) < 2 {
		return report
	}

	deltas := absDeltas(prices, 20)
	report.Points = len(prices)
	report.StdDev = stdDev(deltas)

	switch {
	case report.StdDev < e.opts.CalmThreshold:
		report.Regime = RegimeCalm
	case report.StdDev < e.opts.ModerateThreshold:
		report.Regime = RegimeModerate
	case report.StdDev < e.opts.HighThreshold:
		report.Regime = RegimeHigh
	default:
		report.Regime = RegimeShock
	}
	return report
}

// Clustering bands.
const (
	BandNormal   = "normal"
	BandElevated = "elevated"
	BandHigh     = "high"
	BandSpiking  = "spiking"
)

// ClusteringReport describes burstiness of trading activity.
type ClusteringReport struct {
	Market    string  `json:"market"`
	Score     float64 `json:"score"`
	Band      string  `json:"band"`
	FreqRatio float64 `json:"freqRatio"`
	VolRatio  float64 `json:"volRatio"`
}

// TradeClustering compares activity in the last 5 minutes against the
// 5-to-10-minute baseline window.
func (e *Engine) TradeClustering(key string) ClusteringReport {
	report := ClusteringReport{Market: key, Band: BandNormal}
	_, trades, ok := e.snapshotWindow(key)
	if !ok {
		return report
	}

	now := e.clock()
	recentStart := now.Add(-5 * time.Minute)
	baseStart := now.Add(-10 * time.Minute)

	var recentCount, baseCount int
	var recentVol, baseVol float64
	for _, t := range trades {
		switch {
		case !t.ts.Before(recentStart):
			recentCount++
			recentVol += math.Abs(t.delta)
		case !t.ts.Before(baseStart):
			baseCount++
			baseVol += math.Abs(t.delta)
		}
	}

	recentFreq := float64(recentCount) / 5
	recentVolRate := recentVol / 5
	baseFreq := float64(baseCount) / 5
	baseVolRate := baseVol / 5
	if baseFreq <= 0 {
		baseFreq = 0.1
	}
	if baseVolRate <= 0 {
		baseVolRate = 10
	}

	report.FreqRatio = recentFreq / baseFreq
	report.VolRatio = recentVolRate / baseVolRate

	raw := 0.6*report.FreqRatio + 0.4*report.VolRatio
	report.Score = math.Min(100, math.Max(0, math.Log10(9*raw+1)*50))

	switch {
	case report.Score < 40:
		report.Band = BandNormal
	case report.Score < 70:
		report.Band = BandElevated
	case report.Score < 85:
		report.Band = BandHigh
	default:
		report.Band = BandSpiking
	}
	return report
}

// Confidence levels.
const (
	ConfidenceLow    = "low"
	ConfidenceMedium = "medium"
	ConfidenceHigh   = "high"
)

// ConfidenceReport scores how much volume stands behind the current price.
type ConfidenceReport struct {
	Market string  `json:"market"`
	Score  float64 `json:"score"`
	Level  string  `json:"level"`
}

// PriceConfidence weighs recent price movement against traded volume and
// liquidity. A big move on thin volume is distrusted; a modest move on heavy
// volume is trusted.
func (e *Engine) PriceConfidence(key string, m models.MarketCandidate) ConfidenceReport {
	report := ConfidenceReport{Market: key}

	move := 0.0
	if prices, _, ok := e.snapshotWindow(key); ok && len(prices) >= 2 {
		move = math.Abs(prices[len(prices)-1].price - prices[0].price)
	}

	switch {
	case move > 0.05 && m.VolumeUSD < 1000:
		report.Score = 20
		report.Level = ConfidenceLow
		return report
	case move > 0.01 && m.VolumeUSD > 5000:
		report.Score = 85
		report.Level = ConfidenceHigh
		return report
	}

	volTerm := math.Min(1, math.Log10(m.VolumeUSD+1)/7)
	liqTerm := math.Min(1, math.Log10(m.LiquidityUSD+1)/6)
	report.Score = 100 * (0.6*volTerm + 0.4*liqTerm)

	switch {
	case report.Score < 30:
		report.Level = ConfidenceLow
	case report.Score < 60:
		report.Level = ConfidenceMedium
	default:
		report.Level = ConfidenceHigh
	}
	return report
}

// Drawdown bands.
const (
	DrawdownLow      = "low"
	DrawdownModerate = "moderate"
	DrawdownHigh     = "high"
	DrawdownVeryHigh = "very_high"
)

// DrawdownReport estimates adverse movement for a position entered now.
type DrawdownReport struct {
	Market   string  `json:"market"`
	Entry    float64 `json:"entry"`
	Expected float64 `json:"expected"`
	Band     string  `json:"band"`
}

// ExpectedDrawdown replays the window and takes the worst peak-to-trough move
// below the entry price, widened to at least two standard deviations of the
// observed moves.
func (e *Engine) ExpectedDrawdown(key string, m models.MarketCandidate, entry float64) DrawdownReport {
	if entry <= 0 {
		entry = m.Probability
	}
	report := DrawdownReport{Market: key, Entry: entry, Band: DrawdownLow}

	prices, _, ok := e.snapshotWindow(key)
	if !ok || len(prices) == 0 {
		return report
	}

	worst := 0.0
	for i := range prices {
		low := prices[i].price
		for j := i + 1; j < len(prices); j++ {
			if prices[j].price < low {
				low = prices[j].price
			}
		}
		if dd := entry - low; dd > worst {
			worst = dd
		}
	}

	if sd := stdDev(absDeltas(prices, 20)); worst < 2*sd {
		worst = 2 * sd
	}
	report.Expected = worst

	switch {
	case worst < 0.05:
		report.Band = DrawdownLow
	case worst < 0.15:
		report.Band = DrawdownModerate
	case worst < 0.30:
		report.Band = DrawdownHigh
	default:
		report.Band = DrawdownVeryHigh
	}
	return report
}

// PnLReport is the per-share payoff for a yes position at the given price.
type PnLReport struct {
	Price    float64 `json:"price"`
	Cost     float64 `json:"cost"`
	PnLIfYes float64 `json:"pnlIfYes"`
	PnLIfNo  float64 `json:"pnlIfNo"`
	ROI      float64 `json:"roi"`
}

// PnLPerShare computes the binary-contract payoff for one yes share.
func PnLPerShare(price float64) PnLReport {
	price = clamp(price, 0, 1)
	report := PnLReport{
		Price:    price,
		Cost:     price,
		PnLIfYes: 1 - price,
		PnLIfNo:  -price,
	}
	if price > 0 {
		report.ROI = report.PnLIfYes / price
	}
	return report
}
