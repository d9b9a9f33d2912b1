package analytics

import (
	"math"
	"sync"
	"time"

	"LiveEdge/internal/domain/models"
)

// Options configures window retention and volatility thresholds.
type Options struct {
	MaxPoints      int
	MaxAge         time.Duration
	CoalesceWindow time.Duration

	CalmThreshold     float64
	ModerateThreshold float64
	HighThreshold     float64
}

type pricePoint struct {
	price float64
	ts    time.Time
}

type tradePoint struct {
	delta       float64
	significant bool
	ts          time.Time
}

type window struct {
	prices []pricePoint
	trades []tradePoint

	lastVolume float64
	hasVolume  bool
}

// Engine keeps rolling per-market price and volume windows and computes
// analytics over them. All reads and writes go through one mutex; updates
// arrive from a single refresh path.
type Engine struct {
	opts Options

	mu      sync.RWMutex
	history map[string]*window
	clock   func() time.Time
}

// NewEngine creates an analytics engine.
func NewEngine(opts Options) *Engine {
	if opts.MaxPoints <= 0 {
		opts.MaxPoints = 60
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = 30 * time.Minute
	}
	if opts.CoalesceWindow <= 0 {
		opts.CoalesceWindow = 10 * time.Second
	}
	if opts.CalmThreshold <= 0 {
		opts.CalmThreshold = 0.005
	}
	if opts.ModerateThreshold <= 0 {
		opts.ModerateThreshold = 0.015
	}
	if opts.HighThreshold <= 0 {
		opts.HighThreshold = 0.03
	}
	return &Engine{
		opts:    opts,
		history: make(map[string]*window),
		clock:   time.Now,
	}
}

// UpdateFromCandidate feeds one market snapshot into the windows.
func (e *Engine) UpdateFromCandidate(m models.MarketCandidate) {
	key := m.Key()
	if key == "" {
		return
	}
	now := e.clock()

	e.mu.Lock()
	defer e.mu.Unlock()

	w, ok := e.history[key]
	if !ok {
		w = &window{}
		e.history[key] = w
	}

	e.updatePriceHistory(w, m.Probability, now)
	e.updateTradeActivity(w, m.VolumeUSD, now)
}

func (e *Engine) updatePriceHistory(w *window, price float64, now time.Time) {
	if n := len(w.prices); n > 0 {
		last := w.prices[n-1]
		// Identical price arriving within the coalesce window is noise.
		if last.price == price && now.Sub(last.ts) < e.opts.CoalesceWindow {
			return
		}
	}
	w.prices = append(w.prices, pricePoint{price: price, ts: now})
	w.prices = trimPrices(w.prices, e.opts.MaxPoints, now.Add(-e.opts.MaxAge))
}

func (e *Engine) updateTradeActivity(w *window, volume float64, now time.Time) {
	if !w.hasVolume {
		w.hasVolume = true
		w.lastVolume = volume
		return
	}
	delta := volume - w.lastVolume
	w.lastVolume = volume

	w.trades = append(w.trades, tradePoint{
		delta:       delta,
		significant: math.Abs(delta) > 1,
		ts:          now,
	})
	w.trades = trimTrades(w.trades, e.opts.MaxPoints, now.Add(-e.opts.MaxAge))
}

func trimPrices(points []pricePoint, maxPoints int, cutoff time.Time) []pricePoint {
	for len(points) > 0 && points[0].ts.Before(cutoff) {
		points = points[1:]
	}
	if len(points) > maxPoints {
		points = points[len(points)-maxPoints:]
	}
	return points
}

func trimTrades(points []tradePoint, maxPoints int, cutoff time.Time) []tradePoint {
	for len(points) > 0 && points[0].ts.Before(cutoff) {
		points = points[1:]
	}
	if len(points) > maxPoints {
		points = points[len(points)-maxPoints:]
	}
	return points
}

// snapshotWindow copies window state under the read lock.
func (e *Engine) snapshotWindow(key string) (prices []pricePoint, trades []tradePoint, ok bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	w, exists := e.history[key]
	if !exists {
		return nil, nil, false
	}
	prices = append(prices, w.prices...)
	trades = append(trades, w.trades...)
	return prices, trades, true
}

// Tracked returns the market keys currently holding windows.
func (e *Engine) Tracked() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	keys := make([]string, 0, len(e.history))
	for k := range e.history {
		keys = append(keys, k)
	}
	return keys
}

func stdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))

	variance := 0.0
	for _, x := range xs {
		variance += (x - mean) * (x - mean)
	}
	variance /= float64(len(xs))
	return math.Sqrt(variance)
}

func absDeltas(points []pricePoint, max int) []float64 {
	if len(points) < 2 {
		return nil
	}
	deltas := make([]float64, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		deltas = append(deltas, math.Abs(points[i].price-points[i-1].price))
	}
	if len(deltas) > max {
		deltas = deltas[len(deltas)-max:]
	}
	return deltas
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
