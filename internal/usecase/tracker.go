package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"LiveEdge/internal/analytics"
	"LiveEdge/internal/domain/models"
	"LiveEdge/internal/service/polymarket"
	applogger "LiveEdge/pkg/logger"
)

// MarketProvider refreshes tracked market snapshots.
type MarketProvider interface {
	MarketByID(ctx context.Context, id string) (*polymarket.GammaMarket, error)
	MarketBySlug(ctx context.Context, slug string) (*polymarket.GammaMarket, error)
}

// Publisher sends envelopes back to the hub.
type Publisher interface {
	PublishPayload(kind string, payload interface{}) error
}

// Tracker maintains the set of live tracked markets and refreshes their
// snapshots on a fixed interval while the set is non-empty. The loop stops
// itself when the last market unwinds and restarts on the next one.
type Tracker struct {
	provider  MarketProvider
	engine    *analytics.Engine
	publisher Publisher
	logger    *applogger.Logger
	interval  time.Duration

	mu      sync.RWMutex
	tracked map[string]models.MarketCandidate
}

// NewTracker creates a Tracker.
func NewTracker(provider MarketProvider, engine *analytics.Engine, publisher Publisher, interval time.Duration, logger *applogger.Logger) *Tracker {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Tracker{
		provider:  provider,
		engine:    engine,
		publisher: publisher,
		logger:    logger,
		interval:  interval,
		tracked:   make(map[string]models.MarketCandidate),
	}
}

// Run consumes market envelopes and drives the refresh ticker.
func (t *Tracker) Run(ctx context.Context, envelopes <-chan models.Envelope) {
	var ticker *time.Ticker
	var tick <-chan time.Time
	stopTicker := func() {
		if ticker != nil {
			ticker.Stop()
			ticker = nil
			tick = nil
		}
	}
	defer stopTicker()

	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-envelopes:
			if !ok {
				return
			}
			if env.Type != models.KindMarket {
				continue
			}
			cand, err := models.DecodePayload[models.MarketCandidate](env)
			if err != nil {
				t.logger.Warn("tracker: bad market payload", applogger.Error(err))
				continue
			}
			t.Track(cand)
			if ticker == nil {
				ticker = time.NewTicker(t.interval)
				tick = ticker.C
			}
		case <-tick:
			if t.refresh(ctx) == 0 {
				stopTicker()
			}
		}
	}
}

// Track adds or updates a tracked market and feeds the analytics windows.
func (t *Tracker) Track(cand models.MarketCandidate) {
	key := cand.Key()
	if key == "" {
		return
	}
	t.mu.Lock()
	if prev, ok := t.tracked[key]; ok && len(cand.MatchedSignals) == 0 {
		cand.MatchedSignals = prev.MatchedSignals
	}
	t.tracked[key] = cand
	t.mu.Unlock()

	if t.engine != nil {
		t.engine.UpdateFromCandidate(cand)
	}
}

// Get returns a tracked market by key.
func (t *Tracker) Get(key string) (models.MarketCandidate, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	cand, ok := t.tracked[key]
	return cand, ok
}

// Snapshot returns tracked markets ranked by traded volume.
func (t *Tracker) Snapshot() []models.MarketCandidate {
	t.mu.RLock()
	out := make([]models.MarketCandidate, 0, len(t.tracked))
	for _, cand := range t.tracked {
		out = append(out, cand)
	}
	t.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].VolumeUSD > out[j].VolumeUSD })
	return out
}

// refresh re-fetches every tracked market, drops closed ones, and broadcasts
// one markets_refresh envelope. Returns the tracked count afterwards.
func (t *Tracker) refresh(ctx context.Context) int {
	current := t.Snapshot()
	if len(current) == 0 {
		return 0
	}

	now := time.Now().UTC()
	refreshed := make([]models.MarketCandidate, 0, len(current))
	for _, cand := range current {
		gm, err := t.fetch(ctx, cand)
		if err != nil {
			t.logger.Warn("tracker: refresh failed",
				applogger.String("market", cand.Key()),
				applogger.Error(err))
			refreshed = append(refreshed, cand)
			continue
		}
		if gm.Closed || !gm.Active {
			t.untrack(cand.Key())
			continue
		}

		next := gm.ToCandidate(now)
		next.MatchedSignals = cand.MatchedSignals
		t.Track(next)
		refreshed = append(refreshed, next)
	}

	if len(refreshed) > 0 {
		if err := t.publisher.PublishPayload(models.KindMarketsRefresh, refreshed); err != nil {
			t.logger.Warn("tracker: publish refresh failed", applogger.Error(err))
		}
	}

	t.mu.RLock()
	n := len(t.tracked)
	t.mu.RUnlock()
	return n
}

func (t *Tracker) fetch(ctx context.Context, cand models.MarketCandidate) (*polymarket.GammaMarket, error) {
	if cand.ID != "" {
		return t.provider.MarketByID(ctx, cand.ID)
	}
	return t.provider.MarketBySlug(ctx, cand.Slug)
}

func (t *Tracker) untrack(key string) {
	t.mu.Lock()
	delete(t.tracked, key)
	t.mu.Unlock()
	t.logger.Info("tracker: market closed", applogger.String("market", key))
}
