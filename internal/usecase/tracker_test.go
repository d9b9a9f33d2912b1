package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"LiveEdge/internal/analytics"
	"LiveEdge/internal/domain/models"
	"LiveEdge/internal/service/polymarket"
	applogger "LiveEdge/pkg/logger"
)

type fakeProvider struct {
	mu      sync.Mutex
	byID    map[string]polymarket.GammaMarket
	fetches int32
}

func (f *fakeProvider) MarketByID(ctx context.Context, id string) (*polymarket.GammaMarket, error) {
	atomic.AddInt32(&f.fetches, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	gm := f.byID[id]
	return &gm, nil
}

func (f *fakeProvider) MarketBySlug(ctx context.Context, slug string) (*polymarket.GammaMarket, error) {
	return f.MarketByID(ctx, slug)
}

type fakePublisher struct {
	mu       sync.Mutex
	payloads []interface{}
}

func (f *fakePublisher) PublishPayload(kind string, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if kind == models.KindMarketsRefresh {
		f.payloads = append(f.payloads, payload)
	}
	return nil
}

func (f *fakePublisher) refreshCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func openMarket(id string, vol float64) polymarket.GammaMarket {
	return polymarket.GammaMarket{
		ID:        id,
		Question:  "Will team " + id + " win?",
		Slug:      id,
		VolumeUSD: vol,
		Active:    true,
		EndDate:   time.Now().Add(2 * time.Hour),
	}
}

func TestSnapshotRankedByVolume(t *testing.T) {
	tr := NewTracker(&fakeProvider{}, nil, &fakePublisher{}, time.Hour, testLogger(t))
	tr.Track(models.MarketCandidate{ID: "small", VolumeUSD: 100})
	tr.Track(models.MarketCandidate{ID: "big", VolumeUSD: 10000})
	tr.Track(models.MarketCandidate{ID: "mid", VolumeUSD: 1000})

	snap := tr.Snapshot()
	if len(snap) != 3 || snap[0].ID != "big" || snap[2].ID != "small" {
		t.Fatalf("unexpected ranking: %+v", snap)
	}
}

func TestRefreshLoopPublishesAndSelfCancels(t *testing.T) {
	provider := &fakeProvider{byID: map[string]polymarket.GammaMarket{
		"m1": openMarket("m1", 500),
	}}
	pub := &fakePublisher{}
	engine := analytics.NewEngine(analytics.Options{})
	tr := NewTracker(provider, engine, pub, 20*time.Millisecond, testLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	envelopes := make(chan models.Envelope, 4)
	go tr.Run(ctx, envelopes)

	env, _ := models.NewEnvelope(models.KindMarket, models.MarketCandidate{ID: "m1", MatchedSignals: []string{"s1"}})
	envelopes <- env

	// Let a few refresh cycles run.
	time.Sleep(120 * time.Millisecond)
	if pub.refreshCount() == 0 {
		t.Fatal("expected markets_refresh envelopes")
	}
	got, ok := tr.Get("m1")
	if !ok {
		t.Fatal("expected market tracked")
	}
	if len(got.MatchedSignals) != 1 || got.MatchedSignals[0] != "s1" {
		t.Fatalf("expected matched signals preserved, got %+v", got.MatchedSignals)
	}

	// Close the market upstream: the loop should untrack and stop fetching.
	provider.mu.Lock()
	closed := provider.byID["m1"]
	closed.Closed = true
	provider.byID["m1"] = closed
	provider.mu.Unlock()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, ok := tr.Get("m1"); !ok {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if _, ok := tr.Get("m1"); ok {
		t.Fatal("expected closed market untracked")
	}

	time.Sleep(60 * time.Millisecond)
	base := atomic.LoadInt32(&provider.fetches)
	time.Sleep(100 * time.Millisecond)
	if atomic.LoadInt32(&provider.fetches) != base {
		t.Fatal("expected refresh loop to stop once tracked set is empty")
	}
}

func TestRefreshRestartsOnNewMarket(t *testing.T) {
	provider := &fakeProvider{byID: map[string]polymarket.GammaMarket{
		"m2": openMarket("m2", 800),
	}}
	pub := &fakePublisher{}
	tr := NewTracker(provider, nil, pub, 20*time.Millisecond, testLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	envelopes := make(chan models.Envelope, 4)
	go tr.Run(ctx, envelopes)

	env, _ := models.NewEnvelope(models.KindMarket, models.MarketCandidate{ID: "m2"})
	envelopes <- env

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && pub.refreshCount() == 0 {
		time.Sleep(10 * time.Millisecond)
	}
	if pub.refreshCount() == 0 {
		t.Fatal("expected refresh after tracking new market")
	}
}
