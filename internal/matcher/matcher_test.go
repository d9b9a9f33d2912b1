package matcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"LiveEdge/internal/domain/models"
	"LiveEdge/internal/service/polymarket"
	applogger "LiveEdge/pkg/logger"
)

type fakeSearcher struct {
	markets []polymarket.GammaMarket
	err     error
	delay   time.Duration
}

func (f *fakeSearcher) SearchMarkets(ctx context.Context, query string, limit int) ([]polymarket.GammaMarket, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.markets, f.err
}

type fakePublisher struct {
	mu        sync.Mutex
	published []models.MarketCandidate
}

func (f *fakePublisher) PublishPayload(kind string, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cand, ok := payload.(models.MarketCandidate); ok {
		f.published = append(f.published, cand)
	}
	return nil
}

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func gm(id, question string, vol, liq float64, hoursLeft float64) polymarket.GammaMarket {
	return polymarket.GammaMarket{
		ID:           id,
		Question:     question,
		Slug:         id,
		VolumeUSD:    vol,
		LiquidityUSD: liq,
		EndDate:      time.Now().Add(time.Duration(hoursLeft * float64(time.Hour))),
		Active:       true,
	}
}

func TestOnSignalRanksBySemanticOverlap(t *testing.T) {
	searcher := &fakeSearcher{markets: []polymarket.GammaMarket{
		gm("other", "Will the Lakers win the title?", 50000, 10000, 3),
		gm("nuggets", "Will the Nuggets win tonight?", 50000, 10000, 3),
	}}
	m := New(Options{}, searcher, &fakePublisher{}, testLogger(t), nil)

	got, err := m.OnSignal(context.Background(), models.Signal{ID: "s1", Entity: "Nuggets", SignalType: "momentum_shift"})
	if err != nil {
		t.Fatalf("OnSignal: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if got[0].ID != "nuggets" {
		t.Fatalf("expected nuggets ranked first, got %q", got[0].ID)
	}
	if got[0].MatchedSignals[0] != "s1" {
		t.Fatalf("expected matched signal id, got %v", got[0].MatchedSignals)
	}
}

func TestOnSignalEmptyQuery(t *testing.T) {
	m := New(Options{}, &fakeSearcher{}, &fakePublisher{}, testLogger(t), nil)
	got, err := m.OnSignal(context.Background(), models.Signal{ID: "s1", Entity: "  "})
	if err != nil || got != nil {
		t.Fatalf("expected nil, nil for empty query, got %v, %v", got, err)
	}
}

func TestOnSignalSearchTimeout(t *testing.T) {
	searcher := &fakeSearcher{delay: 200 * time.Millisecond}
	m := New(Options{Timeout: 20 * time.Millisecond}, searcher, &fakePublisher{}, testLogger(t), nil)

	_, err := m.OnSignal(context.Background(), models.Signal{ID: "s1", Entity: "Nuggets"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestOnSignalFiltersClosed(t *testing.T) {
	closed := gm("closed", "Will the Nuggets win?", 1000, 1000, 3)
	closed.Closed = true
	inactive := gm("inactive", "Nuggets championship?", 1000, 1000, 3)
	inactive.Active = false
	searcher := &fakeSearcher{markets: []polymarket.GammaMarket{
		closed, inactive, gm("open", "Nuggets to win tonight?", 1000, 1000, 3),
	}}
	m := New(Options{}, searcher, &fakePublisher{}, testLogger(t), nil)

	got, err := m.OnSignal(context.Background(), models.Signal{ID: "s1", Entity: "Nuggets"})
	if err != nil {
		t.Fatalf("OnSignal: %v", err)
	}
	if len(got) != 1 || got[0].ID != "open" {
		t.Fatalf("expected only open market, got %+v", got)
	}
}

func TestOnSignalTopK(t *testing.T) {
	markets := make([]polymarket.GammaMarket, 0, 8)
	for i := 0; i < 8; i++ {
		markets = append(markets, gm(string(rune('a'+i)), "Nuggets game", float64(i*1000), 1000, 3))
	}
	m := New(Options{TopK: 5}, &fakeSearcher{markets: markets}, &fakePublisher{}, testLogger(t), nil)

	got, err := m.OnSignal(context.Background(), models.Signal{ID: "s1", Entity: "Nuggets"})
	if err != nil {
		t.Fatalf("OnSignal: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("expected top 5, got %d", len(got))
	}
}

func TestRunPublishesOnceAcrossDuplicates(t *testing.T) {
	searcher := &fakeSearcher{markets: []polymarket.GammaMarket{
		gm("m1", "Will the Nuggets win tonight?", 50000, 10000, 3),
	}}
	pub := &fakePublisher{}
	m := New(Options{}, searcher, pub, testLogger(t), nil)

	envelopes := make(chan models.Envelope, 2)
	for i := 0; i < 2; i++ {
		env, _ := models.NewEnvelope(models.KindSignal, models.Signal{ID: "s1", Entity: "Nuggets"})
		envelopes <- env
	}
	close(envelopes)

	m.Run(context.Background(), envelopes)

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.published) != 1 {
		t.Fatalf("expected one published candidate across duplicate signals, got %d", len(pub.published))
	}
}
