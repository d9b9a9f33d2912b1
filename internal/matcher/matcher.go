package matcher

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"LiveEdge/internal/domain/models"
	"LiveEdge/internal/service/polymarket"
	applogger "LiveEdge/pkg/logger"
	"LiveEdge/pkg/metrics"
	"LiveEdge/pkg/util"
)

// Searcher is the market-data lookup the matcher depends on.
type Searcher interface {
	SearchMarkets(ctx context.Context, query string, limit int) ([]polymarket.GammaMarket, error)
}

// Publisher sends envelopes back to the hub.
type Publisher interface {
	PublishPayload(kind string, payload interface{}) error
}

// Weights are the scoring mix. They must sum to 1.
type Weights struct {
	Semantic  float64
	Liquidity float64
	Volume    float64
	Time      float64
}

// Options configures the Matcher.
type Options struct {
	Weights     Weights
	TopK        int
	SearchLimit int
	Timeout     time.Duration
}

// Matcher turns commentary signals into ranked market candidates.
type Matcher struct {
	opts      Options
	searcher  Searcher
	publisher Publisher
	logger    *applogger.Logger
	recorder  *metrics.Recorder

	mu   sync.Mutex
	seen map[string]struct{}

	// OnCandidate, when set, observes each newly published candidate.
	OnCandidate func(models.MarketCandidate)
}

// New creates a Matcher.
func New(opts Options, searcher Searcher, publisher Publisher, logger *applogger.Logger, recorder *metrics.Recorder) *Matcher {
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = 12
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 3500 * time.Millisecond
	}
	if opts.Weights == (Weights{}) {
		opts.Weights = Weights{Semantic: 0.5, Liquidity: 0.2, Volume: 0.2, Time: 0.1}
	}
	return &Matcher{
		opts:      opts,
		searcher:  searcher,
		publisher: publisher,
		logger:    logger,
		recorder:  recorder,
		seen:      make(map[string]struct{}),
	}
}

// Run consumes signal envelopes until the channel closes or ctx is done.
func (m *Matcher) Run(ctx context.Context, envelopes <-chan models.Envelope) {
	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-envelopes:
			if !ok {
				return
			}
			if env.Type != models.KindSignal {
				continue
			}
			sig, err := models.DecodePayload[models.Signal](env)
			if err != nil {
				m.logger.Warn("matcher: bad signal payload", applogger.Error(err))
				continue
			}
			candidates, err := m.OnSignal(ctx, sig)
			if err != nil {
				m.logger.Warn("matcher: search failed",
					applogger.String("entity", sig.Entity),
					applogger.Error(err))
				continue
			}
			m.publish(candidates)
		}
	}
}

// OnSignal searches, scores, and ranks candidates for one signal. A failed
// or timed-out search yields an empty result, not an error to the caller's
// pipeline; errors are still returned for logging.
func (m *Matcher) OnSignal(ctx context.Context, sig models.Signal) ([]models.MarketCandidate, error) {
	query := buildQuery(sig)
	if query == "" {
		return nil, nil
	}

	start := time.Now()
	sctx, cancel := context.WithTimeout(ctx, m.opts.Timeout)
	defer cancel()

	markets, err := m.searcher.SearchMarkets(sctx, query, m.opts.SearchLimit)
	if m.recorder != nil {
		m.recorder.RecordLatency("matcher_search", time.Since(start).Seconds())
	}
	if err != nil {
		if m.recorder != nil {
			m.recorder.RecordError("matcher_search")
		}
		return nil, err
	}

	now := time.Now().UTC()
	type scored struct {
		cand  models.MarketCandidate
		score float64
	}
	ranked := make([]scored, 0, len(markets))
	for _, gm := range markets {
		if !gm.Active || gm.Closed {
			continue
		}
		cand := gm.ToCandidate(now)
		cand.MatchedSignals = []string{sig.ID}
		ranked = append(ranked, scored{cand: cand, score: m.score(query, gm)})
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if len(ranked) > m.opts.TopK {
		ranked = ranked[:m.opts.TopK]
	}

	out := make([]models.MarketCandidate, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.cand)
	}
	return models.DedupeMarkets(out), nil
}

func (m *Matcher) publish(candidates []models.MarketCandidate) {
	for _, cand := range candidates {
		key := cand.Key()
		m.mu.Lock()
		_, dup := m.seen[key]
		if !dup {
			m.seen[key] = struct{}{}
		}
		m.mu.Unlock()
		if dup {
			continue
		}

		if err := m.publisher.PublishPayload(models.KindMarket, cand); err != nil {
			m.logger.Warn("matcher: publish failed", applogger.Error(err))
		}
		if m.recorder != nil {
			m.recorder.RecordProbability(key, cand.Probability)
		}
		if m.OnCandidate != nil {
			m.OnCandidate(cand)
		}
	}
}

func buildQuery(sig models.Signal) string {
	parts := make([]string, 0, 2)
	if s := strings.TrimSpace(sig.Entity); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(sig.SignalType); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, " ")
}

func (m *Matcher) score(query string, gm polymarket.GammaMarket) float64 {
	w := m.opts.Weights
	s := w.Semantic * semanticOverlap(query, gm.Question+" "+gm.Description)
	s += w.Liquidity * math.Min(1, math.Log10(gm.LiquidityUSD+1)/6)
	s += w.Volume * math.Min(1, math.Log10(gm.VolumeUSD+1)/7)

	remaining := 0.0
	if !gm.EndDate.IsZero() {
		remaining = time.Until(gm.EndDate).Minutes()
		if remaining < 0 {
			remaining = 0
		}
	}
	s += w.Time * math.Min(1, remaining/240)
	return s
}

// semanticOverlap is the fraction of query tokens contained in text,
// case-insensitive. A tokenless query scores a flat 0.2.
func semanticOverlap(query, text string) float64 {
	tokens := util.Tokens(query)
	if len(tokens) == 0 {
		return 0.2
	}
	norm := util.NormalizeText(text)
	hits := 0
	for _, tok := range tokens {
		if util.ContainsWord(norm, tok) {
			hits++
		}
	}
	return float64(hits) / float64(len(tokens))
}
