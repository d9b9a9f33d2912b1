package di

import (
	"fmt"

	"LiveEdge/internal/analytics"
	"LiveEdge/internal/handler/api"
	"LiveEdge/internal/hubclient"
	"LiveEdge/internal/insight"
	"LiveEdge/internal/matcher"
	"LiveEdge/internal/service/espn"
	"LiveEdge/internal/service/gemini"
	"LiveEdge/internal/service/polymarket"
	"LiveEdge/internal/service/ratelimit"
	"LiveEdge/internal/usecase"
	pkgcache "LiveEdge/pkg/cache"
	"LiveEdge/pkg/config"
	"LiveEdge/pkg/logger"
	"LiveEdge/pkg/metrics"
	"LiveEdge/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	format := "json"
	if cfg.Environment == "development" {
		format = "console"
	}
	l, err := logger.New(&logger.Config{Level: "info", Format: format, Output: "stdout"})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() *metrics.Recorder {
	return metrics.New()
}

// ProvideCache picks the cache backend: memory-only by default, layered
// memory-over-Redis when Redis is enabled.
func ProvideCache(cfg *config.Config) (pkgcache.Service, error) {
	if !cfg.Redis.Enabled {
		return pkgcache.NewMemoryCache(), nil
	}
	redis, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisAddr(cfg.Redis.Addr),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return pkgcache.NewLayeredCache(redis), nil
}

// ProvideRateLimiter creates the shared outbound request limiter.
func ProvideRateLimiter() *ratelimit.Limiter {
	return ratelimit.New()
}

// ProvidePolymarketClient creates the Gamma markets client.
func ProvidePolymarketClient(cfg *config.Config, limiter *ratelimit.Limiter, l *logger.Logger) *polymarket.Client {
	return polymarket.New(cfg.Providers.GammaBaseURL, cfg.Providers.RequestTimeout, limiter, l)
}

// ProvideESPNClient creates the team directory and results client.
func ProvideESPNClient(cfg *config.Config, cacheSvc pkgcache.Service, l *logger.Logger) *espn.Client {
	return espn.New(cfg.Providers.ESPNBaseURL, cfg.Providers.RequestTimeout, cacheSvc, cfg.Insight.TeamsTTL, l)
}

// ProvideGeminiClient creates the narrative generator. A missing API key
// yields a disabled client, not an error.
func ProvideGeminiClient(cfg *config.Config, l *logger.Logger) *gemini.Client {
	return gemini.New(cfg.Gemini.BaseURL, cfg.Gemini.Model, cfg.Gemini.APIKey, cfg.Gemini.Timeout, l)
}

// ProvideHubClient creates the persistent hub connection.
func ProvideHubClient(cfg *config.Config, l *logger.Logger) *hubclient.Client {
	return hubclient.New(cfg.Hub.URL, cfg.Hub.ReconnectDelay, l)
}

// ProvideEngine creates the rolling analytics engine.
func ProvideEngine(cfg *config.Config) *analytics.Engine {
	return analytics.NewEngine(analytics.Options{
		MaxPoints:         cfg.Analytics.MaxPoints,
		MaxAge:            cfg.Analytics.MaxAge,
		CalmThreshold:     cfg.Analytics.CalmThreshold,
		ModerateThreshold: cfg.Analytics.ModerateThreshold,
		HighThreshold:     cfg.Analytics.HighThreshold,
	})
}

// ProvideMatcher creates the signal-to-market matcher.
func ProvideMatcher(
	cfg *config.Config,
	pm *polymarket.Client,
	hub *hubclient.Client,
	l *logger.Logger,
	recorder *metrics.Recorder,
) *matcher.Matcher {
	return matcher.New(matcher.Options{
		Weights: matcher.Weights{
			Semantic:  cfg.Matcher.SemanticWeight,
			Liquidity: cfg.Matcher.LiquidityWeight,
			Volume:    cfg.Matcher.VolumeWeight,
			Time:      cfg.Matcher.TimeWeight,
		},
		TopK:        cfg.Matcher.TopK,
		SearchLimit: cfg.Providers.SearchLimit,
		Timeout:     cfg.Providers.RequestTimeout,
	}, pm, hub, l, recorder)
}

// ProvideBuilder creates the matchup insight builder.
func ProvideBuilder(
	cfg *config.Config,
	sports *espn.Client,
	narrator *gemini.Client,
	hub *hubclient.Client,
	l *logger.Logger,
	recorder *metrics.Recorder,
) *insight.Builder {
	return insight.New(insight.Options{
		Debounce: cfg.Insight.Debounce,
		Cooldown: cfg.Insight.Cooldown,
	}, sports, narrator, hub, l, recorder)
}

// ProvideTracker creates the tracked-market refresher.
func ProvideTracker(
	cfg *config.Config,
	pm *polymarket.Client,
	engine *analytics.Engine,
	hub *hubclient.Client,
	l *logger.Logger,
) *usecase.Tracker {
	return usecase.NewTracker(pm, engine, hub, cfg.Analytics.RefreshInterval, l)
}

// ProvideInsightStore creates the latest-insight holder.
func ProvideInsightStore() *usecase.InsightStore {
	return usecase.NewInsightStore()
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *logger.Logger,
	hub *hubclient.Client,
	m *matcher.Matcher,
	b *insight.Builder,
	t *usecase.Tracker,
	insights *usecase.InsightStore,
	engine *analytics.Engine,
) *server.App {
	app := server.New(cfg, l, hub, m, b, t, insights)
	app.SetHTTPHandler(api.NewAnalyticsEchoHandler(l, t, engine, insights))
	return app
}
