package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"LiveEdge/internal/domain/models"
	"LiveEdge/internal/hubclient"
	"LiveEdge/internal/insight"
	"LiveEdge/internal/matcher"
	"LiveEdge/internal/usecase"
	"LiveEdge/pkg/config"
	xhttp "LiveEdge/pkg/http"
	applogger "LiveEdge/pkg/logger"
)

// dispatchBuffer bounds each consumer's envelope queue; a consumer that
// falls behind loses new envelopes rather than stalling the hub read loop.
const dispatchBuffer = 64

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	logger      *applogger.Logger
	hub         *hubclient.Client
	matcher     *matcher.Matcher
	builder     *insight.Builder
	tracker     *usecase.Tracker
	insights    *usecase.InsightStore
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	hub *hubclient.Client,
	m *matcher.Matcher,
	b *insight.Builder,
	t *usecase.Tracker,
	insights *usecase.InsightStore,
) *App {
	return &App{
		cfg:      cfg,
		logger:   logger,
		hub:      hub,
		matcher:  m,
		builder:  b,
		tracker:  t,
		insights: insights,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Keep the latest insight queryable over HTTP.
	a.builder.OnInsight = func(ins *models.MatchupInsight) {
		a.insights.Set(ins)
	}

	envelopes := a.hub.Run(ctx)
	signals, contexts, markets := a.dispatch(ctx, envelopes)

	go a.matcher.Run(ctx, signals)
	go a.builder.Run(ctx, contexts)
	go a.tracker.Run(ctx, markets)
	a.logger.Info("pipeline started", applogger.String("hub", a.cfg.Hub.URL))

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown(cancel)
}

// dispatch fans hub envelopes out to one bounded channel per consumer.
// Matching on kind here keeps each consumer loop a single-kind reader;
// unknown kinds are dropped, never fatal.
func (a *App) dispatch(ctx context.Context, src <-chan models.Envelope) (signals, contexts, markets chan models.Envelope) {
	signals = make(chan models.Envelope, dispatchBuffer)
	contexts = make(chan models.Envelope, dispatchBuffer)
	markets = make(chan models.Envelope, dispatchBuffer)

	forward := func(dst chan models.Envelope, env models.Envelope, consumer string) {
		select {
		case dst <- env:
		default:
			a.logger.Warn("dispatch: consumer behind, dropping envelope",
				applogger.String("consumer", consumer),
				applogger.String("kind", env.Type))
		}
	}

	go func() {
		defer close(signals)
		defer close(contexts)
		defer close(markets)
		for {
			select {
			case <-ctx.Done():
				return
			case env, ok := <-src:
				if !ok {
					return
				}
				switch env.Type {
				case models.KindSignal:
					forward(signals, env, "matcher")
				case models.KindContext:
					forward(contexts, env, "insight")
				case models.KindMarket:
					forward(markets, env, "tracker")
				}
			}
		}
	}()
	return signals, contexts, markets
}

// shutdown gracefully stops all services.
func (a *App) shutdown(cancel context.CancelFunc) error {
	cancel()

	shutdownCtx, done := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer done()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
		return err
	}

	a.logger.Info("shutdown complete")
	return nil
}
