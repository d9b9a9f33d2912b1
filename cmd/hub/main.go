package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"LiveEdge/internal/hub"
	"LiveEdge/pkg/config"
	"LiveEdge/pkg/http/middleware"
	applogger "LiveEdge/pkg/logger"
	"LiveEdge/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	l, err := applogger.New(&applogger.Config{Level: "info", Format: "json", Output: "stdout"})
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}

	h := hub.New(hub.Options{
		SendBuffer:     cfg.Hub.SendBuffer,
		InsightLogPath: cfg.Hub.InsightLog,
	}, l, metrics.New())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.ServeWS)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// No read/write timeouts: websocket connections are long-lived and
	// manage their own deadlines.
	srv := &http.Server{
		Addr:    cfg.Hub.ListenAddr,
		Handler: middleware.Metrics(l, 500*time.Millisecond)(mux),
	}

	go func() {
		l.Info("hub listening", applogger.String("addr", cfg.Hub.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Error("hub server error", applogger.Error(err))
			cancel()
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigCh:
		l.Info("shutdown signal received")
	case <-ctx.Done():
	}

	cancel()
	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Warn("hub shutdown error", applogger.Error(err))
	}
	l.Info("hub stopped")
}
