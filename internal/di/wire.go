//go:build wireinject
// +build wireinject

package di

import (
	"LiveEdge/pkg/config"
	"LiveEdge/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideCache,
		ProvideRateLimiter,
		ProvidePolymarketClient,
		ProvideESPNClient,
		ProvideGeminiClient,
		ProvideHubClient,

		// Pipeline components
		ProvideEngine,
		ProvideMatcher,
		ProvideBuilder,
		ProvideTracker,
		ProvideInsightStore,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
