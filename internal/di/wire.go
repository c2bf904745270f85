//go:build wireinject
// +build wireinject

package di

import (
	"DarkPull/pkg/config"
	"DarkPull/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,
		ProvideRetryPolicy,

		// Infrastructure
		ProvideAggregateStore,
		ProvideMarketData,
		ProvideNotificationSink,

		// Use cases
		ProvideBatchRunner,
		ProvideScreener,
		ProvideBacktester,
		ProvideIngestor,
		ProvideOrchestrator,

		// HTTP and application server
		ProvideHandler,
		ProvideApp,
	)
	return nil, nil, nil
}
