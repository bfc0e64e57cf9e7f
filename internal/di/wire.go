//go:build wireinject
// +build wireinject

package di

import (
	"TitaniumDesk/pkg/config"
	"TitaniumDesk/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideRegistry,
		ProvideMetrics,
		ProvideClock,

		// Uplink and backend
		ProvideUplinkClient,
		ProvideUplink,
		ProvideOrderGateway,

		// Desk
		ProvideSimulator,
		ProvideStore,
		ProvideDesk,

		// Optional sinks
		ProvideKafkaProducer,
		ProvideEventTap,
		ProvideRedisCache,
		ProvideSnapshotMirror,

		// HTTP
		ProvideHandler,
		ProvideHTTPServer,

		ProvideApp,
	)
	return &server.App{}, nil
}
