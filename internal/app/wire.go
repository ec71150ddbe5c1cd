//go:build wireinject
// +build wireinject

package app

import (
	"context"

	"github.com/google/wire"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/rtt/internal/adapters"
	"github.com/trebuchet-org/rtt/internal/config"
	"github.com/trebuchet-org/rtt/internal/logging"
	"github.com/trebuchet-org/rtt/internal/usecase"
)

// InitApp creates a fully wired App instance
func InitApp(ctx context.Context, v *viper.Viper) (*App, error) {
	wire.Build(
		// Configuration
		config.Provider,
		logging.LoggingSet,

		// Adapters
		adapters.AllAdapters,

		// Use cases
		usecase.NewFindTestFile,
		usecase.NewPrepareMonitors,
		usecase.NewApplyDeployment,
		usecase.NewRunTests,
		usecase.NewRunWatchLoop,
		usecase.NewManageNode,

		// App
		NewApp,
	)
	return nil, nil
}
