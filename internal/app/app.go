package app

import (
	"log/slog"

	"github.com/trebuchet-org/rtt/internal/domain/config"
	"github.com/trebuchet-org/rtt/internal/usecase"
)

// App is the main application container that holds all use cases
type App struct {
	// Configuration
	Config *config.RuntimeConfig
	Log    *slog.Logger

	// Shared dependencies
	Declarations usecase.DeclarationLoader

	// Use cases
	FindTestFile    *usecase.FindTestFile
	PrepareMonitors *usecase.PrepareMonitors
	RunWatchLoop    *usecase.RunWatchLoop
	ManageNode      *usecase.ManageNode

	// Adapters (needed for special cases like log streaming)
	NodeManager usecase.NodeManager
}

// NewApp creates a new application instance with all use cases
func NewApp(
	cfg *config.RuntimeConfig,
	log *slog.Logger,
	declarations usecase.DeclarationLoader,
	findTestFile *usecase.FindTestFile,
	prepareMonitors *usecase.PrepareMonitors,
	runWatchLoop *usecase.RunWatchLoop,
	manageNode *usecase.ManageNode,
	nodeManager usecase.NodeManager,
) (*App, error) {
	return &App{
		Config:          cfg,
		Log:             log,
		Declarations:    declarations,
		FindTestFile:    findTestFile,
		PrepareMonitors: prepareMonitors,
		RunWatchLoop:    runWatchLoop,
		ManageNode:      manageNode,
		NodeManager:     nodeManager,
	}, nil
}
