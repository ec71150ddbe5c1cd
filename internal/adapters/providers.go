package adapters

import (
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/google/wire"
	"github.com/trebuchet-org/rtt/internal/adapters/antelope"
	"github.com/trebuchet-org/rtt/internal/adapters/fs"
	"github.com/trebuchet-org/rtt/internal/adapters/interactive"
	"github.com/trebuchet-org/rtt/internal/adapters/nodeos"
	"github.com/trebuchet-org/rtt/internal/adapters/progress"
	"github.com/trebuchet-org/rtt/internal/adapters/suite"
	"github.com/trebuchet-org/rtt/internal/adapters/wasm"
	"github.com/trebuchet-org/rtt/internal/domain/config"
	"github.com/trebuchet-org/rtt/internal/usecase"
)

// ProvideChangeNotifier returns a file notifier, or nil when notifications
// are disabled and the loop only polls
func ProvideChangeNotifier(cfg *config.RuntimeConfig, log *slog.Logger) usecase.ChangeNotifier {
	if !cfg.Watch.Notify {
		return nil
	}
	return fs.NewNotifierAdapter(cfg, log)
}

// ProvideWatchProgress renders loop progress on stdout, animated only on a terminal
func ProvideWatchProgress(cfg *config.RuntimeConfig) *progress.WatchProgress {
	return progress.NewWatchProgress(os.Stdout, !cfg.NonInteractive && !color.NoColor)
}

// ProvideConsoleReporter prints case outcomes on stdout
func ProvideConsoleReporter() *progress.ConsoleReporter {
	return progress.NewConsoleReporter(os.Stdout)
}

// ProvideClock provides the wall clock
func ProvideClock() usecase.Clock {
	return usecase.SystemClock{}
}

// FSSet provides filesystem-based implementations
var FSSet = wire.NewSet(
	fs.NewArtifactResolverAdapter,
	wire.Bind(new(usecase.ArtifactResolver), new(*fs.ArtifactResolverAdapter)),

	fs.NewDetector,
	ProvideChangeNotifier,

	fs.NewTestFileIndexerAdapter,
	wire.Bind(new(usecase.TestFileIndexer), new(*fs.TestFileIndexerAdapter)),
)

// ChainSet provides the chain client and local node implementations
var ChainSet = wire.NewSet(
	antelope.NewClient,
	wire.Bind(new(usecase.TransactionClient), new(*antelope.Client)),
	wire.Bind(new(usecase.TableReader), new(*antelope.Client)),

	antelope.NewABICodec,
	wire.Bind(new(usecase.ABIEncoder), new(*antelope.ABICodec)),

	wasm.NewValidator,
	wire.Bind(new(usecase.BinaryValidator), new(*wasm.Validator)),

	nodeos.NewManager,
	wire.Bind(new(usecase.NodeManager), new(*nodeos.Manager)),

	nodeos.NewStateHost,
	wire.Bind(new(usecase.ChainStateHost), new(*nodeos.StateHost)),
)

// SuiteSet provides test definition loaders
var SuiteSet = wire.NewSet(
	suite.NewLoader,
	wire.Bind(new(usecase.SuiteLoader), new(*suite.Loader)),

	suite.NewDeclarationLoader,
	wire.Bind(new(usecase.DeclarationLoader), new(*suite.DeclarationLoader)),
)

// ProgressSet provides terminal output implementations
var ProgressSet = wire.NewSet(
	ProvideWatchProgress,
	wire.Bind(new(usecase.ProgressSink), new(*progress.WatchProgress)),

	ProvideConsoleReporter,
	wire.Bind(new(usecase.TestReporter), new(*progress.ConsoleReporter)),
)

// InteractiveSet provides interactive implementations
var InteractiveSet = wire.NewSet(
	interactive.NewSelectorAdapter,
	wire.Bind(new(usecase.TestFileSelector), new(*interactive.SelectorAdapter)),
)

// AllAdapters includes all adapter sets
var AllAdapters = wire.NewSet(
	ProvideClock,

	FSSet,
	ChainSet,
	SuiteSet,
	ProgressSet,
	InteractiveSet,
)
