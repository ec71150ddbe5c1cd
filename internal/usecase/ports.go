package usecase

import (
	"context"
	"io"
	"time"

	"github.com/trebuchet-org/rtt/internal/domain"
)

// ArtifactResolver locates a contract's ABI and WASM files on disk
type ArtifactResolver interface {
	// Resolve fills in the artifact paths of contract, resolving relative
	// references against the directory of testFilePath
	Resolve(ctx context.Context, testFilePath string, contract *domain.MonitoredContract) error
}

// ChangeDetector computes the fingerprint used to decide whether a file changed
type ChangeDetector interface {
	Name() string
	Fingerprint(ctx context.Context, path string) (domain.Fingerprint, error)
}

// ChangeNotifier wakes the watch loop early when a watched path is touched.
// It never replaces the diff pass, it only shortens the wait for it.
type ChangeNotifier interface {
	Watch(ctx context.Context, paths []string) error
	Wake() <-chan struct{}
	Close() error
}

// TransactionClient submits actions to the chain as one transaction
type TransactionClient interface {
	Transact(ctx context.Context, actions []domain.Action) (*domain.TransactionReceipt, error)
}

// TableReader reads contract table rows
type TableReader interface {
	GetTableRows(ctx context.Context, query domain.TableQuery) ([]map[string]any, error)
}

// ABIEncoder converts a JSON interface description into its binary form
type ABIEncoder interface {
	EncodeABI(ctx context.Context, path string, data []byte) ([]byte, error)
}

// BinaryValidator checks a contract binary before it is deployed
type BinaryValidator interface {
	ValidateBinary(ctx context.Context, path string, code []byte) error
}

// ChainStateHost checkpoints and rolls back the chain
type ChainStateHost interface {
	Snapshot(ctx context.Context, label string) (*domain.SnapshotHandle, error)
	Restore(ctx context.Context, handle *domain.SnapshotHandle) error
	NodeInstances() int
}

// SuiteLoader loads a test definition file. Every call must read the file
// from disk so edits are picked up on the next batch.
type SuiteLoader interface {
	Load(ctx context.Context, path string) (*domain.TestGroup, error)
}

// DeclarationLoader reads the watch lists and tests declared by a test file
type DeclarationLoader interface {
	LoadDeclaration(ctx context.Context, path string) (*domain.TestDeclaration, error)
}

// TestFileIndexer lists the test files of a project
type TestFileIndexer interface {
	FindTestFiles(ctx context.Context, root string) ([]string, error)
}

// TestFileSelector picks a test file when the user did not name one exactly
type TestFileSelector interface {
	SelectTestFile(ctx context.Context, candidates []string, prompt string) (string, error)
}

// NodeManager manages local nodeos instances
type NodeManager interface {
	Start(ctx context.Context, instance *domain.NodeInstance) error
	Stop(ctx context.Context, instance *domain.NodeInstance) error
	GetStatus(ctx context.Context, instance *domain.NodeInstance) (*domain.NodeStatus, error)
	StreamLogs(ctx context.Context, instance *domain.NodeInstance, writer io.Writer) error
	CreateSnapshot(ctx context.Context, instance *domain.NodeInstance) (string, error)
	RestoreSnapshot(ctx context.Context, instance *domain.NodeInstance, snapshotPath string) error
}

// Clock abstracts waiting so the loop can be driven by tests
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// SystemClock is the wall clock
type SystemClock struct{}

func (SystemClock) Now() time.Time                         { return time.Now() }
func (SystemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Progress tracking interfaces

// ExecutionStage represents a stage of the watch loop
type ExecutionStage string

const (
	StageResolving   ExecutionStage = "Resolving"
	StageSnapshot    ExecutionStage = "Snapshot"
	StageTesting     ExecutionStage = "Testing"
	StageWaiting     ExecutionStage = "Waiting"
	StageRestoring   ExecutionStage = "Restoring"
	StageRedeploying ExecutionStage = "Redeploying"
	StageSettling    ExecutionStage = "Settling"
)

// ProgressEvent represents a progress update
type ProgressEvent struct {
	Stage    ExecutionStage
	Current  int
	Total    int
	Message  string
	Spinner  bool
	Metadata interface{}
}

// ProgressSink receives progress events
type ProgressSink interface {
	OnProgress(ctx context.Context, event ProgressEvent)
	Info(message string)
	Error(message string)
}

// NopProgress is a no-op implementation of ProgressSink
type NopProgress struct{}

func (NopProgress) OnProgress(context.Context, ProgressEvent) {}
func (NopProgress) Info(string)                               {}
func (NopProgress) Error(string)                              {}

// TestReporter receives per-case outcomes
type TestReporter interface {
	CaseFinished(ctx context.Context, result domain.CaseResult)
	GroupFailed(ctx context.Context, failure domain.GroupError)
	BatchFinished(ctx context.Context, report *domain.BatchReport)
}

// NopReporter is a no-op implementation of TestReporter
type NopReporter struct{}

func (NopReporter) CaseFinished(context.Context, domain.CaseResult)    {}
func (NopReporter) GroupFailed(context.Context, domain.GroupError)     {}
func (NopReporter) BatchFinished(context.Context, *domain.BatchReport) {}
