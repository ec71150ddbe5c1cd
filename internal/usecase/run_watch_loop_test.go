package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/rtt/internal/adapters/fs"
	"github.com/trebuchet-org/rtt/internal/domain"
	"github.com/trebuchet-org/rtt/internal/domain/config"
	"github.com/trebuchet-org/rtt/internal/usecase"
	"go.uber.org/goleak"
)

const (
	testPollInterval = time.Second
	testSettleDelay  = 300 * time.Millisecond
)

// fakeHost hands out numbered snapshots and records restores
type fakeHost struct {
	nodes      int
	snapshots  []*domain.SnapshotHandle
	restores   []*domain.SnapshotHandle
	snapErr    error
	restoreErr error
}

func (h *fakeHost) Snapshot(ctx context.Context, label string) (*domain.SnapshotHandle, error) {
	if h.snapErr != nil {
		return nil, h.snapErr
	}
	handle := &domain.SnapshotHandle{ID: fmt.Sprintf("snap-%d", len(h.snapshots)), Label: label}
	h.snapshots = append(h.snapshots, handle)
	return handle, nil
}

func (h *fakeHost) Restore(ctx context.Context, handle *domain.SnapshotHandle) error {
	if h.restoreErr != nil {
		return h.restoreErr
	}
	h.restores = append(h.restores, handle)
	return nil
}

func (h *fakeHost) NodeInstances() int { return h.nodes }

// scriptedClock runs one step each time the loop starts a poll wait and
// cancels the loop once the script is exhausted. Other waits fire at once.
type scriptedClock struct {
	mu     sync.Mutex
	steps  []func()
	waits  []time.Duration
	cancel context.CancelFunc
}

func (c *scriptedClock) Now() time.Time { return time.Unix(0, 0) }

func (c *scriptedClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.waits = append(c.waits, d)
	var step func()
	if d == testPollInterval {
		if len(c.steps) > 0 {
			step, c.steps = c.steps[0], c.steps[1:]
		} else {
			step = c.cancel
		}
	}
	c.mu.Unlock()

	if step != nil {
		step()
	}
	ch := make(chan time.Time, 1)
	ch <- time.Unix(0, 0)
	return ch
}

func (c *scriptedClock) settleWaits() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []time.Duration
	for _, d := range c.waits {
		if d != testPollInterval {
			out = append(out, d)
		}
	}
	return out
}

type loopFixture struct {
	dir      string
	testFile string
	abi      string
	wasm     string
	helpers  string
	base     time.Time

	host   *fakeHost
	tx     *MockTransactionClient
	abiEnc *MockABIEncoder
	sink   *MockProgressSink
	clock  *scriptedClock
	runs   int
	ctx    context.Context
	loop   *usecase.RunWatchLoop
}

func newLoopFixture(t *testing.T) *loopFixture {
	t.Helper()
	dir := t.TempDir()
	f := &loopFixture{
		dir:      dir,
		testFile: filepath.Join(dir, "alice.rtt.yaml"),
		abi:      filepath.Join(dir, "contracts", "alice", "alice.abi"),
		wasm:     filepath.Join(dir, "contracts", "alice", "alice.wasm"),
		helpers:  filepath.Join(dir, "helpers.ts"),
		base:     time.Now().Add(-time.Hour).Truncate(time.Second),
		host:     &fakeHost{nodes: 2},
		tx:       &MockTransactionClient{},
		abiEnc:   &MockABIEncoder{},
		sink:     &MockProgressSink{},
	}
	writeFile(t, f.testFile, "contracts: []")
	writeFile(t, f.abi, `{"version":"eosio::abi/1.1"}`)
	writeFile(t, f.wasm, "\x00asm\x01\x00\x00\x00")
	writeFile(t, f.helpers, "export const x = 1")
	for _, p := range []string{f.abi, f.wasm, f.helpers} {
		require.NoError(t, os.Chtimes(p, f.base, f.base))
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	f.ctx = ctx
	f.clock = &scriptedClock{cancel: cancel}

	cfg := &config.RuntimeConfig{Watch: config.WatchConfig{
		PollInterval:     testPollInterval,
		SettleDelay:      testSettleDelay,
		SourceExtensions: []string{".yaml", ".yml"},
	}}
	log := discardLogger()
	applier := usecase.NewApplyDeployment(cfg, f.tx, f.abiEnc, nil, log)
	runner := usecase.NewRunTests(&MockSuiteLoader{}, usecase.NopReporter{}, f.clock, log)
	f.loop = usecase.NewRunWatchLoop(
		cfg,
		usecase.NewPrepareMonitors(fs.NewArtifactResolverAdapter()),
		fs.NewMtimeDetector(),
		nil,
		f.host,
		applier,
		runner,
		f.sink,
		f.clock,
		log,
	)
	return f
}

func (f *loopFixture) touch(t *testing.T, path string, offset time.Duration) func() {
	return func() {
		stamp := f.base.Add(offset)
		require.NoError(t, os.Chtimes(path, stamp, stamp))
	}
}

func (f *loopFixture) declaration() *domain.TestDeclaration {
	group := &domain.TestGroup{Name: "alice", Cases: []domain.TestCase{{
		Name: "counts",
		Run: func(context.Context) error {
			f.runs++
			return nil
		},
	}}}
	return &domain.TestDeclaration{
		Path:      f.testFile,
		Contracts: []*domain.MonitoredContract{{Account: "alice", Contract: "contracts/alice"}},
		Files:     []string{"helpers.ts"},
		Tests:     domain.InlineTests(group),
	}
}

func TestRunWatchLoop_EndToEnd(t *testing.T) {
	defer goleak.VerifyNone(t)
	f := newLoopFixture(t)

	var sent [][]domain.Action
	f.tx.On("Transact", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = append(sent, args.Get(1).([]domain.Action)) }).
		Return(&domain.TransactionReceipt{TransactionID: "t1", Actions: 1}, nil)

	var runsWhileWaiting []int
	f.clock.steps = []func(){
		f.touch(t, f.wasm, 10*time.Second),
		func() { runsWhileWaiting = append(runsWhileWaiting, f.runs) },
		f.touch(t, f.helpers, 20*time.Second),
	}

	result, err := f.loop.Execute(f.ctx, usecase.RunWatchLoopParams{Declaration: f.declaration()})
	require.ErrorIs(t, err, context.Canceled)

	assert.True(t, result.Watch)
	assert.Equal(t, 3, f.runs, "initial run plus one rerun per change")
	assert.Equal(t, 3, result.Iterations)
	assert.Equal(t, 1, result.Redeploys)

	// wasm edit: restore the first snapshot, one setcode, then a fresh snapshot
	require.Len(t, sent, 1)
	require.Len(t, sent[0], 1)
	assert.Equal(t, domain.ActionSetCode, sent[0][0].Name)
	assert.Equal(t, "alice", sent[0][0].Data.(domain.SetCodeData).Account)
	f.abiEnc.AssertNotCalled(t, "EncodeABI", mock.Anything, mock.Anything, mock.Anything)

	// helpers edit: restore the snapshot in use, no redeploy, no new snapshot
	require.Len(t, f.host.snapshots, 2)
	require.Len(t, f.host.restores, 2)
	assert.Same(t, f.host.snapshots[0], f.host.restores[0])
	assert.Same(t, f.host.snapshots[1], f.host.restores[1])
	assert.Equal(t, "realtime-tester-0", f.host.snapshots[0].Label)
	assert.Equal(t, "realtime-tester-1", f.host.snapshots[1].Label)

	assert.Equal(t, []time.Duration{2 * testSettleDelay}, f.clock.settleWaits())
	assert.Equal(t, []int{2}, runsWhileWaiting)
}

func TestRunWatchLoop_FileOnlyChangeReusesSnapshot(t *testing.T) {
	f := newLoopFixture(t)
	f.clock.steps = []func(){
		f.touch(t, f.helpers, 5*time.Second),
		f.touch(t, f.helpers, 6*time.Second),
	}

	result, err := f.loop.Execute(f.ctx, usecase.RunWatchLoopParams{Declaration: f.declaration()})
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, 1, result.Snapshots)
	assert.Equal(t, 2, result.Restores)
	require.Len(t, f.host.restores, 2)
	assert.Same(t, f.host.snapshots[0], f.host.restores[0])
	assert.Same(t, f.host.snapshots[0], f.host.restores[1])
	assert.Empty(t, f.clock.settleWaits())
	f.tx.AssertNotCalled(t, "Transact", mock.Anything, mock.Anything)
}

func TestRunWatchLoop_OnceRunsOneBatch(t *testing.T) {
	f := newLoopFixture(t)

	result, err := f.loop.Execute(f.ctx, usecase.RunWatchLoopParams{Declaration: f.declaration(), Once: true})
	require.NoError(t, err)

	assert.False(t, result.Watch)
	assert.Equal(t, 1, f.runs)
	assert.Equal(t, 1, result.Snapshots)
	assert.Empty(t, f.host.restores)
	require.NotNil(t, result.LastReport)
	assert.Contains(t, f.sink.Infos(), "> Running tests once")
}

func TestRunWatchLoop_NonSourceTestFileRunsOnce(t *testing.T) {
	f := newLoopFixture(t)
	decl := f.declaration()
	decl.Path = filepath.Join(f.dir, "alice.rtt.json")

	result, err := f.loop.Execute(f.ctx, usecase.RunWatchLoopParams{Declaration: decl})
	require.NoError(t, err)
	assert.False(t, result.Watch)
	assert.Equal(t, 1, f.runs)
}

func TestRunWatchLoop_NothingMonitoredRunsOnce(t *testing.T) {
	f := newLoopFixture(t)
	decl := f.declaration()
	decl.Contracts = nil
	decl.Files = nil

	result, err := f.loop.Execute(f.ctx, usecase.RunWatchLoopParams{Declaration: decl})
	require.NoError(t, err)
	assert.False(t, result.Watch)
}

func TestRunWatchLoop_RedeployFailureStillReruns(t *testing.T) {
	f := newLoopFixture(t)
	f.tx.On("Transact", mock.Anything, mock.Anything).Return(nil, errors.New("missing authority of alice"))
	f.clock.steps = []func(){f.touch(t, f.wasm, 10*time.Second)}

	result, err := f.loop.Execute(f.ctx, usecase.RunWatchLoopParams{Declaration: f.declaration()})
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, 2, f.runs)
	assert.Equal(t, 1, result.FailedRedeploys)
	assert.Equal(t, 0, result.Redeploys)
	require.NotEmpty(t, f.sink.Errors())
	assert.Contains(t, f.sink.Errors()[0], "Failed to refresh alice")
}

func TestRunWatchLoop_SnapshotFailureIsFatal(t *testing.T) {
	f := newLoopFixture(t)
	f.host.snapErr = errors.New("producer api disabled")

	_, err := f.loop.Execute(f.ctx, usecase.RunWatchLoopParams{Declaration: f.declaration()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "producer api disabled")
	assert.Equal(t, 0, f.runs)
}

func TestRunWatchLoop_RestoreFailureIsFatal(t *testing.T) {
	f := newLoopFixture(t)
	f.host.restoreErr = errors.New("node did not come back")
	f.clock.steps = []func(){f.touch(t, f.helpers, 5*time.Second)}

	_, err := f.loop.Execute(f.ctx, usecase.RunWatchLoopParams{Declaration: f.declaration()})
	require.Error(t, err)
	assert.NotErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "node did not come back")
	assert.Equal(t, 1, f.runs)
}

func TestRunWatchLoop_DiffErrorKeepsPolling(t *testing.T) {
	f := newLoopFixture(t)
	hidden := f.wasm + ".bak"
	f.tx.On("Transact", mock.Anything, mock.Anything).Return(&domain.TransactionReceipt{}, nil)
	f.clock.steps = []func(){
		func() { require.NoError(t, os.Rename(f.wasm, hidden)) },
		func() {
			require.NoError(t, os.Rename(hidden, f.wasm))
			f.touch(t, f.wasm, 30*time.Second)()
		},
	}

	result, err := f.loop.Execute(f.ctx, usecase.RunWatchLoopParams{Declaration: f.declaration()})
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, 2, f.runs)
	assert.Equal(t, 1, result.Redeploys)
	require.NotEmpty(t, f.sink.Errors())
	assert.Contains(t, f.sink.Errors()[0], "alice.wasm")
}

func TestRunWatchLoop_AmbiguousArtifactsAbortBeforeRunning(t *testing.T) {
	f := newLoopFixture(t)
	writeFile(t, filepath.Join(f.dir, "contracts", "alice", "other.wasm"), "x")

	_, err := f.loop.Execute(f.ctx, usecase.RunWatchLoopParams{Declaration: f.declaration()})
	var ambiguous *domain.AmbiguousArtifactError
	require.ErrorAs(t, err, &ambiguous)
	assert.Empty(t, f.host.snapshots)
	assert.Equal(t, 0, f.runs)
}

func TestIsSourceFile(t *testing.T) {
	exts := []string{".yaml", ".yml"}
	assert.True(t, usecase.IsSourceFile("/p/a.rtt.yaml", exts))
	assert.True(t, usecase.IsSourceFile("/p/a.rtt.YML", exts))
	assert.False(t, usecase.IsSourceFile("/p/a.rtt.json", exts))
	assert.False(t, usecase.IsSourceFile("/p/Makefile", exts))
}
