package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/trebuchet-org/rtt/internal/domain"
	"github.com/trebuchet-org/rtt/internal/domain/config"
)

// SnapshotLabelPrefix prefixes the label of every snapshot the loop takes
const SnapshotLabelPrefix = "realtime-tester-"

// RunWatchLoop runs a test batch and, in watch mode, reruns it against a
// restored chain every time a monitored artifact or file changes
type RunWatchLoop struct {
	prepare  *PrepareMonitors
	detector ChangeDetector
	notifier ChangeNotifier
	host     ChainStateHost
	applier  *ApplyDeployment
	runner   *RunTests
	sink     ProgressSink
	clock    Clock
	log      *slog.Logger
	watch    config.WatchConfig
}

// NewRunWatchLoop creates a new RunWatchLoop use case
func NewRunWatchLoop(
	cfg *config.RuntimeConfig,
	prepare *PrepareMonitors,
	detector ChangeDetector,
	notifier ChangeNotifier,
	host ChainStateHost,
	applier *ApplyDeployment,
	runner *RunTests,
	sink ProgressSink,
	clock Clock,
	log *slog.Logger,
) *RunWatchLoop {
	return &RunWatchLoop{
		prepare:  prepare,
		detector: detector,
		notifier: notifier,
		host:     host,
		applier:  applier,
		runner:   runner,
		sink:     sink,
		clock:    clock,
		log:      log,
		watch:    cfg.Watch,
	}
}

// RunWatchLoopParams contains parameters for the loop
type RunWatchLoopParams struct {
	Declaration *domain.TestDeclaration
	Once        bool // never enter watch mode
}

// RunWatchLoopResult summarizes what the loop did before it stopped
type RunWatchLoopResult struct {
	Watch           bool
	Iterations      int
	Snapshots       int
	Restores        int
	Redeploys       int
	FailedRedeploys int
	LastReport      *domain.BatchReport
}

// Execute runs the loop. In one-shot mode it returns after the first batch;
// in watch mode it only returns on context cancellation or when the chain
// state can no longer be checkpointed or restored.
func (uc *RunWatchLoop) Execute(ctx context.Context, params RunWatchLoopParams) (*RunWatchLoopResult, error) {
	uc.sink.OnProgress(ctx, ProgressEvent{Stage: StageResolving, Message: "Resolving monitored artifacts"})
	monitors, err := uc.prepare.Execute(ctx, params.Declaration)
	if err != nil {
		return nil, err
	}
	uc.announce(monitors)

	tracker := NewChangeTracker(uc.detector, monitors.Contracts, monitors.Files)

	// Throwaway pass so startup does not look like a change
	if _, err := tracker.Diff(ctx); err != nil {
		return nil, fmt.Errorf("failed to seed change baselines: %w", err)
	}

	watch := !params.Once && IsSourceFile(monitors.TestFilePath, uc.watch.SourceExtensions) && tracker.Size() > 0
	if watch {
		uc.sink.Info("> Running tests repeatedly")
		if uc.notifier != nil {
			if err := uc.notifier.Watch(ctx, monitors.WatchedPaths()); err != nil {
				uc.log.Warn("file notifications unavailable, polling only", "error", err)
			}
			defer uc.notifier.Close()
		}
	} else {
		uc.sink.Info("> Running tests once")
	}

	result := &RunWatchLoopResult{Watch: watch}
	var snapshot *domain.SnapshotHandle
	needSnapshot := true

	for {
		if needSnapshot {
			uc.sink.OnProgress(ctx, ProgressEvent{Stage: StageSnapshot, Message: "Creating snapshot"})
			label := fmt.Sprintf("%s%d", SnapshotLabelPrefix, result.Snapshots)
			snapshot, err = uc.host.Snapshot(ctx, label)
			if err != nil {
				return result, fmt.Errorf("failed to create snapshot %s: %w", label, err)
			}
			result.Snapshots++
			uc.sink.Info("✔ Created a snapshot")
		}

		result.Iterations++
		uc.sink.OnProgress(ctx, ProgressEvent{Stage: StageTesting, Current: result.Iterations, Message: "Running tests"})
		result.LastReport = uc.runner.Run(ctx, result.Iterations, monitors.Tests, monitors.BaseDir)

		if !watch {
			return result, nil
		}

		changes, err := uc.awaitChange(ctx, tracker)
		if err != nil {
			return result, err
		}

		// Even file-only changes restore, so the rerun starts from a clean state
		uc.sink.OnProgress(ctx, ProgressEvent{Stage: StageRestoring, Message: "Restoring snapshot"})
		if err := uc.host.Restore(ctx, snapshot); err != nil {
			return result, fmt.Errorf("failed to restore snapshot %s: %w", snapshot.Label, err)
		}
		result.Restores++
		uc.sink.Info("✔ Restored from snapshot")

		uc.redeploy(ctx, changes.Contracts, result)

		needSnapshot = changes.HasContractChanges()
		if needSnapshot {
			delay := uc.watch.SettleDelay * time.Duration(uc.host.NodeInstances())
			uc.sink.OnProgress(ctx, ProgressEvent{Stage: StageSettling, Message: fmt.Sprintf("Settling for %s", delay)})
			if err := uc.sleep(ctx, delay); err != nil {
				return result, err
			}
		}

		uc.sink.Info("> Repeating tests")
	}
}

// awaitChange polls the tracker until something changed. Diff failures are
// logged and polling continues.
func (uc *RunWatchLoop) awaitChange(ctx context.Context, tracker *ChangeTracker) (*domain.ChangeSet, error) {
	var wake <-chan struct{}
	if uc.notifier != nil {
		wake = uc.notifier.Wake()
	}

	waiting := false
	defer func() {
		if waiting {
			uc.sink.OnProgress(ctx, ProgressEvent{Stage: StageWaiting})
		}
	}()

	for {
		changes, err := tracker.Diff(ctx)
		switch {
		case err != nil:
			uc.log.Warn("diff pass failed", "error", err)
			uc.sink.Error(fmt.Sprintf("✗ %v", err))
		case !changes.Empty():
			uc.logChanges(changes)
			return changes, nil
		}

		if !waiting {
			waiting = true
			uc.sink.OnProgress(ctx, ProgressEvent{
				Stage:   StageWaiting,
				Message: "Waiting for smart contracts to be modified",
				Spinner: true,
			})
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-uc.clock.After(uc.watch.PollInterval):
		case <-wake:
		}
	}
}

// redeploy applies contract changes in order. The first failure is logged
// and the remaining redeploys of this iteration are skipped.
func (uc *RunWatchLoop) redeploy(ctx context.Context, changes []domain.ContractChange, result *RunWatchLoopResult) {
	for i, change := range changes {
		uc.sink.OnProgress(ctx, ProgressEvent{
			Stage:   StageRedeploying,
			Current: i + 1,
			Total:   len(changes),
			Message: fmt.Sprintf("Refreshing %s", change.Account),
		})

		if _, err := uc.applier.Apply(ctx, change); err != nil {
			result.FailedRedeploys++
			uc.log.Error("redeploy failed", "account", change.Account, "error", err)
			uc.sink.Error(fmt.Sprintf("✗ Failed to refresh %s: %v", change.Account, err))
			for _, skipped := range changes[i+1:] {
				uc.sink.Error(fmt.Sprintf("✗ Skipped refresh of %s", skipped.Account))
			}
			return
		}

		result.Redeploys++
		uc.sink.Info(fmt.Sprintf("✔ Refreshed %s", change.Account))
	}
}

func (uc *RunWatchLoop) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-uc.clock.After(d):
		return nil
	}
}

func (uc *RunWatchLoop) announce(m *Monitors) {
	for _, c := range m.Contracts {
		uc.sink.Info(fmt.Sprintf("Monitoring %s: abi=%s wasm=%s",
			c.Account, lo.CoalesceOrEmpty(c.ABIPath, "-"), lo.CoalesceOrEmpty(c.WASMPath, "-")))
	}
	for _, f := range m.Files {
		uc.sink.Info(fmt.Sprintf("Monitoring file %s", f.Path))
	}
}

func (uc *RunWatchLoop) logChanges(changes *domain.ChangeSet) {
	for _, c := range changes.Contracts {
		uc.log.Debug("contract changed", "account", c.Account,
			"abi", c.ABIPath.HasValue(), "wasm", c.WASMPath.HasValue())
	}
	for _, f := range changes.Files {
		uc.log.Debug("file changed", "path", f.Path)
	}
}

// IsSourceFile reports whether path is an editable test source, judged by
// its extension
func IsSourceFile(path string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return lo.ContainsBy(extensions, func(e string) bool {
		return strings.EqualFold(e, ext)
	})
}
