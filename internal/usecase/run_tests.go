package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"

	"github.com/trebuchet-org/rtt/internal/domain"
)

// RunTests executes test groups sequentially. Later cases observe the chain
// state left by earlier ones, so nothing runs concurrently.
type RunTests struct {
	loader   SuiteLoader
	reporter TestReporter
	clock    Clock
	log      *slog.Logger
}

// NewRunTests creates a new RunTests use case
func NewRunTests(loader SuiteLoader, reporter TestReporter, clock Clock, log *slog.Logger) *RunTests {
	return &RunTests{
		loader:   loader,
		reporter: reporter,
		clock:    clock,
		log:      log,
	}
}

// Run executes every group referenced by tests. File references are
// resolved against baseDir and reloaded from disk on every call. A group
// that fails to load contributes zero cases.
func (uc *RunTests) Run(ctx context.Context, iteration int, tests domain.TestsRef, baseDir string) *domain.BatchReport {
	report := &domain.BatchReport{Iteration: iteration}

	for _, group := range uc.groups(ctx, tests, baseDir, report) {
		for _, tc := range group.Cases {
			if ctx.Err() != nil {
				uc.reporter.BatchFinished(ctx, report)
				return report
			}
			result := uc.runCase(ctx, group.Name, tc)
			report.Results = append(report.Results, result)
			uc.reporter.CaseFinished(ctx, result)
		}
	}

	uc.reporter.BatchFinished(ctx, report)
	return report
}

// groups materializes the tagged test reference into loaded groups
func (uc *RunTests) groups(ctx context.Context, tests domain.TestsRef, baseDir string, report *domain.BatchReport) []*domain.TestGroup {
	if tests.Kind() == domain.TestsInline {
		if tests.Inline() == nil {
			return nil
		}
		return []*domain.TestGroup{tests.Inline()}
	}

	var groups []*domain.TestGroup
	for _, ref := range tests.Paths() {
		path := ResolvePath(baseDir, ref)
		group, err := uc.loader.Load(ctx, path)
		if err != nil {
			failure := domain.GroupError{Source: path, Err: err}
			report.GroupErrors = append(report.GroupErrors, failure)
			uc.log.Error("failed to load test group", "path", path, "error", err)
			uc.reporter.GroupFailed(ctx, failure)
			continue
		}
		groups = append(groups, group)
	}
	return groups
}

// runCase runs one case, turning panics into failures
func (uc *RunTests) runCase(ctx context.Context, group string, tc domain.TestCase) (result domain.CaseResult) {
	start := uc.clock.Now()
	result = domain.CaseResult{Group: group, Name: tc.Name}

	defer func() {
		if r := recover(); r != nil {
			uc.log.Debug("test case panicked", "case", tc.Name, "stack", string(debug.Stack()))
			result.Err = fmt.Errorf("panic: %v", r)
		}
		result.Duration = uc.clock.Now().Sub(start)
	}()

	if tc.Run == nil {
		result.Err = fmt.Errorf("test case %q has no body", tc.Name)
		return result
	}
	result.Err = tc.Run(ctx)
	return result
}

// ResolvePath resolves ref against baseDir unless it is absolute
func ResolvePath(baseDir, ref string) string {
	if filepath.IsAbs(ref) || baseDir == "" {
		return filepath.Clean(ref)
	}
	return filepath.Join(baseDir, ref)
}
