package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/trebuchet-org/rtt/internal/domain"
)

// ChangeTracker remembers the last seen fingerprint of every monitored
// artifact and file and reports what changed since the previous pass.
type ChangeTracker struct {
	detector  ChangeDetector
	contracts []*domain.MonitoredContract
	files     []*domain.MonitoredFile
}

// NewChangeTracker creates a tracker over the given entries. Entries are
// mutated in place when changes are committed.
func NewChangeTracker(detector ChangeDetector, contracts []*domain.MonitoredContract, files []*domain.MonitoredFile) *ChangeTracker {
	return &ChangeTracker{
		detector:  detector,
		contracts: contracts,
		files:     files,
	}
}

// Contracts returns the tracked contracts
func (t *ChangeTracker) Contracts() []*domain.MonitoredContract {
	return t.contracts
}

// Files returns the tracked files
func (t *ChangeTracker) Files() []*domain.MonitoredFile {
	return t.files
}

// Size returns the number of tracked entries
func (t *ChangeTracker) Size() int {
	return len(t.contracts) + len(t.files)
}

// PendingChanges is the result of a Peek. Nothing is acknowledged until it
// is passed to Commit.
type PendingChanges struct {
	domain.ChangeSet

	contractMarks []contractMark
	fileMarks     []fileMark
}

type contractMark struct {
	entry   *domain.MonitoredContract
	abi     domain.Fingerprint
	wasm    domain.Fingerprint
	abiSet  bool
	wasmSet bool
}

type fileMark struct {
	entry *domain.MonitoredFile
	seen  domain.Fingerprint
}

// Peek computes the changes since the last commit without advancing any
// baseline. A failed pass returns no partial result.
func (t *ChangeTracker) Peek(ctx context.Context) (*PendingChanges, error) {
	pending := &PendingChanges{}
	if err := t.peekContracts(ctx, pending); err != nil {
		return nil, err
	}
	if err := t.peekFiles(ctx, pending); err != nil {
		return nil, err
	}
	return pending, nil
}

// Commit advances the baselines recorded in pending
func (t *ChangeTracker) Commit(pending *PendingChanges) {
	if pending == nil {
		return
	}
	for _, m := range pending.contractMarks {
		if m.abiSet {
			m.entry.ABILastSeen = m.abi
		}
		if m.wasmSet {
			m.entry.WASMLastSeen = m.wasm
		}
	}
	for _, m := range pending.fileMarks {
		m.entry.LastSeen = m.seen
	}
}

// Diff reports changed contracts and files and acknowledges them. Calling it
// twice without touching the filesystem yields an empty second result.
func (t *ChangeTracker) Diff(ctx context.Context) (*domain.ChangeSet, error) {
	pending, err := t.Peek(ctx)
	if err != nil {
		return nil, err
	}
	t.Commit(pending)
	return &pending.ChangeSet, nil
}

// DiffContracts runs a diff pass over contracts only
func (t *ChangeTracker) DiffContracts(ctx context.Context) ([]domain.ContractChange, error) {
	pending := &PendingChanges{}
	if err := t.peekContracts(ctx, pending); err != nil {
		return nil, err
	}
	t.Commit(pending)
	return pending.Contracts, nil
}

// DiffFiles runs a diff pass over plain files only
func (t *ChangeTracker) DiffFiles(ctx context.Context) ([]*domain.MonitoredFile, error) {
	pending := &PendingChanges{}
	if err := t.peekFiles(ctx, pending); err != nil {
		return nil, err
	}
	t.Commit(pending)
	return pending.Files, nil
}

// peekContracts fingerprints every set artifact path. Artifact paths are
// expected to exist once resolved, so any failure aborts the pass.
func (t *ChangeTracker) peekContracts(ctx context.Context, pending *PendingChanges) error {
	for _, c := range t.contracts {
		mark := contractMark{entry: c}
		var abiChanged, wasmChanged string

		if c.ABIPath != "" {
			fp, err := t.fingerprint(ctx, c.ABIPath)
			if err != nil {
				return err
			}
			if fp != c.ABILastSeen {
				abiChanged = c.ABIPath
				mark.abi, mark.abiSet = fp, true
			}
		}

		if c.WASMPath != "" {
			fp, err := t.fingerprint(ctx, c.WASMPath)
			if err != nil {
				return err
			}
			if fp != c.WASMLastSeen {
				wasmChanged = c.WASMPath
				mark.wasm, mark.wasmSet = fp, true
			}
		}

		if mark.abiSet || mark.wasmSet {
			pending.Contracts = append(pending.Contracts, domain.NewContractChange(c.Account, abiChanged, wasmChanged))
			pending.contractMarks = append(pending.contractMarks, mark)
		}
	}
	return nil
}

// peekFiles fingerprints the files that currently exist; missing files are skipped
func (t *ChangeTracker) peekFiles(ctx context.Context, pending *PendingChanges) error {
	for _, f := range t.files {
		if _, err := os.Stat(f.Path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return &domain.FileUnavailableError{Path: f.Path, Err: err}
		}

		fp, err := t.fingerprint(ctx, f.Path)
		if err != nil {
			return err
		}
		if fp != f.LastSeen {
			pending.Files = append(pending.Files, f)
			pending.fileMarks = append(pending.fileMarks, fileMark{entry: f, seen: fp})
		}
	}
	return nil
}

func (t *ChangeTracker) fingerprint(ctx context.Context, path string) (domain.Fingerprint, error) {
	fp, err := t.detector.Fingerprint(ctx, path)
	if err != nil {
		var unavailable *domain.FileUnavailableError
		if errors.As(err, &unavailable) {
			return "", err
		}
		return "", &domain.FileUnavailableError{Path: path, Err: fmt.Errorf("%s detector: %w", t.detector.Name(), err)}
	}
	return fp, nil
}
