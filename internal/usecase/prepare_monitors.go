package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"github.com/trebuchet-org/rtt/internal/domain"
)

// PrepareMonitors turns a test declaration into the tracked contract and
// file entries the watch loop works on
type PrepareMonitors struct {
	resolver ArtifactResolver
}

// NewPrepareMonitors creates a new PrepareMonitors use case
func NewPrepareMonitors(resolver ArtifactResolver) *PrepareMonitors {
	return &PrepareMonitors{resolver: resolver}
}

// Monitors is the resolved monitoring set of one test file
type Monitors struct {
	TestFilePath string
	BaseDir      string
	Contracts    []*domain.MonitoredContract
	Files        []*domain.MonitoredFile
	Tests        domain.TestsRef
}

// WatchedPaths returns every path the loop fingerprints
func (m *Monitors) WatchedPaths() []string {
	var paths []string
	for _, c := range m.Contracts {
		if c.ABIPath != "" {
			paths = append(paths, c.ABIPath)
		}
		if c.WASMPath != "" {
			paths = append(paths, c.WASMPath)
		}
	}
	for _, f := range m.Files {
		paths = append(paths, f.Path)
	}
	return lo.Uniq(paths)
}

// Execute resolves every contract's artifacts and registers declared files
// plus every referenced test definition file as watched files. An ambiguous
// artifact directory aborts before anything runs.
func (uc *PrepareMonitors) Execute(ctx context.Context, decl *domain.TestDeclaration) (*Monitors, error) {
	if decl == nil {
		return nil, fmt.Errorf("no test declaration given")
	}

	testFile, err := filepath.Abs(decl.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve test file path: %w", err)
	}
	baseDir := filepath.Dir(testFile)

	accounts := make(map[string]bool, len(decl.Contracts))
	for _, contract := range decl.Contracts {
		if strings.TrimSpace(contract.Account) == "" {
			return nil, fmt.Errorf("monitored contract in %s has no account", decl.Path)
		}
		if accounts[contract.Account] {
			return nil, fmt.Errorf("account %s is monitored more than once", contract.Account)
		}
		accounts[contract.Account] = true
		if err := uc.resolver.Resolve(ctx, testFile, contract); err != nil {
			return nil, fmt.Errorf("failed to resolve artifacts for %s: %w", contract.Account, err)
		}
	}

	refs := append(append([]string{}, decl.Files...), decl.Tests.Paths()...)
	resolved := lo.Map(refs, func(ref string, _ int) string {
		return ResolvePath(baseDir, ref)
	})
	files := lo.Map(lo.Uniq(resolved), func(path string, _ int) *domain.MonitoredFile {
		return &domain.MonitoredFile{Path: path}
	})

	return &Monitors{
		TestFilePath: testFile,
		BaseDir:      baseDir,
		Contracts:    decl.Contracts,
		Files:        files,
		Tests:        decl.Tests,
	}, nil
}
