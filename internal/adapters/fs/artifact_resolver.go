package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/trebuchet-org/rtt/internal/domain"
	"github.com/trebuchet-org/rtt/internal/usecase"
)

const (
	abiExtension  = ".abi"
	wasmExtension = ".wasm"
)

// ArtifactResolverAdapter discovers contract artifacts in a directory
type ArtifactResolverAdapter struct{}

// NewArtifactResolverAdapter creates a new ArtifactResolverAdapter
func NewArtifactResolverAdapter() *ArtifactResolverAdapter {
	return &ArtifactResolverAdapter{}
}

// Resolve fills in contract.ABIPath and contract.WASMPath. Explicit relative
// paths and the contract directory are resolved against the directory of
// testFilePath. Discovery only looks at the immediate directory entries and
// is skipped when both paths are already known or no directory is given.
func (r *ArtifactResolverAdapter) Resolve(_ context.Context, testFilePath string, contract *domain.MonitoredContract) error {
	baseDir := filepath.Dir(testFilePath)

	if contract.ABIPath != "" {
		contract.ABIPath = usecase.ResolvePath(baseDir, contract.ABIPath)
	}
	if contract.WASMPath != "" {
		contract.WASMPath = usecase.ResolvePath(baseDir, contract.WASMPath)
	}

	if contract.HasArtifactPaths() || contract.Contract == "" {
		return nil
	}

	dir := usecase.ResolvePath(baseDir, contract.Contract)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read contract directory %s: %w", dir, err)
	}

	var abis, wasms []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case abiExtension:
			abis = append(abis, filepath.Join(dir, entry.Name()))
		case wasmExtension:
			wasms = append(wasms, filepath.Join(dir, entry.Name()))
		}
	}

	// An explicit path settles its own kind. Check both kinds before assigning anything.
	if contract.ABIPath == "" && len(abis) > 1 {
		sort.Strings(abis)
		return &domain.AmbiguousArtifactError{Directory: dir, Kind: domain.ArtifactABI, Matches: abis}
	}
	if contract.WASMPath == "" && len(wasms) > 1 {
		sort.Strings(wasms)
		return &domain.AmbiguousArtifactError{Directory: dir, Kind: domain.ArtifactWASM, Matches: wasms}
	}

	if len(abis) == 1 && contract.ABIPath == "" {
		contract.ABIPath = abis[0]
	}
	if len(wasms) == 1 && contract.WASMPath == "" {
		contract.WASMPath = wasms[0]
	}

	return nil
}

// Ensure the adapter implements the interface
var _ usecase.ArtifactResolver = (*ArtifactResolverAdapter)(nil)
