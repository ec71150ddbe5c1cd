package fs

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/trebuchet-org/rtt/internal/usecase"
)

// Directories never searched for test files
var skippedDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"build":        true,
}

// TestFileIndexerAdapter walks a project for *.rtt.yaml files
type TestFileIndexerAdapter struct {
	suffixes []string
}

// NewTestFileIndexerAdapter creates a new TestFileIndexerAdapter
func NewTestFileIndexerAdapter() *TestFileIndexerAdapter {
	return &TestFileIndexerAdapter{suffixes: []string{".rtt.yaml", ".rtt.yml"}}
}

// FindTestFiles returns the sorted absolute paths of test files under root.
// Hidden directories are skipped.
func (a *TestFileIndexerAdapter) FindTestFiles(ctx context.Context, root string) ([]string, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		name := d.Name()
		if d.IsDir() {
			if path != root && (strings.HasPrefix(name, ".") || skippedDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}

		lower := strings.ToLower(name)
		for _, suffix := range a.suffixes {
			if strings.HasSuffix(lower, suffix) {
				files = append(files, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// Ensure the adapter implements the interface
var _ usecase.TestFileIndexer = (*TestFileIndexerAdapter)(nil)
