package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/samber/lo"
	"github.com/trebuchet-org/rtt/internal/domain"
	"github.com/trebuchet-org/rtt/internal/domain/config"
)

// FindTestFile resolves a user supplied test file reference
type FindTestFile struct {
	root     string
	indexer  TestFileIndexer
	selector TestFileSelector
}

// NewFindTestFile creates a new FindTestFile use case
func NewFindTestFile(cfg *config.RuntimeConfig, indexer TestFileIndexer, selector TestFileSelector) *FindTestFile {
	return &FindTestFile{
		root:     cfg.ProjectRoot,
		indexer:  indexer,
		selector: selector,
	}
}

// Find returns the absolute path of the test file ref refers to. An existing
// path wins; otherwise project test files are matched by name, and several
// matches are handed to the selector.
func (uc *FindTestFile) Find(ctx context.Context, ref string) (string, error) {
	if ref != "" {
		if info, err := os.Stat(ref); err == nil && !info.IsDir() {
			return filepath.Abs(ref)
		}
	}

	files, err := uc.indexer.FindTestFiles(ctx, uc.root)
	if err != nil {
		return "", fmt.Errorf("failed to list test files: %w", err)
	}
	if len(files) == 0 {
		return "", fmt.Errorf("%w under %s", domain.ErrNoTestFiles, uc.root)
	}

	candidates := uc.match(ref, files)
	if len(candidates) == 0 {
		return "", fmt.Errorf("%w matching '%s'", domain.ErrNoTestFiles, ref)
	}

	prompt := "Select a test file"
	if ref != "" {
		prompt = fmt.Sprintf("Multiple test files match '%s'", ref)
	}
	return uc.selector.SelectTestFile(ctx, candidates, prompt)
}

// match narrows files down by ref: exact name, then substring, then fuzzy
func (uc *FindTestFile) match(ref string, files []string) []string {
	if ref == "" {
		return files
	}

	needle := strings.ToLower(ref)
	exact := lo.Filter(files, func(f string, _ int) bool {
		base := strings.ToLower(filepath.Base(f))
		return base == needle || strings.TrimSuffix(base, ".rtt.yaml") == needle
	})
	if len(exact) > 0 {
		return exact
	}

	rels := lo.Map(files, func(f string, _ int) string {
		if rel, err := filepath.Rel(uc.root, f); err == nil {
			return strings.ToLower(rel)
		}
		return strings.ToLower(f)
	})

	substring := lo.Filter(files, func(_ string, i int) bool {
		return strings.Contains(rels[i], needle)
	})
	if len(substring) > 0 {
		return substring
	}

	return lo.Map(fuzzy.Find(needle, rels), func(m fuzzy.Match, _ int) string {
		return files[m.Index]
	})
}
