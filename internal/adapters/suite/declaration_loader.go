package suite

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/trebuchet-org/rtt/internal/domain"
	"github.com/trebuchet-org/rtt/internal/usecase"
	"gopkg.in/yaml.v3"
)

// DeclarationLoader reads the watch lists and test references of a test file
type DeclarationLoader struct{}

// NewDeclarationLoader creates a new DeclarationLoader
func NewDeclarationLoader() *DeclarationLoader {
	return &DeclarationLoader{}
}

// LoadDeclaration parses path. Inline tests are referenced through the file
// itself so edits to them are picked up on the next batch.
func (d *DeclarationLoader) LoadDeclaration(_ context.Context, path string) (*domain.TestDeclaration, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	doc, err := readTestFile(absPath)
	if err != nil {
		return nil, err
	}

	tests, err := testsRef(doc, absPath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", absPath, err)
	}

	seen := make(map[string]bool)
	for i, c := range doc.Contracts {
		if c == nil {
			return nil, fmt.Errorf("%s: contract #%d is empty", absPath, i+1)
		}
		if seen[c.Account] {
			return nil, fmt.Errorf("%s: account '%s' is monitored twice", absPath, c.Account)
		}
		seen[c.Account] = true
	}

	return &domain.TestDeclaration{
		Path:      absPath,
		Contracts: doc.Contracts,
		Files:     doc.Files,
		Tests:     tests,
	}, nil
}

func testsRef(doc *TestFile, self string) (domain.TestsRef, error) {
	switch doc.Tests.Kind {
	case yaml.ScalarNode:
		if doc.Tests.Value == "" {
			return domain.TestsRef{}, fmt.Errorf("'tests' is empty")
		}
		return domain.ModuleTests(doc.Tests.Value), nil
	case yaml.SequenceNode:
		var paths []string
		if err := doc.Tests.Decode(&paths); err != nil {
			return domain.TestsRef{}, fmt.Errorf("'tests' must be a list of files: %w", err)
		}
		if len(paths) == 0 {
			return domain.TestsRef{}, fmt.Errorf("'tests' is empty")
		}
		return domain.ModuleListTests(paths...), nil
	case yaml.MappingNode:
		return domain.ModuleTests(self), nil
	case 0:
		if len(doc.Cases) > 0 {
			return domain.ModuleTests(self), nil
		}
		return domain.TestsRef{}, fmt.Errorf("no tests declared")
	default:
		return domain.TestsRef{}, fmt.Errorf("unsupported 'tests' value")
	}
}

// Ensure the loader implements the interface
var _ usecase.DeclarationLoader = (*DeclarationLoader)(nil)
