package suite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/trebuchet-org/rtt/internal/domain"
	"github.com/trebuchet-org/rtt/internal/usecase"
	"gopkg.in/yaml.v3"
)

// FileSuffix is the suffix of test files picked up by discovery
const FileSuffix = ".rtt.yaml"

// Loader reads test definition files and turns their cases into runnable
// test functions. Files are read from disk on every call.
type Loader struct {
	tx     usecase.TransactionClient
	tables usecase.TableReader
}

// NewLoader creates a new Loader
func NewLoader(tx usecase.TransactionClient, tables usecase.TableReader) *Loader {
	return &Loader{tx: tx, tables: tables}
}

// Load parses path and returns its cases as a test group
func (l *Loader) Load(_ context.Context, path string) (*domain.TestGroup, error) {
	doc, err := readTestFile(path)
	if err != nil {
		return nil, err
	}

	suite, err := doc.suite()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := suite.Validate(); err != nil {
		return nil, fmt.Errorf("invalid test definition %s: %w", path, err)
	}

	return l.Build(suite, path), nil
}

// Build turns a parsed suite into a test group
func (l *Loader) Build(suite *SuiteConfig, source string) *domain.TestGroup {
	group := &domain.TestGroup{
		Name:   suite.Name,
		Source: source,
	}
	if group.Name == "" && source != "" {
		group.Name = GroupName(source)
	}

	for _, tc := range suite.Cases {
		group.Cases = append(group.Cases, domain.TestCase{
			Name: tc.Name,
			Run:  l.caseFunc(tc),
		})
	}
	return group
}

// GroupName derives a group name from a file path
func GroupName(path string) string {
	base := filepath.Base(path)
	for _, suffix := range []string{FileSuffix, ".rtt.yml", ".yaml", ".yml"} {
		if strings.HasSuffix(base, suffix) {
			return strings.TrimSuffix(base, suffix)
		}
	}
	return base
}

// suite returns the cases of a document, from the top level or from an
// inline tests mapping
func (f *TestFile) suite() (*SuiteConfig, error) {
	if len(f.Cases) > 0 {
		return &f.SuiteConfig, nil
	}
	if f.Tests.Kind == yaml.MappingNode {
		var inline SuiteConfig
		if err := f.Tests.Decode(&inline); err != nil {
			return nil, fmt.Errorf("failed to parse inline tests: %w", err)
		}
		return &inline, nil
	}
	return nil, fmt.Errorf("no test cases defined")
}

func readTestFile(path string) (*TestFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read test file: %w", err)
	}

	var doc TestFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML %s: %w", path, err)
	}
	return &doc, nil
}

// Ensure the loader implements the interface
var _ usecase.SuiteLoader = (*Loader)(nil)
