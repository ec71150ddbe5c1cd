package suite

import (
	"fmt"
	"strings"

	"github.com/trebuchet-org/rtt/internal/domain"
	"gopkg.in/yaml.v3"
)

// TestFile is the document a user points the tool at. Tests may be a file
// path, a list of file paths, or an inline suite.
type TestFile struct {
	Contracts []*domain.MonitoredContract `yaml:"contracts,omitempty"`
	Files     []string                    `yaml:"files,omitempty"`
	Tests     yaml.Node                   `yaml:"tests,omitempty"`

	// A test definition file may also carry its cases at the top level
	SuiteConfig `yaml:",inline"`
}

// SuiteConfig is a named, ordered list of test cases
type SuiteConfig struct {
	Name  string        `yaml:"name,omitempty"`
	Cases []*CaseConfig `yaml:"cases,omitempty"`
}

// CaseConfig is one test case: steps run in order, the first failing step
// fails the case
type CaseConfig struct {
	Name  string        `yaml:"name"`
	Steps []*StepConfig `yaml:"steps"`
}

// StepConfig is either an action push or a table check
type StepConfig struct {
	// Action step
	Action      string         `yaml:"action,omitempty"` // contract::action
	Auth        []string       `yaml:"auth,omitempty"`   // actor[@permission]
	Data        map[string]any `yaml:"data,omitempty"`
	ExpectError string         `yaml:"expect_error,omitempty"`

	// Table step
	Table    *domain.TableQuery `yaml:"table,omitempty"`
	Rows     *int               `yaml:"rows,omitempty"`
	Contains map[string]any     `yaml:"contains,omitempty"`
}

// Kind returns "action" or "table"
func (s *StepConfig) Kind() string {
	if s.Table != nil {
		return "table"
	}
	return "action"
}

// Validate checks the suite for errors
func (c *SuiteConfig) Validate() error {
	if len(c.Cases) == 0 {
		return fmt.Errorf("at least one case is required")
	}

	seen := make(map[string]bool)
	for i, tc := range c.Cases {
		if tc == nil || strings.TrimSpace(tc.Name) == "" {
			return fmt.Errorf("case #%d must have a name", i+1)
		}
		if seen[tc.Name] {
			return fmt.Errorf("duplicate case name '%s'", tc.Name)
		}
		seen[tc.Name] = true

		for j, step := range tc.Steps {
			if err := step.Validate(); err != nil {
				return fmt.Errorf("case '%s' step #%d: %w", tc.Name, j+1, err)
			}
		}
	}
	return nil
}

// Validate checks a single step
func (s *StepConfig) Validate() error {
	if s == nil {
		return fmt.Errorf("empty step")
	}

	hasAction := s.Action != ""
	hasTable := s.Table != nil
	switch {
	case hasAction && hasTable:
		return fmt.Errorf("step cannot be both an action and a table check")
	case !hasAction && !hasTable:
		return fmt.Errorf("step must specify 'action' or 'table'")
	}

	if hasAction {
		if _, _, err := splitAction(s.Action); err != nil {
			return err
		}
		for _, auth := range s.Auth {
			if _, err := domain.ParsePermissionLevel(auth); err != nil {
				return err
			}
		}
		if s.Rows != nil || s.Contains != nil {
			return fmt.Errorf("'rows' and 'contains' only apply to table checks")
		}
		return nil
	}

	if s.Table.Code == "" || s.Table.Table == "" {
		return fmt.Errorf("table check needs 'code' and 'table'")
	}
	if s.Rows == nil && s.Contains == nil {
		return fmt.Errorf("table check needs 'rows' or 'contains'")
	}
	if s.Rows != nil && *s.Rows < 0 {
		return fmt.Errorf("'rows' cannot be negative")
	}
	if s.ExpectError != "" {
		return fmt.Errorf("'expect_error' only applies to actions")
	}
	return nil
}

// splitAction splits "contract::action"
func splitAction(ref string) (account, name string, err error) {
	account, name, found := strings.Cut(ref, "::")
	if !found || account == "" || name == "" {
		return "", "", fmt.Errorf("invalid action %q, expected contract::action", ref)
	}
	return account, name, nil
}
