package domain

import (
	"context"
	"time"
)

// TestFunc is a single test case body. A non-nil error (or a panic) fails the case.
type TestFunc func(ctx context.Context) error

// TestCase is a named test function
type TestCase struct {
	Name string
	Run  TestFunc
}

// TestGroup is an ordered collection of test cases loaded from one source
type TestGroup struct {
	Name   string
	Source string // path of the defining file, empty for inline groups
	Cases  []TestCase
}

// TestsKind tags the variant held by TestsRef
type TestsKind int

const (
	TestsInline TestsKind = iota
	TestsModule
	TestsModuleList
)

// String returns the kind name
func (k TestsKind) String() string {
	switch k {
	case TestsInline:
		return "inline"
	case TestsModule:
		return "module"
	case TestsModuleList:
		return "module-list"
	default:
		return "unknown"
	}
}

// TestsRef says which tests a run executes: an in-memory group, one test
// definition file, or an ordered list of them.
type TestsRef struct {
	kind   TestsKind
	inline *TestGroup
	paths  []string
}

// InlineTests wraps an in-memory group
func InlineTests(group *TestGroup) TestsRef {
	return TestsRef{kind: TestsInline, inline: group}
}

// ModuleTests references a single test definition file
func ModuleTests(path string) TestsRef {
	return TestsRef{kind: TestsModule, paths: []string{path}}
}

// ModuleListTests references several test definition files, run in order
func ModuleListTests(paths ...string) TestsRef {
	return TestsRef{kind: TestsModuleList, paths: append([]string(nil), paths...)}
}

// Kind returns the variant tag
func (r TestsRef) Kind() TestsKind {
	return r.kind
}

// Inline returns the in-memory group, nil for file references
func (r TestsRef) Inline() *TestGroup {
	return r.inline
}

// Paths returns the referenced files, empty for inline tests
func (r TestsRef) Paths() []string {
	return r.paths
}

// TestDeclaration is what a test file declares: its watch lists and its tests
type TestDeclaration struct {
	Path      string
	Contracts []*MonitoredContract
	Files     []string
	Tests     TestsRef
}

// CaseResult is the outcome of one test case
type CaseResult struct {
	Group    string
	Name     string
	Err      error
	Duration time.Duration
}

// Passed reports whether the case succeeded
func (r CaseResult) Passed() bool {
	return r.Err == nil
}

// GroupError records a test group that could not be loaded
type GroupError struct {
	Source string
	Err    error
}

// BatchReport collects the outcome of one test batch
type BatchReport struct {
	Iteration   int
	Results     []CaseResult
	GroupErrors []GroupError
}

// Counts returns the number of passed and failed cases
func (b *BatchReport) Counts() (passed, failed int) {
	for _, r := range b.Results {
		if r.Passed() {
			passed++
		} else {
			failed++
		}
	}
	return passed, failed
}

// Failed returns true if any case failed or any group failed to load
func (b *BatchReport) Failed() bool {
	_, failed := b.Counts()
	return failed > 0 || len(b.GroupErrors) > 0
}
