package usecase_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/rtt/internal/domain"
	"github.com/trebuchet-org/rtt/internal/usecase"
)

func TestPrepareMonitors_ResolvesContractsAndFiles(t *testing.T) {
	dir := t.TempDir()
	testFile := filepath.Join(dir, "tests", "token.rtt.yaml")
	resolver := &MockArtifactResolver{}
	resolver.On("Resolve", mock.Anything, testFile, mock.Anything).
		Run(func(args mock.Arguments) {
			c := args.Get(2).(*domain.MonitoredContract)
			c.ABIPath = filepath.Join(dir, "build", c.Account+".abi")
			c.WASMPath = filepath.Join(dir, "build", c.Account+".wasm")
		}).Return(nil)

	decl := &domain.TestDeclaration{
		Path:      testFile,
		Contracts: []*domain.MonitoredContract{{Account: "alice", Contract: "../build"}},
		Files:     []string{"helpers.yaml", "fixtures/data.json"},
		Tests:     domain.ModuleListTests("helpers.yaml", "more.yaml"),
	}

	monitors, err := usecase.NewPrepareMonitors(resolver).Execute(context.Background(), decl)
	require.NoError(t, err)

	assert.Equal(t, testFile, monitors.TestFilePath)
	assert.Equal(t, filepath.Join(dir, "tests"), monitors.BaseDir)
	require.Len(t, monitors.Contracts, 1)
	assert.Equal(t, filepath.Join(dir, "build", "alice.wasm"), monitors.Contracts[0].WASMPath)

	paths := make([]string, 0, len(monitors.Files))
	for _, f := range monitors.Files {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{
		filepath.Join(dir, "tests", "helpers.yaml"),
		filepath.Join(dir, "tests", "fixtures", "data.json"),
		filepath.Join(dir, "tests", "more.yaml"),
	}, paths)

	assert.Len(t, monitors.WatchedPaths(), 5)
}

func TestPrepareMonitors_AmbiguityAborts(t *testing.T) {
	resolver := &MockArtifactResolver{}
	resolver.On("Resolve", mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.AmbiguousArtifactError{Directory: "/b", Kind: domain.ArtifactWASM, Matches: []string{"a.wasm", "b.wasm"}})

	decl := &domain.TestDeclaration{
		Path:      "/p/t.rtt.yaml",
		Contracts: []*domain.MonitoredContract{{Account: "alice", Contract: "/b"}},
	}

	_, err := usecase.NewPrepareMonitors(resolver).Execute(context.Background(), decl)
	var ambiguous *domain.AmbiguousArtifactError
	require.ErrorAs(t, err, &ambiguous)
	assert.Contains(t, err.Error(), "alice")
}

func TestPrepareMonitors_RejectsDuplicateAccounts(t *testing.T) {
	resolver := &MockArtifactResolver{}
	resolver.On("Resolve", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	decl := &domain.TestDeclaration{
		Path: "/p/t.rtt.yaml",
		Contracts: []*domain.MonitoredContract{
			{Account: "alice", ABIPath: "/a.abi", WASMPath: "/a.wasm"},
			{Account: "alice", ABIPath: "/b.abi", WASMPath: "/b.wasm"},
		},
	}

	_, err := usecase.NewPrepareMonitors(resolver).Execute(context.Background(), decl)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "more than once")
}

func TestPrepareMonitors_InlineTestsAddNoFiles(t *testing.T) {
	decl := &domain.TestDeclaration{
		Path:  "/p/t.rtt.yaml",
		Tests: domain.InlineTests(&domain.TestGroup{Name: "t"}),
	}

	monitors, err := usecase.NewPrepareMonitors(&MockArtifactResolver{}).Execute(context.Background(), decl)
	require.NoError(t, err)
	assert.Empty(t, monitors.Files)
	assert.Empty(t, monitors.WatchedPaths())
}

func TestPrepareMonitors_NilDeclaration(t *testing.T) {
	_, err := usecase.NewPrepareMonitors(&MockArtifactResolver{}).Execute(context.Background(), nil)
	assert.Error(t, err)
}

func TestPrepareMonitors_SelfReferencingTestsWatchTestFile(t *testing.T) {
	dir := t.TempDir()
	testFile := filepath.Join(dir, "t.rtt.yaml")
	decl := &domain.TestDeclaration{
		Path:  testFile,
		Tests: domain.ModuleTests(testFile),
	}

	monitors, err := usecase.NewPrepareMonitors(&MockArtifactResolver{}).Execute(context.Background(), decl)
	require.NoError(t, err)
	assert.Empty(t, monitors.Contracts)
	assert.Equal(t, []string{testFile}, monitors.WatchedPaths())
}
