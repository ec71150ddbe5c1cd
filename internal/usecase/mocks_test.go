package usecase_test

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/rtt/internal/domain"
	"github.com/trebuchet-org/rtt/internal/usecase"
)

// contentDetector fingerprints files by their content
type contentDetector struct{}

func (contentDetector) Name() string { return "content" }

func (contentDetector) Fingerprint(ctx context.Context, path string) (domain.Fingerprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &domain.FileUnavailableError{Path: path, Err: err}
	}
	return domain.Fingerprint(fmt.Sprintf("%d:%s", len(data), data)), nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// MockTransactionClient is a mock implementation of TransactionClient
type MockTransactionClient struct {
	mock.Mock
}

func (m *MockTransactionClient) Transact(ctx context.Context, actions []domain.Action) (*domain.TransactionReceipt, error) {
	args := m.Called(ctx, actions)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TransactionReceipt), args.Error(1)
}

// MockABIEncoder is a mock implementation of ABIEncoder
type MockABIEncoder struct {
	mock.Mock
}

func (m *MockABIEncoder) EncodeABI(ctx context.Context, path string, data []byte) ([]byte, error) {
	args := m.Called(ctx, path, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockBinaryValidator is a mock implementation of BinaryValidator
type MockBinaryValidator struct {
	mock.Mock
}

func (m *MockBinaryValidator) ValidateBinary(ctx context.Context, path string, code []byte) error {
	return m.Called(ctx, path, code).Error(0)
}

// MockSuiteLoader is a mock implementation of SuiteLoader
type MockSuiteLoader struct {
	mock.Mock
}

func (m *MockSuiteLoader) Load(ctx context.Context, path string) (*domain.TestGroup, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TestGroup), args.Error(1)
}

// MockArtifactResolver is a mock implementation of ArtifactResolver
type MockArtifactResolver struct {
	mock.Mock
}

func (m *MockArtifactResolver) Resolve(ctx context.Context, testFilePath string, contract *domain.MonitoredContract) error {
	return m.Called(ctx, testFilePath, contract).Error(0)
}

// MockNodeManager is a mock implementation of NodeManager
type MockNodeManager struct {
	mock.Mock
}

func (m *MockNodeManager) Start(ctx context.Context, instance *domain.NodeInstance) error {
	return m.Called(ctx, instance).Error(0)
}

func (m *MockNodeManager) Stop(ctx context.Context, instance *domain.NodeInstance) error {
	return m.Called(ctx, instance).Error(0)
}

func (m *MockNodeManager) GetStatus(ctx context.Context, instance *domain.NodeInstance) (*domain.NodeStatus, error) {
	args := m.Called(ctx, instance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.NodeStatus), args.Error(1)
}

func (m *MockNodeManager) StreamLogs(ctx context.Context, instance *domain.NodeInstance, writer io.Writer) error {
	return m.Called(ctx, instance, writer).Error(0)
}

func (m *MockNodeManager) CreateSnapshot(ctx context.Context, instance *domain.NodeInstance) (string, error) {
	args := m.Called(ctx, instance)
	return args.String(0), args.Error(1)
}

func (m *MockNodeManager) RestoreSnapshot(ctx context.Context, instance *domain.NodeInstance, snapshotPath string) error {
	return m.Called(ctx, instance, snapshotPath).Error(0)
}

// MockTestFileIndexer is a mock implementation of TestFileIndexer
type MockTestFileIndexer struct {
	mock.Mock
}

func (m *MockTestFileIndexer) FindTestFiles(ctx context.Context, root string) ([]string, error) {
	args := m.Called(ctx, root)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockTestFileSelector is a mock implementation of TestFileSelector
type MockTestFileSelector struct {
	mock.Mock
}

func (m *MockTestFileSelector) SelectTestFile(ctx context.Context, candidates []string, prompt string) (string, error) {
	args := m.Called(ctx, candidates, prompt)
	return args.String(0), args.Error(1)
}

// MockProgressSink records progress events and messages
type MockProgressSink struct {
	mu     sync.Mutex
	events []usecase.ProgressEvent
	infos  []string
	errors []string
}

func (m *MockProgressSink) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

func (m *MockProgressSink) Info(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, message)
}

func (m *MockProgressSink) Error(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, message)
}

func (m *MockProgressSink) Infos() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.infos...)
}

func (m *MockProgressSink) Errors() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.errors...)
}

// recordingReporter keeps every reported outcome
type recordingReporter struct {
	mu      sync.Mutex
	cases   []domain.CaseResult
	failed  []domain.GroupError
	batches []*domain.BatchReport
}

func (r *recordingReporter) CaseFinished(ctx context.Context, result domain.CaseResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cases = append(r.cases, result)
}

func (r *recordingReporter) GroupFailed(ctx context.Context, failure domain.GroupError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, failure)
}

func (r *recordingReporter) BatchFinished(ctx context.Context, report *domain.BatchReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, report)
}

// fixedClock always reports the same instant and fires After immediately
type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func (c fixedClock) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- c.now.Add(d)
	return ch
}
