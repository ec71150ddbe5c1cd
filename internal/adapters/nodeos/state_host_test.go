package nodeos

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/rtt/internal/domain"
	"github.com/trebuchet-org/rtt/internal/domain/config"
)

type mockNodeManager struct {
	mock.Mock
}

func (m *mockNodeManager) Start(ctx context.Context, instance *domain.NodeInstance) error {
	return m.Called(ctx, instance).Error(0)
}

func (m *mockNodeManager) Stop(ctx context.Context, instance *domain.NodeInstance) error {
	return m.Called(ctx, instance).Error(0)
}

func (m *mockNodeManager) GetStatus(ctx context.Context, instance *domain.NodeInstance) (*domain.NodeStatus, error) {
	args := m.Called(ctx, instance)
	status, _ := args.Get(0).(*domain.NodeStatus)
	return status, args.Error(1)
}

func (m *mockNodeManager) StreamLogs(ctx context.Context, instance *domain.NodeInstance, writer io.Writer) error {
	return m.Called(ctx, instance, writer).Error(0)
}

func (m *mockNodeManager) CreateSnapshot(ctx context.Context, instance *domain.NodeInstance) (string, error) {
	args := m.Called(ctx, instance)
	return args.String(0), args.Error(1)
}

func (m *mockNodeManager) RestoreSnapshot(ctx context.Context, instance *domain.NodeInstance, path string) error {
	return m.Called(ctx, instance, path).Error(0)
}

func newTestStateHost(nodes []*domain.NodeInstance, manager *mockNodeManager) *StateHost {
	cfg := &config.RuntimeConfig{Nodes: nodes}
	return NewStateHost(cfg, manager, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestStateHost_SnapshotAndRestore(t *testing.T) {
	ctx := context.Background()
	a := &domain.NodeInstance{Name: "a"}
	b := &domain.NodeInstance{Name: "b"}

	manager := &mockNodeManager{}
	manager.On("CreateSnapshot", ctx, a).Return("/a/snap-1.bin", nil)
	manager.On("CreateSnapshot", ctx, b).Return("/b/snap-1.bin", nil)
	manager.On("RestoreSnapshot", ctx, a, "/a/snap-1.bin").Return(nil)
	manager.On("RestoreSnapshot", ctx, b, "/b/snap-1.bin").Return(nil)

	host := newTestStateHost([]*domain.NodeInstance{a, b}, manager)
	assert.Equal(t, 2, host.NodeInstances())

	handle, err := host.Snapshot(ctx, "realtime-tester-0")
	require.NoError(t, err)
	assert.Equal(t, "realtime-tester-0", handle.Label)
	assert.Equal(t, map[string]string{"a": "/a/snap-1.bin", "b": "/b/snap-1.bin"}, handle.Points)

	require.NoError(t, host.Restore(ctx, handle))
	manager.AssertExpectations(t)
}

func TestStateHost_SnapshotFailure(t *testing.T) {
	ctx := context.Background()
	a := &domain.NodeInstance{Name: "a"}

	manager := &mockNodeManager{}
	manager.On("CreateSnapshot", ctx, a).Return("", errors.New("producer api disabled"))

	host := newTestStateHost([]*domain.NodeInstance{a}, manager)
	handle, err := host.Snapshot(ctx, "realtime-tester-0")
	require.Error(t, err)
	assert.Nil(t, handle)
	assert.Contains(t, err.Error(), "node a")
}

func TestStateHost_NoNodes(t *testing.T) {
	host := newTestStateHost(nil, &mockNodeManager{})
	_, err := host.Snapshot(context.Background(), "x")
	assert.Error(t, err)
	assert.Equal(t, 0, host.NodeInstances())
}

func TestStateHost_RestoreMissingPoint(t *testing.T) {
	a := &domain.NodeInstance{Name: "a"}
	host := newTestStateHost([]*domain.NodeInstance{a}, &mockNodeManager{})

	err := host.Restore(context.Background(), &domain.SnapshotHandle{Label: "x", Points: map[string]string{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no point for node a")

	assert.Error(t, host.Restore(context.Background(), nil))
}
