package nodeos

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/trebuchet-org/rtt/internal/domain"
	"github.com/trebuchet-org/rtt/internal/domain/config"
	"github.com/trebuchet-org/rtt/internal/usecase"
)

// StateHost checkpoints every configured node through its producer API and
// rolls back by restarting each node from its snapshot file
type StateHost struct {
	nodes   []*domain.NodeInstance
	manager usecase.NodeManager
	log     *slog.Logger
	now     func() time.Time
}

// NewStateHost creates a new StateHost
func NewStateHost(cfg *config.RuntimeConfig, manager usecase.NodeManager, log *slog.Logger) *StateHost {
	return &StateHost{
		nodes:   cfg.Nodes,
		manager: manager,
		log:     log.With("component", "state-host"),
		now:     time.Now,
	}
}

// Snapshot creates one snapshot per node. The handle is only returned when
// every node produced one.
func (h *StateHost) Snapshot(ctx context.Context, label string) (*domain.SnapshotHandle, error) {
	if len(h.nodes) == 0 {
		return nil, fmt.Errorf("no nodes configured to snapshot")
	}

	handle := &domain.SnapshotHandle{
		ID:        label,
		Label:     label,
		CreatedAt: h.now(),
		Points:    make(map[string]string, len(h.nodes)),
	}
	for _, node := range h.nodes {
		path, err := h.manager.CreateSnapshot(ctx, node)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", node.Name, err)
		}
		handle.Points[node.Name] = path
		h.log.Debug("node snapshot", "label", label, "node", node.Name, "file", path)
	}
	return handle, nil
}

// Restore restarts every node from its point in handle
func (h *StateHost) Restore(ctx context.Context, handle *domain.SnapshotHandle) error {
	if handle == nil {
		return fmt.Errorf("no snapshot to restore")
	}
	for _, node := range h.nodes {
		path, ok := handle.Points[node.Name]
		if !ok {
			return fmt.Errorf("snapshot %s has no point for node %s", handle.Label, node.Name)
		}
		if err := h.manager.RestoreSnapshot(ctx, node, path); err != nil {
			return fmt.Errorf("node %s: %w", node.Name, err)
		}
	}
	return nil
}

// NodeInstances returns the number of nodes restored on every rollback
func (h *StateHost) NodeInstances() int {
	return len(h.nodes)
}

// Ensure the host implements the interface
var _ usecase.ChainStateHost = (*StateHost)(nil)
