package usecase

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"github.com/trebuchet-org/rtt/internal/domain"
	"github.com/trebuchet-org/rtt/internal/domain/config"
)

// ManageNode handles nodeos instance management operations
type ManageNode struct {
	nodes       []*domain.NodeInstance
	nodeManager NodeManager
	progress    ProgressSink
}

// NewManageNode creates a new node management use case
func NewManageNode(cfg *config.RuntimeConfig, nodeManager NodeManager, progress ProgressSink) *ManageNode {
	return &ManageNode{
		nodes:       cfg.Nodes,
		nodeManager: nodeManager,
		progress:    progress,
	}
}

// ManageNodeParams contains parameters for node operations
type ManageNodeParams struct {
	Operation string // start, stop, restart, status, logs
	Name      string // empty selects every configured node
}

// ManageNodeResult contains the result of one node operation
type ManageNodeResult struct {
	Operation string
	Instance  *domain.NodeInstance
	Status    *domain.NodeStatus
	Success   bool
	Message   string
}

// Execute performs the operation on the selected nodes
func (m *ManageNode) Execute(ctx context.Context, params ManageNodeParams) ([]*ManageNodeResult, error) {
	instances, err := m.selectNodes(params.Name)
	if err != nil {
		return nil, err
	}

	var results []*ManageNodeResult
	for _, instance := range instances {
		var result *ManageNodeResult
		switch params.Operation {
		case "start":
			result, err = m.start(ctx, instance)
		case "stop":
			result, err = m.stop(ctx, instance)
		case "restart":
			result, err = m.restart(ctx, instance)
		case "status", "logs":
			result, err = m.status(ctx, instance, params.Operation)
		default:
			return nil, fmt.Errorf("unknown operation: %s", params.Operation)
		}
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}

// Instance looks up a configured node by name
func (m *ManageNode) Instance(name string) (*domain.NodeInstance, error) {
	instances, err := m.selectNodes(name)
	if err != nil {
		return nil, err
	}
	return instances[0], nil
}

func (m *ManageNode) selectNodes(name string) ([]*domain.NodeInstance, error) {
	if len(m.nodes) == 0 {
		return nil, fmt.Errorf("no nodes configured in rtt.toml")
	}
	if name == "" {
		return m.nodes, nil
	}
	instance, ok := lo.Find(m.nodes, func(n *domain.NodeInstance) bool { return n.Name == name })
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownNode, name)
	}
	return []*domain.NodeInstance{instance}, nil
}

func (m *ManageNode) start(ctx context.Context, instance *domain.NodeInstance) (*ManageNodeResult, error) {
	m.progress.Info(fmt.Sprintf("🔨 Starting nodeos '%s' on %s...", instance.Name, instance.HTTPAddr))

	status, err := m.nodeManager.GetStatus(ctx, instance)
	if err == nil && status.Running {
		return nil, fmt.Errorf("nodeos '%s' is already running (PID %d)", instance.Name, status.PID)
	}

	if err := m.nodeManager.Start(ctx, instance); err != nil {
		return nil, fmt.Errorf("failed to start nodeos: %w", err)
	}

	status, err = m.nodeManager.GetStatus(ctx, instance)
	if err != nil {
		return nil, fmt.Errorf("failed to get status after start: %w", err)
	}

	return &ManageNodeResult{
		Operation: "start",
		Instance:  instance,
		Status:    status,
		Success:   true,
		Message:   fmt.Sprintf("Nodeos '%s' started with PID %d", instance.Name, status.PID),
	}, nil
}

func (m *ManageNode) stop(ctx context.Context, instance *domain.NodeInstance) (*ManageNodeResult, error) {
	m.progress.Info(fmt.Sprintf("🛑 Stopping nodeos '%s'...", instance.Name))

	status, err := m.nodeManager.GetStatus(ctx, instance)
	if err != nil || !status.Running {
		return &ManageNodeResult{
			Operation: "stop",
			Instance:  instance,
			Success:   true,
			Message:   fmt.Sprintf("Nodeos '%s' is not running", instance.Name),
		}, nil
	}

	if err := m.nodeManager.Stop(ctx, instance); err != nil {
		return nil, fmt.Errorf("failed to stop nodeos: %w", err)
	}

	return &ManageNodeResult{
		Operation: "stop",
		Instance:  instance,
		Success:   true,
		Message:   fmt.Sprintf("Nodeos '%s' stopped", instance.Name),
	}, nil
}

func (m *ManageNode) restart(ctx context.Context, instance *domain.NodeInstance) (*ManageNodeResult, error) {
	m.progress.Info(fmt.Sprintf("🔄 Restarting nodeos '%s'...", instance.Name))

	status, err := m.nodeManager.GetStatus(ctx, instance)
	if err == nil && status.Running {
		if err := m.nodeManager.Stop(ctx, instance); err != nil {
			return nil, fmt.Errorf("failed to stop nodeos: %w", err)
		}
	}

	if err := m.nodeManager.Start(ctx, instance); err != nil {
		return nil, fmt.Errorf("failed to start nodeos: %w", err)
	}

	status, err = m.nodeManager.GetStatus(ctx, instance)
	if err != nil {
		return nil, fmt.Errorf("failed to get status after restart: %w", err)
	}

	return &ManageNodeResult{
		Operation: "restart",
		Instance:  instance,
		Status:    status,
		Success:   true,
		Message:   fmt.Sprintf("Nodeos '%s' restarted with PID %d", instance.Name, status.PID),
	}, nil
}

// status also serves logs; the log streaming itself is done by the command
func (m *ManageNode) status(ctx context.Context, instance *domain.NodeInstance, operation string) (*ManageNodeResult, error) {
	status, err := m.nodeManager.GetStatus(ctx, instance)
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}

	return &ManageNodeResult{
		Operation: operation,
		Instance:  instance,
		Status:    status,
		Success:   true,
	}, nil
}
