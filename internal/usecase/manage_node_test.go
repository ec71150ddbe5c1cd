package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/rtt/internal/domain"
	"github.com/trebuchet-org/rtt/internal/domain/config"
	"github.com/trebuchet-org/rtt/internal/usecase"
)

func newManageNode(nodes ...*domain.NodeInstance) (*usecase.ManageNode, *MockNodeManager, *MockProgressSink) {
	manager := &MockNodeManager{}
	sink := &MockProgressSink{}
	return usecase.NewManageNode(&config.RuntimeConfig{Nodes: nodes}, manager, sink), manager, sink
}

func TestManageNode_Start(t *testing.T) {
	node := &domain.NodeInstance{Name: "nodeos", HTTPAddr: "127.0.0.1:8888"}
	uc, manager, sink := newManageNode(node)

	manager.On("GetStatus", mock.Anything, node).Return(&domain.NodeStatus{Running: false}, nil).Once()
	manager.On("Start", mock.Anything, node).Return(nil)
	manager.On("GetStatus", mock.Anything, node).Return(&domain.NodeStatus{Running: true, PID: 4242}, nil).Once()

	results, err := uc.Execute(context.Background(), usecase.ManageNodeParams{Operation: "start"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Equal(t, "Nodeos 'nodeos' started with PID 4242", results[0].Message)
	assert.Len(t, sink.Infos(), 1)
	manager.AssertExpectations(t)
}

func TestManageNode_StartAlreadyRunning(t *testing.T) {
	node := &domain.NodeInstance{Name: "nodeos"}
	uc, manager, _ := newManageNode(node)
	manager.On("GetStatus", mock.Anything, node).Return(&domain.NodeStatus{Running: true, PID: 7}, nil)

	_, err := uc.Execute(context.Background(), usecase.ManageNodeParams{Operation: "start"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")
	manager.AssertNotCalled(t, "Start", mock.Anything, mock.Anything)
}

func TestManageNode_StopNotRunning(t *testing.T) {
	node := &domain.NodeInstance{Name: "nodeos"}
	uc, manager, _ := newManageNode(node)
	manager.On("GetStatus", mock.Anything, node).Return(&domain.NodeStatus{}, nil)

	results, err := uc.Execute(context.Background(), usecase.ManageNodeParams{Operation: "stop"})
	require.NoError(t, err)
	assert.Contains(t, results[0].Message, "is not running")
	manager.AssertNotCalled(t, "Stop", mock.Anything, mock.Anything)
}

func TestManageNode_RestartStopsThenStarts(t *testing.T) {
	node := &domain.NodeInstance{Name: "nodeos"}
	uc, manager, _ := newManageNode(node)
	manager.On("GetStatus", mock.Anything, node).Return(&domain.NodeStatus{Running: true, PID: 1}, nil)
	manager.On("Stop", mock.Anything, node).Return(nil).Once()
	manager.On("Start", mock.Anything, node).Return(nil).Once()

	results, err := uc.Execute(context.Background(), usecase.ManageNodeParams{Operation: "restart"})
	require.NoError(t, err)
	assert.Equal(t, "restart", results[0].Operation)
	manager.AssertExpectations(t)
}

func TestManageNode_SelectsByName(t *testing.T) {
	a := &domain.NodeInstance{Name: "a"}
	b := &domain.NodeInstance{Name: "b"}
	uc, manager, _ := newManageNode(a, b)
	manager.On("GetStatus", mock.Anything, b).Return(&domain.NodeStatus{Running: true}, nil)

	results, err := uc.Execute(context.Background(), usecase.ManageNodeParams{Operation: "status", Name: "b"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b", results[0].Instance.Name)

	_, err = uc.Execute(context.Background(), usecase.ManageNodeParams{Operation: "status", Name: "c"})
	assert.ErrorIs(t, err, domain.ErrUnknownNode)

	first, err := uc.Instance("")
	require.NoError(t, err)
	assert.Equal(t, "a", first.Name)
}

func TestManageNode_AllNodesStopOnFirstError(t *testing.T) {
	a := &domain.NodeInstance{Name: "a"}
	b := &domain.NodeInstance{Name: "b"}
	uc, manager, _ := newManageNode(a, b)
	manager.On("GetStatus", mock.Anything, a).Return(nil, errors.New("connection refused"))

	results, err := uc.Execute(context.Background(), usecase.ManageNodeParams{Operation: "status"})
	require.Error(t, err)
	assert.Empty(t, results)
	manager.AssertNotCalled(t, "GetStatus", mock.Anything, b)
}

func TestManageNode_UnknownOperation(t *testing.T) {
	uc, _, _ := newManageNode(&domain.NodeInstance{Name: "a"})
	_, err := uc.Execute(context.Background(), usecase.ManageNodeParams{Operation: "bounce"})
	assert.Error(t, err)
}

func TestManageNode_NoNodes(t *testing.T) {
	uc, _, _ := newManageNode()
	_, err := uc.Execute(context.Background(), usecase.ManageNodeParams{Operation: "status"})
	assert.Error(t, err)
}
