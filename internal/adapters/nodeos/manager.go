package nodeos

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/trebuchet-org/rtt/internal/domain"
	"github.com/trebuchet-org/rtt/internal/usecase"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	DefaultNodeName     = "nodeos"
	DefaultNodeBinary   = "nodeos"
	DefaultNodeHTTPAddr = "127.0.0.1:8888"

	stopTimeout  = 5 * time.Second
	readyTimeout = 30 * time.Second
	pollEvery    = 200 * time.Millisecond

	logMaxSizeMB  = 50
	logMaxBackups = 3
)

// Manager starts, stops and snapshots local nodeos processes
type Manager struct {
	client       *http.Client
	log          *slog.Logger
	readyTimeout time.Duration
}

// NewManager creates a new nodeos manager
func NewManager(log *slog.Logger) *Manager {
	return &Manager{
		client:       &http.Client{Timeout: 30 * time.Second},
		log:          log.With("component", "nodeos"),
		readyTimeout: readyTimeout,
	}
}

// Start starts a nodeos instance and waits until its HTTP API answers
func (m *Manager) Start(ctx context.Context, instance *domain.NodeInstance) error {
	return m.start(ctx, instance, "")
}

func (m *Manager) start(ctx context.Context, instance *domain.NodeInstance, snapshotPath string) error {
	m.setFilePaths(instance)

	if m.isRunning(instance) {
		return fmt.Errorf("nodeos '%s' is already running (PID file exists at %s)", instance.Name, instance.PidFile)
	}

	for _, dir := range []string{instance.DataDir, instance.ConfigDir, filepath.Dir(instance.LogFile)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	if err := rotateLog(instance.LogFile); err != nil {
		m.log.Warn("failed to rotate node log", "file", instance.LogFile, "error", err)
	}

	logFile, err := os.OpenFile(instance.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	defer logFile.Close()

	args := buildNodeosArgs(instance, snapshotPath)
	m.log.Debug("starting nodeos", "name", instance.Name, "binary", instance.Binary, "args", args)

	cmd := exec.Command(instance.Binary, args...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start nodeos: %w", err)
	}

	if err := writePidFile(instance.PidFile, cmd.Process.Pid); err != nil {
		_ = cmd.Process.Kill()
		return fmt.Errorf("failed to write PID file: %w", err)
	}

	// Reap the child when it exits so it does not linger as a zombie
	go func() { _ = cmd.Wait() }()

	if err := m.waitReady(ctx, instance); err != nil {
		return fmt.Errorf("nodeos '%s' did not become ready (see %s): %w", instance.Name, instance.LogFile, err)
	}
	return nil
}

// Stop stops a nodeos instance. SIGTERM first, SIGKILL after a grace period.
func (m *Manager) Stop(ctx context.Context, instance *domain.NodeInstance) error {
	m.setFilePaths(instance)

	pid, err := readPidFile(instance.PidFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read PID file: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process: %w", err)
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		if !processAlive(process) {
			return removePidFile(instance.PidFile)
		}
		if err := process.Kill(); err != nil {
			return fmt.Errorf("failed to kill process: %w", err)
		}
	}

	deadline := time.Now().Add(stopTimeout)
	for processAlive(process) {
		if time.Now().After(deadline) {
			m.log.Warn("nodeos did not exit after SIGTERM, killing", "name", instance.Name, "pid", pid)
			_ = process.Kill()
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollEvery):
		}
	}

	return removePidFile(instance.PidFile)
}

// GetStatus reports whether the instance runs and whether its API answers
func (m *Manager) GetStatus(ctx context.Context, instance *domain.NodeInstance) (*domain.NodeStatus, error) {
	m.setFilePaths(instance)

	status := &domain.NodeStatus{
		URL:     instance.URL(),
		LogFile: instance.LogFile,
	}

	pid, err := readPidFile(instance.PidFile)
	if err == nil {
		status.PID = pid
		status.Running = m.isRunning(instance)
	}

	info, err := m.getInfo(ctx, instance)
	if err != nil {
		status.Error = err.Error()
		return status, nil
	}
	status.RPCHealthy = true
	status.HeadBlockNum = info.HeadBlockNum
	status.ChainID = info.ChainID
	return status, nil
}

// StreamLogs follows the instance log file until ctx is cancelled
func (m *Manager) StreamLogs(ctx context.Context, instance *domain.NodeInstance, writer io.Writer) error {
	m.setFilePaths(instance)

	if _, err := os.Stat(instance.LogFile); os.IsNotExist(err) {
		return fmt.Errorf("log file does not exist: %s", instance.LogFile)
	}

	cmd := exec.CommandContext(ctx, "tail", "-f", instance.LogFile)
	cmd.Stdout = writer
	cmd.Stderr = writer
	if err := cmd.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

type createSnapshotResponse struct {
	HeadBlockID  string `json:"head_block_id"`
	HeadBlockNum uint32 `json:"head_block_num"`
	SnapshotName string `json:"snapshot_name"`
}

// CreateSnapshot asks the producer API for a snapshot and returns its file path
func (m *Manager) CreateSnapshot(ctx context.Context, instance *domain.NodeInstance) (string, error) {
	m.setFilePaths(instance)

	var resp createSnapshotResponse
	if err := m.call(ctx, instance, "/v1/producer/create_snapshot", struct{}{}, &resp); err != nil {
		return "", fmt.Errorf("create_snapshot failed: %w", err)
	}
	if resp.SnapshotName == "" {
		return "", fmt.Errorf("create_snapshot returned no snapshot name")
	}

	m.log.Debug("snapshot created", "name", instance.Name, "block", resp.HeadBlockNum, "file", resp.SnapshotName)
	return resp.SnapshotName, nil
}

// RestoreSnapshot restarts the instance from snapshotPath. Blocks and state
// are discarded so the node starts exactly at the snapshot.
func (m *Manager) RestoreSnapshot(ctx context.Context, instance *domain.NodeInstance, snapshotPath string) error {
	m.setFilePaths(instance)

	if _, err := os.Stat(snapshotPath); err != nil {
		return fmt.Errorf("snapshot unavailable: %w", err)
	}

	if err := m.Stop(ctx, instance); err != nil {
		return fmt.Errorf("failed to stop nodeos: %w", err)
	}

	for _, sub := range []string{"blocks", "state"} {
		if err := os.RemoveAll(filepath.Join(instance.DataDir, sub)); err != nil {
			return fmt.Errorf("failed to clear %s: %w", sub, err)
		}
	}

	return m.start(ctx, instance, snapshotPath)
}

// setFilePaths fills in defaults for unset instance fields
func (m *Manager) setFilePaths(instance *domain.NodeInstance) {
	if strings.TrimSpace(instance.Name) == "" {
		instance.Name = DefaultNodeName
	}
	if instance.Binary == "" {
		instance.Binary = DefaultNodeBinary
	}
	if instance.HTTPAddr == "" {
		instance.HTTPAddr = DefaultNodeHTTPAddr
	}
	base := filepath.Join(os.TempDir(), "rtt-"+instance.Name)
	if instance.DataDir == "" {
		instance.DataDir = filepath.Join(base, "data")
	}
	if instance.ConfigDir == "" {
		instance.ConfigDir = filepath.Join(base, "config")
	}
	if instance.PidFile == "" {
		instance.PidFile = filepath.Join(os.TempDir(), fmt.Sprintf("rtt-%s.pid", instance.Name))
	}
	if instance.LogFile == "" {
		instance.LogFile = filepath.Join(os.TempDir(), fmt.Sprintf("rtt-%s.log", instance.Name))
	}
}

// buildNodeosArgs builds a single-producer development node command line
func buildNodeosArgs(instance *domain.NodeInstance, snapshotPath string) []string {
	args := []string{
		"--data-dir", instance.DataDir,
		"--config-dir", instance.ConfigDir,
		"--http-server-address", instance.HTTPAddr,
		"--plugin", "eosio::producer_plugin",
		"--plugin", "eosio::producer_api_plugin",
		"--plugin", "eosio::chain_api_plugin",
		"--plugin", "eosio::http_plugin",
		"--enable-stale-production",
		"--producer-name", domain.DefaultSystemAccount,
		"--snapshots-dir", filepath.Join(instance.DataDir, "snapshots"),
		"--access-control-allow-origin", "*",
		"--http-validate-host", "false",
		"--contracts-console",
	}
	if snapshotPath != "" {
		args = append(args, "--snapshot", snapshotPath)
	}
	return append(args, instance.Args...)
}

type getInfoResponse struct {
	ChainID      string `json:"chain_id"`
	HeadBlockNum uint32 `json:"head_block_num"`
}

func (m *Manager) getInfo(ctx context.Context, instance *domain.NodeInstance) (*getInfoResponse, error) {
	var info getInfoResponse
	if err := m.call(ctx, instance, "/v1/chain/get_info", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (m *Manager) waitReady(ctx context.Context, instance *domain.NodeInstance) error {
	ctx, cancel := context.WithTimeout(ctx, m.readyTimeout)
	defer cancel()

	var lastErr error
	for {
		_, err := m.getInfo(ctx, instance)
		if err == nil {
			return nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w (last error: %v)", ctx.Err(), lastErr)
		case <-time.After(pollEvery):
		}
	}
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Error   struct {
		Name    string `json:"name"`
		What    string `json:"what"`
		Details []struct {
			Message string `json:"message"`
		} `json:"details"`
	} `json:"error"`
}

func (e *apiError) String() string {
	if len(e.Error.Details) > 0 {
		return e.Error.Details[0].Message
	}
	if e.Error.What != "" {
		return e.Error.What
	}
	return e.Message
}

// call POSTs body to path and decodes the JSON response into out
func (m *Manager) call(ctx context.Context, instance *domain.NodeInstance, path string, body, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, instance.URL()+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make HTTP request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.String() != "" {
			return fmt.Errorf("HTTP %d: %s", resp.StatusCode, apiErr.String())
		}
		return fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

func (m *Manager) isRunning(instance *domain.NodeInstance) bool {
	pid, err := readPidFile(instance.PidFile)
	if err != nil {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return processAlive(process)
}

func processAlive(process *os.Process) bool {
	return process.Signal(syscall.Signal(0)) == nil
}

// rotateLog moves an existing log aside so each start gets a fresh file
func rotateLog(path string) error {
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		return nil
	}
	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    logMaxSizeMB,
		MaxBackups: logMaxBackups,
	}
	defer rotator.Close()
	return rotator.Rotate()
}

func readPidFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID in file: %s", string(data))
	}
	return pid, nil
}

func writePidFile(path string, pid int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(pid)), 0644)
}

func removePidFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	return nil
}

// Ensure the manager implements the interface
var _ usecase.NodeManager = (*Manager)(nil)
