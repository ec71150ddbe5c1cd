package render

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/trebuchet-org/rtt/internal/usecase"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NodeRenderer renders nodeos operation results
type NodeRenderer struct {
	out io.Writer
}

// NewNodeRenderer creates a new node renderer
func NewNodeRenderer(out io.Writer) *NodeRenderer {
	return &NodeRenderer{out: out}
}

// Render renders the node operation result
func (r *NodeRenderer) Render(result *usecase.ManageNodeResult) error {
	switch result.Operation {
	case "start", "restart":
		return r.renderStart(result)
	case "stop":
		return r.renderStop(result)
	case "status":
		return r.renderStatus(result)
	default:
		return fmt.Errorf("unknown operation: %s", result.Operation)
	}
}

func (r *NodeRenderer) renderStart(result *usecase.ManageNodeResult) error {
	if !result.Success {
		return nil
	}
	fmt.Fprintln(r.out, FormatSuccess(result.Message))
	color.New(color.FgYellow).Fprintf(r.out, "📋 Logs: %s\n", result.Status.LogFile)
	color.New(color.FgBlue).Fprintf(r.out, "🌐 HTTP API: %s\n", result.Status.URL)
	if result.Status.ChainID != "" {
		color.New(color.FgHiBlack).Fprintf(r.out, "Chain ID: %s\n", result.Status.ChainID)
	}
	return nil
}

func (r *NodeRenderer) renderStop(result *usecase.ManageNodeResult) error {
	if result.Success {
		fmt.Fprintln(r.out, FormatSuccess(result.Message))
	}
	return nil
}

func (r *NodeRenderer) renderStatus(result *usecase.ManageNodeResult) error {
	status := result.Status
	color.New(color.FgCyan, color.Bold).Fprintf(r.out, "📊 %s Status ('%s'):\n",
		cases.Title(language.English).String("nodeos"), result.Instance.Name)

	if !status.Running {
		color.New(color.FgRed).Fprintln(r.out, "Status: 🔴 Not running")
		color.New(color.FgHiBlack).Fprintf(r.out, "PID file: %s\n", result.Instance.PidFile)
		color.New(color.FgHiBlack).Fprintf(r.out, "Log file: %s\n", result.Instance.LogFile)
		return nil
	}

	color.New(color.FgGreen).Fprintf(r.out, "Status: 🟢 Running (PID %d)\n", status.PID)
	color.New(color.FgBlue).Fprintf(r.out, "HTTP API: %s\n", status.URL)
	color.New(color.FgYellow).Fprintf(r.out, "Log file: %s\n", status.LogFile)

	if status.RPCHealthy {
		color.New(color.FgGreen).Fprintf(r.out, "RPC Health: ✅ Responding (head block %d)\n", status.HeadBlockNum)
	} else {
		color.New(color.FgRed).Fprintln(r.out, "RPC Health: ❌ Not responding")
		if status.Error != "" {
			color.New(color.FgHiBlack).Fprintf(r.out, "  %s\n", status.Error)
		}
	}
	return nil
}

// RenderLogsHeader renders the header for logs streaming
func (r *NodeRenderer) RenderLogsHeader(result *usecase.ManageNodeResult) error {
	color.New(color.FgCyan, color.Bold).Fprintf(r.out, "📋 Showing nodeos '%s' logs (Ctrl+C to exit):\n", result.Instance.Name)
	color.New(color.FgHiBlack).Fprintf(r.out, "Log file: %s\n\n", result.Status.LogFile)
	return nil
}

var _ Renderer[*usecase.ManageNodeResult] = (*NodeRenderer)(nil)
