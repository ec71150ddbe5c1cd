package progress

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/trebuchet-org/rtt/internal/usecase"
)

// WatchProgress implements progress reporting for the watch loop
type WatchProgress struct {
	mu          sync.Mutex
	out         io.Writer
	interactive bool
	spinner     *spinner.Spinner
}

// NewWatchProgress creates a new watch loop progress reporter
func NewWatchProgress(out io.Writer, interactive bool) *WatchProgress {
	return &WatchProgress{
		out:         out,
		interactive: interactive,
	}
}

// OnProgress handles progress events
func (w *WatchProgress) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.interactive {
		// In non-interactive mode, just print the message
		if event.Message != "" {
			fmt.Fprintln(w.out, w.format(event))
		}
		return
	}

	// Handle spinner states
	if event.Spinner {
		if w.spinner == nil {
			w.spinner = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
			w.spinner.Writer = w.out
			_ = w.spinner.Color("cyan", "bold")
		}

		w.spinner.Suffix = " " + event.Message

		if !w.spinner.Active() {
			w.spinner.Start()
		}
		return
	} else if w.spinner != nil && w.spinner.Active() {
		w.spinner.Stop()
	}

	switch event.Stage {
	case usecase.StageTesting:
		color.New(color.FgWhite, color.Bold).Fprintf(w.out, "\n▶ Run #%d\n", event.Current)

	case usecase.StageRedeploying, usecase.StageSettling:
		if event.Message != "" {
			color.New(color.FgHiBlack).Fprintln(w.out, w.format(event))
		}
	}
}

// Info prints an info message
func (w *WatchProgress) Info(message string) {
	w.print(color.New(color.FgCyan), message)
}

// Error prints an error message
func (w *WatchProgress) Error(message string) {
	w.print(color.New(color.FgRed), message)
}

func (w *WatchProgress) print(c *color.Color, message string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	// Stop spinner temporarily
	wasActive := false
	if w.spinner != nil && w.spinner.Active() {
		wasActive = true
		w.spinner.Stop()
	}

	c.Fprintln(w.out, message)

	// Restart spinner if it was active
	if wasActive {
		w.spinner.Start()
	}
}

func (w *WatchProgress) format(event usecase.ProgressEvent) string {
	if event.Total > 0 {
		return fmt.Sprintf("[%d/%d] %s", event.Current, event.Total, event.Message)
	}
	return event.Message
}

// Ensure it implements the interface
var _ usecase.ProgressSink = (*WatchProgress)(nil)
