package progress

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/trebuchet-org/rtt/internal/domain"
	"github.com/trebuchet-org/rtt/internal/usecase"
)

var (
	passColor    = color.New(color.FgGreen)
	failColor    = color.New(color.FgRed)
	detailColor  = color.New(color.FgHiBlack)
	summaryColor = color.New(color.Bold)
)

// ConsoleReporter prints one line per test case and a summary per batch
type ConsoleReporter struct {
	out io.Writer
}

// NewConsoleReporter creates a new console test reporter
func NewConsoleReporter(out io.Writer) *ConsoleReporter {
	return &ConsoleReporter{out: out}
}

// CaseFinished prints a pass or fail line
func (r *ConsoleReporter) CaseFinished(_ context.Context, result domain.CaseResult) {
	name := result.Name
	if result.Group != "" {
		name = result.Group + " › " + result.Name
	}
	duration := detailColor.Sprintf("(%s)", result.Duration.Round(time.Millisecond))

	if result.Passed() {
		fmt.Fprintf(r.out, "  %s %s %s\n", passColor.Sprint("✔"), name, duration)
		return
	}
	fmt.Fprintf(r.out, "  %s %s %s\n", failColor.Sprint("✗"), name, duration)
	fmt.Fprintf(r.out, "      %s\n", failColor.Sprint(result.Err))
}

// GroupFailed prints a load failure
func (r *ConsoleReporter) GroupFailed(_ context.Context, failure domain.GroupError) {
	fmt.Fprintf(r.out, "  %s failed to load %s: %v\n", failColor.Sprint("✗"), failure.Source, failure.Err)
}

// BatchFinished prints the pass and fail counts of a batch
func (r *ConsoleReporter) BatchFinished(_ context.Context, report *domain.BatchReport) {
	passed, failed := report.Counts()

	parts := passColor.Sprintf("%d passed", passed)
	if failed > 0 {
		parts += ", " + failColor.Sprintf("%d failed", failed)
	}
	if n := len(report.GroupErrors); n > 0 {
		parts += ", " + failColor.Sprintf("%d not loaded", n)
	}
	fmt.Fprintf(r.out, "\n%s %s\n", summaryColor.Sprintf("Run #%d:", report.Iteration), parts)
}

// Ensure it implements the interface
var _ usecase.TestReporter = (*ConsoleReporter)(nil)
