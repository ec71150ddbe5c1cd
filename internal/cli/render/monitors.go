package render

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/trebuchet-org/rtt/internal/usecase"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	sectionHeaderStyle = color.New(color.Bold, color.FgHiWhite)
	accountStyle       = color.New(color.FgCyan, color.Bold)
	missingStyle       = color.New(color.FgRed)
	faintStyle         = color.New(color.Faint)
)

// MonitorsRenderer renders the resolved monitoring set of a test file
type MonitorsRenderer struct {
	out  io.Writer
	root string
}

// NewMonitorsRenderer creates a new monitors renderer. Paths are shown
// relative to root when possible.
func NewMonitorsRenderer(out io.Writer, root string) *MonitorsRenderer {
	return &MonitorsRenderer{out: out, root: root}
}

// Render prints the monitored contracts, files and tests
func (r *MonitorsRenderer) Render(m *usecase.Monitors) error {
	sectionHeaderStyle.Fprintf(r.out, "Test file: %s\n\n", r.rel(m.TestFilePath))

	if len(m.Contracts) > 0 {
		tw := r.newTable()
		tw.AppendHeader(table.Row{"Account", "ABI", "WASM"})
		for _, c := range m.Contracts {
			tw.AppendRow(table.Row{accountStyle.Sprint(c.Account), r.pathCell(c.ABIPath), r.pathCell(c.WASMPath)})
		}
		tw.Render()
		fmt.Fprintln(r.out)
	} else {
		faintStyle.Fprintln(r.out, "No monitored contracts")
	}

	if len(m.Files) > 0 {
		tw := r.newTable()
		tw.AppendHeader(table.Row{"Monitored File", "Exists"})
		for _, f := range m.Files {
			tw.AppendRow(table.Row{r.rel(f.Path), existsCell(f.Path)})
		}
		tw.Render()
		fmt.Fprintln(r.out)
	}

	fmt.Fprintf(r.out, "Tests (%s):", cases.Title(language.English).String(m.Tests.Kind().String()))
	if paths := m.Tests.Paths(); len(paths) > 0 {
		fmt.Fprintln(r.out)
		for _, p := range paths {
			fmt.Fprintf(r.out, "  %s\n", r.rel(p))
		}
	} else {
		fmt.Fprintln(r.out, " defined in-line")
	}
	return nil
}

func (r *MonitorsRenderer) newTable() table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(r.out)
	tw.SetStyle(table.StyleLight)
	tw.Style().Format.Header = text.FormatDefault
	tw.Style().Options.SeparateRows = false
	return tw
}

func (r *MonitorsRenderer) pathCell(path string) string {
	if path == "" {
		return missingStyle.Sprint("-")
	}
	return r.rel(path)
}

func (r *MonitorsRenderer) rel(path string) string {
	if r.root == "" {
		return path
	}
	if rel, err := filepath.Rel(r.root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

func existsCell(path string) string {
	if _, err := os.Stat(path); err != nil {
		return missingStyle.Sprint("no")
	}
	return "yes"
}

var _ Renderer[*usecase.Monitors] = (*MonitorsRenderer)(nil)
