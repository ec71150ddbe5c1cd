package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/rtt/internal/usecase"
)

// NewRunCmd creates the run command
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [test-file]",
		Short: "Run a test file and rerun it whenever a contract changes",
		Long: `Run the tests declared by a *.rtt.yaml file against the configured chain.

Before the first run a snapshot of every node is taken. While watching, each
change to a monitored ABI, WASM or file restores that snapshot, redeploys the
changed contracts and reruns the tests.

The test file argument may be a path or part of a name; without it every
test file of the project is offered.

Examples:
  # Watch tests/token.rtt.yaml
  rtt run tests/token.rtt.yaml

  # Pick by name, run once and exit non-zero on failures (CI)
  rtt run token --once --non-interactive

  # Use content hashes instead of modification times
  rtt run token --detector hash`,
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{longRunningAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			path, err := app.FindTestFile.Find(ctx, testFileArg(args))
			if err != nil {
				return err
			}

			decl, err := app.Declarations.LoadDeclaration(ctx, path)
			if err != nil {
				return err
			}

			result, err := app.RunWatchLoop.Execute(ctx, usecase.RunWatchLoopParams{
				Declaration: decl,
				Once:        app.Config.Once,
			})
			if errors.Is(err, context.Canceled) {
				app.Log.Debug("watch loop stopped")
				return nil
			}
			if err != nil {
				return err
			}

			if result.LastReport != nil {
				passed, failed := result.LastReport.Counts()
				app.Log.Debug("test batch finished", "passed", passed, "failed", failed)
				if failed > 0 || len(result.LastReport.GroupErrors) > 0 {
					return fmt.Errorf("%d test case(s) failed, %d test file(s) not loaded", failed, len(result.LastReport.GroupErrors))
				}
			}
			return nil
		},
	}

	cmd.Flags().Bool("once", false, "Run the tests once and exit, even if the test file could be watched")
	cmd.Flags().String("detector", "", "Change detector: mtime or hash (default from rtt.toml or mtime)")
	cmd.Flags().String("chain-url", "", "Chain HTTP API to push transactions to (default from rtt.toml)")
	cmd.Flags().Duration("poll-interval", 0, "Interval between change checks (default from rtt.toml or 1s)")
	cmd.Flags().Bool("notify", true, "Use file system notifications to detect changes sooner")

	return cmd
}
