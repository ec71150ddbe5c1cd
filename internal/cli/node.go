package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/rtt/internal/cli/render"
	"github.com/trebuchet-org/rtt/internal/usecase"
)

// NewNodeCmd creates the node command with subcommands
func NewNodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node",
		Short: "Manage local nodeos instances",
		Long: `Manage the local nodeos instances declared in rtt.toml ([[node]] tables).
Without --name every configured instance is targeted.`,
	}

	cmd.AddCommand(newNodeOpCmd("start", "Start local nodeos instances", "Start the configured nodeos instances. Fails if one is already running."))
	cmd.AddCommand(newNodeOpCmd("stop", "Stop local nodeos instances", "Stop the configured nodeos instances if running."))
	cmd.AddCommand(newNodeOpCmd("restart", "Restart local nodeos instances", "Restart the configured nodeos instances, keeping their chain data."))
	cmd.AddCommand(newNodeOpCmd("status", "Show nodeos status", "Show process and HTTP API status of the configured nodeos instances."))
	cmd.AddCommand(newNodeLogsCmd())

	return cmd
}

func newNodeOpCmd(operation, short, long string) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   operation,
		Short: short,
		Long:  long,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			results, err := app.ManageNode.Execute(cmd.Context(), usecase.ManageNodeParams{
				Operation: operation,
				Name:      name,
			})

			renderer := render.NewNodeRenderer(os.Stdout)
			for _, result := range results {
				if rerr := renderer.Render(result); rerr != nil {
					return rerr
				}
			}
			return err
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Instance name (defaults to every configured node)")
	return cmd
}

func newNodeLogsCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:         "logs",
		Short:       "Show nodeos logs",
		Long:        `Follow the log file of a nodeos instance (the first configured one by default).`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{longRunningAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			instance, err := app.ManageNode.Instance(name)
			if err != nil {
				return err
			}

			results, err := app.ManageNode.Execute(cmd.Context(), usecase.ManageNodeParams{
				Operation: "logs",
				Name:      instance.Name,
			})
			if err != nil {
				return err
			}

			if err := render.NewNodeRenderer(os.Stdout).RenderLogsHeader(results[0]); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			err = app.NodeManager.StreamLogs(ctx, results[0].Instance, os.Stdout)
			if ctx.Err() == context.Canceled {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Instance name (defaults to the first configured node)")
	return cmd
}
