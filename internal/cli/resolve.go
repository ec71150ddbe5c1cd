package cli

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/rtt/internal/cli/render"
)

// NewResolveCmd creates the resolve command
func NewResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [test-file]",
		Short: "Show what a test file monitors without running it",
		Long: `Resolve the contract artifacts and files a test file monitors and print
them. Nothing is deployed and no snapshot is taken; ambiguous artifact
directories are reported the same way run reports them.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			path, err := app.FindTestFile.Find(cmd.Context(), testFileArg(args))
			if err != nil {
				return err
			}

			decl, err := app.Declarations.LoadDeclaration(cmd.Context(), path)
			if err != nil {
				return err
			}

			monitors, err := app.PrepareMonitors.Execute(cmd.Context(), decl)
			if err != nil {
				return err
			}

			return render.NewMonitorsRenderer(os.Stdout, app.Config.ProjectRoot).Render(monitors)
		},
	}
}
