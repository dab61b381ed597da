package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/partforge/internal/assembler"
)

var (
	appsManifest string
	appsPartsDir string
)

var appsCmd = &cobra.Command{
	Use:   "apps",
	Short: "Show the linked app descriptors the bundle would ship",
	Long: `Resolve and merge the parts, then link and print the app descriptors.
Nothing is written; this is the supervisor-facing view of a dry run.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		asm, cfg, err := newAssembler()
		if err != nil {
			return err
		}

		req := &assembler.AssembleRequest{
			ManifestPath: appsManifest,
			PartsDir:     stringFlag(cmd, "parts-dir", appsPartsDir, cfg.PartsDir),
			Jobs:         cfg.Jobs,
			DryRun:       true,
		}

		result, err := asm.Assemble(context.Background(), req)
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result.Apps)
		}

		if len(result.Apps) == 0 {
			PrintEmptyState("No apps declared")
			return nil
		}

		for _, app := range result.Apps {
			PrintSection(app.Name)
			PrintLabelValue("Command", fmt.Sprintf("%s (from %s)", app.Command, app.CommandPart))
			if app.Daemon != "" {
				PrintLabelValue("Daemon", app.Daemon)
				PrintLabelValue("Restart policy", app.RestartPolicy)
			}
			if len(app.Environment) > 0 {
				PrintSubsection("Environment:")
				lines := make([]string, 0, len(app.Environment))
				for _, env := range app.Environment {
					lines = append(lines, fmt.Sprintf("%s=%s", env.Name, env.Value))
				}
				PrintList(lines, 1)
			}
		}
		return nil
	},
}

func init() {
	appsCmd.Flags().StringVarP(&appsManifest, "manifest", "m", "bundle.yaml", "Path to the bundle manifest")
	appsCmd.Flags().StringVarP(&appsPartsDir, "parts-dir", "p", "", "Directory holding built part outputs")
}
