package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/partforge/internal/assembler"
)

var partsManifest string

var partsCmd = &cobra.Command{
	Use:   "parts",
	Short: "List the manifest's parts in merge order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		asm, _, err := newAssembler()
		if err != nil {
			return err
		}

		result, err := asm.Lint(&assembler.LintRequest{ManifestPath: partsManifest})
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result.Manifest.Parts)
		}

		if len(result.Manifest.Parts) == 0 {
			PrintEmptyState("No parts declared")
			return nil
		}

		rows := make([][]string, 0, len(result.Manifest.Parts))
		for _, part := range result.Manifest.Parts {
			plugin := part.Plugin
			if plugin == "" {
				plugin = "-"
			}
			rows = append(rows, []string{
				part.Name,
				plugin,
				fmt.Sprintf("%d", len(part.StageRules)),
				fmt.Sprintf("%d", len(part.OrganizeRules)),
			})
		}
		PrintTable([]string{"PART", "PLUGIN", "STAGE RULES", "ORGANIZE RULES"}, rows)
		return nil
	},
}

func init() {
	partsCmd.Flags().StringVarP(&partsManifest, "manifest", "m", "bundle.yaml", "Path to the bundle manifest")
}
