package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/partforge/internal/assembler"
)

var lintManifest string

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Validate the manifest's structure without touching part outputs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		asm, _, err := newAssembler()
		if err != nil {
			return err
		}

		result, err := asm.Lint(&assembler.LintRequest{ManifestPath: lintManifest})
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(map[string]any{
				"name":  result.Manifest.Name,
				"parts": len(result.Manifest.Parts),
				"apps":  len(result.Manifest.Apps),
			})
		}

		PrintSuccess(fmt.Sprintf("Manifest %q is valid: %s, %s",
			result.Manifest.Name,
			PrintCount(len(result.Manifest.Parts), "part", "parts"),
			PrintCount(len(result.Manifest.Apps), "app", "apps")))
		return nil
	},
}

func init() {
	lintCmd.Flags().StringVarP(&lintManifest, "manifest", "m", "bundle.yaml", "Path to the bundle manifest")
}
