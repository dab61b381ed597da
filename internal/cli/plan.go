package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/partforge/internal/assembler"
)

var (
	planManifest string
	planPartsDir string
	planJobs     int
	planStrict   bool
	planFull     bool
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show what assembling would produce, without writing anything",
	Long: `Resolve every part, merge, and link the apps exactly as 'assemble' would,
then print the resulting tree summary and conflict provenance instead of
writing the bundle.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		asm, cfg, err := newAssembler()
		if err != nil {
			return err
		}

		req := &assembler.AssembleRequest{
			ManifestPath:    planManifest,
			PartsDir:        stringFlag(cmd, "parts-dir", planPartsDir, cfg.PartsDir),
			Jobs:            cfg.Jobs,
			StrictConflicts: cfg.StrictConflicts || planStrict,
			DryRun:          true,
		}
		if cmd.Flags().Changed("jobs") {
			req.Jobs = planJobs
		}

		result, err := asm.Assemble(context.Background(), req)
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result.Report)
		}

		PrintSection(fmt.Sprintf("Plan for %q", result.Manifest.Name))
		rows := make([][]string, 0, len(result.Report.Parts))
		for _, pr := range result.Report.Parts {
			rows = append(rows, []string{
				pr.Name,
				fmt.Sprintf("%d", pr.ScannedFiles),
				fmt.Sprintf("%d", pr.StagedFiles),
			})
		}
		PrintTable([]string{"PART", "SCANNED", "STAGED"}, rows)
		fmt.Println()
		PrintLabelValue("Merged files", fmt.Sprintf("%d", result.Tree.Len()))
		PrintLabelValue("Apps", fmt.Sprintf("%d", len(result.Apps)))
		printOverwrites(result)

		if planFull {
			PrintSubsection("Merged tree:")
			lines := make([]string, 0, result.Tree.Len())
			for _, path := range result.Tree.Paths() {
				entry, _ := result.Tree.Lookup(path)
				lines = append(lines, fmt.Sprintf("%s (%s)", path, entry.Part))
			}
			PrintList(lines, 1)
		}
		return nil
	},
}

func init() {
	planCmd.Flags().StringVarP(&planManifest, "manifest", "m", "bundle.yaml", "Path to the bundle manifest")
	planCmd.Flags().StringVarP(&planPartsDir, "parts-dir", "p", "", "Directory holding built part outputs")
	planCmd.Flags().IntVarP(&planJobs, "jobs", "j", 0, "Concurrent part resolutions (0 = number of CPUs)")
	planCmd.Flags().BoolVar(&planStrict, "strict", false, "Treat cross-part path conflicts as fatal")
	planCmd.Flags().BoolVar(&planFull, "full", false, "Also print every merged path with its winning part")
}
