package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/partforge/internal/assembler"
)

var (
	assembleManifest string
	assemblePartsDir string
	assembleOutput   string
	assembleJobs     int
	assembleStrict   bool
	assembleDryRun   bool
)

var assembleCmd = &cobra.Command{
	Use:   "assemble",
	Short: "Assemble the bundle from built part outputs",
	Long: `Assemble the full bundle: resolve every part's staged files, merge them in
declared order, link the declared apps, and write the bundle tree plus its
app descriptors and assembly report to the output directory.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		asm, cfg, err := newAssembler()
		if err != nil {
			return err
		}

		req := &assembler.AssembleRequest{
			ManifestPath:    assembleManifest,
			PartsDir:        stringFlag(cmd, "parts-dir", assemblePartsDir, cfg.PartsDir),
			OutputDir:       stringFlag(cmd, "output", assembleOutput, cfg.OutputDir),
			Jobs:            cfg.Jobs,
			StrictConflicts: cfg.StrictConflicts || assembleStrict,
			DryRun:          assembleDryRun,
		}
		if cmd.Flags().Changed("jobs") {
			req.Jobs = assembleJobs
		}

		result, err := asm.Assemble(context.Background(), req)
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result.Report)
		}

		if assembleDryRun {
			PrintSection("Dry Run")
			PrintInfo(fmt.Sprintf("Would write %s", PrintCount(result.Tree.Len(), "file", "files")))
			printOverwrites(result)
			return nil
		}

		PrintSuccess(fmt.Sprintf("Assembled %q: %s from %s",
			result.Manifest.Name,
			PrintCount(result.Tree.Len(), "file", "files"),
			PrintCount(len(result.Manifest.Parts), "part", "parts")))
		PrintLabelValue("Output", result.OutputDir)
		PrintLabelValue("Apps", PrintCount(len(result.Apps), "app linked", "apps linked"))
		printOverwrites(result)
		return nil
	},
}

func printOverwrites(result *assembler.AssembleResult) {
	overwrites := result.Tree.Overwrites()
	if len(overwrites) == 0 {
		return
	}
	PrintSubsection(fmt.Sprintf("%s resolved by part order:", PrintCount(len(overwrites), "conflict", "conflicts")))
	lines := make([]string, 0, len(overwrites))
	for _, ow := range overwrites {
		line := fmt.Sprintf("%s: %s superseded by %s", ow.Path, ow.Loser, ow.Winner)
		if ow.Identical() {
			line += " (identical content)"
		}
		lines = append(lines, line)
	}
	PrintList(lines, 1)
}

func init() {
	assembleCmd.Flags().StringVarP(&assembleManifest, "manifest", "m", "bundle.yaml", "Path to the bundle manifest")
	assembleCmd.Flags().StringVarP(&assemblePartsDir, "parts-dir", "p", "", "Directory holding built part outputs")
	assembleCmd.Flags().StringVarP(&assembleOutput, "output", "o", "", "Directory to write the bundle into")
	assembleCmd.Flags().IntVarP(&assembleJobs, "jobs", "j", 0, "Concurrent part resolutions (0 = number of CPUs)")
	assembleCmd.Flags().BoolVar(&assembleStrict, "strict", false, "Treat cross-part path conflicts as fatal")
	assembleCmd.Flags().BoolVar(&assembleDryRun, "dry-run", false, "Resolve, merge, and link without writing anything")
}
