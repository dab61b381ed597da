package assembler

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/danieljhkim/partforge/internal/linker"
	"github.com/danieljhkim/partforge/internal/merger"
)

// Descriptor and report file names written alongside the bundle tree.
// apps.json is consumed by the external process supervisor, report.json
// by the diagnostics reporter.
const (
	AppsFile   = "apps.json"
	ReportFile = "report.json"
)

// materialize writes the merged tree and the app descriptors under
// outputDir. The bundle's files land under
// outputDir/<bundle-relative-path>; the descriptors are written atomically
// so a crashed run never leaves a half-written apps.json behind.
func (a *Assembler) materialize(tree *merger.Tree, apps []linker.LinkedApp, outputDir string) error {
	if outputDir == "" {
		return fmt.Errorf("output directory not set")
	}
	if err := a.fs.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, relPath := range tree.Paths() {
		entry, _ := tree.Lookup(relPath)
		if err := a.fs.ValidateRelPath(relPath); err != nil {
			return fmt.Errorf("merged path %q: %w", relPath, err)
		}
		dest := filepath.Join(outputDir, filepath.FromSlash(relPath))
		if err := a.fs.Copy(entry.Ref.Source, dest); err != nil {
			return fmt.Errorf("failed to place %q from part %q: %w", relPath, entry.Part, err)
		}
	}

	if err := a.writeJSON(filepath.Join(outputDir, AppsFile), apps); err != nil {
		return fmt.Errorf("failed to write app descriptors: %w", err)
	}

	return nil
}

// writeReport writes the finished assembly report next to the bundle.
func (a *Assembler) writeReport(report *Report, outputDir string) error {
	if err := a.writeJSON(filepath.Join(outputDir, ReportFile), report); err != nil {
		return fmt.Errorf("failed to write assembly report: %w", err)
	}
	return nil
}

func (a *Assembler) writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return a.fs.AtomicWrite(path, append(data, '\n'), 0644)
}
