package assembler

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/danieljhkim/partforge/internal/linker"
	"github.com/danieljhkim/partforge/internal/merger"
	"github.com/danieljhkim/partforge/internal/resolver"
)

const installerManifest = `
name: installer
version: "1.0"

parts:
  curtin:
    plugin: python
    stage:
      - usr/lib/curtin
  subiquity:
    plugin: python
    organize:
      bin/subiquity-tui: usr/bin/subiquity
  probert:
    plugin: python

apps:
  probert:
    command: bin/probert
  subiquity-server:
    command: usr/bin/subiquity-server
    daemon: simple
    restart-condition: always
    environment:
      PATH_ORIG: $PATH
      PATH: $PATH:$SNAP/bin
`

// setupInstaller lays out the three-part scenario: curtin stages its
// library tree, subiquity renames its TUI binary, probert stages a bare
// binary.
func setupInstaller(t *testing.T) (manifestPath, partsDir string) {
	t.Helper()
	dir := t.TempDir()

	manifestPath = filepath.Join(dir, "bundle.yaml")
	if err := os.WriteFile(manifestPath, []byte(installerManifest), 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	partsDir = filepath.Join(dir, "parts")
	writeTree(t, filepath.Join(partsDir, "curtin", "install"), map[string]string{
		"usr/lib/curtin/main.py":    "curtin main",
		"usr/lib/curtin/helpers.py": "curtin helpers",
		"usr/share/doc/README":      "not staged",
	})
	writeTree(t, filepath.Join(partsDir, "subiquity", "install"), map[string]string{
		"usr/bin/subiquity-server": "server",
		"bin/subiquity-tui":        "tui",
	})
	writeTree(t, filepath.Join(partsDir, "probert", "install"), map[string]string{
		"bin/probert": "probert",
	})

	return manifestPath, partsDir
}

func TestAssemble_EndToEnd(t *testing.T) {
	a := testAssembler()
	manifestPath, partsDir := setupInstaller(t)
	outputDir := filepath.Join(t.TempDir(), "bundle")

	result, err := a.Assemble(context.Background(), &AssembleRequest{
		ManifestPath: manifestPath,
		PartsDir:     partsDir,
		OutputDir:    outputDir,
	})
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	if len(result.Tree.Overwrites()) != 0 {
		t.Errorf("expected no conflicts, got %v", result.Tree.Overwrites())
	}

	// curtin's doc tree is excluded by its stage list.
	if result.Tree.Contains("usr/share/doc/README") {
		t.Error("usr/share/doc/README should not be staged")
	}
	// subiquity's TUI binary is renamed by organize.
	if !result.Tree.Contains("usr/bin/subiquity") {
		t.Error("usr/bin/subiquity missing: organize rename not applied")
	}
	if result.Tree.Contains("bin/subiquity-tui") {
		t.Error("bin/subiquity-tui should have been relocated")
	}

	// Files land on disk with their content.
	data, err := os.ReadFile(filepath.Join(outputDir, "usr", "bin", "subiquity"))
	if err != nil {
		t.Fatalf("failed to read materialized file: %v", err)
	}
	if string(data) != "tui" {
		t.Errorf("materialized content = %q, want %q", data, "tui")
	}

	// Linked apps cover both declared apps.
	if len(result.Apps) != 2 {
		t.Fatalf("expected 2 linked apps, got %d", len(result.Apps))
	}
	if result.Apps[0].Name != "probert" || result.Apps[0].CommandPart != "probert" {
		t.Errorf("Apps[0] = %+v, want probert from part probert", result.Apps[0])
	}

	// Supervisor descriptor is written and decodes back.
	appsData, err := os.ReadFile(filepath.Join(outputDir, AppsFile))
	if err != nil {
		t.Fatalf("failed to read %s: %v", AppsFile, err)
	}
	var apps []linker.LinkedApp
	if err := json.Unmarshal(appsData, &apps); err != nil {
		t.Fatalf("failed to decode %s: %v", AppsFile, err)
	}
	if len(apps) != 2 || apps[1].RestartPolicy != "always" {
		t.Errorf("decoded apps = %+v", apps)
	}

	// Report is written with part counts and timestamps.
	reportData, err := os.ReadFile(filepath.Join(outputDir, ReportFile))
	if err != nil {
		t.Fatalf("failed to read %s: %v", ReportFile, err)
	}
	var report Report
	if err := json.Unmarshal(reportData, &report); err != nil {
		t.Fatalf("failed to decode %s: %v", ReportFile, err)
	}
	if report.Name != "installer" || len(report.Parts) != 3 {
		t.Errorf("report = %+v", report)
	}
	if report.Parts[0].Name != "curtin" || report.Parts[0].StagedFiles != 2 {
		t.Errorf("curtin report = %+v, want 2 staged files", report.Parts[0])
	}
	if report.FinishedAt.Before(report.StartedAt) {
		t.Error("report FinishedAt precedes StartedAt")
	}
}

func TestAssemble_DryRun(t *testing.T) {
	a := testAssembler()
	manifestPath, partsDir := setupInstaller(t)
	outputDir := filepath.Join(t.TempDir(), "bundle")

	result, err := a.Assemble(context.Background(), &AssembleRequest{
		ManifestPath: manifestPath,
		PartsDir:     partsDir,
		OutputDir:    outputDir,
		DryRun:       true,
	})
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	if result.OutputDir != "" {
		t.Errorf("OutputDir = %q, want empty for dry run", result.OutputDir)
	}
	if _, err := os.Stat(outputDir); !os.IsNotExist(err) {
		t.Error("dry run must not create the output directory")
	}
	if result.Tree.Len() == 0 {
		t.Error("dry run should still produce the merged tree")
	}
}

func TestAssemble_LastWriterWinsAcrossParts(t *testing.T) {
	a := testAssembler()
	dir := t.TempDir()

	manifestPath := filepath.Join(dir, "bundle.yaml")
	manifest := `
name: overlap
parts:
  base:
    plugin: nil
  override:
    plugin: nil
`
	if err := os.WriteFile(manifestPath, []byte(manifest), 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	partsDir := filepath.Join(dir, "parts")
	writeTree(t, filepath.Join(partsDir, "base"), map[string]string{
		"x/y.txt": "from base",
	})
	writeTree(t, filepath.Join(partsDir, "override"), map[string]string{
		"x/y.txt": "from override",
	})

	outputDir := filepath.Join(dir, "bundle")
	result, err := a.Assemble(context.Background(), &AssembleRequest{
		ManifestPath: manifestPath,
		PartsDir:     partsDir,
		OutputDir:    outputDir,
	})
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	entry, _ := result.Tree.Lookup("x/y.txt")
	if entry.Part != "override" {
		t.Errorf("winner = %q, want %q", entry.Part, "override")
	}

	overwrites := result.Tree.Overwrites()
	if len(overwrites) != 1 {
		t.Fatalf("expected 1 recorded overwrite, got %d", len(overwrites))
	}
	if overwrites[0].Loser != "base" || overwrites[0].Winner != "override" {
		t.Errorf("overwrite = %+v", overwrites[0])
	}

	data, err := os.ReadFile(filepath.Join(outputDir, "x", "y.txt"))
	if err != nil {
		t.Fatalf("failed to read materialized file: %v", err)
	}
	if string(data) != "from override" {
		t.Errorf("materialized content = %q, want the later part's file", data)
	}
}

func TestAssemble_StrictConflicts(t *testing.T) {
	a := testAssembler()
	dir := t.TempDir()

	manifestPath := filepath.Join(dir, "bundle.yaml")
	manifest := `
name: overlap
parts:
  base:
    plugin: nil
  override:
    plugin: nil
`
	if err := os.WriteFile(manifestPath, []byte(manifest), 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	partsDir := filepath.Join(dir, "parts")
	writeTree(t, filepath.Join(partsDir, "base"), map[string]string{"f": "1"})
	writeTree(t, filepath.Join(partsDir, "override"), map[string]string{"f": "2"})

	_, err := a.Assemble(context.Background(), &AssembleRequest{
		ManifestPath:    manifestPath,
		PartsDir:        partsDir,
		OutputDir:       filepath.Join(dir, "bundle"),
		StrictConflicts: true,
	})
	if !errors.Is(err, merger.ErrConflict) {
		t.Errorf("expected ErrConflict in strict mode, got %v", err)
	}
}

func TestAssemble_MissingCommand(t *testing.T) {
	a := testAssembler()
	dir := t.TempDir()

	manifestPath := filepath.Join(dir, "bundle.yaml")
	manifest := `
name: broken
parts:
  probert:
    plugin: python
apps:
  probert:
    command: usr/bin/missing
`
	if err := os.WriteFile(manifestPath, []byte(manifest), 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	partsDir := filepath.Join(dir, "parts")
	writeTree(t, filepath.Join(partsDir, "probert"), map[string]string{"bin/probert": "x"})

	_, err := a.Assemble(context.Background(), &AssembleRequest{
		ManifestPath: manifestPath,
		PartsDir:     partsDir,
		OutputDir:    filepath.Join(dir, "bundle"),
	})
	if !errors.Is(err, linker.ErrMissingCommand) {
		t.Errorf("expected ErrMissingCommand, got %v", err)
	}
}

func TestAssemble_IntraPartCollisionAborts(t *testing.T) {
	a := testAssembler()
	dir := t.TempDir()

	manifestPath := filepath.Join(dir, "bundle.yaml")
	manifest := `
name: broken
parts:
  collider:
    organize:
      bin/a: usr/bin/tool
      bin/b: usr/bin/tool
`
	if err := os.WriteFile(manifestPath, []byte(manifest), 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	partsDir := filepath.Join(dir, "parts")
	writeTree(t, filepath.Join(partsDir, "collider"), map[string]string{
		"bin/a": "a",
		"bin/b": "b",
	})

	outputDir := filepath.Join(dir, "bundle")
	_, err := a.Assemble(context.Background(), &AssembleRequest{
		ManifestPath: manifestPath,
		PartsDir:     partsDir,
		OutputDir:    outputDir,
	})
	if !errors.Is(err, resolver.ErrRule) {
		t.Errorf("expected ErrRule, got %v", err)
	}
	if _, statErr := os.Stat(outputDir); !os.IsNotExist(statErr) {
		t.Error("no partial bundle may be produced on rule errors")
	}
}

func TestAssemble_ParallelJobs(t *testing.T) {
	a := testAssembler()
	manifestPath, partsDir := setupInstaller(t)

	// Same result regardless of resolution parallelism.
	serial, err := a.Assemble(context.Background(), &AssembleRequest{
		ManifestPath: manifestPath,
		PartsDir:     partsDir,
		Jobs:         1,
		DryRun:       true,
	})
	if err != nil {
		t.Fatalf("Assemble() serial error = %v", err)
	}
	parallel, err := a.Assemble(context.Background(), &AssembleRequest{
		ManifestPath: manifestPath,
		PartsDir:     partsDir,
		Jobs:         8,
		DryRun:       true,
	})
	if err != nil {
		t.Fatalf("Assemble() parallel error = %v", err)
	}

	if serial.Tree.Len() != parallel.Tree.Len() {
		t.Errorf("tree size differs: serial=%d parallel=%d", serial.Tree.Len(), parallel.Tree.Len())
	}
	for i, path := range serial.Tree.Paths() {
		if parallel.Tree.Paths()[i] != path {
			t.Fatalf("path %d differs: %q vs %q", i, path, parallel.Tree.Paths()[i])
		}
	}
}

func TestLint(t *testing.T) {
	a := testAssembler()
	manifestPath, _ := setupInstaller(t)

	result, err := a.Lint(&LintRequest{ManifestPath: manifestPath})
	if err != nil {
		t.Fatalf("Lint() error = %v", err)
	}
	if result.Manifest.Name != "installer" {
		t.Errorf("Name = %q, want %q", result.Manifest.Name, "installer")
	}
}
