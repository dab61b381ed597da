package integration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danieljhkim/partforge/internal/assembler"
	"github.com/danieljhkim/partforge/internal/clock"
	"github.com/danieljhkim/partforge/internal/fsops"
	"github.com/danieljhkim/partforge/internal/hash"
	"github.com/danieljhkim/partforge/internal/observability"
)

// newAssembler wires a real filesystem and hasher behind a frozen clock,
// so reports carry deterministic timestamps.
func newAssembler() *assembler.Assembler {
	return assembler.New(
		fsops.NewRealFS(),
		hash.NewSHA256Hasher(),
		clock.NewFakeClock(time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)),
		observability.Discard(),
	)
}

// workspace is a throwaway on-disk project layout: a manifest, a parts
// directory with built part outputs, and a destination for the bundle.
type workspace struct {
	ManifestPath string
	PartsDir     string
	OutputDir    string
}

func newWorkspace(t *testing.T, manifest string) *workspace {
	t.Helper()
	root := t.TempDir()

	manifestPath := filepath.Join(root, "bundle.yaml")
	if err := os.WriteFile(manifestPath, []byte(manifest), 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	partsDir := filepath.Join(root, "parts")
	if err := os.MkdirAll(partsDir, 0755); err != nil {
		t.Fatalf("failed to create parts dir: %v", err)
	}

	return &workspace{
		ManifestPath: manifestPath,
		PartsDir:     partsDir,
		OutputDir:    filepath.Join(root, "bundle"),
	}
}

// addPart writes a built part's install tree under parts/<name>/install.
func (w *workspace) addPart(t *testing.T, name string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(w.PartsDir, name, "install", filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("failed to create dir for %s: %v", rel, err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", rel, err)
		}
	}
}

func (w *workspace) request() *assembler.AssembleRequest {
	return &assembler.AssembleRequest{
		ManifestPath: w.ManifestPath,
		PartsDir:     w.PartsDir,
		OutputDir:    w.OutputDir,
		Jobs:         2,
	}
}

// readBundleFile reads a file out of the materialized bundle tree.
func (w *workspace) readBundleFile(t *testing.T, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(w.OutputDir, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("failed to read bundle file %s: %v", rel, err)
	}
	return string(data)
}
