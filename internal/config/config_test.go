package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.PartsDir != "parts" {
		t.Errorf("PartsDir = %q, want %q", cfg.PartsDir, "parts")
	}
	if cfg.OutputDir != "bundle" {
		t.Errorf("OutputDir = %q, want %q", cfg.OutputDir, "bundle")
	}
	if cfg.Jobs <= 0 {
		t.Errorf("Jobs = %d, want > 0", cfg.Jobs)
	}
	if cfg.StrictConflicts {
		t.Error("StrictConflicts should default to false")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "partforge.toml")
	content := `
parts_dir = "build/parts"
output_dir = "dist"
jobs = 4
strict_conflicts = true
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.PartsDir != "build/parts" {
		t.Errorf("PartsDir = %q, want %q", cfg.PartsDir, "build/parts")
	}
	if cfg.OutputDir != "dist" {
		t.Errorf("OutputDir = %q, want %q", cfg.OutputDir, "dist")
	}
	if cfg.Jobs != 4 {
		t.Errorf("Jobs = %d, want 4", cfg.Jobs)
	}
	if !cfg.StrictConflicts {
		t.Error("StrictConflicts = false, want true")
	}
}

func TestLoad_PartialKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "partforge.toml")
	if err := os.WriteFile(path, []byte("jobs = 2\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Jobs != 2 {
		t.Errorf("Jobs = %d, want 2", cfg.Jobs)
	}
	if cfg.PartsDir != "parts" {
		t.Errorf("PartsDir = %q, want default %q", cfg.PartsDir, "parts")
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "invalid toml", content: "parts_dir = [unclosed"},
		{name: "negative jobs", content: "jobs = -1"},
		{name: "empty parts dir", content: `parts_dir = ""`},
		{name: "empty output dir", content: `output_dir = ""`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "partforge.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}
			if _, err := Load(path); err == nil {
				t.Error("Load() expected error, got nil")
			}
		})
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}
