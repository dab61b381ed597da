package assembler

import (
	"time"

	"github.com/danieljhkim/partforge/internal/linker"
	"github.com/danieljhkim/partforge/internal/manifest"
	"github.com/danieljhkim/partforge/internal/merger"
)

// AssembleRequest represents a request to assemble a bundle.
type AssembleRequest struct {
	// ManifestPath is the path of the bundle manifest.
	ManifestPath string

	// PartsDir is the directory holding per-part built output trees,
	// one subdirectory per part.
	PartsDir string

	// OutputDir is where the merged bundle is materialized.
	OutputDir string

	// Jobs bounds concurrent part resolution. Zero means GOMAXPROCS.
	Jobs int

	// StrictConflicts makes cross-part path collisions fatal.
	StrictConflicts bool

	// DryRun performs resolution, merge, and link without writing
	// anything to disk.
	DryRun bool
}

// AssembleResult represents the result of assembling a bundle.
type AssembleResult struct {
	// Manifest is the parsed manifest.
	Manifest *manifest.Manifest

	// Tree is the frozen merged bundle tree.
	Tree *merger.Tree

	// Apps is the set of linked app descriptors, in declaration order.
	Apps []linker.LinkedApp

	// Report summarizes the run for the diagnostics reporter.
	Report *Report

	// OutputDir is where the bundle was written (empty if DryRun).
	OutputDir string
}

// LintRequest represents a request to validate a manifest without
// touching part outputs.
type LintRequest struct {
	// ManifestPath is the path of the bundle manifest.
	ManifestPath string
}

// LintResult represents the result of manifest validation.
type LintResult struct {
	// Manifest is the parsed, structurally valid manifest.
	Manifest *manifest.Manifest
}

// Report summarizes one assembly run.
type Report struct {
	// Name is the bundle name.
	Name string `json:"name"`

	// Version is the bundle version.
	Version string `json:"version,omitempty"`

	// Parts holds per-part contribution counts, in merge order.
	Parts []PartReport `json:"parts"`

	// FileCount is the number of paths in the merged tree.
	FileCount int `json:"file_count"`

	// Overwrites is the conflict provenance log.
	Overwrites []merger.Overwrite `json:"overwrites,omitempty"`

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// PartReport summarizes one part's contribution.
type PartReport struct {
	// Name is the part's name.
	Name string `json:"name"`

	// ScannedFiles is the size of the part's raw output tree.
	ScannedFiles int `json:"scanned_files"`

	// StagedFiles is the number of files the part contributed after
	// stage and organize evaluation.
	StagedFiles int `json:"staged_files"`
}
