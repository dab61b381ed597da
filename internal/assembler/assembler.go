// Package assembler orchestrates one bundle assembly run.
//
// The assembler is the API surface called by the CLI. It loads the
// manifest, scans each part's built output tree, resolves parts in
// parallel (parts never read each other's outputs), folds the resolved
// contributions into the merged tree sequentially in declared part order,
// links the declared apps against the frozen tree, and finally
// materializes the bundle plus its descriptors on disk.
package assembler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/danieljhkim/partforge/internal/clock"
	"github.com/danieljhkim/partforge/internal/fsops"
	"github.com/danieljhkim/partforge/internal/hash"
	"github.com/danieljhkim/partforge/internal/linker"
	"github.com/danieljhkim/partforge/internal/manifest"
	"github.com/danieljhkim/partforge/internal/merger"
	"github.com/danieljhkim/partforge/internal/resolver"
)

// Assembler orchestrates all partforge operations.
type Assembler struct {
	fs     fsops.FS
	hasher hash.Hasher
	clock  clock.Clock
	log    zerolog.Logger
}

// New creates a new Assembler with the given dependencies.
func New(fs fsops.FS, hasher hash.Hasher, clk clock.Clock, log zerolog.Logger) *Assembler {
	return &Assembler{
		fs:     fs,
		hasher: hasher,
		clock:  clk,
		log:    log,
	}
}

// Assemble runs one full assembly: manifest -> scan -> resolve -> merge
// -> link -> materialize. With DryRun set it stops after linking and
// returns the plan without touching the output directory.
func (a *Assembler) Assemble(ctx context.Context, req *AssembleRequest) (*AssembleResult, error) {
	startedAt := a.clock.Now()

	m, err := manifest.Load(req.ManifestPath)
	if err != nil {
		return nil, err
	}
	a.log.Info().Str("bundle", m.Name).Int("parts", len(m.Parts)).Msg("manifest loaded")

	resolved, partReports, err := a.resolveParts(ctx, m, req.PartsDir, req.Jobs)
	if err != nil {
		return nil, err
	}

	tree, err := merger.Merge(resolved, req.StrictConflicts)
	if err != nil {
		return nil, err
	}
	for _, ow := range tree.Overwrites() {
		a.log.Warn().
			Str("path", ow.Path).
			Str("loser", ow.Loser).
			Str("winner", ow.Winner).
			Bool("identical", ow.Identical()).
			Msg("path overwritten by later part")
	}
	a.log.Info().Int("files", tree.Len()).Int("overwrites", len(tree.Overwrites())).Msg("merge complete")

	apps, err := linker.Link(tree, m.Apps)
	if err != nil {
		return nil, err
	}
	a.log.Info().Int("apps", len(apps)).Msg("apps linked")

	report := &Report{
		Name:       m.Name,
		Version:    m.Version,
		Parts:      partReports,
		FileCount:  tree.Len(),
		Overwrites: tree.Overwrites(),
		StartedAt:  startedAt,
	}

	result := &AssembleResult{
		Manifest: m,
		Tree:     tree,
		Apps:     apps,
		Report:   report,
	}

	if req.DryRun {
		report.FinishedAt = a.clock.Now()
		return result, nil
	}

	if err := a.materialize(tree, apps, req.OutputDir); err != nil {
		return nil, err
	}
	report.FinishedAt = a.clock.Now()
	if err := a.writeReport(report, req.OutputDir); err != nil {
		return nil, err
	}
	result.OutputDir = req.OutputDir

	a.log.Info().Str("output", req.OutputDir).Msg("bundle written")
	return result, nil
}

// Lint parses and structurally validates a manifest without scanning any
// part outputs.
func (a *Assembler) Lint(req *LintRequest) (*LintResult, error) {
	m, err := manifest.Load(req.ManifestPath)
	if err != nil {
		return nil, err
	}
	return &LintResult{Manifest: m}, nil
}

// resolveParts scans and resolves every part concurrently. Each part
// operates on its own immutable input tree, so the only coordination
// needed is slotting results back into declared order for the merge fold.
func (a *Assembler) resolveParts(ctx context.Context, m *manifest.Manifest, partsDir string, jobs int) ([]resolver.ResolvedPart, []PartReport, error) {
	resolved := make([]resolver.ResolvedPart, len(m.Parts))
	reports := make([]PartReport, len(m.Parts))

	g, ctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}

	for i, part := range m.Parts {
		i, part := i, part
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			outputTree, err := a.scanPartOutput(part.Name, partsDir)
			if err != nil {
				return err
			}

			rp, err := resolver.Resolve(part, outputTree)
			if err != nil {
				return err
			}

			a.log.Debug().
				Str("part", part.Name).
				Int("scanned", len(outputTree)).
				Int("staged", len(rp.Files)).
				Msg("part resolved")

			resolved[i] = rp
			reports[i] = PartReport{
				Name:         part.Name,
				ScannedFiles: len(outputTree),
				StagedFiles:  len(rp.Files),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("part resolution failed: %w", err)
	}
	return resolved, reports, nil
}
