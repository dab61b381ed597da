// Package resolver reduces one part's raw built-file tree to the staged,
// organized subset that the part contributes to the bundle.
//
// Resolution is a pure function of the part's output tree and its rule
// lists: content handles are re-pathed, never copied or mutated, and
// re-running resolution on the same inputs yields an identical result.
package resolver

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/danieljhkim/partforge/internal/manifest"
	"github.com/danieljhkim/partforge/internal/rules"
)

// ErrRule indicates a malformed or self-conflicting rule set within one
// part. Always a manifest authoring defect; aborts assembly for the whole
// manifest.
var ErrRule = errors.New("rule error")

// RuleError describes a rule defect in a single part.
type RuleError struct {
	// Part is the offending part's name.
	Part string

	// Path is the destination path involved, if any.
	Path string

	// Detail is a human-readable explanation.
	Detail string
}

func (e *RuleError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("part %q: %s: %s", e.Part, e.Path, e.Detail)
	}
	return fmt.Sprintf("part %q: %s", e.Part, e.Detail)
}

func (e *RuleError) Unwrap() error {
	return ErrRule
}

// FileRef is a content handle: a reference to built file content owned by
// the external build step. The engine re-paths handles but never reads or
// mutates the content behind them at this layer.
type FileRef struct {
	// Source is the absolute path of the built file on disk.
	Source string

	// Mode is the file's permission bits.
	Mode uint32

	// Size is the file size in bytes.
	Size int64

	// Digest is the SHA-256 content digest, hex encoded.
	Digest string
}

// StagedFile is one file a part contributes to the bundle after staging
// and organize evaluation.
type StagedFile struct {
	// Path is the bundle-relative destination path.
	Path string

	// Ref is the content handle.
	Ref FileRef

	// Part is the originating part's name.
	Part string
}

// ResolvedPart is a part's complete staged contribution, ordered by path.
type ResolvedPart struct {
	// Name is the part's name.
	Name string

	// Files is the staged file set, sorted by destination path.
	Files []StagedFile
}

// Resolve filters part's output tree through its ordered stage rules, then
// relocates the survivors through its organize rules. outputTree maps
// source-relative paths to content handles and is read-only to the engine.
//
// Two distinct sources landing on the same destination within the part is
// always a RuleError, as is any destination escaping the bundle root.
func Resolve(part manifest.Part, outputTree map[string]FileRef) (ResolvedPart, error) {
	// Deterministic iteration keeps error reporting stable across runs.
	paths := make([]string, 0, len(outputTree))
	for p := range outputTree {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	resolved := ResolvedPart{Name: part.Name}
	claimed := make(map[string]string, len(outputTree))

	for _, src := range paths {
		if err := validateRelPath(part.Name, src); err != nil {
			return ResolvedPart{}, err
		}
		if !rules.Staged(src, part.StageRules) {
			continue
		}

		dest := rules.Organize(src, part.OrganizeRules)
		if err := validateRelPath(part.Name, dest); err != nil {
			return ResolvedPart{}, err
		}

		if prev, ok := claimed[dest]; ok {
			return ResolvedPart{}, &RuleError{
				Part:   part.Name,
				Path:   dest,
				Detail: fmt.Sprintf("both %q and %q resolve to this destination", prev, src),
			}
		}
		claimed[dest] = src

		resolved.Files = append(resolved.Files, StagedFile{
			Path: dest,
			Ref:  outputTree[src],
			Part: part.Name,
		})
	}

	sort.Slice(resolved.Files, func(i, j int) bool {
		return resolved.Files[i].Path < resolved.Files[j].Path
	})
	return resolved, nil
}

// validateRelPath rejects paths that are absolute or escape the bundle
// root once cleaned.
func validateRelPath(partName, relPath string) error {
	if relPath == "" {
		return &RuleError{Part: partName, Detail: "empty path"}
	}
	if strings.HasPrefix(relPath, "/") {
		return &RuleError{Part: partName, Path: relPath, Detail: "path must be relative"}
	}
	cleaned := path.Clean(relPath)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return &RuleError{Part: partName, Path: relPath, Detail: "path escapes the bundle root"}
	}
	return nil
}
