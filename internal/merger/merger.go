// Package merger folds the resolved contributions of all parts, in
// declared order, into one frozen bundle tree.
//
// Part order is semantically meaningful: a later part legitimately
// supersedes a same-path file from an earlier part (a shared runtime
// staged by one part and overridden by the application part above it).
// Under the default policy such overwrites are recorded with provenance,
// not raised; strict mode turns any cross-part collision into a
// ConflictError for manifests that want explicit acknowledgment.
package merger

import (
	"errors"
	"fmt"
	"sort"

	"github.com/danieljhkim/partforge/internal/resolver"
)

// ErrConflict indicates a cross-part path collision under strict policy.
var ErrConflict = errors.New("conflict detected")

// ConflictError describes a cross-part collision rejected by strict mode.
type ConflictError struct {
	// Path is the colliding bundle-relative path.
	Path string

	// First is the part that staged the path earlier in declared order.
	First string

	// Second is the later part attempting to overwrite it.
	Second string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("path %q staged by both %q and %q", e.Path, e.First, e.Second)
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// Entry is the winning contribution at one merged path.
type Entry struct {
	// Ref is the content handle.
	Ref resolver.FileRef

	// Part is the part that won the path.
	Part string
}

// Overwrite records one cross-part collision resolved by part order.
type Overwrite struct {
	// Path is the bundle-relative path both parts staged.
	Path string `json:"path"`

	// Loser is the earlier part whose file was superseded.
	Loser string `json:"loser"`

	// Winner is the later part whose file is in the merged tree.
	Winner string `json:"winner"`

	// LoserDigest and WinnerDigest are the content digests of the
	// superseded and surviving files.
	LoserDigest  string `json:"loser_digest,omitempty"`
	WinnerDigest string `json:"winner_digest,omitempty"`
}

// Identical reports whether both parts staged the same content, so the
// overwrite changed which part owns the path but not what ships.
func (o Overwrite) Identical() bool {
	return o.LoserDigest != "" && o.LoserDigest == o.WinnerDigest
}

// Tree is the merged bundle tree. It is frozen once Merge returns: the
// accessors expose copies or read-only views, never the underlying map.
type Tree struct {
	entries    map[string]Entry
	overwrites []Overwrite
	parts      []string
}

// Merge folds the resolved parts in declared order into a single tree.
// With strict false, the last writer among parts wins identical paths and
// every overwrite is recorded; with strict true, the first cross-part
// collision aborts with a ConflictError.
func Merge(parts []resolver.ResolvedPart, strict bool) (*Tree, error) {
	t := &Tree{
		entries: make(map[string]Entry),
	}

	for _, part := range parts {
		t.parts = append(t.parts, part.Name)
		for _, f := range part.Files {
			if prev, ok := t.entries[f.Path]; ok {
				if strict {
					return nil, &ConflictError{Path: f.Path, First: prev.Part, Second: f.Part}
				}
				t.overwrites = append(t.overwrites, Overwrite{
					Path:         f.Path,
					Loser:        prev.Part,
					Winner:       f.Part,
					LoserDigest:  prev.Ref.Digest,
					WinnerDigest: f.Ref.Digest,
				})
			}
			t.entries[f.Path] = Entry{Ref: f.Ref, Part: f.Part}
		}
	}

	return t, nil
}

// Lookup returns the winning entry at path.
func (t *Tree) Lookup(path string) (Entry, bool) {
	e, ok := t.entries[path]
	return e, ok
}

// Contains reports whether path exists in the merged tree.
func (t *Tree) Contains(path string) bool {
	_, ok := t.entries[path]
	return ok
}

// Len returns the number of merged paths.
func (t *Tree) Len() int {
	return len(t.entries)
}

// Paths returns all merged paths, sorted.
func (t *Tree) Paths() []string {
	paths := make([]string, 0, len(t.entries))
	for p := range t.entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Parts returns the part names in merge order.
func (t *Tree) Parts() []string {
	out := make([]string, len(t.parts))
	copy(out, t.parts)
	return out
}

// Overwrites returns the conflict provenance log in detection order.
func (t *Tree) Overwrites() []Overwrite {
	out := make([]Overwrite, len(t.overwrites))
	copy(out, t.overwrites)
	return out
}
