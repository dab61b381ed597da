// Package rules implements the ordered pattern-rule primitive shared by
// part staging and organize evaluation.
//
// Both mechanisms walk an ordered rule list against slash-separated relative
// paths. Staging folds the full list and lets the last matching rule decide
// whether a path is kept; organize stops at the first matching rule and
// rewrites the path exactly once. Patterns match path segments: `*` matches
// within a single segment, and a pattern that matches a leading prefix of a
// path's segments matches the directory and everything beneath it. A trailing
// `/` marks a directory pattern explicitly but carries the same meaning.
package rules

import (
	"fmt"
	"path"
	"strings"
)

// Pattern is a compiled segment-glob pattern.
type Pattern struct {
	raw      string
	segments []string
}

// Compile parses a pattern into segment form.
// Returns an error for empty, absolute, or syntactically invalid patterns.
func Compile(raw string) (Pattern, error) {
	if raw == "" {
		return Pattern{}, fmt.Errorf("empty pattern")
	}
	if strings.HasPrefix(raw, "/") {
		return Pattern{}, fmt.Errorf("pattern %q must be relative", raw)
	}

	// A trailing slash names a directory; matching covers everything
	// beneath it either way, so the slash is normalized away.
	trimmed := strings.TrimSuffix(raw, "/")
	segments := strings.Split(trimmed, "/")

	// Validate each segment's glob syntax up front so rule evaluation
	// cannot fail halfway through a fold.
	for _, seg := range segments {
		if seg == "" {
			return Pattern{}, fmt.Errorf("pattern %q contains an empty segment", raw)
		}
		if _, err := path.Match(seg, "probe"); err != nil {
			return Pattern{}, fmt.Errorf("pattern %q: %w", raw, err)
		}
	}

	return Pattern{raw: raw, segments: segments}, nil
}

// MustCompile is Compile for patterns known valid at authoring time.
// It panics on error and exists for tests and fixed defaults.
func MustCompile(raw string) Pattern {
	p, err := Compile(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the original pattern text.
func (p Pattern) String() string {
	return p.raw
}

// Match reports whether the pattern matches relPath. The pattern's segments
// must each glob-match the corresponding path segment; if the pattern is
// shorter than the path, the match is a directory-prefix match and covers
// everything beneath it.
func (p Pattern) Match(relPath string) bool {
	matched, _ := p.matchSegments(relPath)
	return matched
}

// MatchPrefix reports whether the pattern matches relPath, and if the match
// was a directory-prefix match, the remaining path segments below the
// matched prefix (empty for an exact match).
func (p Pattern) MatchPrefix(relPath string) (matched bool, remainder string) {
	return p.matchSegments(relPath)
}

func (p Pattern) matchSegments(relPath string) (bool, string) {
	segs := strings.Split(relPath, "/")
	if len(segs) < len(p.segments) {
		return false, ""
	}
	for i, pat := range p.segments {
		ok, err := path.Match(pat, segs[i])
		if err != nil || !ok {
			return false, ""
		}
	}
	if len(segs) == len(p.segments) {
		return true, ""
	}
	return true, strings.Join(segs[len(p.segments):], "/")
}

// StageRule is one entry of a part's ordered stage list.
type StageRule struct {
	Pattern Pattern
	Exclude bool
}

// ParseStageRule parses a manifest stage entry. A leading `-` marks the
// entry as an exclusion.
func ParseStageRule(entry string) (StageRule, error) {
	exclude := false
	if strings.HasPrefix(entry, "-") {
		exclude = true
		entry = entry[1:]
	}
	pat, err := Compile(entry)
	if err != nil {
		return StageRule{}, err
	}
	return StageRule{Pattern: pat, Exclude: exclude}, nil
}

// Staged reports whether relPath survives the ordered stage rule list.
// The last matching rule decides. When no rule matches, the path is kept
// only if the list declares no include rules at all (a list of pure
// exclusions peels paths away from an implicit include-everything default,
// while a list with explicit includes stages nothing else).
func Staged(relPath string, stageRules []StageRule) bool {
	decided := false
	keep := false
	hasInclude := false
	for _, r := range stageRules {
		if !r.Exclude {
			hasInclude = true
		}
		if r.Pattern.Match(relPath) {
			decided = true
			keep = !r.Exclude
		}
	}
	if decided {
		return keep
	}
	return !hasInclude
}

// OrganizeRule relocates staged paths matching Src to Dest.
type OrganizeRule struct {
	Src  Pattern
	Dest string
}

// ParseOrganizeRule parses one manifest organize entry.
func ParseOrganizeRule(src, dest string) (OrganizeRule, error) {
	pat, err := Compile(src)
	if err != nil {
		return OrganizeRule{}, fmt.Errorf("organize source: %w", err)
	}
	if dest == "" {
		return OrganizeRule{}, fmt.Errorf("organize rule %q has an empty destination", src)
	}
	if strings.HasPrefix(dest, "/") {
		return OrganizeRule{}, fmt.Errorf("organize destination %q must be relative", dest)
	}

	// Destinations are stored clean so equivalent spellings (a//b, a/./b)
	// produce one merged-tree key. A trailing slash keeps its
	// place-under-directory meaning.
	cleaned := path.Clean(dest)
	if cleaned == "." || cleaned == ".." {
		return OrganizeRule{}, fmt.Errorf("organize destination %q does not name a path", dest)
	}
	if strings.HasSuffix(dest, "/") {
		cleaned += "/"
	}
	return OrganizeRule{Src: pat, Dest: cleaned}, nil
}

// Organize rewrites relPath through the ordered organize rule list.
// The first matching rule wins and is applied exactly once; the rewritten
// path is never re-fed to later rules. Paths matching no rule pass through
// unchanged.
func Organize(relPath string, organizeRules []OrganizeRule) string {
	for _, r := range organizeRules {
		matched, remainder := r.Src.MatchPrefix(relPath)
		if !matched {
			continue
		}
		return r.rewrite(relPath, remainder)
	}
	return relPath
}

// rewrite computes the destination path for a matched source path.
// A destination ending in `/` places the source under that directory; a
// directory-prefix match carries the remainder below the destination.
func (r OrganizeRule) rewrite(relPath, remainder string) string {
	dest := strings.TrimSuffix(r.Dest, "/")
	if remainder != "" {
		return dest + "/" + remainder
	}
	if strings.HasSuffix(r.Dest, "/") {
		return dest + "/" + path.Base(relPath)
	}
	return dest
}
