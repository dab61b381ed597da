package assembler

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/danieljhkim/partforge/internal/resolver"
)

// installSubdir is where a part's build step deposits its finished output
// inside the part's work directory. When absent, the part directory
// itself is taken as the output tree.
const installSubdir = "install"

// scanPartOutput walks a part's built output tree on disk and builds the
// content-handle map the resolver consumes. Directories are structure,
// not content, and are not recorded; they reappear implicitly when the
// merged tree is materialized.
func (a *Assembler) scanPartOutput(partName, partsDir string) (map[string]resolver.FileRef, error) {
	root := filepath.Join(partsDir, partName, installSubdir)
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		root = filepath.Join(partsDir, partName)
	}
	if info, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("part %q: no built output at %s: %w", partName, root, err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("part %q: built output %s is not a directory", partName, root)
	}

	tree := make(map[string]resolver.FileRef)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("failed to compute relative path: %w", err)
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", path, err)
		}

		digest, err := a.hasher.HashFile(path)
		if err != nil {
			return fmt.Errorf("failed to hash %s: %w", path, err)
		}

		tree[filepath.ToSlash(rel)] = resolver.FileRef{
			Source: path,
			Mode:   uint32(info.Mode().Perm()),
			Size:   info.Size(),
			Digest: digest,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("part %q: failed to scan output tree: %w", partName, err)
	}

	return tree, nil
}
