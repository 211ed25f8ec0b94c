package generate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/kadirbelkuyu/pglifecycle/internal/inventory"
	"github.com/kadirbelkuyu/pglifecycle/internal/manifest"
	"github.com/kadirbelkuyu/pglifecycle/pkg/logger"
	"github.com/kadirbelkuyu/pglifecycle/pkg/progress"
)

const gitkeepFile = ".gitkeep"

// CheckDestination fails when root exists with content and force is not
// set, or when a forced run would replace an existing manifest. It does not
// touch the filesystem.
func CheckDestination(root string, force bool) error {
	info, err := os.Stat(root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to inspect destination: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrDestinationExists, root)
	}
	if force {
		if _, err := os.Lstat(filepath.Join(root, manifest.FileName)); err == nil {
			return fmt.Errorf("%w: %s already exists", ErrPathCollision, manifest.FileName)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to inspect destination: %w", err)
		}
		return nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("failed to inspect destination: %w", err)
	}
	if len(entries) > 0 {
		return fmt.Errorf("%w: %s is not empty (use --force to write into it)", ErrDestinationExists, root)
	}
	return nil
}

// scaffold creates the project root and one directory per object category.
// It returns the directories it is responsible for, parents included.
func scaffold(root string) ([]string, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create destination: %w", err)
	}

	seen := make(map[string]bool)
	var dirs []string
	for _, dir := range inventory.Directories() {
		for d := dir; d != "." && !seen[d]; d = filepath.ToSlash(filepath.Dir(d)) {
			seen[d] = true
			dirs = append(dirs, d)
		}
		if err := os.MkdirAll(filepath.Join(root, filepath.FromSlash(dir)), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	// Deepest first, so parents are looked at after their children.
	sort.Sort(sort.Reverse(sort.StringSlice(dirs)))
	return dirs, nil
}

// tidy either drops a .gitkeep into each empty scaffolded directory or
// removes the empty ones.
func tidy(root string, dirs []string, gitkeep, removeEmpty bool) error {
	if !gitkeep && !removeEmpty {
		return nil
	}

	for _, dir := range dirs {
		full := filepath.Join(root, filepath.FromSlash(dir))
		entries, err := os.ReadDir(full)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to inspect %s: %w", dir, err)
		}
		if len(entries) > 0 {
			continue
		}

		if removeEmpty {
			if err := os.Remove(full); err != nil {
				return fmt.Errorf("failed to remove empty directory %s: %w", dir, err)
			}
			continue
		}
		if err := os.WriteFile(filepath.Join(full, gitkeepFile), nil, 0o644); err != nil {
			return fmt.Errorf("failed to create %s in %s: %w", gitkeepFile, dir, err)
		}
	}
	return nil
}

// materializer writes records below a project root.
type materializer struct {
	root string
	log  *logger.Logger
	bar  *progress.Bar
}

// write creates the record's file. A file already present at the path is a
// collision and is never overwritten.
func (m *materializer) write(rec *Record) error {
	target := filepath.Join(m.root, filepath.FromSlash(rec.Path))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", rec.Path, err)
	}

	file, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s already exists", ErrPathCollision, rec.Path)
		}
		return fmt.Errorf("failed to create %s: %w", rec.Path, err)
	}

	if _, err := file.WriteString(rec.Render()); err != nil {
		file.Close()
		return fmt.Errorf("failed to write %s: %w", rec.Path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", rec.Path, err)
	}

	m.log.Debugf("wrote %s (%d children)", rec.Path, len(rec.Includes))
	m.bar.Step(shortPath(rec.Path))
	return nil
}

func shortPath(p string) string {
	if len(p) <= 40 {
		return p
	}
	return "..." + p[len(p)-37:]
}
