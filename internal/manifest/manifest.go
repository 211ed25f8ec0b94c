// Package manifest persists the list of generated project files and the
// dependencies between them. It is the hand-off to diff and deploy tooling.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// FileName is the manifest's name at the project root.
const FileName = "MANIFEST.pgl"

// Sentinel ids for files that do not correspond to a single dump entry.
const (
	DirectivesID = -1
	OperatorsID  = -2
)

// Entry describes one generated file.
type Entry struct {
	ID   int    `yaml:"id"`
	Path string `yaml:"path"`
	// Includes holds the ids of child entries folded into the file.
	Includes []int `yaml:"includes"`
	// Dependencies holds ids the file depends on that live in other files.
	Dependencies []int `yaml:"dependencies"`
}

// Manifest is ordered by generation.
type Manifest struct {
	Entries []Entry `yaml:"files"`
}

func (m *Manifest) Add(e Entry) {
	e.Includes = sortedCopy(e.Includes)
	e.Dependencies = sortedCopy(e.Dependencies)
	m.Entries = append(m.Entries, e)
}

// Find returns the entry for path.
func (m *Manifest) Find(path string) (Entry, bool) {
	for _, e := range m.Entries {
		if e.Path == path {
			return e, true
		}
	}
	return Entry{}, false
}

// Validate checks the invariants downstream tooling relies on: unique paths
// and no file depending on something it includes itself.
func (m *Manifest) Validate() error {
	paths := make(map[string]bool, len(m.Entries))
	for _, e := range m.Entries {
		if paths[e.Path] {
			return fmt.Errorf("duplicate manifest path %s", e.Path)
		}
		paths[e.Path] = true

		included := make(map[int]bool, len(e.Includes))
		for _, id := range e.Includes {
			included[id] = true
		}
		for _, dep := range e.Dependencies {
			if included[dep] || dep == e.ID {
				return fmt.Errorf("%s depends on %d which it includes", e.Path, dep)
			}
		}
	}
	return nil
}

// Write stores m under root. The file is written to a temporary name first
// and renamed so a reader never sees a partial manifest.
func Write(root string, m *Manifest) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("invalid manifest: %w", err)
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	tmp, err := os.CreateTemp(root, "."+FileName+"-*")
	if err != nil {
		return fmt.Errorf("failed to create manifest: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(root, FileName)); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// Read loads the manifest stored under root.
func Read(root string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(root, FileName))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	for i := range m.Entries {
		if m.Entries[i].Includes == nil {
			m.Entries[i].Includes = []int{}
		}
		if m.Entries[i].Dependencies == nil {
			m.Entries[i].Dependencies = []int{}
		}
	}
	return &m, nil
}

func sortedCopy(ids []int) []int {
	out := make([]int, len(ids))
	copy(out, ids)
	sort.Ints(out)
	return out
}
