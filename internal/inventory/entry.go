package inventory

import (
	"fmt"
	"sort"
	"strings"
)

// Section is the pg_dump section an entry belongs to.
type Section string

const (
	SectionNone     Section = "None"
	SectionPreData  Section = "Pre-Data"
	SectionData     Section = "Data"
	SectionPostData Section = "Post-Data"
)

// Entry is one schema object of a dump.
type Entry struct {
	ID           int     `yaml:"id" json:"id"`
	Kind         Kind    `yaml:"kind" json:"kind"`
	Name         string  `yaml:"name" json:"name"`
	Namespace    string  `yaml:"namespace,omitempty" json:"namespace,omitempty"`
	Owner        string  `yaml:"owner,omitempty" json:"owner,omitempty"`
	Section      Section `yaml:"section,omitempty" json:"section,omitempty"`
	Dependencies []int   `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`
	Definition   string  `yaml:"definition" json:"definition"`
}

// QualifiedName returns namespace.name, or just the name when there is no
// namespace.
func (e *Entry) QualifiedName() string {
	if e.Namespace == "" {
		return e.Name
	}
	return e.Namespace + "." + e.Name
}

func (e *Entry) String() string {
	return fmt.Sprintf("%d %s %s", e.ID, e.Kind, e.QualifiedName())
}

// DependsOn reports whether id is among the entry's dependencies.
func (e *Entry) DependsOn(id int) bool {
	for _, dep := range e.Dependencies {
		if dep == id {
			return true
		}
	}
	return false
}

// Inventory is an ordered, schema-only description of a database.
type Inventory struct {
	DumpVersion   string   `yaml:"dump_version,omitempty" json:"dump_version,omitempty"`
	ServerVersion string   `yaml:"server_version,omitempty" json:"server_version,omitempty"`
	Entries       []*Entry `yaml:"entries" json:"entries"`
}

// Index maps entry ids to entries. Duplicate ids are an error.
func (inv *Inventory) Index() (map[int]*Entry, error) {
	index := make(map[int]*Entry, len(inv.Entries))
	for _, e := range inv.Entries {
		if prev, ok := index[e.ID]; ok {
			return nil, fmt.Errorf("duplicate dump id %d (%s and %s)", e.ID, prev.Kind, e.Kind)
		}
		index[e.ID] = e
	}
	return index, nil
}

// MaxID returns the highest entry id, or 0 for an empty inventory.
func (inv *Inventory) MaxID() int {
	max := 0
	for _, e := range inv.Entries {
		if e.ID > max {
			max = e.ID
		}
	}
	return max
}

// Normalize canonicalizes kinds and fills missing sections from the kind
// registry.
func (inv *Inventory) Normalize() {
	for _, e := range inv.Entries {
		e.Kind = ParseKind(string(e.Kind))
		e.Namespace = strings.TrimSpace(e.Namespace)
		if e.Namespace == "-" {
			e.Namespace = ""
		}
		if e.Section == "" {
			if info, ok := Lookup(e.Kind); ok {
				e.Section = info.Section
			}
		}
	}
}

// IDSet is a set of dump ids.
type IDSet map[int]struct{}

// NewIDSet returns a set holding ids.
func NewIDSet(ids ...int) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IDSet) Add(ids ...int) {
	for _, id := range ids {
		s[id] = struct{}{}
	}
}

func (s IDSet) Remove(id int) {
	delete(s, id)
}

func (s IDSet) Has(id int) bool {
	_, ok := s[id]
	return ok
}

// Merge adds every id of other to s.
func (s IDSet) Merge(other IDSet) {
	for id := range other {
		s[id] = struct{}{}
	}
}

// Sorted returns the ids in ascending order. The result is never nil.
func (s IDSet) Sorted() []int {
	ids := make([]int, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
