package generate

import (
	"fmt"
	"strings"

	"github.com/kadirbelkuyu/pglifecycle/internal/inventory"
	"github.com/kadirbelkuyu/pglifecycle/internal/manifest"
)

// Record is one generated file: a primary object, or a batch file such as
// the directives preamble, plus every child folded into it.
type Record struct {
	ID    int
	Kind  inventory.Kind
	Path  string
	Entry *inventory.Entry

	Dependencies inventory.IDSet
	Includes     inventory.IDSet
	Children     map[inventory.Kind][]string

	header string
	body   string
}

func newRecord(e *inventory.Entry) *Record {
	info, _ := inventory.Lookup(e.Kind)
	return &Record{
		ID:           e.ID,
		Kind:         e.Kind,
		Entry:        e,
		Dependencies: inventory.NewIDSet(e.Dependencies...),
		Includes:     inventory.NewIDSet(),
		Children:     make(map[inventory.Kind][]string),
		header:       fmt.Sprintf("%s: %s", info.Title, e.QualifiedName()),
		body:         e.Definition,
	}
}

func newBatchRecord(id int, kind inventory.Kind, path, header string) *Record {
	return &Record{
		ID:           id,
		Kind:         kind,
		Path:         path,
		Dependencies: inventory.NewIDSet(),
		Includes:     inventory.NewIDSet(),
		Children:     make(map[inventory.Kind][]string),
		header:       header,
	}
}

// attach folds child into the record. Dependencies of the child become
// dependencies of the file.
func (r *Record) attach(child *inventory.Entry) {
	r.Children[child.Kind] = append(r.Children[child.Kind], child.Definition)
	r.Includes.Add(child.ID)
	for _, dep := range child.Dependencies {
		if dep != r.ID {
			r.Dependencies.Add(dep)
		}
	}
}

// ExternalDependencies returns the dependencies not satisfied inside the
// file itself.
func (r *Record) ExternalDependencies() []int {
	external := inventory.NewIDSet()
	for dep := range r.Dependencies {
		if dep == r.ID || r.Includes.Has(dep) {
			continue
		}
		external.Add(dep)
	}
	return external.Sorted()
}

func (r *Record) ManifestEntry() manifest.Entry {
	return manifest.Entry{
		ID:           r.ID,
		Path:         r.Path,
		Includes:     r.Includes.Sorted(),
		Dependencies: r.ExternalDependencies(),
	}
}

// Render returns the file content: header, definition, then each child kind
// under its own header in ChildOrder.
func (r *Record) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "-- %s\n", r.header)

	if body := strings.TrimSpace(r.body); body != "" {
		b.WriteString("\n")
		b.WriteString(body)
		b.WriteString("\n")
	}

	for _, kind := range inventory.ChildOrder {
		texts := r.Children[kind]
		if len(texts) == 0 {
			continue
		}
		info, _ := inventory.Lookup(kind)
		fmt.Fprintf(&b, "\n-- %s\n", info.Title)
		for _, text := range texts {
			b.WriteString("\n")
			b.WriteString(strings.TrimSpace(text))
			b.WriteString("\n")
		}
	}

	return b.String()
}
