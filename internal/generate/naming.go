package generate

import (
	"fmt"
	"path"
	"strings"

	"github.com/kadirbelkuyu/pglifecycle/internal/inventory"
)

const fileExtension = ".sql"

// allocator hands out project-relative paths, unique across one run.
type allocator struct {
	used map[string]bool
}

func newAllocator() *allocator {
	return &allocator{used: make(map[string]bool)}
}

// reserve marks a path as taken, for files with fixed names.
func (a *allocator) reserve(p string) {
	a.used[p] = true
}

// allocate returns <dir>[/<namespace>]/<name>.sql for a primary entry. A
// name already taken in the directory gets _2, _3, ... appended.
func (a *allocator) allocate(e *inventory.Entry) string {
	info, _ := inventory.Lookup(e.Kind)

	dir := info.Dir
	if e.Namespace != "" {
		dir = path.Join(dir, sanitize(e.Namespace))
	}

	base := fileBase(e.Name, info.Naming)
	if base == "" {
		base = fmt.Sprintf("entry-%d", e.ID)
	}
	candidate := base
	for n := 2; a.used[path.Join(dir, candidate+fileExtension)]; n++ {
		candidate = fmt.Sprintf("%s_%d", base, n)
	}

	p := path.Join(dir, candidate+fileExtension)
	a.used[p] = true
	return p
}

func fileBase(name string, naming inventory.Naming) string {
	if naming == inventory.NameSignature {
		if open := strings.Index(name, "("); open >= 0 {
			params := name[open+1:]
			if end := strings.LastIndex(params, ")"); end >= 0 {
				params = params[:end]
			}
			return fmt.Sprintf("%s-%d", sanitize(name[:open]), arity(params))
		}
	}
	return sanitize(name)
}

// arity counts the top-level parameters of a signature's parameter list.
// Commas nested in parentheses, as in numeric(10,2), do not count.
func arity(params string) int {
	if strings.TrimSpace(params) == "" {
		return 0
	}
	count, depth := 1, 0
	for _, r := range params {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				count++
			}
		}
	}
	return count
}

// sanitize replaces whitespace runs with hyphens and path separators with
// underscores.
func sanitize(name string) string {
	name = strings.Join(strings.Fields(name), "-")
	return strings.NewReplacer("/", "_", `\`, "_").Replace(name)
}
