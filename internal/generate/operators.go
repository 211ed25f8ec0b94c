package generate

import (
	"container/heap"
	"sort"
	"strings"

	"github.com/kadirbelkuyu/pglifecycle/internal/inventory"
	"github.com/kadirbelkuyu/pglifecycle/internal/manifest"
	"github.com/kadirbelkuyu/pglifecycle/pkg/logger"
)

const (
	operatorsFile   = "operators.sql"
	operatorsHeader = "Operators, operator classes and operator families in dependency order"
)

// buildOperatorBatch sorts operator entries so that every entry follows the
// operator entries it depends on and returns them as a single record.
// Dependencies on anything other than operators become dependencies of the
// file. It returns nil when there are no operators.
func buildOperatorBatch(entries []*inventory.Entry, log *logger.Logger) *Record {
	if len(entries) == 0 {
		return nil
	}

	rec := newBatchRecord(manifest.OperatorsID, inventory.KindOperator, operatorsFile, operatorsHeader)
	byID := make(map[int]*inventory.Entry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
		rec.Includes.Add(e.ID)
	}

	sorted := topoSort(entries, byID)
	if len(sorted) < len(entries) {
		placed := inventory.NewIDSet()
		for _, e := range sorted {
			placed.Add(e.ID)
		}
		var rest []*inventory.Entry
		for _, e := range entries {
			if !placed.Has(e.ID) {
				rest = append(rest, e)
			}
		}
		sort.Slice(rest, func(i, j int) bool { return rest[i].ID < rest[j].ID })
		log.Warnf("operator dependency cycle between %s, emitting them in id order", describeEntries(rest))
		sorted = append(sorted, rest...)
	}

	definitions := make([]string, 0, len(sorted))
	for _, e := range sorted {
		definitions = append(definitions, strings.TrimSpace(e.Definition))
		for _, dep := range e.Dependencies {
			if _, internal := byID[dep]; !internal {
				rec.Dependencies.Add(dep)
			}
		}
	}
	rec.body = strings.Join(definitions, "\n")

	return rec
}

// topoSort is Kahn's algorithm over the operator entries. Among entries
// that are ready at the same time the lowest id goes first.
func topoSort(entries []*inventory.Entry, byID map[int]*inventory.Entry) []*inventory.Entry {
	indegree := make(map[int]int, len(entries))
	dependents := make(map[int][]int, len(entries))
	for _, e := range entries {
		deps := inventory.NewIDSet()
		for _, dep := range e.Dependencies {
			if _, ok := byID[dep]; ok && dep != e.ID {
				deps.Add(dep)
			}
		}
		indegree[e.ID] = len(deps)
		for dep := range deps {
			dependents[dep] = append(dependents[dep], e.ID)
		}
	}

	ready := &idHeap{}
	for _, e := range entries {
		if indegree[e.ID] == 0 {
			heap.Push(ready, e.ID)
		}
	}

	sorted := make([]*inventory.Entry, 0, len(entries))
	for ready.Len() > 0 {
		id := heap.Pop(ready).(int)
		sorted = append(sorted, byID[id])
		for _, next := range dependents[id] {
			indegree[next]--
			if indegree[next] == 0 {
				heap.Push(ready, next)
			}
		}
	}
	return sorted
}

type idHeap []int

func (h idHeap) Len() int           { return len(h) }
func (h idHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h idHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *idHeap) Push(x any) { *h = append(*h, x.(int)) }

func (h *idHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
