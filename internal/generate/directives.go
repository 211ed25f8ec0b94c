package generate

import (
	"strings"

	"github.com/kadirbelkuyu/pglifecycle/internal/inventory"
	"github.com/kadirbelkuyu/pglifecycle/internal/manifest"
)

const (
	directivesFile   = "directives.sql"
	directivesHeader = "Database-level directives and settings"
)

// collectDirectives gathers encoding, standard strings, search path and
// database entries, plus comments on a database, in inventory order. It
// returns nil when there is nothing to collect.
func collectDirectives(entries []*inventory.Entry) *Record {
	databases := inventory.NewIDSet()
	for _, e := range entries {
		if e.Kind == inventory.KindDatabase {
			databases.Add(e.ID)
		}
	}

	rec := newBatchRecord(manifest.DirectivesID, inventory.KindDatabase, directivesFile, directivesHeader)
	var statements []string
	for _, e := range entries {
		if !isDirective(e, databases) {
			continue
		}
		statements = append(statements, strings.TrimSpace(e.Definition))
		rec.Includes.Add(e.ID)
		rec.Dependencies.Add(e.Dependencies...)
	}

	if len(statements) == 0 {
		return nil
	}
	rec.body = strings.Join(statements, "\n\n")
	return rec
}

func isDirective(e *inventory.Entry, databases inventory.IDSet) bool {
	if inventory.RoleOf(e.Kind) == inventory.RoleDirective {
		return true
	}
	if e.Kind != inventory.KindComment {
		return false
	}
	for _, dep := range e.Dependencies {
		if databases.Has(dep) {
			return true
		}
	}
	return false
}
