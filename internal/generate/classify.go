package generate

import (
	"github.com/kadirbelkuyu/pglifecycle/internal/inventory"
)

// classification is the result of sorting an inventory by role.
type classification struct {
	primaries map[inventory.Kind][]*Record
	children  []*inventory.Entry
	operators []*inventory.Entry
	// claimed holds the ids of the primaries.
	claimed inventory.IDSet
}

// classify promotes every primary entry to a Record and routes children and
// operators to their own lists. Inventory order is kept within each list.
// Directive, placeholder and unknown entries are left for later stages.
func classify(entries []*inventory.Entry) classification {
	c := classification{
		primaries: make(map[inventory.Kind][]*Record),
		claimed:   inventory.NewIDSet(),
	}

	for _, e := range entries {
		switch inventory.RoleOf(e.Kind) {
		case inventory.RolePrimary:
			c.primaries[e.Kind] = append(c.primaries[e.Kind], newRecord(e))
			c.claimed.Add(e.ID)
		case inventory.RoleChild:
			c.children = append(c.children, e)
		case inventory.RoleOperator:
			c.operators = append(c.operators, e)
		}
	}

	return c
}

// ordered returns the primaries in generation order: kind by kind in
// PrimaryOrder, inventory order within a kind.
func (c classification) ordered() []*Record {
	var records []*Record
	for _, kind := range inventory.PrimaryOrder {
		records = append(records, c.primaries[kind]...)
	}
	return records
}
