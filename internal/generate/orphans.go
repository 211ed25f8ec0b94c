package generate

import (
	"github.com/kadirbelkuyu/pglifecycle/internal/inventory"
	"github.com/kadirbelkuyu/pglifecycle/pkg/logger"
)

// Orphan is an inventory entry that ended up in no generated file.
type Orphan struct {
	Entry  *inventory.Entry
	Reason string
}

// reportOrphans logs every entry whose id is not in included. Shell types
// are expected to have no output and are only noted at info level.
func reportOrphans(entries []*inventory.Entry, included inventory.IDSet, log *logger.Logger) []Orphan {
	var orphans []Orphan
	for _, e := range entries {
		if included.Has(e.ID) {
			continue
		}

		orphan := Orphan{Entry: e, Reason: orphanReason(e)}
		orphans = append(orphans, orphan)

		if inventory.RoleOf(e.Kind) == inventory.RolePlaceholder {
			log.Infof("skipping %s: %s", e, orphan.Reason)
			continue
		}
		log.Warnf("unprocessed entry %s: %s", e, orphan.Reason)
	}
	return orphans
}

func orphanReason(e *inventory.Entry) string {
	switch inventory.RoleOf(e.Kind) {
	case inventory.RoleChild:
		return "no owning object found among its dependencies"
	case inventory.RolePlaceholder:
		return "placeholder with no standalone definition"
	case inventory.RoleUnknown:
		return "unsupported object kind"
	default:
		return "not claimed by any generated file"
	}
}
