package generate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kadirbelkuyu/pglifecycle/internal/inventory"
	"github.com/kadirbelkuyu/pglifecycle/pkg/logger"
)

const publicSchema = "public"

// resolver attaches child entries to the records that own them.
type resolver struct {
	log    *logger.Logger
	strict bool
	known  map[int]*inventory.Entry

	// direct maps the ids a record was built from to the record.
	direct map[int]*Record
	// attached maps the ids of children already folded in to their record.
	attached map[int]*Record
}

type resolution struct {
	claimed   inventory.IDSet
	synthetic []*Record
	dropped   []*inventory.Entry
	ambiguous []*inventory.Entry
}

func newResolver(known map[int]*inventory.Entry, log *logger.Logger, strict bool) *resolver {
	return &resolver{
		log:      log,
		strict:   strict,
		known:    known,
		direct:   make(map[int]*Record),
		attached: make(map[int]*Record),
	}
}

// register makes rec the owner of ids.
func (r *resolver) register(rec *Record, ids ...int) {
	for _, id := range ids {
		r.direct[id] = rec
	}
}

// resolve attaches children until no more can be placed, so that a child of
// a child (a comment on an index) lands in the file of the index's table.
// Children left over are returned as dropped.
func (r *resolver) resolve(children []*inventory.Entry) (resolution, error) {
	res := resolution{claimed: inventory.NewIDSet()}

	pending := children
	for len(pending) > 0 {
		var next []*inventory.Entry
		for _, child := range pending {
			owner, candidates := r.owner(child)
			if owner == nil {
				owner = r.implicitPublicSchema(child, &res)
			}
			if owner == nil {
				next = append(next, child)
				continue
			}

			if len(candidates) > 1 {
				if r.strict {
					return res, fmt.Errorf("%w: %s (candidates %s)", ErrAmbiguousOwner, child, describe(candidates))
				}
				r.log.Warnf("%s could belong to %s, attaching to %d", child, describe(candidates), owner.ID)
				res.ambiguous = append(res.ambiguous, child)
			}

			owner.attach(child)
			r.attached[child.ID] = owner
			res.claimed.Add(child.ID)
		}

		if len(next) == len(pending) {
			break
		}
		pending = next
	}

	res.dropped = pending
	if len(pending) > 0 && r.strict {
		return res, fmt.Errorf("%w: %s", ErrUnattachedChild, describeEntries(pending))
	}
	return res, nil
}

// owner picks the record a child belongs to. Dependencies on objects that
// own a file win over dependencies on children already attached somewhere;
// within the winning group the lowest dependency id wins. The distinct
// records of the winning group are returned as candidates. A column default
// depends on both its relation and, for serial columns, the sequence it
// draws from; the relation owns it.
func (r *resolver) owner(child *inventory.Entry) (*Record, []*Record) {
	deps := append([]int(nil), child.Dependencies...)
	sort.Ints(deps)

	for _, index := range []map[int]*Record{r.direct, r.attached} {
		var candidates []*Record
		seen := make(map[*Record]bool)
		for _, dep := range deps {
			rec, ok := index[dep]
			if !ok || seen[rec] {
				continue
			}
			seen[rec] = true
			candidates = append(candidates, rec)
		}
		if len(candidates) > 0 {
			if child.Kind == inventory.KindDefault {
				candidates = withoutSequences(candidates)
			}
			return candidates[0], candidates
		}
	}
	return nil, nil
}

func withoutSequences(candidates []*Record) []*Record {
	var out []*Record
	for _, rec := range candidates {
		if rec.Kind != inventory.KindSequence {
			out = append(out, rec)
		}
	}
	if len(out) == 0 {
		return candidates
	}
	return out
}

// implicitPublicSchema handles ACLs and comments on the public schema when
// the schema itself was not dumped: the entry depends on an id that is not
// in the inventory, so an empty schema record is created under that id.
func (r *resolver) implicitPublicSchema(child *inventory.Entry, res *resolution) *Record {
	switch child.Kind {
	case inventory.KindACL, inventory.KindComment, inventory.KindSecurityLabel:
	default:
		return nil
	}
	if !namesPublicSchema(child) {
		return nil
	}

	for _, dep := range child.Dependencies {
		if _, ok := r.known[dep]; ok {
			continue
		}
		if rec, ok := r.direct[dep]; ok {
			return rec
		}

		rec := newRecord(&inventory.Entry{
			ID:      dep,
			Kind:    inventory.KindSchema,
			Name:    publicSchema,
			Section: inventory.SectionPreData,
		})
		r.register(rec, dep)
		res.synthetic = append(res.synthetic, rec)
		res.claimed.Add(dep)
		r.log.Debugf("created implicit schema %s as dump id %d for %s", publicSchema, dep, child)
		return rec
	}
	return nil
}

func namesPublicSchema(e *inventory.Entry) bool {
	name := strings.Join(strings.Fields(e.Name), " ")
	if strings.EqualFold(name, "SCHEMA "+publicSchema) {
		return true
	}
	return e.Namespace == "" && name == publicSchema
}

func describe(records []*Record) string {
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, fmt.Sprintf("%d", rec.ID))
	}
	return "[" + strings.Join(ids, " ") + "]"
}

func describeEntries(entries []*inventory.Entry) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, e.String())
	}
	return strings.Join(parts, ", ")
}
