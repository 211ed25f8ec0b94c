// Package generate turns a schema inventory into a project tree: one file
// per primary object with its children folded in, a directives preamble, an
// ordered operators file and the manifest describing them.
package generate

import (
	"fmt"
	"sort"

	"github.com/kadirbelkuyu/pglifecycle/internal/inventory"
	"github.com/kadirbelkuyu/pglifecycle/internal/manifest"
	"github.com/kadirbelkuyu/pglifecycle/pkg/logger"
	"github.com/kadirbelkuyu/pglifecycle/pkg/progress"
)

type Options struct {
	Destination string
	// Force allows writing into a non-empty destination. Existing files are
	// still never overwritten.
	Force       bool
	Gitkeep     bool
	RemoveEmpty bool
	// Strict turns unattached and ambiguous children into errors.
	Strict bool
	// Progress shows a progress bar while files are written.
	Progress bool
}

type Generator struct {
	opts Options
	log  *logger.Logger
}

func New(opts Options, log *logger.Logger) *Generator {
	return &Generator{opts: opts, log: log}
}

// Plan is the fully resolved, not yet written, project.
type Plan struct {
	// Records are in generation order.
	Records []*Record
	// Included holds every inventory id represented in some record, plus
	// the ids of synthesized records.
	Included inventory.IDSet
	// Dropped children had no owner.
	Dropped []*inventory.Entry
	// Ambiguous children had more than one possible owner.
	Ambiguous []*inventory.Entry
}

// Result summarizes a completed run.
type Result struct {
	Manifest *manifest.Manifest
	Orphans  []Orphan
	Plan     *Plan
}

// Plan classifies the inventory, attaches children and allocates paths
// without touching the filesystem.
func (g *Generator) Plan(inv *inventory.Inventory) (*Plan, error) {
	known, err := inv.Index()
	if err != nil {
		return nil, err
	}

	plan := &Plan{Included: inventory.NewIDSet()}

	classes := classify(inv.Entries)
	plan.Included.Merge(classes.claimed)

	directives := collectDirectives(inv.Entries)
	operators := buildOperatorBatch(classes.operators, g.log)

	resolver := newResolver(known, g.log, g.opts.Strict)
	for _, rec := range classes.ordered() {
		resolver.register(rec, rec.ID)
	}
	children := classes.children
	if directives != nil {
		plan.Included.Merge(directives.Includes)
		resolver.register(directives, directives.Includes.Sorted()...)
		children = withoutIDs(children, directives.Includes)
	}
	if operators != nil {
		plan.Included.Merge(operators.Includes)
		resolver.register(operators, operators.Includes.Sorted()...)
	}

	resolved, err := resolver.resolve(children)
	if err != nil {
		return nil, err
	}
	plan.Included.Merge(resolved.claimed)
	plan.Dropped = resolved.dropped
	plan.Ambiguous = resolved.ambiguous

	for _, rec := range resolved.synthetic {
		classes.primaries[inventory.KindSchema] = append(classes.primaries[inventory.KindSchema], rec)
	}

	names := newAllocator()
	names.reserve(directivesFile)
	names.reserve(operatorsFile)
	names.reserve(manifest.FileName)

	if directives != nil {
		plan.Records = append(plan.Records, directives)
	}
	for _, rec := range classes.ordered() {
		rec.Path = names.allocate(rec.Entry)
		plan.Records = append(plan.Records, rec)
	}
	if operators != nil {
		plan.Records = append(plan.Records, operators)
	}

	g.logDangling(plan, known)
	return plan, nil
}

// Run plans the project, writes every file, then the manifest, and finally
// reports entries that were not placed anywhere.
func (g *Generator) Run(inv *inventory.Inventory) (*Result, error) {
	if g.opts.Gitkeep && g.opts.RemoveEmpty {
		return nil, fmt.Errorf("gitkeep and remove-empty can not be used together")
	}
	if err := CheckDestination(g.opts.Destination, g.opts.Force); err != nil {
		return nil, err
	}

	plan, err := g.Plan(inv)
	if err != nil {
		return nil, err
	}

	dirs, err := scaffold(g.opts.Destination)
	if err != nil {
		return nil, err
	}

	writer := &materializer{root: g.opts.Destination, log: g.log}
	if g.opts.Progress && len(plan.Records) > 0 {
		writer.bar = progress.NewBar(int64(len(plan.Records)), "writing")
	}

	m := &manifest.Manifest{}
	for _, rec := range plan.Records {
		if err := writer.write(rec); err != nil {
			return nil, err
		}
		m.Add(rec.ManifestEntry())
	}
	writer.bar.Finish()

	if err := tidy(g.opts.Destination, dirs, g.opts.Gitkeep, g.opts.RemoveEmpty); err != nil {
		return nil, err
	}

	if err := manifest.Write(g.opts.Destination, m); err != nil {
		return nil, err
	}
	g.log.Infof("wrote %d files and %s to %s", len(plan.Records), manifest.FileName, g.opts.Destination)

	orphans := reportOrphans(inv.Entries, plan.Included, g.log)
	return &Result{Manifest: m, Orphans: orphans, Plan: plan}, nil
}

// logDangling notes dependencies on ids that exist nowhere in the inventory.
// They are kept in the manifest as they are.
func (g *Generator) logDangling(plan *Plan, known map[int]*inventory.Entry) {
	for _, rec := range plan.Records {
		for _, dep := range rec.ExternalDependencies() {
			if _, ok := known[dep]; ok || plan.Included.Has(dep) {
				continue
			}
			g.log.Debugf("%s depends on unknown dump id %d", rec.Path, dep)
		}
	}
}

func withoutIDs(entries []*inventory.Entry, ids inventory.IDSet) []*inventory.Entry {
	out := make([]*inventory.Entry, 0, len(entries))
	for _, e := range entries {
		if !ids.Has(e.ID) {
			out = append(out, e)
		}
	}
	return out
}

// Kinds returns the number of records per kind, in a stable order.
func (p *Plan) Kinds() []KindCount {
	counts := make(map[inventory.Kind]int)
	for _, rec := range p.Records {
		counts[rec.Kind]++
	}
	out := make([]KindCount, 0, len(counts))
	for kind, n := range counts {
		out = append(out, KindCount{Kind: kind, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

type KindCount struct {
	Kind  inventory.Kind
	Count int
}
