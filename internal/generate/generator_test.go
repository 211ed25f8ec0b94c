package generate_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirbelkuyu/pglifecycle/internal/generate"
	"github.com/kadirbelkuyu/pglifecycle/internal/inventory"
	"github.com/kadirbelkuyu/pglifecycle/internal/manifest"
	"github.com/kadirbelkuyu/pglifecycle/pkg/logger"
)

func entry(id int, kind inventory.Kind, namespace, name, definition string, deps ...int) *inventory.Entry {
	return &inventory.Entry{
		ID:           id,
		Kind:         kind,
		Namespace:    namespace,
		Name:         name,
		Dependencies: deps,
		Definition:   definition,
	}
}

func sampleInventory() *inventory.Inventory {
	return &inventory.Inventory{Entries: []*inventory.Entry{
		entry(50, inventory.KindEncoding, "", "ENCODING", "SET client_encoding = 'UTF8';"),
		entry(51, inventory.KindDatabase, "", "shop", "CREATE DATABASE shop;"),
		entry(52, inventory.KindComment, "", "DATABASE shop", "COMMENT ON DATABASE shop IS 'Shop';", 51),
		entry(5, inventory.KindSchema, "", "app", "CREATE SCHEMA app;"),
		entry(10, inventory.KindTable, "app", "users", "CREATE TABLE app.users (id integer);", 5),
		entry(11, inventory.KindIndex, "app", "users_idx", "CREATE INDEX users_idx ON app.users (id);", 10),
		entry(12, inventory.KindACL, "app", "TABLE users", "GRANT SELECT ON TABLE app.users TO reader;", 10),
		entry(13, inventory.KindComment, "app", "INDEX users_idx", "COMMENT ON INDEX app.users_idx IS 'lookup';", 11),
		entry(20, inventory.KindFunction, "app", "f()", "CREATE FUNCTION app.f() RETURNS int LANGUAGE sql AS 'SELECT 1';", 5),
		entry(21, inventory.KindFunction, "app", "f(integer)", "CREATE FUNCTION app.f(integer) RETURNS int LANGUAGE sql AS 'SELECT $1';", 5),
		entry(30, inventory.KindACL, "", "SCHEMA public", "GRANT ALL ON SCHEMA public TO PUBLIC;", 2),
		entry(40, inventory.KindOperator, "app", "===(integer, integer)", "CREATE OPERATOR app.=== (LEFTARG = integer, RIGHTARG = integer, FUNCTION = int4eq);", 5),
		entry(60, inventory.KindShellType, "app", "mood", "CREATE TYPE app.mood;"),
		entry(70, inventory.KindComment, "app", "TABLE ghost", "COMMENT ON TABLE app.ghost IS 'gone';", 999),
	}}
}

func run(t *testing.T, opts generate.Options, inv *inventory.Inventory) (*generate.Result, error) {
	t.Helper()
	return generate.New(opts, logger.Discard()).Run(inv)
}

func readFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func TestRunGeneratesProject(t *testing.T) {
	root := filepath.Join(t.TempDir(), "project")

	result, err := run(t, generate.Options{Destination: root}, sampleInventory())
	require.NoError(t, err)

	m, err := manifest.Read(root)
	require.NoError(t, err)
	assert.Equal(t, result.Manifest.Entries, m.Entries)

	var paths []string
	for _, e := range m.Entries {
		paths = append(paths, e.Path)
	}
	assert.Equal(t, []string{
		"directives.sql",
		"functions/app/f-0.sql",
		"functions/app/f-1.sql",
		"schemata/app.sql",
		"schemata/public.sql",
		"tables/app/users.sql",
		"operators.sql",
	}, paths)

	users, ok := m.Find("tables/app/users.sql")
	require.True(t, ok)
	assert.Equal(t, 10, users.ID)
	assert.Equal(t, []int{11, 12, 13}, users.Includes)
	assert.Equal(t, []int{5}, users.Dependencies)

	directives, ok := m.Find("directives.sql")
	require.True(t, ok)
	assert.Equal(t, manifest.DirectivesID, directives.ID)
	assert.Equal(t, []int{50, 51, 52}, directives.Includes)
	assert.Empty(t, directives.Dependencies)

	operators, ok := m.Find("operators.sql")
	require.True(t, ok)
	assert.Equal(t, manifest.OperatorsID, operators.ID)
	assert.Equal(t, []int{40}, operators.Includes)
	assert.Equal(t, []int{5}, operators.Dependencies)

	assert.Equal(t, "-- Table: app.users\n"+
		"\nCREATE TABLE app.users (id integer);\n"+
		"\n-- Indexes\n"+
		"\nCREATE INDEX users_idx ON app.users (id);\n"+
		"\n-- Comments\n"+
		"\nCOMMENT ON INDEX app.users_idx IS 'lookup';\n"+
		"\n-- ACLs\n"+
		"\nGRANT SELECT ON TABLE app.users TO reader;\n",
		readFile(t, root, "tables/app/users.sql"))

	assert.Equal(t, "-- Database-level directives and settings\n"+
		"\nSET client_encoding = 'UTF8';\n\nCREATE DATABASE shop;\n\nCOMMENT ON DATABASE shop IS 'Shop';\n",
		readFile(t, root, "directives.sql"))
}

func TestRunSynthesizesPublicSchema(t *testing.T) {
	root := filepath.Join(t.TempDir(), "project")

	_, err := run(t, generate.Options{Destination: root}, sampleInventory())
	require.NoError(t, err)

	m, err := manifest.Read(root)
	require.NoError(t, err)

	public, ok := m.Find("schemata/public.sql")
	require.True(t, ok)
	assert.Equal(t, 2, public.ID)
	assert.Equal(t, []int{30}, public.Includes)
	assert.Empty(t, public.Dependencies)

	content := readFile(t, root, "schemata/public.sql")
	assert.Contains(t, content, "-- Schema: public\n")
	assert.Contains(t, content, "GRANT ALL ON SCHEMA public TO PUBLIC;")
}

func TestRunReportsOrphans(t *testing.T) {
	root := filepath.Join(t.TempDir(), "project")

	result, err := run(t, generate.Options{Destination: root}, sampleInventory())
	require.NoError(t, err)

	orphaned := map[int]string{}
	for _, o := range result.Orphans {
		orphaned[o.Entry.ID] = o.Reason
	}
	assert.Len(t, orphaned, 2)
	assert.Contains(t, orphaned, 60)
	assert.Contains(t, orphaned, 70)

	require.Len(t, result.Plan.Dropped, 1)
	assert.Equal(t, 70, result.Plan.Dropped[0].ID)
}

func TestRunIsDeterministic(t *testing.T) {
	first := filepath.Join(t.TempDir(), "first")
	second := filepath.Join(t.TempDir(), "second")

	_, err := run(t, generate.Options{Destination: first}, sampleInventory())
	require.NoError(t, err)
	_, err = run(t, generate.Options{Destination: second}, sampleInventory())
	require.NoError(t, err)

	assert.Equal(t, snapshot(t, first), snapshot(t, second))
}

func TestEveryIncludedIDAppearsOnce(t *testing.T) {
	root := filepath.Join(t.TempDir(), "project")

	_, err := run(t, generate.Options{Destination: root}, sampleInventory())
	require.NoError(t, err)

	m, err := manifest.Read(root)
	require.NoError(t, err)

	seen := map[int]string{}
	for _, e := range m.Entries {
		for _, id := range append([]int{e.ID}, e.Includes...) {
			prev, dup := seen[id]
			assert.False(t, dup, "id %d in both %s and %s", id, prev, e.Path)
			seen[id] = e.Path
		}
	}
}

func TestRunRefusesNonEmptyDestination(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("hi"), 0o644))

	_, err := run(t, generate.Options{Destination: root}, sampleInventory())
	require.ErrorIs(t, err, generate.ErrDestinationExists)

	_, err = os.Stat(filepath.Join(root, "tables"))
	assert.True(t, os.IsNotExist(err), "nothing should be written")

	_, err = run(t, generate.Options{Destination: root, Force: true}, sampleInventory())
	require.NoError(t, err)
	assert.Equal(t, "hi", readFile(t, root, "README.md"))
}

func TestRunNeverOverwrites(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "tables", "app"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "tables", "app", "users.sql"), []byte("mine"), 0o644))

	_, err := run(t, generate.Options{Destination: root, Force: true}, sampleInventory())
	require.ErrorIs(t, err, generate.ErrPathCollision)
	assert.Equal(t, "mine", readFile(t, root, "tables/app/users.sql"))

	// Earlier files were written before the collision; no manifest may
	// point at them.
	assert.FileExists(t, filepath.Join(root, "directives.sql"))
	assert.FileExists(t, filepath.Join(root, "functions", "app", "f-0.sql"))
	assert.NoFileExists(t, filepath.Join(root, manifest.FileName))
}

func TestRunNeverReplacesManifest(t *testing.T) {
	root := t.TempDir()
	existing := "files:\n  - id: 99\n    path: keep.sql\n    includes: []\n    dependencies: []\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, manifest.FileName), []byte(existing), 0o644))

	inv := &inventory.Inventory{Entries: []*inventory.Entry{
		entry(10, inventory.KindTable, "public", "t", "CREATE TABLE public.t ();"),
	}}
	_, err := run(t, generate.Options{Destination: root, Force: true}, inv)
	require.ErrorIs(t, err, generate.ErrPathCollision)

	assert.Equal(t, existing, readFile(t, root, manifest.FileName))
	assert.NoDirExists(t, filepath.Join(root, "tables"))
}

func TestRunEmptyInventory(t *testing.T) {
	root := filepath.Join(t.TempDir(), "project")

	result, err := run(t, generate.Options{Destination: root}, &inventory.Inventory{})
	require.NoError(t, err)
	assert.Empty(t, result.Manifest.Entries)
	assert.Empty(t, result.Orphans)

	assert.NoFileExists(t, filepath.Join(root, "directives.sql"))
	assert.NoFileExists(t, filepath.Join(root, "operators.sql"))
	assert.FileExists(t, filepath.Join(root, manifest.FileName))
	assert.DirExists(t, filepath.Join(root, "tables"))
}

func TestRunGitkeep(t *testing.T) {
	root := filepath.Join(t.TempDir(), "project")

	_, err := run(t, generate.Options{Destination: root, Gitkeep: true}, sampleInventory())
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(root, "views", ".gitkeep"))
	assert.FileExists(t, filepath.Join(root, "text_search", "parsers", ".gitkeep"))
	assert.NoFileExists(t, filepath.Join(root, "text_search", ".gitkeep"))
	assert.NoFileExists(t, filepath.Join(root, "tables", ".gitkeep"))
}

func TestRunRemoveEmpty(t *testing.T) {
	root := filepath.Join(t.TempDir(), "project")

	_, err := run(t, generate.Options{Destination: root, RemoveEmpty: true}, sampleInventory())
	require.NoError(t, err)

	assert.NoDirExists(t, filepath.Join(root, "views"))
	assert.NoDirExists(t, filepath.Join(root, "text_search"))
	assert.DirExists(t, filepath.Join(root, "tables", "app"))
	assert.DirExists(t, filepath.Join(root, "functions"))
}

func TestRunRejectsGitkeepWithRemoveEmpty(t *testing.T) {
	root := filepath.Join(t.TempDir(), "project")

	_, err := run(t, generate.Options{Destination: root, Gitkeep: true, RemoveEmpty: true}, sampleInventory())
	require.Error(t, err)
	assert.NoDirExists(t, root)
}

func TestStrictUnattachedChild(t *testing.T) {
	root := filepath.Join(t.TempDir(), "project")

	_, err := run(t, generate.Options{Destination: root, Strict: true}, sampleInventory())
	require.ErrorIs(t, err, generate.ErrUnattachedChild)
	assert.NoDirExists(t, root)
}

func TestAmbiguousOwner(t *testing.T) {
	inv := &inventory.Inventory{Entries: []*inventory.Entry{
		entry(5, inventory.KindSchema, "", "app", "CREATE SCHEMA app;"),
		entry(10, inventory.KindTable, "app", "users", "CREATE TABLE app.users (id integer);", 5),
		entry(11, inventory.KindComment, "app", "TABLE users", "COMMENT ON TABLE app.users IS 'x';", 10, 5),
	}}

	plan, err := generate.New(generate.Options{}, logger.Discard()).Plan(inv)
	require.NoError(t, err)
	require.Len(t, plan.Ambiguous, 1)

	var owner *generate.Record
	for _, rec := range plan.Records {
		if rec.Includes.Has(11) {
			owner = rec
		}
	}
	require.NotNil(t, owner)
	assert.Equal(t, 5, owner.ID, "the lowest dependency id wins")

	_, err = generate.New(generate.Options{Strict: true}, logger.Discard()).Plan(inv)
	require.ErrorIs(t, err, generate.ErrAmbiguousOwner)
}

func TestDirectOwnerBeatsAttachedChild(t *testing.T) {
	inv := &inventory.Inventory{Entries: []*inventory.Entry{
		entry(3, inventory.KindTable, "app", "a", "CREATE TABLE app.a ();"),
		entry(4, inventory.KindConstraint, "app", "a a_pkey", "ALTER TABLE app.a ADD PRIMARY KEY (id);", 3),
		entry(9, inventory.KindTable, "app", "b", "CREATE TABLE app.b ();"),
		entry(12, inventory.KindFKConstraint, "app", "b b_fkey", "ALTER TABLE app.b ADD FOREIGN KEY (a) REFERENCES app.a;", 4, 9),
	}}

	plan, err := generate.New(generate.Options{}, logger.Discard()).Plan(inv)
	require.NoError(t, err)
	assert.Empty(t, plan.Ambiguous)

	for _, rec := range plan.Records {
		if rec.ID == 9 {
			assert.True(t, rec.Includes.Has(12))
			assert.Equal(t, []int{4}, rec.ExternalDependencies())
		}
	}
}

func TestSerialDefaultBelongsToTable(t *testing.T) {
	inv := &inventory.Inventory{Entries: []*inventory.Entry{
		entry(8, inventory.KindSequence, "public", "orders_id_seq", "CREATE SEQUENCE public.orders_id_seq;"),
		entry(10, inventory.KindTable, "public", "orders", "CREATE TABLE public.orders (id integer);"),
		entry(30, inventory.KindDefault, "public", "orders id",
			"ALTER TABLE ONLY public.orders ALTER COLUMN id SET DEFAULT nextval('public.orders_id_seq'::regclass);", 8, 10),
	}}

	plan, err := generate.New(generate.Options{Strict: true}, logger.Discard()).Plan(inv)
	require.NoError(t, err)
	assert.Empty(t, plan.Ambiguous)

	for _, rec := range plan.Records {
		switch rec.ID {
		case 10:
			assert.True(t, rec.Includes.Has(30))
			assert.Equal(t, []int{8}, rec.ExternalDependencies())
		case 8:
			assert.False(t, rec.Includes.Has(30))
		}
	}
}

func TestPlanRejectsDuplicateIDs(t *testing.T) {
	inv := &inventory.Inventory{Entries: []*inventory.Entry{
		entry(1, inventory.KindSchema, "", "a", ""),
		entry(1, inventory.KindSchema, "", "b", ""),
	}}

	_, err := generate.New(generate.Options{}, logger.Discard()).Plan(inv)
	require.Error(t, err)
}

func TestCheckDestination(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, generate.CheckDestination(filepath.Join(dir, "absent"), false))
	require.NoError(t, generate.CheckDestination(dir, false))

	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	require.ErrorIs(t, generate.CheckDestination(file, true), generate.ErrDestinationExists)
	require.ErrorIs(t, generate.CheckDestination(dir, false), generate.ErrDestinationExists)
	require.NoError(t, generate.CheckDestination(dir, true))

	require.NoError(t, os.WriteFile(filepath.Join(dir, manifest.FileName), nil, 0o644))
	require.ErrorIs(t, generate.CheckDestination(dir, true), generate.ErrPathCollision)
}

func TestPlanKinds(t *testing.T) {
	plan, err := generate.New(generate.Options{}, logger.Discard()).Plan(sampleInventory())
	require.NoError(t, err)

	counts := map[inventory.Kind]int{}
	for _, kc := range plan.Kinds() {
		counts[kc.Kind] = kc.Count
	}
	assert.Equal(t, 2, counts[inventory.KindFunction])
	assert.Equal(t, 2, counts[inventory.KindSchema])
	assert.Equal(t, 1, counts[inventory.KindTable])
}

func snapshot(t *testing.T, root string) map[string]string {
	t.Helper()

	files := map[string]string{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if d.IsDir() {
			files[rel+"/"] = ""
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files[rel] = string(data)
		return nil
	})
	require.NoError(t, err)
	return files
}

func TestTableWithIndexAndACL(t *testing.T) {
	root := filepath.Join(t.TempDir(), "project")
	inv := &inventory.Inventory{Entries: []*inventory.Entry{
		entry(10, inventory.KindTable, "public", "accounts", "CREATE TABLE public.accounts (id integer);"),
		entry(11, inventory.KindIndex, "public", "accounts_idx", "CREATE INDEX accounts_idx ON public.accounts (id);", 10),
		entry(12, inventory.KindACL, "public", "TABLE accounts", "GRANT SELECT ON TABLE public.accounts TO reader;", 10),
	}}

	result, err := run(t, generate.Options{Destination: root}, inv)
	require.NoError(t, err)
	assert.Empty(t, result.Orphans)

	assert.Equal(t, []manifest.Entry{
		{ID: 10, Path: "tables/public/accounts.sql", Includes: []int{11, 12}, Dependencies: []int{}},
	}, result.Manifest.Entries)

	content := readFile(t, root, "tables/public/accounts.sql")
	table := strings.Index(content, "CREATE TABLE public.accounts")
	indexes := strings.Index(content, "-- Indexes")
	acls := strings.Index(content, "-- ACLs")
	require.True(t, table >= 0 && indexes > table && acls > indexes, content)
	assert.Contains(t, content[indexes:acls], "CREATE INDEX accounts_idx")
	assert.Contains(t, content[acls:], "GRANT SELECT ON TABLE public.accounts TO reader;")
}
