package inventory_test

import (
	"embed"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirbelkuyu/pglifecycle/internal/inventory"
)

//go:embed testdata/*.yaml
var samples embed.FS

func writeSample(t *testing.T, name string) string {
	t.Helper()

	data, err := samples.ReadFile("testdata/" + name)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestEveryChildKindHasASection(t *testing.T) {
	inOrder := make(map[inventory.Kind]bool)
	for _, k := range inventory.ChildOrder {
		require.Equal(t, inventory.RoleChild, inventory.RoleOf(k), "%s listed as a child section", k)
		require.False(t, inOrder[k], "%s listed twice", k)
		inOrder[k] = true
	}

	for _, k := range []inventory.Kind{
		inventory.KindDefault, inventory.KindConstraint, inventory.KindCheckConstraint,
		inventory.KindFKConstraint, inventory.KindIndex, inventory.KindIndexAttach,
		inventory.KindTableAttach, inventory.KindStatistics, inventory.KindSequenceOwnedBy,
		inventory.KindSequenceSet, inventory.KindForeignTable, inventory.KindUserMapping,
		inventory.KindRowSecurity, inventory.KindPolicy, inventory.KindPublicationTable,
		inventory.KindPublicationSchema, inventory.KindComment, inventory.KindSecurityLabel,
		inventory.KindACL,
	} {
		assert.True(t, inOrder[k], "%s has no section", k)
	}
}

func TestPrimaryKindsHaveDirectories(t *testing.T) {
	seen := make(map[inventory.Kind]bool)
	for _, k := range inventory.PrimaryOrder {
		info, ok := inventory.Lookup(k)
		require.True(t, ok)
		assert.Equal(t, inventory.RolePrimary, info.Role, "%s", k)
		assert.NotEmpty(t, info.Dir, "%s", k)
		assert.False(t, seen[k], "%s listed twice", k)
		seen[k] = true
	}

	dirs := inventory.Directories()
	assert.Contains(t, dirs, "tables")
	assert.Contains(t, dirs, "text_search/configurations")
	assert.Equal(t, 1, count(dirs, "extensions"), "procedural languages share the extensions directory")
}

func TestLookup(t *testing.T) {
	assert.Equal(t, inventory.RoleOperator, inventory.RoleOf(inventory.KindOperatorClass))
	assert.Equal(t, inventory.RoleOperator, inventory.RoleOf("OPERATOR SOMETHING NEW"))
	assert.Equal(t, inventory.RoleDirective, inventory.RoleOf(inventory.KindSearchPath))
	assert.Equal(t, inventory.RolePlaceholder, inventory.RoleOf(inventory.KindShellType))
	assert.Equal(t, inventory.RoleUnknown, inventory.RoleOf("LARGE OBJECT"))
	assert.Equal(t, "unknown", inventory.RoleOf("LARGE OBJECT").String())

	info, ok := inventory.Lookup(inventory.KindFunction)
	require.True(t, ok)
	assert.Equal(t, inventory.NameSignature, info.Naming)
	assert.Equal(t, "functions", info.Dir)

	_, ok = inventory.Lookup("LARGE OBJECT")
	assert.False(t, ok)
}

func TestParseKind(t *testing.T) {
	assert.Equal(t, inventory.KindFKConstraint, inventory.ParseKind(" fk   constraint "))
	assert.Equal(t, inventory.KindTable, inventory.ParseKind("table"))
}

func TestIDSet(t *testing.T) {
	s := inventory.NewIDSet(3, 1)
	s.Add(2, 3)
	s.Merge(inventory.NewIDSet(7))
	s.Remove(1)

	assert.True(t, s.Has(2))
	assert.False(t, s.Has(1))
	assert.Equal(t, []int{2, 3, 7}, s.Sorted())

	empty := inventory.NewIDSet()
	assert.NotNil(t, empty.Sorted())
	assert.Empty(t, empty.Sorted())
}

func TestEntryHelpers(t *testing.T) {
	e := &inventory.Entry{ID: 12, Kind: inventory.KindTable, Name: "users", Namespace: "app", Dependencies: []int{5}}
	assert.Equal(t, "app.users", e.QualifiedName())
	assert.Equal(t, "12 TABLE app.users", e.String())
	assert.True(t, e.DependsOn(5))
	assert.False(t, e.DependsOn(6))

	e.Namespace = ""
	assert.Equal(t, "users", e.QualifiedName())
}

func TestLoadFile(t *testing.T) {
	inv, err := inventory.LoadFile(writeSample(t, "inventory.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "16.2", inv.DumpVersion)
	require.Len(t, inv.Entries, 3)
	assert.Equal(t, 11, inv.MaxID())

	schema := inv.Entries[0]
	assert.Equal(t, inventory.KindSchema, schema.Kind)
	assert.Empty(t, schema.Namespace)
	assert.Equal(t, inventory.SectionPreData, schema.Section)

	fk := inv.Entries[2]
	assert.Equal(t, inventory.KindFKConstraint, fk.Kind)
	assert.Equal(t, inventory.SectionPostData, fk.Section)
	assert.Equal(t, []int{10}, fk.Dependencies)
}

func TestLoadFileRejectsDuplicateIDs(t *testing.T) {
	_, err := inventory.LoadFile(writeSample(t, "duplicate.yaml"))
	require.ErrorContains(t, err, "duplicate dump id 1")
}

func TestSaveFileRoundTrip(t *testing.T) {
	inv, err := inventory.LoadFile(writeSample(t, "inventory.yaml"))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "nested", "saved.yaml")
	require.NoError(t, inventory.SaveFile(path, inv))

	again, err := inventory.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, inv, again)

	require.Error(t, inventory.SaveFile(path, nil))
}

func count(values []string, want string) int {
	n := 0
	for _, v := range values {
		if v == want {
			n++
		}
	}
	return n
}
