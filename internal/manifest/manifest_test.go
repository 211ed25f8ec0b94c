package manifest_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirbelkuyu/pglifecycle/internal/manifest"
)

func TestWriteAndRead(t *testing.T) {
	root := t.TempDir()

	m := &manifest.Manifest{}
	m.Add(manifest.Entry{ID: manifest.DirectivesID, Path: "directives.sql", Includes: []int{9, 8}, Dependencies: []int{}})
	m.Add(manifest.Entry{ID: 10, Path: "tables/app/users.sql", Includes: []int{12, 11}, Dependencies: []int{5}})
	require.NoError(t, manifest.Write(root, m))

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temporary file should be left behind")

	got, err := manifest.Read(root)
	require.NoError(t, err)
	require.Len(t, got.Entries, 2)
	assert.Equal(t, []int{8, 9}, got.Entries[0].Includes)
	assert.Equal(t, []int{}, got.Entries[0].Dependencies)

	users, ok := got.Find("tables/app/users.sql")
	require.True(t, ok)
	assert.Equal(t, 10, users.ID)
	assert.Equal(t, []int{11, 12}, users.Includes)
	assert.Equal(t, []int{5}, users.Dependencies)

	_, ok = got.Find("tables/app/missing.sql")
	assert.False(t, ok)
}

func TestWriteUsesFilesKey(t *testing.T) {
	root := t.TempDir()

	m := &manifest.Manifest{}
	m.Add(manifest.Entry{ID: 1, Path: "schemata/app.sql"})
	require.NoError(t, manifest.Write(root, m))

	data, err := os.ReadFile(filepath.Join(root, manifest.FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "files:")
	assert.Contains(t, string(data), "path: schemata/app.sql")
}

func TestValidate(t *testing.T) {
	duplicate := &manifest.Manifest{}
	duplicate.Add(manifest.Entry{ID: 1, Path: "a.sql"})
	duplicate.Add(manifest.Entry{ID: 2, Path: "a.sql"})
	assert.ErrorContains(t, duplicate.Validate(), "duplicate")

	selfDependent := &manifest.Manifest{}
	selfDependent.Add(manifest.Entry{ID: 1, Path: "a.sql", Includes: []int{3}, Dependencies: []int{3}})
	assert.Error(t, selfDependent.Validate())

	ownID := &manifest.Manifest{}
	ownID.Add(manifest.Entry{ID: 1, Path: "a.sql", Dependencies: []int{1}})
	assert.Error(t, ownID.Validate())

	require.Error(t, manifest.Write(t.TempDir(), duplicate))
}

func TestReadMissing(t *testing.T) {
	_, err := manifest.Read(t.TempDir())
	require.Error(t, err)
}
