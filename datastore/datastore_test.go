package datastore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Prefix string   `json:"prefix"`
	Tags   []string `json:"tags"`
}

func open(t *testing.T, path string, mutate ...func(*Config)) *DataStore {
	t.Helper()
	cfg := DefaultConfig(path)
	cfg.AutoSaveInterval = 0
	for _, m := range mutate {
		m(&cfg)
	}
	ds, err := NewWithConfig(cfg)
	require.NoError(t, err)
	return ds
}

func TestCreatesEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "store.json")
	ds := open(t, path)
	defer ds.Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, "{}", string(data))
}

func TestPutGetRoundTripThroughFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	ds := open(t, path)
	require.NoError(t, ds.Put("g1", record{Prefix: "?", Tags: []string{"a"}}))
	require.NoError(t, ds.Close())

	ds = open(t, path)
	defer ds.Close()
	var r record
	ok, err := ds.Get("g1", &r)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, record{Prefix: "?", Tags: []string{"a"}}, r)

	ok, err = ds.Get("missing", &r)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{"g1"}, ds.Keys())
}

func TestUpdate(t *testing.T) {
	ds := open(t, filepath.Join(t.TempDir(), "store.json"))
	defer ds.Close()

	for range 3 {
		require.NoError(t, Update(ds, "g1", func(r *record) error {
			r.Tags = append(r.Tags, "x")
			return nil
		}))
	}
	var r record
	_, err := ds.Get("g1", &r)
	require.NoError(t, err)
	assert.Len(t, r.Tags, 3)

	ds.Delete("g1")
	assert.Empty(t, ds.Keys())
	assert.Equal(t, int64(0), ds.Stats()["memory_size"])
}

func TestMemoryLimit(t *testing.T) {
	ds := open(t, filepath.Join(t.TempDir(), "store.json"), func(c *Config) { c.MaxMemorySize = 16 })
	defer ds.Close()

	require.NoError(t, ds.Put("a", "short"))
	assert.ErrorIs(t, ds.Put("b", "this value is far too long"), ErrMemoryLimit)
	assert.Equal(t, []string{"a"}, ds.Keys())
}

func TestBackupsAreRotated(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.json")
	ds := open(t, path, func(c *Config) { c.BackupCount = 2 })
	defer ds.Close()

	for i := range 5 {
		require.NoError(t, ds.Put("n", i))
		require.NoError(t, ds.Save())
	}
	backups, err := filepath.Glob(path + ".backup.*")
	require.NoError(t, err)
	assert.Len(t, backups, 2)
}

func TestClosedStore(t *testing.T) {
	ds := open(t, filepath.Join(t.TempDir(), "store.json"))
	require.NoError(t, ds.Close())
	require.NoError(t, ds.Close())

	assert.ErrorIs(t, ds.Put("a", 1), ErrClosed)
	assert.ErrorIs(t, ds.Save(), ErrClosed)
	_, err := ds.Get("a", new(int))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))
	_, err := NewWithConfig(DefaultConfig(path))
	assert.Error(t, err)
}
