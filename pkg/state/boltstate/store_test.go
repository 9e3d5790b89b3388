package boltstate_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orinrun/orin/pkg/state"
	"github.com/orinrun/orin/pkg/state/boltstate"
)

func openTestStore(t *testing.T) *boltstate.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.db")
	s, err := boltstate.Open(path, state.BreakerConfig{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_ReadWriteDelete(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Write("k", map[string]any{"n": float64(1)}))

	v, ok, err := s.Read("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"n": float64(1)}, v)

	existed, err := s.Delete("k")
	require.NoError(t, err)
	assert.True(t, existed)

	_, ok, _ = s.Read("k")
	assert.False(t, ok)
}

func TestStore_ListKeysOrderedByPrefix(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Write("workflow:1:step:a:output", "A"))
	require.NoError(t, s.Write("workflow:1:step:b:output", "B"))
	require.NoError(t, s.Write("workflow:2:step:a:output", "C"))

	keys, err := s.ListKeys("workflow:1:")
	require.NoError(t, err)
	assert.Len(t, keys, 2)
}

func TestStore_SnapshotRestoreRoundTrip(t *testing.T) {
	s := openTestStore(t)
	scope := state.Scope{Kind: state.ScopeSession, ID: "sess-1"}
	key := state.FormatStorageKey(scope, "artifact:0")
	require.NoError(t, s.Write(key, "hello"))

	backup, err := s.Snapshot()
	require.NoError(t, err)
	require.Len(t, backup.Entries, 1)

	restored := openTestStore(t)
	require.NoError(t, restored.Restore(backup))

	v, ok, err := restored.Read(key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hello", v)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	s, err := boltstate.Open(path, state.BreakerConfig{})
	require.NoError(t, err)
	require.NoError(t, s.Write("durable", "value"))
	require.NoError(t, s.Close())

	reopened, err := boltstate.Open(path, state.BreakerConfig{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	v, ok, err := reopened.Read("durable")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "value", v)
}
