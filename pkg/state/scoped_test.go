package state_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orinrun/orin/pkg/state"
)

func TestScopedStore_ReadWriteDeleteWithinScope(t *testing.T) {
	backend := state.NewMemoryStore(state.BreakerConfig{})
	sess := state.NewScopedStore(backend, state.Scope{Kind: state.ScopeSession, ID: "s1"})

	require.NoError(t, sess.Write("greeting", "hi"))
	v, ok, err := sess.Read("greeting")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hi", v)

	_, ok, err = backend.Read("session:s1::greeting")
	require.NoError(t, err)
	assert.True(t, ok)

	existed, err := sess.Delete("greeting")
	require.NoError(t, err)
	assert.True(t, existed)
}

func TestScopedStore_ListKeysIsolatesByScope(t *testing.T) {
	backend := state.NewMemoryStore(state.BreakerConfig{})
	a := state.NewScopedStore(backend, state.Scope{Kind: state.ScopeSession, ID: "a"})
	b := state.NewScopedStore(backend, state.Scope{Kind: state.ScopeSession, ID: "b"})

	require.NoError(t, a.Write("x", 1))
	require.NoError(t, b.Write("x", 2))
	require.NoError(t, a.Write("y", 3))

	keys, err := a.ListKeys("")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"x", "y"}, keys)
}
