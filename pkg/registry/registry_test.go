package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orinrun/orin/internal/orierr"
	"github.com/orinrun/orin/pkg/registry"
)

type testItem struct {
	ID   string
	Name string
}

func TestStore_RegisterAndGet(t *testing.T) {
	s := registry.NewStore[testItem]()

	require.NoError(t, s.Register("a", testItem{ID: "1", Name: "a"}))

	got, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, "1", got.ID)

	_, ok = s.Get("missing")
	assert.False(t, ok)
}

func TestStore_RegisterRejectsEmptyName(t *testing.T) {
	s := registry.NewStore[testItem]()
	err := s.Register("", testItem{})
	require.Error(t, err)
	assert.Equal(t, orierr.KindValidation, orierr.KindOf(err))
}

func TestStore_RegisterRejectsDuplicate(t *testing.T) {
	s := registry.NewStore[testItem]()
	require.NoError(t, s.Register("a", testItem{ID: "1"}))

	err := s.Register("a", testItem{ID: "2"})
	require.Error(t, err)
	assert.ErrorIs(t, err, orierr.ErrAlreadyExists)
}

func TestStore_RemoveUnknownFails(t *testing.T) {
	s := registry.NewStore[testItem]()
	err := s.Remove("nope")
	require.Error(t, err)
	assert.Equal(t, orierr.KindNotFound, orierr.KindOf(err))
}

func TestStore_ListCountClear(t *testing.T) {
	s := registry.NewStore[testItem]()
	require.NoError(t, s.Register("a", testItem{ID: "1"}))
	require.NoError(t, s.Register("b", testItem{ID: "2"}))

	assert.Equal(t, 2, s.Count())
	assert.Len(t, s.List(), 2)

	s.Clear()
	assert.Equal(t, 0, s.Count())
}
