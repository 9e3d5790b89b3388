// Package registry provides the generic, concurrency-safe name -> item
// store used throughout Orin, and the process-scoped ComponentRegistry
// built on top of it (spec.md section 4.2).
//
// The generic Store[T] is adapted from the teacher's
// pkg/registry.BaseRegistry[T]: a map behind a RWMutex with
// Register/Get/List/Remove/Count/Clear. Orin generalizes it so Register
// returns an orierr-taxonomy error instead of a bare fmt.Errorf, since
// ComponentRegistry.RegisterTool needs to distinguish AlreadyRegistered
// from a missing-sandbox rejection.
package registry

import (
	"sync"

	"github.com/orinrun/orin/internal/orierr"
)

// Store is a generic name -> item map. It is the building block for every
// typed registry bucket (tools, agents, workflows).
type Store[T any] struct {
	mu    sync.RWMutex
	items map[string]T
}

// NewStore constructs an empty Store.
func NewStore[T any]() *Store[T] {
	return &Store[T]{items: make(map[string]T)}
}

// Register adds item under name, failing with orierr.ErrAlreadyExists if
// the name is already taken in this bucket.
func (s *Store[T]) Register(name string, item T) error {
	if name == "" {
		return orierr.New(orierr.KindValidation, "registry", "name cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[name]; exists {
		return orierr.Wrap(orierr.KindComponent, "registry", orierr.ErrAlreadyExists)
	}
	s.items[name] = item
	return nil
}

// Get returns the item registered under name, if any.
func (s *Store[T]) Get(name string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[name]
	return item, ok
}

// List returns every (name, item) pair currently registered.
func (s *Store[T]) List() map[string]T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]T, len(s.items))
	for k, v := range s.items {
		out[k] = v
	}
	return out
}

// Remove deletes name from the bucket. It fails if name was never
// registered, matching the teacher's BaseRegistry.Remove.
func (s *Store[T]) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[name]; !exists {
		return orierr.Wrap(orierr.KindNotFound, "registry", orierr.ErrNotFound)
	}
	delete(s.items, name)
	return nil
}

// Count returns the number of registered items.
func (s *Store[T]) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Clear empties the bucket. Used by tests and by process shutdown.
func (s *Store[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]T)
}
