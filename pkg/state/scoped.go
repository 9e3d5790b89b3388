package state

import "strings"

// ScopedStore applies a fixed Scope's "{scope}::" prefix to every key
// before delegating to Backend, so a caller who only ever operates
// within one scope (a session, an agent instance, a workflow run) can
// hold a plain StateAccess and never format keys by hand. This is the
// helper behind the bridge's scope-aware State global methods
// (workflow_get/list, agent_get/set, tool_get/set — spec.md section
// 4.7) and behind session.Session.State().
type ScopedStore struct {
	Backend StateAccess
	Scope   Scope
}

func NewScopedStore(backend StateAccess, scope Scope) ScopedStore {
	return ScopedStore{Backend: backend, Scope: scope}
}

func (s ScopedStore) key(k string) string { return FormatStorageKey(s.Scope, k) }

func (s ScopedStore) Read(key string) (any, bool, error) { return s.Backend.Read(s.key(key)) }

func (s ScopedStore) Write(key string, value any) error { return s.Backend.Write(s.key(key), value) }

func (s ScopedStore) Delete(key string) (bool, error) { return s.Backend.Delete(s.key(key)) }

// ListKeys returns logical keys (scope prefix stripped) matching prefix
// within this scope only.
func (s ScopedStore) ListKeys(prefix string) ([]string, error) {
	raw, err := s.Backend.ListKeys(s.key(prefix))
	if err != nil {
		return nil, err
	}
	scopePrefix := s.Scope.prefix() + "::"
	out := make([]string, 0, len(raw))
	for _, k := range raw {
		out = append(out, strings.TrimPrefix(k, scopePrefix))
	}
	return out, nil
}
