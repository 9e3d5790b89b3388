// Package state implements the StateAccess capability (spec.md section
// 4.6): pluggable persistence behind read/write/delete/list_keys, a
// scope-prefixed key convention, and snapshot/restore. MemoryStore is the
// default in-process backend; pkg/state/boltstate adds a persistent,
// ordered-bytes backend over go.etcd.io/bbolt.
package state

import "strings"

// ScopeKind enumerates the namespaces a key can belong to (spec.md data
// model's StateScope).
type ScopeKind string

const (
	ScopeGlobal   ScopeKind = "global"
	ScopeCustom   ScopeKind = "custom"
	ScopeAgent    ScopeKind = "agent"
	ScopeWorkflow ScopeKind = "workflow"
	ScopeSession  ScopeKind = "session"
	ScopeTool     ScopeKind = "tool"
)

// Scope namespaces a state key. ID is empty for ScopeGlobal; for
// ScopeCustom, ID holds the caller-chosen prefix.
type Scope struct {
	Kind ScopeKind
	ID   string
}

func (s Scope) prefix() string {
	if s.Kind == ScopeGlobal {
		return string(ScopeGlobal)
	}
	return string(s.Kind) + ":" + s.ID
}

// FormatStorageKey is the single helper for building the canonical
// "{scope}::{key}" storage key (spec.md section 6.5). It is the
// counterpart to ParseStorageKey and the only place that string format is
// assembled, so every backend stays consistent.
func FormatStorageKey(scope Scope, key string) string {
	return scope.prefix() + "::" + key
}

// ParseStorageKey splits a canonical "{scope}::{key}" storage key back
// into its Scope and logical key. It is the single round-trip helper
// referenced by spec.md's StateScope.parse_storage_key: every piece of
// code that needs to recover a scope from a raw key (snapshot, scope
// discovery, the no-scope script adapter) goes through this function
// rather than re-deriving the split.
func ParseStorageKey(storageKey string) (Scope, string, bool) {
	idx := strings.Index(storageKey, "::")
	if idx < 0 {
		return Scope{}, "", false
	}
	prefix, key := storageKey[:idx], storageKey[idx+2:]

	if prefix == string(ScopeGlobal) {
		return Scope{Kind: ScopeGlobal}, key, true
	}
	parts := strings.SplitN(prefix, ":", 2)
	if len(parts) != 2 {
		return Scope{}, "", false
	}
	kind := ScopeKind(parts[0])
	switch kind {
	case ScopeCustom, ScopeAgent, ScopeWorkflow, ScopeSession, ScopeTool:
		return Scope{Kind: kind, ID: parts[1]}, key, true
	default:
		return Scope{}, "", false
	}
}

// NoScopeAdapter wraps a StateAccess so that callers who pre-format their
// own keys (script-facing APIs) don't get double-prefixed by a Scope.
// Every method is a pure pass-through.
type NoScopeAdapter struct {
	Backend StateAccess
}

func (a NoScopeAdapter) Read(key string) (any, bool, error)     { return a.Backend.Read(key) }
func (a NoScopeAdapter) Write(key string, v any) error          { return a.Backend.Write(key, v) }
func (a NoScopeAdapter) Delete(key string) (bool, error)        { return a.Backend.Delete(key) }
func (a NoScopeAdapter) ListKeys(prefix string) ([]string, error) { return a.Backend.ListKeys(prefix) }
