// Package session implements SessionManager: session lifecycle
// (Active → Suspended → Completed), a per-session state partition, an
// artifact store, and event-sourced replay that skips non-replayable
// hooks (spec.md's Open Question #3 decision, recorded in DESIGN.md).
//
// Grounded in the teacher's pkg/session (Session/Service interfaces,
// in-memory implementation, event-log-as-source-of-truth design) and
// pkg/checkpoint's "state partition co-located under a well-known key"
// idea, rewritten against Orin's own state.StateAccess instead of the
// teacher's agent.State.
package session

import (
	"sync"
	"time"

	"github.com/orinrun/orin/pkg/hook"
	"github.com/orinrun/orin/pkg/state"
)

// Status is a session's lifecycle state.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusCompleted Status = "completed"
)

// Artifact is a non-text result a session owns: an image, a file, a
// generated document (spec.md's Artifact entity). Bytes are held
// in-memory here; a real deployment would store BytesRef as a path or
// object-store key instead.
type Artifact struct {
	ID       string
	MimeType string
	Size     int64
	Metadata map[string]any
	Bytes    []byte
}

// HookInvocationRecord is one entry of a session's hook-invocation log,
// appended by RecordHookInvocation, so Replay can later decide whether
// to re-run it.
type HookInvocationRecord struct {
	HookName   string
	Point      hook.Point
	Replayable bool
	RecordedAt time.Time
}

// ReplayWarning records a hook Replay skipped, either because it was not
// marked replayable or because no hook of that name is registered any
// more; Reason says which (spec.md Open Question #3: "skip non-replayable
// and record a warning").
type ReplayWarning struct {
	HookName string
	Point    hook.Point
	Reason   string
}

// Session is one user/agent conversation: a scoped state partition, an
// artifact store, and a hook-invocation event log used for replay.
type Session struct {
	id        string
	state     state.ScopedStore
	createdAt time.Time

	mu           sync.RWMutex
	status       Status
	lastUpdate   time.Time
	invocations  []HookInvocationRecord
	artifacts    map[string]Artifact
	maxArtifacts int
}

func newSession(id string, backend state.StateAccess, maxArtifacts int) *Session {
	now := time.Now()
	return &Session{
		id:           id,
		state:        state.NewScopedStore(backend, state.Scope{Kind: state.ScopeSession, ID: id}),
		createdAt:    now,
		status:       StatusActive,
		lastUpdate:   now,
		artifacts:    make(map[string]Artifact),
		maxArtifacts: maxArtifacts,
	}
}

func (s *Session) ID() string               { return s.id }
func (s *Session) State() state.StateAccess { return s.state }
func (s *Session) CreatedAt() time.Time     { return s.createdAt }

func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Session) LastUpdateTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdate
}

func (s *Session) touch() {
	s.lastUpdate = time.Now()
}

// RecordHookInvocation appends a HookInvocationRecord to the session's
// event log. hook.Registry.Invoke does not call it; an invocation is
// logged only when a caller passes it here.
func (s *Session) RecordHookInvocation(rec HookInvocationRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invocations = append(s.invocations, rec)
	s.touch()
}

// Invocations returns a copy of the session's recorded hook-invocation
// log, in the order they fired.
func (s *Session) Invocations() []HookInvocationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]HookInvocationRecord, len(s.invocations))
	copy(out, s.invocations)
	return out
}

// PutArtifact stores an artifact, failing once the session's
// max-artifacts policy is reached.
func (s *Session) PutArtifact(a Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.artifacts[a.ID]; !exists && s.maxArtifacts > 0 && len(s.artifacts) >= s.maxArtifacts {
		return ErrArtifactLimitExceeded
	}
	s.artifacts[a.ID] = a
	s.touch()
	return nil
}

func (s *Session) GetArtifact(id string) (Artifact, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.artifacts[id]
	return a, ok
}

func (s *Session) ListArtifacts() []Artifact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Artifact, 0, len(s.artifacts))
	for _, a := range s.artifacts {
		out = append(out, a)
	}
	return out
}

func (s *Session) setStatus(status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	s.touch()
}
