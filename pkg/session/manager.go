package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/orinrun/orin/internal/orierr"
	"github.com/orinrun/orin/pkg/hook"
	"github.com/orinrun/orin/pkg/state"
)

var (
	ErrSessionNotFound       = orierr.New(orierr.KindNotFound, "session", "session not found")
	ErrArtifactLimitExceeded = orierr.New(orierr.KindResourceLimit, "session", "max artifacts per session exceeded")
	ErrRateLimited           = orierr.New(orierr.KindResourceLimit, "session", "session rate limit exceeded")
	ErrConcurrencyLimit      = orierr.New(orierr.KindResourceLimit, "session", "session concurrency limit exceeded")
)

// Policy bounds how aggressively a single session may be driven,
// matching spec.md's circuit-breaker section: "Sessions: per-session
// rate-limit and concurrency-limit policies."
type Policy struct {
	MaxArtifacts     int
	MaxConcurrentOps int
	RateLimitPerMin  int
	Timeout          time.Duration
}

// Manager creates, tracks, and tears down sessions over a shared state
// backend (every session gets its own ScopedStore partition of the same
// backend, rather than a store per session), matching the teacher's
// Service interface generalized to Orin's own StateAccess.
type Manager struct {
	backend state.StateAccess
	policy  Policy

	mu       sync.RWMutex
	sessions map[string]*Session
	limiters map[string]*rateWindow
	inflight map[string]int
}

// NewManager constructs a Manager. backend is the shared StateAccess
// every session's ScopedStore partitions; policy.Zero value means no
// limits enforced.
func NewManager(backend state.StateAccess, policy Policy) *Manager {
	return &Manager{
		backend:  backend,
		policy:   policy,
		sessions: make(map[string]*Session),
		limiters: make(map[string]*rateWindow),
		inflight: make(map[string]int),
	}
}

// Create starts a new session. An empty id generates one via uuid,
// matching the teacher's CreateRequest.SessionID optionality.
func (m *Manager) Create(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id == "" {
		id = uuid.NewString()
	}
	if _, exists := m.sessions[id]; exists {
		return nil, orierr.Wrap(orierr.KindComponent, "session", orierr.ErrAlreadyExists)
	}
	s := newSession(id, m.backend, m.policy.MaxArtifacts)
	m.sessions[id] = s
	return s, nil
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

func (m *Manager) List() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	delete(m.limiters, id)
	delete(m.inflight, id)
	return nil
}

func (m *Manager) Suspend(id string) error {
	s, ok := m.Get(id)
	if !ok {
		return ErrSessionNotFound
	}
	s.setStatus(StatusSuspended)
	return nil
}

func (m *Manager) Resume(id string) error {
	s, ok := m.Get(id)
	if !ok {
		return ErrSessionNotFound
	}
	s.setStatus(StatusActive)
	return nil
}

func (m *Manager) Complete(id string) error {
	s, ok := m.Get(id)
	if !ok {
		return ErrSessionNotFound
	}
	s.setStatus(StatusCompleted)
	return nil
}

// rateWindow is a fixed-window request counter, reset whenever the
// minute rolls over — simple and sufficient for a per-session cap; a
// sliding window is not needed at this granularity.
type rateWindow struct {
	windowStart time.Time
	count       int
}

// Begin enforces the session's rate-limit and concurrency-limit
// policies before an operation runs, returning a done func that must be
// called when the operation finishes to release its concurrency slot.
func (m *Manager) Begin(id string) (done func(), err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.policy.MaxConcurrentOps > 0 && m.inflight[id] >= m.policy.MaxConcurrentOps {
		return nil, ErrConcurrencyLimit
	}
	if m.policy.RateLimitPerMin > 0 {
		w, ok := m.limiters[id]
		now := time.Now()
		if !ok || now.Sub(w.windowStart) >= time.Minute {
			w = &rateWindow{windowStart: now}
			m.limiters[id] = w
		}
		if w.count >= m.policy.RateLimitPerMin {
			return nil, ErrRateLimited
		}
		w.count++
	}

	m.inflight[id]++
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.inflight[id]--
	}, nil
}

// Replay re-invokes every hook-invocation record in the session's log
// that is marked Replayable, looking the hook up by name in registry;
// non-replayable records are skipped and reported as a ReplayWarning
// (spec.md Open Question #3's fixed resolution: skip and warn rather
// than re-run everything or fail the replay outright).
func (m *Manager) Replay(id string, registry map[string]hook.Hook, invoke func(h hook.Hook, rec HookInvocationRecord) error) ([]ReplayWarning, error) {
	s, ok := m.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}

	var warnings []ReplayWarning
	for _, rec := range s.Invocations() {
		if !rec.Replayable {
			warnings = append(warnings, ReplayWarning{HookName: rec.HookName, Point: rec.Point, Reason: "not marked replayable"})
			continue
		}
		h, found := registry[rec.HookName]
		if !found {
			warnings = append(warnings, ReplayWarning{HookName: rec.HookName, Point: rec.Point, Reason: "hook no longer registered"})
			continue
		}
		if err := invoke(h, rec); err != nil {
			return warnings, err
		}
	}
	return warnings, nil
}
