package session_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orinrun/orin/pkg/hook"
	"github.com/orinrun/orin/pkg/session"
	"github.com/orinrun/orin/pkg/state"
)

func newManager(t *testing.T, p session.Policy) *session.Manager {
	t.Helper()
	backend := state.NewMemoryStore(state.BreakerConfig{})
	return session.NewManager(backend, p)
}

func TestManager_CreateGetDelete(t *testing.T) {
	m := newManager(t, session.Policy{})

	s, err := m.Create("")
	require.NoError(t, err)
	require.NotEmpty(t, s.ID())
	assert.Equal(t, session.StatusActive, s.Status())

	got, ok := m.Get(s.ID())
	require.True(t, ok)
	assert.Same(t, s, got)

	require.NoError(t, m.Delete(s.ID()))
	_, ok = m.Get(s.ID())
	assert.False(t, ok)
}

func TestManager_CreateRejectsDuplicateID(t *testing.T) {
	m := newManager(t, session.Policy{})
	_, err := m.Create("dup")
	require.NoError(t, err)
	_, err = m.Create("dup")
	assert.Error(t, err)
}

func TestManager_SuspendResumeComplete(t *testing.T) {
	m := newManager(t, session.Policy{})
	s, err := m.Create("s1")
	require.NoError(t, err)

	require.NoError(t, m.Suspend("s1"))
	assert.Equal(t, session.StatusSuspended, s.Status())

	require.NoError(t, m.Resume("s1"))
	assert.Equal(t, session.StatusActive, s.Status())

	require.NoError(t, m.Complete("s1"))
	assert.Equal(t, session.StatusCompleted, s.Status())
}

func TestManager_UnknownSessionOperationsFail(t *testing.T) {
	m := newManager(t, session.Policy{})
	assert.ErrorIs(t, m.Suspend("ghost"), session.ErrSessionNotFound)
	assert.ErrorIs(t, m.Delete("ghost"), session.ErrSessionNotFound)
}

func TestSession_StateIsScopedPerSession(t *testing.T) {
	backend := state.NewMemoryStore(state.BreakerConfig{})
	m := session.NewManager(backend, session.Policy{})

	a, err := m.Create("a")
	require.NoError(t, err)
	b, err := m.Create("b")
	require.NoError(t, err)

	require.NoError(t, a.State().Write("key", "from-a"))
	require.NoError(t, b.State().Write("key", "from-b"))

	v, ok, err := a.State().Read("key")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "from-a", v)

	v, ok, err = b.State().Read("key")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "from-b", v)
}

func TestSession_ArtifactLimitEnforced(t *testing.T) {
	m := newManager(t, session.Policy{MaxArtifacts: 1})
	s, err := m.Create("s1")
	require.NoError(t, err)

	require.NoError(t, s.PutArtifact(session.Artifact{ID: "a1"}))
	err = s.PutArtifact(session.Artifact{ID: "a2"})
	assert.ErrorIs(t, err, session.ErrArtifactLimitExceeded)

	// Overwriting an existing artifact is not a new entry and must not
	// trip the limit.
	require.NoError(t, s.PutArtifact(session.Artifact{ID: "a1", Size: 10}))
	a, ok := s.GetArtifact("a1")
	require.True(t, ok)
	assert.EqualValues(t, 10, a.Size)
}

func TestManager_BeginEnforcesConcurrencyLimit(t *testing.T) {
	m := newManager(t, session.Policy{MaxConcurrentOps: 1})
	_, err := m.Create("s1")
	require.NoError(t, err)

	done, err := m.Begin("s1")
	require.NoError(t, err)

	_, err = m.Begin("s1")
	assert.ErrorIs(t, err, session.ErrConcurrencyLimit)

	done()
	_, err = m.Begin("s1")
	assert.NoError(t, err)
}

func TestManager_BeginEnforcesRateLimit(t *testing.T) {
	m := newManager(t, session.Policy{RateLimitPerMin: 2})
	_, err := m.Create("s1")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		done, err := m.Begin("s1")
		require.NoError(t, err)
		done()
	}
	_, err = m.Begin("s1")
	assert.ErrorIs(t, err, session.ErrRateLimited)
}

type recordingHook struct {
	name  string
	point hook.Point
	calls int
}

func (h *recordingHook) Name() string      { return h.name }
func (h *recordingHook) Point() hook.Point { return h.point }
func (h *recordingHook) Invoke(hc *hook.Context) (hook.Result, error) {
	h.calls++
	return hook.ContinueResult(), nil
}

func TestManager_ReplaySkipsNonReplayableAndWarns(t *testing.T) {
	m := newManager(t, session.Policy{})
	s, err := m.Create("s1")
	require.NoError(t, err)

	replayed := &recordingHook{name: "audit_log", point: hook.BeforeToolExec}
	skipped := &recordingHook{name: "send_email", point: hook.AfterToolExec}

	s.RecordHookInvocation(session.HookInvocationRecord{HookName: replayed.Name(), Point: hook.BeforeToolExec, Replayable: true})
	s.RecordHookInvocation(session.HookInvocationRecord{HookName: skipped.Name(), Point: hook.AfterToolExec, Replayable: false})

	registry := map[string]hook.Hook{
		replayed.Name(): replayed,
		skipped.Name():  skipped,
	}

	warnings, err := m.Replay("s1", registry, func(h hook.Hook, rec session.HookInvocationRecord) error {
		_, err := h.Invoke(&hook.Context{Point: rec.Point})
		return err
	})
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, skipped.Name(), warnings[0].HookName)
	assert.Equal(t, 1, replayed.calls)
	assert.Equal(t, 0, skipped.calls)
}

func TestManager_ReplayUnknownSessionFails(t *testing.T) {
	m := newManager(t, session.Policy{})
	_, err := m.Replay("ghost", nil, func(hook.Hook, session.HookInvocationRecord) error { return nil })
	assert.True(t, errors.Is(err, session.ErrSessionNotFound))
}
