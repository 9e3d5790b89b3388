package hook_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orinrun/orin/pkg/component"
	"github.com/orinrun/orin/pkg/hook"
)

func fn(name string, p hook.Point, res hook.Result) hook.Func {
	return hook.Func{HookName: name, HookPoint: p, Body: func(hc *hook.Context) (hook.Result, error) {
		return res, nil
	}}
}

func TestSequential_LastNonSkippedWins(t *testing.T) {
	s := hook.Sequential{Hooks: []hook.Hook{
		fn("a", hook.BeforeToolExec, hook.SkippedResult()),
		fn("b", hook.BeforeToolExec, hook.ModifiedResult(component.Input{Text: "x"})),
	}}
	res, err := s.Invoke(&hook.Context{})
	require.NoError(t, err)
	assert.Equal(t, hook.KindModified, res.Kind)
	assert.Equal(t, "x", res.Input.Text)
}

func TestSequential_CancelShortCircuits(t *testing.T) {
	called := false
	s := hook.Sequential{Hooks: []hook.Hook{
		fn("a", hook.BeforeToolExec, hook.CancelResult("nope")),
		hook.Func{HookName: "b", HookPoint: hook.BeforeToolExec, Body: func(hc *hook.Context) (hook.Result, error) {
			called = true
			return hook.ContinueResult(), nil
		}},
	}}
	res, err := s.Invoke(&hook.Context{})
	require.NoError(t, err)
	assert.Equal(t, hook.KindCancel, res.Kind)
	assert.False(t, called)
}

func TestFirstMatch_SkipsToFirstNonSkipped(t *testing.T) {
	f := hook.FirstMatch{Hooks: []hook.Hook{
		fn("a", hook.BeforeToolExec, hook.SkippedResult()),
		fn("b", hook.BeforeToolExec, hook.ContinueResult()),
		fn("c", hook.BeforeToolExec, hook.CancelResult("unreached")),
	}}
	res, err := f.Invoke(&hook.Context{})
	require.NoError(t, err)
	assert.Equal(t, hook.KindContinue, res.Kind)
}

func TestVoting_MajorityWins(t *testing.T) {
	v := hook.Voting{Hooks: []hook.Hook{
		fn("a", hook.BeforeToolExec, hook.ContinueResult()),
		fn("b", hook.BeforeToolExec, hook.ContinueResult()),
		fn("c", hook.BeforeToolExec, hook.CancelResult("minority")),
	}}
	res, err := v.Invoke(&hook.Context{})
	require.NoError(t, err)
	assert.Equal(t, hook.KindContinue, res.Kind)
}

func TestParallel_PropagatesHookError(t *testing.T) {
	boom := errors.New("boom")
	p := hook.Parallel{Hooks: []hook.Hook{
		hook.Func{HookName: "a", HookPoint: hook.BeforeToolExec, Body: func(hc *hook.Context) (hook.Result, error) {
			return hook.Result{}, boom
		}},
	}}
	_, err := p.Invoke(&hook.Context{})
	assert.ErrorIs(t, err, boom)
}

func TestRegistry_InvokeSkipsTrippedHook(t *testing.T) {
	breaker := hook.NewCircuitBreaker(0.05, time.Minute, time.Millisecond)
	reg := hook.NewRegistry(breaker)

	calls := 0
	reg.Register(hook.BeforeToolExec, hook.Func{HookName: "slow", HookPoint: hook.BeforeToolExec, Body: func(hc *hook.Context) (hook.Result, error) {
		calls++
		return hook.ContinueResult(), nil
	}})

	// Trip the breaker directly, bypassing timing flakiness.
	breaker.Record("slow", 10*time.Millisecond, time.Millisecond)
	assert.False(t, breaker.Allow("slow"))

	_, err := reg.Invoke(&hook.Context{Point: hook.BeforeToolExec}, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 0, calls)
}

func TestRegistry_InvokeRunsUntrippedHook(t *testing.T) {
	reg := hook.NewRegistry(nil)
	reg.Register(hook.AfterToolExec, fn("noop", hook.AfterToolExec, hook.ContinueResult()))

	res, err := reg.Invoke(&hook.Context{Point: hook.AfterToolExec}, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, hook.KindContinue, res.Kind)
}
