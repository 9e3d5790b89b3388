// Package hook implements the cross-cutting Hook capability (spec.md
// section 4.5): named hook points, a HookResult sum type that drives
// control flow instead of exceptions, composite hook combinators, and a
// circuit breaker bounding their overhead.
//
// The shape is grounded in the teacher's agent before/after callback
// pair (pkg/agent.Config.BeforeAgentCallbacks/AfterAgentCallbacks),
// generalized from a fixed two-point list into the full named HookPoint
// enum and the richer HookResult variants Orin's scripting surface
// needs.
package hook

import (
	"time"

	"github.com/orinrun/orin/pkg/component"
)

// Point names a place in a component's execution where hooks may run.
type Point string

const (
	BeforeAgentExec     Point = "before_agent_exec"
	AfterAgentExec      Point = "after_agent_exec"
	BeforeToolExec       Point = "before_tool_exec"
	AfterToolExec       Point = "after_tool_exec"
	BeforeWorkflowExec  Point = "before_workflow_exec"
	AfterWorkflowExec   Point = "after_workflow_exec"
	WorkflowStepBoundary Point = "workflow_step_boundary"
	StateWrite          Point = "state_write"
	StateRead           Point = "state_read"
	SessionStart        Point = "session_start"
	SessionEnd          Point = "session_end"
	Error               Point = "error"
	SystemStartup       Point = "system_startup"
	SystemShutdown      Point = "system_shutdown"
)

// Context carries everything a hook needs to observe or redirect a call.
type Context struct {
	Point       Point
	Exec        *component.ExecutionContext
	ComponentID component.ID
	Input       component.Input
	Output      component.Output
	Err         error
}

// ResultKind discriminates the HookResult sum type.
type ResultKind string

const (
	KindContinue ResultKind = "continue"
	KindModified ResultKind = "modified"
	KindCancel   ResultKind = "cancel"
	KindRedirect ResultKind = "redirect"
	KindReplace  ResultKind = "replace"
	KindRetry    ResultKind = "retry"
	KindFork     ResultKind = "fork"
	KindCache    ResultKind = "cache"
	KindSkipped  ResultKind = "skipped"
)

// Result is the tagged value a hook returns. Only the fields matching
// Kind are meaningful; the rest are left zero.
type Result struct {
	Kind     ResultKind
	Input    component.Input    // KindModified
	Reason   string             // KindCancel
	Target   string             // KindRedirect
	Output   component.Output   // KindReplace
	Delay    time.Duration      // KindRetry
	Tasks    []component.Input  // KindFork
	CacheKey string             // KindCache
}

func ContinueResult() Result                        { return Result{Kind: KindContinue} }
func SkippedResult() Result                         { return Result{Kind: KindSkipped} }
func ModifiedResult(in component.Input) Result      { return Result{Kind: KindModified, Input: in} }
func CancelResult(reason string) Result             { return Result{Kind: KindCancel, Reason: reason} }
func RedirectResult(target string) Result           { return Result{Kind: KindRedirect, Target: target} }
func ReplaceResult(out component.Output) Result     { return Result{Kind: KindReplace, Output: out} }
func RetryResult(delay time.Duration) Result        { return Result{Kind: KindRetry, Delay: delay} }
func ForkResult(tasks []component.Input) Result     { return Result{Kind: KindFork, Tasks: tasks} }
func CacheResult(key string) Result                 { return Result{Kind: KindCache, CacheKey: key} }

// Hook is the capability every hook point combinator composes.
type Hook interface {
	Name() string
	Point() Point
	Invoke(hc *Context) (Result, error)
}

// ReplayableHook marks a hook whose execution can be persisted and
// re-run during session replay (spec.md section 4.5's ReplayableHook).
// session.Manager.Replay decides from each HookInvocationRecord's
// Replayable flag; nothing in this module sets that flag from this
// interface.
type ReplayableHook interface {
	Hook
	Replayable() bool
}

// Func adapts a plain function to the Hook interface for simple,
// stateless hooks.
type Func struct {
	HookName  string
	HookPoint Point
	Body      func(hc *Context) (Result, error)
}

func (f Func) Name() string  { return f.HookName }
func (f Func) Point() Point  { return f.HookPoint }
func (f Func) Invoke(hc *Context) (Result, error) { return f.Body(hc) }
