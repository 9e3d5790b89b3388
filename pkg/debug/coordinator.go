// Package debug implements DebugCoordinator, the DAP bridge and the
// REPL meta-command parser (spec.md 4.9, 6.2): breakpoint state,
// captured stack frames, a variable inspector and watch expressions
// shared across whichever script engine adapter hits a breakpoint.
//
// Grounded in the teacher's pkg/evaluation (session/state bookkeeping
// shape reused here for debug sessions instead of eval runs) and the
// hook package's circuit-breaker pattern for the bounded-capture
// limits below.
package debug

import (
	"fmt"
	"sort"
	"sync"

	"github.com/orinrun/orin/internal/orierr"
)

// Bounded capture limits (spec.md 4.9): a breakpoint hit captures at
// most this many locals/upvalues per frame, so a script with a huge
// closure environment never makes a break unboundedly expensive.
const (
	MaxLocalsPerFrame   = 100
	MaxUpvaluesPerFrame = 50
)

// Breakpoint is a source location (or function name) a session should
// stop at, optionally gated by a condition expression evaluated in the
// paused frame's scope.
type Breakpoint struct {
	ID        int
	File      string
	Line      int
	Function  string
	Condition string
	Verified  bool
}

// StackFrame is captured when a breakpoint fires: locals/upvalues are
// truncated to the bounded limits above before being handed to the
// coordinator.
type StackFrame struct {
	ID       int
	Name     string
	Source   string
	Line     int
	Locals   map[string]any
	Upvalues map[string]any
}

// Watch is a standing expression re-evaluated in the current paused
// frame whenever the REPL or DAP client asks for the variables view.
type Watch struct {
	ID   int
	Expr string
}

// Status is a debug session's run state.
type Status string

const (
	StatusRunning    Status = "running"
	StatusPaused     Status = "paused"
	StatusTerminated Status = "terminated"
)

// StepMode is what a paused session's caller should do next, decided
// by whichever DAP/REPL command resumed it.
type StepMode string

const (
	StepContinue StepMode = "continue"
	StepNext     StepMode = "next"   // step over
	StepIn       StepMode = "step_in"
	StepOut      StepMode = "step_out"
	StepTerminate StepMode = "terminate"
)

// Session is one debug session: a script execution's breakpoint set,
// its paused stack (if any) and its watch list.
type Session struct {
	id string

	mu                   sync.Mutex
	breakpoints          map[int]Breakpoint
	nextBreakpointID      int
	exceptionBreakpoints bool
	watches              map[int]Watch
	nextWatchID          int
	frames               []StackFrame
	status               Status
	resume               chan StepMode
	evaluator            func(expr string, frame StackFrame) (any, error)
}

func newSession(id string) *Session {
	return &Session{
		id:          id,
		breakpoints: make(map[int]Breakpoint),
		watches:     make(map[int]Watch),
		status:      StatusRunning,
	}
}

func (s *Session) ID() string { return s.id }

// SetEvaluator installs the expression evaluator a language adapter
// uses to resolve watch/condition expressions against a paused frame.
// Without one, Variables/Evaluate simply echoes frame locals.
func (s *Session) SetEvaluator(fn func(expr string, frame StackFrame) (any, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evaluator = fn
}

// SetBreakpoints replaces the session's full breakpoint set for one
// source file — the DAP setBreakpoints semantics (full replace, not
// incremental add).
func (s *Session) SetBreakpoints(file string, lines []int, conditions map[int]string) []Breakpoint {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, bp := range s.breakpoints {
		if bp.File == file {
			delete(s.breakpoints, id)
		}
	}
	out := make([]Breakpoint, 0, len(lines))
	for _, line := range lines {
		s.nextBreakpointID++
		bp := Breakpoint{
			ID:        s.nextBreakpointID,
			File:      file,
			Line:      line,
			Condition: conditions[line],
			Verified:  true,
		}
		s.breakpoints[bp.ID] = bp
		out = append(out, bp)
	}
	return out
}

// SetExceptionBreakpoints toggles whether an uncaught script error
// pauses the session before propagating.
func (s *Session) SetExceptionBreakpoints(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exceptionBreakpoints = enabled
}

func (s *Session) breakpointsAt(file string, line int) []Breakpoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	var hits []Breakpoint
	for _, bp := range s.breakpoints {
		if bp.File == file && bp.Line == line {
			hits = append(hits, bp)
		}
	}
	return hits
}

// ShouldBreak reports whether line in file should pause the session —
// an unconditional breakpoint always matches; a conditional one is
// left to the caller (the language adapter) to evaluate, since only
// it can run the condition expression in the live frame.
func (s *Session) ShouldBreak(file string, line int) (bp Breakpoint, ok bool) {
	hits := s.breakpointsAt(file, line)
	if len(hits) == 0 {
		return Breakpoint{}, false
	}
	return hits[0], true
}

// AddWatch/RemoveWatch manage the session's standing watch list.
func (s *Session) AddWatch(expr string) Watch {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextWatchID++
	w := Watch{ID: s.nextWatchID, Expr: expr}
	s.watches[w.ID] = w
	return w
}

func (s *Session) RemoveWatch(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.watches, id)
}

func (s *Session) Watches() []Watch {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Watch, 0, len(s.watches))
	for _, w := range s.watches {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func truncate[M ~map[string]any](m M, limit int) map[string]any {
	if len(m) <= limit {
		return m
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make(map[string]any, limit)
	for _, k := range keys[:limit] {
		out[k] = m[k]
	}
	return out
}

// Break is called by a language adapter's line hook when execution
// reaches a breakpoint (or an uncaught exception, when exception
// breakpoints are enabled). It captures the frame, flips the session
// to paused, and blocks until a DAP/REPL command resumes it — this is
// the one place a debug session legitimately suspends a script that
// would otherwise run synchronously to completion.
func (s *Session) Break(frame StackFrame) StepMode {
	frame.Locals = truncate(frame.Locals, MaxLocalsPerFrame)
	frame.Upvalues = truncate(frame.Upvalues, MaxUpvaluesPerFrame)

	s.mu.Lock()
	s.frames = []StackFrame{frame}
	s.status = StatusPaused
	s.resume = make(chan StepMode, 1)
	resume := s.resume
	s.mu.Unlock()

	mode := <-resume

	s.mu.Lock()
	if mode != StepTerminate {
		s.status = StatusRunning
	} else {
		s.status = StatusTerminated
	}
	s.mu.Unlock()
	return mode
}

// Resume sends step to whichever goroutine is blocked in Break. It is
// a no-op (returns an error) if the session is not currently paused.
func (s *Session) Resume(step StepMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusPaused || s.resume == nil {
		return orierr.New(orierr.KindValidation, "debug", "session is not paused")
	}
	s.resume <- step
	s.resume = nil
	return nil
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) Frames() []StackFrame {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]StackFrame, len(s.frames))
	copy(out, s.frames)
	return out
}

// Variables flattens frame frameID's locals and upvalues into DAP's
// {name, value} shape, sorted by name for stable output.
func (s *Session) Variables(frameID int) []map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var frame *StackFrame
	for i := range s.frames {
		if s.frames[i].ID == frameID {
			frame = &s.frames[i]
			break
		}
	}
	if frame == nil {
		return nil
	}
	var out []map[string]string
	add := func(scope string, vars map[string]any) {
		names := make([]string, 0, len(vars))
		for n := range vars {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			out = append(out, map[string]string{
				"scope": scope,
				"name":  n,
				"value": renderValue(vars[n]),
			})
		}
	}
	add("locals", frame.Locals)
	add("upvalues", frame.Upvalues)
	return out
}

// Evaluate runs expr against the current top frame via the installed
// evaluator, falling back to a plain local lookup when none is set.
func (s *Session) Evaluate(expr string) (any, error) {
	s.mu.Lock()
	if len(s.frames) == 0 {
		s.mu.Unlock()
		return nil, orierr.New(orierr.KindValidation, "debug", "no paused frame to evaluate against")
	}
	frame := s.frames[0]
	eval := s.evaluator
	s.mu.Unlock()

	if eval != nil {
		return eval(expr, frame)
	}
	if v, ok := frame.Locals[expr]; ok {
		return v, nil
	}
	if v, ok := frame.Upvalues[expr]; ok {
		return v, nil
	}
	return nil, orierr.New(orierr.KindNotFound, "debug", "unknown identifier: "+expr)
}

func renderValue(v any) string {
	if v == nil {
		return "nil"
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// Coordinator owns every active debug Session, keyed by id.
type Coordinator struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewCoordinator() *Coordinator {
	return &Coordinator{sessions: make(map[string]*Session)}
}

func (c *Coordinator) CreateSession(id string) *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := newSession(id)
	c.sessions[id] = s
	return s
}

func (c *Coordinator) Session(id string) (*Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[id]
	return s, ok
}

func (c *Coordinator) RemoveSession(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, id)
}

func (c *Coordinator) Sessions() []*Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Session, 0, len(c.sessions))
	for _, s := range c.sessions {
		out = append(out, s)
	}
	return out
}
