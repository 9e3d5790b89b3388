package component

import (
	"context"
	"sync"
)

// Scope identifies the namespace an ExecutionContext operates in — used
// both for state-key prefixing (pkg/state) and for hook/event routing.
type Scope struct {
	Kind string // "global", "agent", "workflow", "session"
	ID   string
}

func GlobalScope() Scope             { return Scope{Kind: "global"} }
func AgentScope(id string) Scope     { return Scope{Kind: "agent", ID: id} }
func WorkflowScope(id string) Scope  { return Scope{Kind: "workflow", ID: id} }
func SessionScope(id string) Scope   { return Scope{Kind: "session", ID: id} }
func (s Scope) String() string       { return s.Kind + ":" + s.ID }
func (s Scope) IsGlobal() bool       { return s.Kind == "global" }

// StateAccess is the narrow capability ExecutionContext exposes for state
// reads/writes. Defined here (not in pkg/state) so pkg/component has no
// dependency on the concrete state backends — pkg/state.MemoryStore and
// boltstate.Store both satisfy it.
type StateAccess interface {
	Read(key string) (any, bool, error)
	Write(key string, value any) error
	Delete(key string) (bool, error)
	ListKeys(prefix string) ([]string, error)
}

// EventEmitter is the narrow capability ExecutionContext exposes for
// firing lifecycle events. Event-emission failures must never propagate
// into the component body (spec.md invariant); Emit therefore has no
// error return — implementations swallow and log failures themselves.
type EventEmitter interface {
	Emit(eventType string, data map[string]any)
}

// InheritancePolicy controls what a child ExecutionContext sees of its
// parent's Data map. Inherit is the documented default (spec.md open
// question #2): parent data visible, child writes isolated.
type InheritancePolicy int

const (
	Inherit InheritancePolicy = iota
	Isolate
	Copy
	Share
)

// ExecutionContext is a cheaply-cloneable handle carrying everything
// execute() needs beyond the Input itself: scope, optional state/event
// handles, a correlation id that propagates to every child context and
// event, and a small inherited data map for ad-hoc cross-step sharing
// (used by Conditional's SharedDataEquals/SharedDataExists conditions).
type ExecutionContext struct {
	context.Context

	Scope         Scope
	State         StateAccess
	Events        EventEmitter
	CorrelationID string
	ParentID      string

	data       *sync.Map
	parentData *sync.Map
	policy     InheritancePolicy
}

// NewExecutionContext creates a root context for a new top-level call.
func NewExecutionContext(ctx context.Context, scope Scope, correlationID string) *ExecutionContext {
	return &ExecutionContext{
		Context:       ctx,
		Scope:         scope,
		CorrelationID: correlationID,
		data:          &sync.Map{},
		policy:        Inherit,
	}
}

// Child derives a context for a nested call (a workflow step, a wrapped
// sub-agent). It always inherits State, Events and CorrelationID — those
// are process-wide-channel handles, not the ad-hoc data map — and applies
// policy only to the Data map, per the Inherit/Isolate/Copy/Share
// semantics spec.md leaves as an implementer's choice.
func (c *ExecutionContext) Child(scope Scope, policy InheritancePolicy) *ExecutionContext {
	child := &ExecutionContext{
		Context:       c.Context,
		Scope:         scope,
		State:         c.State,
		Events:        c.Events,
		CorrelationID: c.CorrelationID,
		ParentID:      c.Scope.ID,
		policy:        policy,
	}
	switch policy {
	case Share:
		child.data = c.data
	case Copy:
		child.data = &sync.Map{}
		c.data.Range(func(k, v any) bool {
			child.data.Store(k, v)
			return true
		})
	default: // Inherit, Isolate: fresh map; Inherit reads fall through via Get
		child.data = &sync.Map{}
	}
	if policy == Inherit {
		child.parentData = c.data
	}
	return child
}

// Get reads a value from the context's data map, falling through to the
// parent map under Inherit policy when not present locally.
func (c *ExecutionContext) Get(key string) (any, bool) {
	if v, ok := c.data.Load(key); ok {
		return v, true
	}
	if c.policy == Inherit && c.parentData != nil {
		return c.parentData.Load(key)
	}
	return nil, false
}

// Set writes to the context's own data map; writes never propagate to the
// parent, even under Inherit.
func (c *ExecutionContext) Set(key string, value any) {
	c.data.Store(key, value)
}
