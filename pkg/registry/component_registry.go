package registry

import (
	"github.com/orinrun/orin/internal/orierr"
	"github.com/orinrun/orin/pkg/component"
)

// Sandboxed is implemented by tools that require a sandbox reference at
// construction. ComponentRegistry uses it to enforce spec.md's invariant:
// "any tool whose declared security level is not Safe AND whose
// security_requirements touch the filesystem/network MUST be constructed
// with a shared sandbox".
type Sandboxed interface {
	component.BaseAgent
	RequiresSandbox() bool
	HasSandbox() bool
}

// ComponentLookup is the read-only subset of ComponentRegistry that
// workflow and agent packages depend on. Splitting it out breaks the
// dependency cycle spec.md section 9.1 calls out: components hold a
// ComponentLookup, never a concrete *ComponentRegistry.
type ComponentLookup interface {
	Lookup(name string) (component.BaseAgent, bool)
	GetTool(name string) (component.BaseAgent, bool)
	GetAgent(name string) (component.BaseAgent, bool)
	GetWorkflow(name string) (component.BaseAgent, bool)
}

// EventBus is the minimal capability ComponentRegistry needs to hand out
// an emitter for wiring into ExecutionContext; pkg/event.Bus implements
// it.
type EventBus interface {
	Emit(eventType string, data map[string]any)
}

// ComponentRegistry is the single source of truth for component lookup
// (spec.md section 4.2): one process-scoped registry, three typed
// buckets (tools, agents, workflows), one uniform Lookup used by the
// workflow engine's StepExecutor.
type ComponentRegistry struct {
	tools     *Store[component.BaseAgent]
	agents    *Store[component.BaseAgent]
	workflows *Store[component.BaseAgent]
	bus       EventBus
}

// New constructs an empty ComponentRegistry. bus may be nil.
func New(bus EventBus) *ComponentRegistry {
	return &ComponentRegistry{
		tools:     NewStore[component.BaseAgent](),
		agents:    NewStore[component.BaseAgent](),
		workflows: NewStore[component.BaseAgent](),
		bus:       bus,
	}
}

// RegisterTool registers a tool directly. It refuses any tool that
// reports RequiresSandbox()==true but HasSandbox()==false — the only way
// to register such a tool is RegisterToolWithSandbox, which the caller is
// expected to have already used to construct it before this call (the
// sandbox itself is supplied at tool construction time, not here; this
// check exists to catch tools built without going through that path).
func (r *ComponentRegistry) RegisterTool(name string, tool component.BaseAgent) error {
	if sb, ok := tool.(Sandboxed); ok && sb.RequiresSandbox() && !sb.HasSandbox() {
		return orierr.Wrap(orierr.KindSecurity, "registry", orierr.ErrMissingSandbox)
	}
	return r.tools.Register(name, tool)
}

// RegisterAgent registers an LLM agent or remote-agent wrapper.
func (r *ComponentRegistry) RegisterAgent(name string, agent component.BaseAgent) error {
	return r.agents.Register(name, agent)
}

// RegisterWorkflow registers a workflow pattern instance. Workflows
// implement component.BaseAgent, so a workflow can itself be registered
// and looked up as a step inside another workflow — nesting is
// structural, not a special case.
func (r *ComponentRegistry) RegisterWorkflow(name string, wf component.BaseAgent) error {
	return r.workflows.Register(name, wf)
}

func (r *ComponentRegistry) GetTool(name string) (component.BaseAgent, bool)     { return r.tools.Get(name) }
func (r *ComponentRegistry) GetAgent(name string) (component.BaseAgent, bool)    { return r.agents.Get(name) }
func (r *ComponentRegistry) GetWorkflow(name string) (component.BaseAgent, bool) { return r.workflows.Get(name) }

// Lookup searches tools, then agents, then workflows — the uniform
// lookup StepExecutor uses since a WorkflowStep only names a component,
// not its bucket.
func (r *ComponentRegistry) Lookup(name string) (component.BaseAgent, bool) {
	if t, ok := r.tools.Get(name); ok {
		return t, true
	}
	if a, ok := r.agents.Get(name); ok {
		return a, true
	}
	if w, ok := r.workflows.Get(name); ok {
		return w, true
	}
	return nil, false
}

// TypeFilter restricts List to one component.Type, or all of them when
// empty.
type TypeFilter struct {
	Type component.Type
}

// Entry is one (name, metadata) pair returned by List.
type Entry struct {
	Name     string
	Metadata component.Metadata
}

// List returns metadata for every component matching filter.Type (or all
// components if filter.Type is empty).
func (r *ComponentRegistry) List(filter TypeFilter) []Entry {
	var out []Entry
	add := func(bucket *Store[component.BaseAgent]) {
		for name, c := range bucket.List() {
			out = append(out, Entry{Name: name, Metadata: c.Metadata()})
		}
	}
	switch filter.Type {
	case component.TypeTool:
		add(r.tools)
	case component.TypeAgent:
		add(r.agents)
	case component.TypeWorkflow:
		add(r.workflows)
	default:
		add(r.tools)
		add(r.agents)
		add(r.workflows)
	}
	return out
}

// EventBusHandle returns the registry's event bus handle, if wired, so that
// other subsystems (workflow builder, bridge) can subscribe to
// component lifecycle events without threading a separate reference
// through every constructor.
func (r *ComponentRegistry) EventBusHandle() EventBus { return r.bus }
