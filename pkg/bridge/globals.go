package bridge

import (
	"context"
	"sync"

	"github.com/orinrun/orin/internal/orierr"
	"github.com/orinrun/orin/pkg/agentfactory"
	"github.com/orinrun/orin/pkg/component"
	"github.com/orinrun/orin/pkg/event"
	"github.com/orinrun/orin/pkg/hook"
	"github.com/orinrun/orin/pkg/registry"
	"github.com/orinrun/orin/pkg/session"
	"github.com/orinrun/orin/pkg/state"
	"github.com/orinrun/orin/pkg/tool"
	"github.com/orinrun/orin/pkg/workflow"
)

// componentCall is the one place every global that executes a
// component by name goes through, so Agent/Tool/Workflow's invoke
// methods all build the same kind of root ExecutionContext rather than
// each reinventing it.
func componentCall(ctx context.Context, d Deps, scope component.Scope, comp component.BaseAgent, input map[string]any) (component.Output, error) {
	ec := ExecutionContext(ctx, d, scope, "")
	return comp.Execute(ec, component.Input{Named: input})
}

// AgentGlobal implements spec.md 4.7's Agent global: builder, list,
// get, wrap-as-tool, create-from-template.
type AgentGlobal struct{ deps Deps }

func (g *AgentGlobal) List() []registry.Entry {
	return g.deps.Registry.List(registry.TypeFilter{Type: component.TypeAgent})
}

func (g *AgentGlobal) Get(name string) (component.BaseAgent, bool) {
	return g.deps.Registry.GetAgent(name)
}

// Create builds an LLMAgent from a template and registers it under
// tpl.Meta.Name, matching spec.md's "create-from-template".
func (g *AgentGlobal) Create(tpl agentfactory.Template) (*agentfactory.LLMAgent, error) {
	agent, err := agentfactory.FromTemplate(tpl, g.deps.Registry, g.deps.Providers)
	if err != nil {
		return nil, err
	}
	if err := g.deps.Registry.RegisterAgent(tpl.Meta.Name, agent); err != nil {
		return nil, err
	}
	return agent, nil
}

// WrapAsTool exposes an already-registered agent as a tool, registering
// the wrapper under <agentName>_as_tool.
func (g *AgentGlobal) WrapAsTool(agentName string, maxDepth int) (*agentfactory.WrappedTool, error) {
	if _, ok := g.deps.Registry.GetAgent(agentName); !ok {
		return nil, orierr.Wrap(orierr.KindNotFound, "agent", orierr.ErrNotFound)
	}
	wrapped := agentfactory.WrapAsTool(agentName, g.deps.Registry, maxDepth)
	if err := g.deps.Registry.RegisterTool(wrapped.Metadata().Name, wrapped); err != nil {
		return nil, err
	}
	return wrapped, nil
}

// Execute runs a registered agent by name with named parameters.
func (g *AgentGlobal) Execute(ctx context.Context, name string, input map[string]any) (component.Output, error) {
	a, ok := g.deps.Registry.GetAgent(name)
	if !ok {
		return component.Output{}, orierr.Wrap(orierr.KindNotFound, "agent", orierr.ErrNotFound)
	}
	return componentCall(ctx, g.deps, component.AgentScope(name), a, input)
}

// ToolGlobal implements spec.md 4.7's Tool global: list, get, invoke,
// list-by-category.
type ToolGlobal struct{ deps Deps }

func (g *ToolGlobal) List() []registry.Entry {
	return g.deps.Registry.List(registry.TypeFilter{Type: component.TypeTool})
}

func (g *ToolGlobal) Get(name string) (component.BaseAgent, bool) {
	return g.deps.Registry.GetTool(name)
}

func (g *ToolGlobal) ListByCategory(category tool.Category) []registry.Entry {
	var out []registry.Entry
	for _, e := range g.List() {
		t, ok := g.deps.Registry.GetTool(e.Name)
		if !ok {
			continue
		}
		if real, ok := t.(*tool.Tool); ok && real.Category() == category {
			out = append(out, e)
		}
	}
	return out
}

func (g *ToolGlobal) Invoke(ctx context.Context, name string, input map[string]any) (component.Output, error) {
	t, ok := g.deps.Registry.GetTool(name)
	if !ok {
		return component.Output{}, orierr.Wrap(orierr.KindNotFound, "tool", orierr.ErrNotFound)
	}
	return componentCall(ctx, g.deps, component.Scope{Kind: "tool", ID: name}, t, input)
}

// WorkflowGlobal implements spec.md 4.7's Workflow global: the four
// pattern builders, execute, list.
type WorkflowGlobal struct{ deps Deps }

func (g *WorkflowGlobal) executor() *workflow.StepExecutor {
	return workflow.NewStepExecutor(g.deps.Registry, g.deps.Hooks)
}

// Build constructs a workflow of the named kind ("sequential",
// "parallel", "conditional", "loop") and registers it under id.
func (g *WorkflowGlobal) Build(kind string, meta component.Metadata, id string, cfg workflow.TypeConfig) (component.BaseAgent, error) {
	wf, err := workflow.New(kind, meta, id, g.executor(), cfg)
	if err != nil {
		return nil, err
	}
	if err := g.deps.Registry.RegisterWorkflow(id, wf); err != nil {
		return nil, err
	}
	return wf, nil
}

func (g *WorkflowGlobal) List() []registry.Entry {
	return g.deps.Registry.List(registry.TypeFilter{Type: component.TypeWorkflow})
}

func (g *WorkflowGlobal) Execute(ctx context.Context, id string, input map[string]any) (component.Output, error) {
	wf, ok := g.deps.Registry.GetWorkflow(id)
	if !ok {
		return component.Output{}, orierr.Wrap(orierr.KindNotFound, "workflow", orierr.ErrNotFound)
	}
	return componentCall(ctx, g.deps, component.WorkflowScope(id), wf, input)
}

// StateGlobal implements spec.md 4.7's State global: get/set/delete/list
// plus the scope-aware workflow_get/list, agent_get/set, tool_get/set
// helpers.
type StateGlobal struct{ deps Deps }

func (g *StateGlobal) Get(key string) (any, bool, error)    { return g.deps.State.Read(key) }
func (g *StateGlobal) Set(key string, value any) error      { return g.deps.State.Write(key, value) }
func (g *StateGlobal) Delete(key string) (bool, error)       { return g.deps.State.Delete(key) }
func (g *StateGlobal) List(prefix string) ([]string, error) { return g.deps.State.ListKeys(prefix) }

func (g *StateGlobal) scoped(scope state.Scope) state.ScopedStore {
	return state.NewScopedStore(g.deps.State, scope)
}

func (g *StateGlobal) WorkflowGet(workflowID, key string) (any, bool, error) {
	return g.scoped(state.Scope{Kind: state.ScopeWorkflow, ID: workflowID}).Read(key)
}

func (g *StateGlobal) WorkflowList(workflowID, prefix string) ([]string, error) {
	return g.scoped(state.Scope{Kind: state.ScopeWorkflow, ID: workflowID}).ListKeys(prefix)
}

func (g *StateGlobal) AgentGet(agentID, key string) (any, bool, error) {
	return g.scoped(state.Scope{Kind: state.ScopeAgent, ID: agentID}).Read(key)
}

func (g *StateGlobal) AgentSet(agentID, key string, value any) error {
	return g.scoped(state.Scope{Kind: state.ScopeAgent, ID: agentID}).Write(key, value)
}

func (g *StateGlobal) ToolGet(toolID, key string) (any, bool, error) {
	return g.scoped(state.Scope{Kind: state.ScopeTool, ID: toolID}).Read(key)
}

func (g *StateGlobal) ToolSet(toolID, key string, value any) error {
	return g.scoped(state.Scope{Kind: state.ScopeTool, ID: toolID}).Write(key, value)
}

// SessionGlobal implements spec.md 4.7's Session global: create,
// get_current, set_current, list, save, load, artifact APIs.
type SessionGlobal struct {
	deps Deps

	mu        sync.RWMutex
	currentID string
}

func (g *SessionGlobal) Create(id string) (*session.Session, error) { return g.deps.Sessions.Create(id) }

func (g *SessionGlobal) GetCurrent() (*session.Session, bool) {
	g.mu.RLock()
	id := g.currentID
	g.mu.RUnlock()
	if id == "" {
		return nil, false
	}
	return g.deps.Sessions.Get(id)
}

func (g *SessionGlobal) SetCurrent(id string) error {
	if _, ok := g.deps.Sessions.Get(id); !ok {
		return session.ErrSessionNotFound
	}
	g.mu.Lock()
	g.currentID = id
	g.mu.Unlock()
	return nil
}

func (g *SessionGlobal) List() []*session.Session { return g.deps.Sessions.List() }

// Save writes a named artifact to the current session.
func (g *SessionGlobal) Save(a session.Artifact) error {
	s, ok := g.GetCurrent()
	if !ok {
		return session.ErrSessionNotFound
	}
	return s.PutArtifact(a)
}

// Load reads a named artifact from the current session.
func (g *SessionGlobal) Load(artifactID string) (session.Artifact, bool, error) {
	s, ok := g.GetCurrent()
	if !ok {
		return session.Artifact{}, false, session.ErrSessionNotFound
	}
	a, found := s.GetArtifact(artifactID)
	return a, found, nil
}

func (g *SessionGlobal) Artifacts() ([]session.Artifact, error) {
	s, ok := g.GetCurrent()
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	return s.ListArtifacts(), nil
}

// HookGlobal implements spec.md 4.7's Hook global: register, unregister,
// list, enable, disable.
type HookGlobal struct{ deps Deps }

func (g *HookGlobal) Register(point hook.Point, h hook.Hook) {
	if g.deps.Hooks != nil {
		g.deps.Hooks.Register(point, h)
	}
}

func (g *HookGlobal) Unregister(name string) {
	if g.deps.Hooks != nil {
		g.deps.Hooks.Unregister(name)
	}
}

func (g *HookGlobal) List() []hook.Hook {
	if g.deps.Hooks == nil {
		return nil
	}
	return g.deps.Hooks.All()
}

func (g *HookGlobal) Enable(name string) {
	if g.deps.Hooks != nil {
		g.deps.Hooks.Enable(name)
	}
}

func (g *HookGlobal) Disable(name string) {
	if g.deps.Hooks != nil {
		g.deps.Hooks.Disable(name)
	}
}

// EventGlobal implements spec.md 4.7's Event global: publish, subscribe
// (pattern), unsubscribe.
type EventGlobal struct{ deps Deps }

func (g *EventGlobal) Publish(eventType string, data map[string]any) {
	if g.deps.Events != nil {
		g.deps.Events.Emit(eventType, data)
	}
}

// Subscribe registers handler for every event whose type matches the
// glob pattern, returning the Subscription a script holds onto to
// unsubscribe later.
func (g *EventGlobal) Subscribe(pattern string, handler func(eventType string, data map[string]any)) interface{ Close() } {
	if g.deps.Events == nil {
		return noopSubscription{}
	}
	return g.deps.Events.Subscribe(pattern, nil, event.Buffer, 0, func(_ context.Context, ev event.UniversalEvent) error {
		handler(ev.Type, ev.Data)
		return nil
	})
}

type noopSubscription struct{}

func (noopSubscription) Close() {}

// RAGGlobal implements spec.md 4.7's RAG global. RAG is an external
// collaborator's facade ("not expanded here" per spec.md) — this type
// is the stable method surface a future RAG implementation plugs into;
// every method returns a typed not-implemented error until one is
// wired in.
type RAGGlobal struct{}

func (g *RAGGlobal) Index(collection string, documents []map[string]any) error {
	return orierr.New(orierr.KindComponent, "rag", "no RAG collaborator configured")
}

func (g *RAGGlobal) Search(collection, query string, topK int) ([]map[string]any, error) {
	return nil, orierr.New(orierr.KindComponent, "rag", "no RAG collaborator configured")
}

func (g *RAGGlobal) Embed(text string) ([]float64, error) {
	return nil, orierr.New(orierr.KindComponent, "rag", "no RAG collaborator configured")
}

// ProviderGlobal implements spec.md 4.7's Provider global: list, get,
// get_capabilities, is_available.
type ProviderGlobal struct{ deps Deps }

func (g *ProviderGlobal) Get(name string) (agentfactory.LLMProvider, bool) {
	return g.deps.Providers.GetProvider(name)
}

func (g *ProviderGlobal) GetCapabilities(name string) ([]string, bool) {
	p, ok := g.deps.Providers.GetProvider(name)
	if !ok {
		return nil, false
	}
	return p.Capabilities(), true
}

func (g *ProviderGlobal) IsAvailable(name string) bool {
	_, ok := g.deps.Providers.GetProvider(name)
	return ok
}

// ConfigStore is the narrow capability ConfigGlobal needs from
// pkg/config, kept here rather than importing pkg/config directly so
// bridge has no hard dependency on the configuration package shape.
type ConfigStore interface {
	GetValue(key string) (any, bool)
	SetValue(key string, value any) error
	Snapshot() map[string]any
	Restore(snapshot map[string]any) error
}

// ConfigGlobal implements spec.md 4.7's Config global: get_value,
// set_value, snapshot, restore, subject to boot-lock and permissions
// enforced by the store itself.
type ConfigGlobal struct{ store ConfigStore }

func (g *ConfigGlobal) GetValue(key string) (any, bool) {
	if g.store == nil {
		return nil, false
	}
	return g.store.GetValue(key)
}

func (g *ConfigGlobal) SetValue(key string, value any) error {
	if g.store == nil {
		return orierr.New(orierr.KindComponent, "config", "no config store configured")
	}
	return g.store.SetValue(key, value)
}

func (g *ConfigGlobal) Snapshot() map[string]any {
	if g.store == nil {
		return nil
	}
	return g.store.Snapshot()
}

func (g *ConfigGlobal) Restore(snapshot map[string]any) error {
	if g.store == nil {
		return orierr.New(orierr.KindComponent, "config", "no config store configured")
	}
	return g.store.Restore(snapshot)
}

// ArgsGlobal implements spec.md 4.7's Args global: a read-only table
// indexed and named. args is a map<string,string> from the host; index
// keys ("0", "1", ...) preserve positional order alongside named keys,
// matching spec.md 4.7's "positional-vs-named preserved by index+name
// keys".
type ArgsGlobal struct {
	named map[string]string
}

func NewArgsGlobal(args map[string]string) *ArgsGlobal {
	if args == nil {
		args = map[string]string{}
	}
	return &ArgsGlobal{named: args}
}

func (g *ArgsGlobal) Get(key string) (string, bool) {
	v, ok := g.named[key]
	return v, ok
}

func (g *ArgsGlobal) All() map[string]string {
	out := make(map[string]string, len(g.named))
	for k, v := range g.named {
		out[k] = v
	}
	return out
}
