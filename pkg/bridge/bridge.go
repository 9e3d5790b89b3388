// Package bridge implements the script-engine bridge (spec.md section
// 4.7): a ScriptEngineBridge contract every per-language adapter
// implements once, a fixed set of twelve globals exposed to scripts
// (Agent, Tool, Workflow, State, Session, Hook, Event, Debug, RAG,
// Provider, Config, Args), and the synchronous block_on_async wrapper
// every global method runs through so a script never observes
// coroutine/promise semantics.
//
// Grounded in the teacher's plugin boundary (pkg/plugins, a gRPC
// process boundary) generalized into an in-process scripting boundary,
// and in r3e-network-service_layer/system/tee/script_engine.go for the
// concrete goja wiring its luabridge/jsbridge siblings adapt.
package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/orinrun/orin/pkg/agentfactory"
	"github.com/orinrun/orin/pkg/component"
	"github.com/orinrun/orin/pkg/event"
	"github.com/orinrun/orin/pkg/hook"
	"github.com/orinrun/orin/pkg/registry"
	"github.com/orinrun/orin/pkg/session"
	"github.com/orinrun/orin/pkg/state"
)

// ScriptOutput is what ExecuteScript returns: the script's final
// expression value (language-adapter-defined JSON shape) plus anything
// it wrote to stdout/stderr, mirroring spec.md's execute_request reply
// content.
type ScriptOutput struct {
	Value  any
	Stdout string
	Stderr string
}

// ScriptEngineBridge is implemented once per embedded language.
// Globals is called by NewGlobals' caller once per bridge instance;
// each adapter is responsible for translating the Globals value into
// its own native closures/objects.
type ScriptEngineBridge interface {
	ExecuteScript(ctx context.Context, code string) (ScriptOutput, error)
	RegisterGlobal(name string, object any) error
	InjectAPIs(globals *Globals) error
	SetScriptArgs(args map[string]string)
	Shutdown() error
}

// Deps bundles everything InjectAPIs-time globals need: the component
// registry, provider lookup, state backend, session manager, hook
// registry, and event bus. One Deps value is shared by every bridge
// instance in a process, matching spec.md 5's "process-wide state"
// invariant (one ComponentRegistry handle, one event bus, one session
// manager).
type Deps struct {
	Registry  *registry.ComponentRegistry
	Providers agentfactory.ProviderLookup
	State     state.StateAccess
	Sessions  *session.Manager
	Hooks     *hook.Registry
	Events    *event.Bus
}

// Globals is the fixed set of twelve script-facing objects. Every
// adapter (luabridge, jsbridge, ...) builds its native table/object
// representation by walking this struct — nothing language-specific
// lives here.
type Globals struct {
	Agent    *AgentGlobal
	Tool     *ToolGlobal
	Workflow *WorkflowGlobal
	State    *StateGlobal
	Session  *SessionGlobal
	Hook     *HookGlobal
	Event    *EventGlobal
	Debug    *DebugGlobal
	RAG      *RAGGlobal
	Provider *ProviderGlobal
	Config   *ConfigGlobal
	Args     *ArgsGlobal
}

// NewGlobals builds the full global set from deps. args is the
// CLI/script-supplied argument table (spec.md 4.7's Args global);
// cfg is nil-able — a bridge run without a config subsystem
// simply exposes an empty Config global.
func NewGlobals(deps Deps, args map[string]string, cfg ConfigStore) *Globals {
	return &Globals{
		Agent:    &AgentGlobal{deps: deps},
		Tool:     &ToolGlobal{deps: deps},
		Workflow: &WorkflowGlobal{deps: deps},
		State:    &StateGlobal{deps: deps},
		Session:  &SessionGlobal{deps: deps},
		Hook:     &HookGlobal{deps: deps},
		Event:    &EventGlobal{deps: deps},
		Debug:    NewDebugGlobal(),
		RAG:      &RAGGlobal{},
		Provider: &ProviderGlobal{deps: deps},
		Config:   &ConfigGlobal{store: cfg},
		Args:     NewArgsGlobal(args),
	}
}

// Runtime is the process-wide shared resource every bridge instance's
// block_on_async call enters (spec.md 4.8's "global I/O runtime"): in
// Go there is no separate async runtime to spin up, so Runtime's job
// reduces to owning the one background context cancelled at shutdown
// and bounding blocking calls with an optional timeout. The process-wide
// instance is created lazily via GlobalRuntime and is never recreated
// for the life of the process.
type Runtime struct {
	ctx    context.Context
	cancel context.CancelFunc
}

var (
	processRuntime     *Runtime
	processRuntimeOnce sync.Once
)

// GlobalRuntime returns the process-wide Runtime, constructing it on
// first call. Every subsequent call returns the same instance — this
// is the Go analogue of spec.md's "created once, never recreated"
// shared multi-thread runtime. sync.Once makes the first construction
// safe under concurrent first use from multiple bridge instances.
func GlobalRuntime() *Runtime {
	processRuntimeOnce.Do(func() { processRuntime = NewRuntime() })
	return processRuntime
}

// NewRuntime constructs a standalone Runtime. Most callers want
// GlobalRuntime; NewRuntime exists for tests that need an isolated
// instance to shut down independently.
func NewRuntime() *Runtime {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runtime{ctx: ctx, cancel: cancel}
}

// Shutdown cancels the runtime's background context. Idempotent.
func (r *Runtime) Shutdown() { r.cancel() }

// BlockOnAsync runs fn to completion, applying timeout (if > 0) and
// recovering any panic into an error — the synchronous wrapper every
// global method goes through so a script calling e.g. agent.execute(...)
// never sees a promise or coroutine (spec.md 4.7's "block_on_async").
// Go's goroutines already let other work progress while fn blocks, so
// the "block-in-place primitive" spec.md calls for is simply fn running
// on its own goroutine while BlockOnAsync waits on a channel.
func (r *Runtime) BlockOnAsync(timeout time.Duration, fn func(ctx context.Context) (any, error)) (result any, err error) {
	ctx := r.ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type outcome struct {
		val any
		err error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- outcome{err: panicError(rec)}
			}
		}()
		v, e := fn(ctx)
		done <- outcome{val: v, err: e}
	}()

	select {
	case o := <-done:
		return o.val, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func panicError(rec any) error {
	if err, ok := rec.(error); ok {
		return err
	}
	return &panicWrap{rec: rec}
}

type panicWrap struct{ rec any }

func (p *panicWrap) Error() string { return "script call panicked: " + formatAny(p.rec) }

func formatAny(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if e, ok := v.(error); ok {
		return e.Error()
	}
	return "panic"
}

// scopeComponentType maps a scope's Kind to the component.Type an
// event emitted from it should be stamped with — best-effort, since a
// scope's Kind string is freeform outside the agent/workflow/tool
// triad (e.g. "global" for a script's own top-level calls).
func scopeComponentType(scope component.Scope) component.Type {
	switch scope.Kind {
	case "tool":
		return component.TypeTool
	case "workflow":
		return component.TypeWorkflow
	default:
		return component.TypeAgent
	}
}

// ExecutionContext builds the component.ExecutionContext every global
// method call threads through to reach BaseAgent.Execute, rooted at a
// fixed scope so script-initiated calls are attributable in events and
// hooks the same way a workflow step's calls are.
func ExecutionContext(ctx context.Context, d Deps, scope component.Scope, correlationID string) *component.ExecutionContext {
	ec := component.NewExecutionContext(ctx, scope, correlationID)
	ec.State = d.State
	if d.Events != nil {
		ec.Events = event.Emitter{
			Bus:           d.Events,
			ComponentID:   component.ID{Name: scope.ID, Type: scopeComponentType(scope)},
			CorrelationID: correlationID,
		}
	}
	return ec
}
