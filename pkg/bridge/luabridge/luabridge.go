// Package luabridge is the primary ScriptEngineBridge adapter (spec.md
// section 4.7): it wraps a *lua.LState per script run, injects eleven of
// the twelve globals (all but RAG) as Lua tables of closures, and converts Lua tables to
// and from Go's map[string]any/JSON shape.
//
// Grounded in the teacher's plugin process boundary generalized to an
// in-process one, and in r3e-network-service_layer's goja engine
// (console shim, vm.Set-per-global wiring) for the overall shape of
// "one native object per script global, each method a closure over the
// bridge's dependencies" — translated here to gopher-lua's table/
// LGFunction idiom instead of goja's object/function idiom.
package luabridge

import (
	"bytes"
	"context"
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/orinrun/orin/internal/orierr"
	"github.com/orinrun/orin/pkg/bridge"
)

// Bridge implements bridge.ScriptEngineBridge over gopher-lua.
type Bridge struct {
	state   *lua.LState
	runtime *bridge.Runtime
	deps    bridge.Deps
	args    map[string]string
	stdout  bytes.Buffer
}

// New constructs a Bridge. runtime is the process-wide shared runtime
// every blocking global method call goes through (spec.md 4.7's
// "block_on_async"); pass bridge.GlobalRuntime() unless isolating a
// test.
func New(deps bridge.Deps, runtime *bridge.Runtime) *Bridge {
	L := lua.NewState()
	b := &Bridge{state: L, runtime: runtime, deps: deps}
	L.SetGlobal("print", L.NewFunction(b.luaPrint))
	return b
}

func (b *Bridge) luaPrint(L *lua.LState) int {
	n := L.GetTop()
	for i := 1; i <= n; i++ {
		if i > 1 {
			b.stdout.WriteByte('\t')
		}
		b.stdout.WriteString(L.ToStringMeta(L.Get(i)).String())
	}
	b.stdout.WriteByte('\n')
	return 0
}

// ExecuteScript runs code to completion, returning its last expression
// value via a synthetic return, plus anything printed.
func (b *Bridge) ExecuteScript(ctx context.Context, code string) (bridge.ScriptOutput, error) {
	b.stdout.Reset()
	fn, err := b.state.LoadString(code)
	if err != nil {
		return bridge.ScriptOutput{}, orierr.Wrap(orierr.KindValidation, "luabridge", err)
	}
	b.state.Push(fn)

	result, err := b.runtime.BlockOnAsync(0, func(ctx context.Context) (any, error) {
		if err := b.state.PCall(0, lua.MultRet, nil); err != nil {
			return nil, orierr.Wrap(orierr.KindComponent, "luabridge", err)
		}
		top := b.state.GetTop()
		if top == 0 {
			return nil, nil
		}
		v := fromLua(b.state.Get(-1))
		b.state.SetTop(0)
		return v, nil
	})
	if err != nil {
		return bridge.ScriptOutput{Stdout: b.stdout.String()}, err
	}
	return bridge.ScriptOutput{Value: result, Stdout: b.stdout.String()}, nil
}

// Module is a named Lua table of functions, the shape RegisterGlobal
// and every per-global builder in this package produce.
type Module map[string]lua.LGFunction

// RegisterGlobal installs object as a Lua global. object must be a
// Module (or *lua.LTable for a pre-built table); any other type is
// rejected rather than silently ignored, since gopher-lua has no
// general Go-value-to-Lua-value reflection path in this module's
// dependency set.
func (b *Bridge) RegisterGlobal(name string, object any) error {
	switch v := object.(type) {
	case Module:
		b.state.SetGlobal(name, buildTable(b.state, v))
	case *lua.LTable:
		b.state.SetGlobal(name, v)
	default:
		return orierr.New(orierr.KindValidation, "luabridge", fmt.Sprintf("unsupported global type for %q", name))
	}
	return nil
}

func buildTable(L *lua.LState, mod Module) *lua.LTable {
	t := L.NewTable()
	for name, fn := range mod {
		t.RawSetString(name, L.NewFunction(fn))
	}
	return t
}

// InjectAPIs binds eleven of the twelve globals (spec.md 4.7) as Lua
// tables of closures over g: every one except g.RAG, which has no Lua
// binding. args reads the map given to SetScriptArgs when one was set,
// and g.Args otherwise.
func (b *Bridge) InjectAPIs(g *bridge.Globals) error {
	b.state.SetGlobal("agent", buildTable(b.state, b.agentModule(g.Agent)))
	b.state.SetGlobal("tool", buildTable(b.state, b.toolModule(g.Tool)))
	b.state.SetGlobal("workflow", buildTable(b.state, b.workflowModule(g.Workflow)))
	b.state.SetGlobal("state", buildTable(b.state, b.stateModule(g.State)))
	b.state.SetGlobal("session", buildTable(b.state, b.sessionModule(g.Session)))
	b.state.SetGlobal("hook", buildTable(b.state, b.hookModule(g.Hook)))
	b.state.SetGlobal("event", buildTable(b.state, b.eventModule(g.Event)))
	b.state.SetGlobal("debug_api", buildTable(b.state, b.debugModule(g.Debug)))
	b.state.SetGlobal("provider", buildTable(b.state, b.providerModule(g.Provider)))
	b.state.SetGlobal("config", buildTable(b.state, b.configModule(g.Config)))
	args := g.Args
	if b.args != nil {
		args = bridge.NewArgsGlobal(b.args)
	}
	b.state.SetGlobal("args", buildTable(b.state, b.argsModule(args)))
	return nil
}

// SetScriptArgs stores the CLI-supplied argument map; InjectAPIs must
// be called again (or args rebuilt) for a running script to observe a
// change, matching spec.md 4.7's Args being a snapshot, not a live view.
func (b *Bridge) SetScriptArgs(args map[string]string) { b.args = args }

func (b *Bridge) Shutdown() error {
	b.state.Close()
	return nil
}
