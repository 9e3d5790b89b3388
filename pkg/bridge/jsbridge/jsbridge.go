// Package jsbridge is the secondary ScriptEngineBridge adapter (spec.md
// section 4.7), over github.com/dop251/goja: it wraps one *goja.Runtime
// per script run, injects the twelve globals as JS objects of closures,
// and converts between goja.Value and Go's map[string]any/JSON shape.
//
// Grounded directly in r3e-network-service_layer/system/tee/script_engine.go's
// goja usage: a fresh goja.Runtime per run, a console object overriding
// log to capture output, vm.Set per global, vm.RunString to execute, and
// Export()/ToValue() for the value conversion boundary. Mirrors
// luabridge's structure, translated from gopher-lua's table/LGFunction
// idiom to goja's object/Go-func idiom.
package jsbridge

import (
	"context"
	"fmt"

	"github.com/dop251/goja"

	"github.com/orinrun/orin/internal/orierr"
	"github.com/orinrun/orin/pkg/bridge"
)

// Bridge implements bridge.ScriptEngineBridge over goja.
type Bridge struct {
	vm      *goja.Runtime
	runtime *bridge.Runtime
	deps    bridge.Deps
	args    map[string]string
	logs    []string
}

// New constructs a Bridge. runtime is the process-wide shared runtime
// every blocking global method call goes through; pass
// bridge.GlobalRuntime() unless isolating a test.
func New(deps bridge.Deps, runtime *bridge.Runtime) *Bridge {
	vm := goja.New()
	b := &Bridge{vm: vm, runtime: runtime, deps: deps}

	console := vm.NewObject()
	_ = console.Set("log", b.consoleLog)
	_ = vm.Set("console", console)

	return b
}

func (b *Bridge) consoleLog(call goja.FunctionCall) goja.Value {
	line := ""
	for i, arg := range call.Arguments {
		if i > 0 {
			line += " "
		}
		line += arg.String()
	}
	b.logs = append(b.logs, line)
	return goja.Undefined()
}

// ExecuteScript runs code to completion, returning the value of its
// last expression (goja.RunString's own return value, unlike Lua there
// is no need to synthesize one) plus anything logged via console.log.
func (b *Bridge) ExecuteScript(ctx context.Context, code string) (bridge.ScriptOutput, error) {
	b.logs = nil

	result, err := b.runtime.BlockOnAsync(0, func(ctx context.Context) (any, error) {
		v, err := b.vm.RunString(code)
		if err != nil {
			return nil, orierr.Wrap(orierr.KindComponent, "jsbridge", err)
		}
		return fromJS(v), nil
	})

	out := bridge.ScriptOutput{Stdout: joinLogs(b.logs)}
	if err != nil {
		return out, err
	}
	out.Value = result
	return out, nil
}

func joinLogs(logs []string) string {
	s := ""
	for _, l := range logs {
		s += l + "\n"
	}
	return s
}

// Module is a named JS object of functions, the shape RegisterGlobal
// and every per-global builder in this package produce.
type Module map[string]func(goja.FunctionCall) goja.Value

// RegisterGlobal installs object as a JS global. object must be a
// Module (or *goja.Object for a pre-built one); any other type is
// rejected rather than silently ignored.
func (b *Bridge) RegisterGlobal(name string, object any) error {
	switch v := object.(type) {
	case Module:
		return b.vm.Set(name, buildObject(b.vm, v))
	case *goja.Object:
		return b.vm.Set(name, v)
	default:
		return orierr.New(orierr.KindValidation, "jsbridge", fmt.Sprintf("unsupported global type for %q", name))
	}
}

func buildObject(vm *goja.Runtime, mod Module) *goja.Object {
	obj := vm.NewObject()
	for name, fn := range mod {
		_ = obj.Set(name, fn)
	}
	return obj
}

// InjectAPIs binds eleven of the twelve globals (spec.md 4.7) as JS
// objects of closures over g: every one except g.RAG, which has no JS
// binding. args reads the map given to SetScriptArgs when one was set,
// and g.Args otherwise.
func (b *Bridge) InjectAPIs(g *bridge.Globals) error {
	_ = b.vm.Set("agent", buildObject(b.vm, b.agentModule(g.Agent)))
	_ = b.vm.Set("tool", buildObject(b.vm, b.toolModule(g.Tool)))
	_ = b.vm.Set("workflow", buildObject(b.vm, b.workflowModule(g.Workflow)))
	_ = b.vm.Set("state", buildObject(b.vm, b.stateModule(g.State)))
	_ = b.vm.Set("session", buildObject(b.vm, b.sessionModule(g.Session)))
	_ = b.vm.Set("hook", buildObject(b.vm, b.hookModule(g.Hook)))
	_ = b.vm.Set("event", buildObject(b.vm, b.eventModule(g.Event)))
	_ = b.vm.Set("debugApi", buildObject(b.vm, b.debugModule(g.Debug)))
	_ = b.vm.Set("provider", buildObject(b.vm, b.providerModule(g.Provider)))
	_ = b.vm.Set("config", buildObject(b.vm, b.configModule(g.Config)))
	args := g.Args
	if b.args != nil {
		args = bridge.NewArgsGlobal(b.args)
	}
	_ = b.vm.Set("args", buildObject(b.vm, b.argsModule(args)))
	return nil
}

// SetScriptArgs stores the CLI-supplied argument map; InjectAPIs must
// be called again for a running script to observe a change.
func (b *Bridge) SetScriptArgs(args map[string]string) { b.args = args }

func (b *Bridge) Shutdown() error { return nil }
