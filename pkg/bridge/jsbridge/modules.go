package jsbridge

import (
	"context"
	"time"

	"github.com/dop251/goja"

	"github.com/orinrun/orin/pkg/agentfactory"
	"github.com/orinrun/orin/pkg/bridge"
	"github.com/orinrun/orin/pkg/component"
	"github.com/orinrun/orin/pkg/registry"
	"github.com/orinrun/orin/pkg/session"
	"github.com/orinrun/orin/pkg/tool"
	"github.com/orinrun/orin/pkg/workflow"
)

func entriesToJS(entries []registry.Entry) []any {
	out := make([]any, len(entries))
	for i, e := range entries {
		out[i] = map[string]any{
			"name":        e.Name,
			"description": e.Metadata.Description,
			"version":     e.Metadata.Version,
		}
	}
	return out
}

func outputToJS(out component.Output) map[string]any {
	m := map[string]any{"text": out.Text}
	if extra, err := out.AsJSON(); err == nil {
		m["metadata"] = extra
	}
	return m
}

func templateFromJS(v goja.Value) agentfactory.Template {
	m := namedInputFromJS(v)
	tpl := agentfactory.Template{Meta: component.Metadata{Type: component.TypeAgent}}
	tpl.Meta.Name = asString(m["name"])
	tpl.Meta.Description = asString(m["description"])
	tpl.Provider = asString(m["provider"])
	tpl.SystemPrompt = asString(m["system_prompt"])
	if n, ok := asFloat(m["max_iters"]); ok {
		tpl.MaxIters = int(n)
	}
	for _, rt := range asSlice(m["tools"]) {
		if s, ok := rt.(string); ok {
			tpl.Tools = append(tpl.Tools, s)
		}
	}
	return tpl
}

// agentModule wires the Agent global (spec.md 4.7): list, get, execute,
// create-from-template, wrap-as-tool.
func (b *Bridge) agentModule(g *bridge.AgentGlobal) Module {
	return Module{
		"list": func(call goja.FunctionCall) goja.Value {
			return b.vm.ToValue(entriesToJS(g.List()))
		},
		"get": func(call goja.FunctionCall) goja.Value {
			_, ok := g.Get(call.Argument(0).String())
			return b.vm.ToValue(ok)
		},
		"execute": func(call goja.FunctionCall) goja.Value {
			input := namedInputFromJS(call.Argument(1))
			out, err := g.Execute(context.Background(), call.Argument(0).String(), input)
			if err != nil {
				throw(b.vm, err)
			}
			return b.vm.ToValue(outputToJS(out))
		},
		"create": func(call goja.FunctionCall) goja.Value {
			tpl := templateFromJS(call.Argument(0))
			if _, err := g.Create(tpl); err != nil {
				throw(b.vm, err)
			}
			return b.vm.ToValue(tpl.Meta.Name)
		},
		"wrapAsTool": func(call goja.FunctionCall) goja.Value {
			maxDepth := 0
			if n, ok := asFloat(call.Argument(1).Export()); ok {
				maxDepth = int(n)
			}
			wrapped, err := g.WrapAsTool(call.Argument(0).String(), maxDepth)
			if err != nil {
				throw(b.vm, err)
			}
			return b.vm.ToValue(wrapped.Metadata().Name)
		},
	}
}

// toolModule wires the Tool global: list, get, invoke, list-by-category.
func (b *Bridge) toolModule(g *bridge.ToolGlobal) Module {
	return Module{
		"list": func(call goja.FunctionCall) goja.Value {
			return b.vm.ToValue(entriesToJS(g.List()))
		},
		"get": func(call goja.FunctionCall) goja.Value {
			_, ok := g.Get(call.Argument(0).String())
			return b.vm.ToValue(ok)
		},
		"invoke": func(call goja.FunctionCall) goja.Value {
			input := namedInputFromJS(call.Argument(1))
			out, err := g.Invoke(context.Background(), call.Argument(0).String(), input)
			if err != nil {
				throw(b.vm, err)
			}
			return b.vm.ToValue(outputToJS(out))
		},
		"listByCategory": func(call goja.FunctionCall) goja.Value {
			category := tool.Category(call.Argument(0).String())
			return b.vm.ToValue(entriesToJS(g.ListByCategory(category)))
		},
	}
}

func stepTypeFromString(s string) workflow.StepType {
	switch s {
	case "agent":
		return workflow.StepAgent
	case "workflow":
		return workflow.StepWorkflow
	default:
		return workflow.StepTool
	}
}

func backoffFromString(s string) workflow.BackoffStrategy {
	if s == "exponential" {
		return workflow.BackoffExponential
	}
	return workflow.BackoffFixed
}

func retryFromMap(m map[string]any) workflow.RetryConfig {
	cfg := workflow.RetryConfig{}
	if n, ok := asFloat(m["max_attempts"]); ok {
		cfg.MaxAttempts = int(n)
	}
	cfg.Backoff = backoffFromString(asString(m["backoff"]))
	if n, ok := asFloat(m["delay_ms"]); ok {
		cfg.Delay = time.Duration(n) * time.Millisecond
	}
	return cfg
}

func stepFromMap(m map[string]any) workflow.Step {
	step := workflow.Step{Required: true, Name: asString(m["name"]), ComponentName: asString(m["component"])}
	if kind, ok := m["type"].(string); ok {
		step.Type = stepTypeFromString(kind)
	}
	if req, ok := m["required"].(bool); ok {
		step.Required = req
	}
	if retry := asMap(m["retry"]); retry != nil {
		step.Retry = retryFromMap(retry)
	}
	return step
}

func stepsFromAny(v any) []workflow.Step {
	rows := asSlice(v)
	steps := make([]workflow.Step, 0, len(rows))
	for _, row := range rows {
		if m, ok := row.(map[string]any); ok {
			steps = append(steps, stepFromMap(m))
		}
	}
	return steps
}

func conditionKindFromString(s string) workflow.ConditionKind {
	switch s {
	case "always":
		return workflow.ConditionAlways
	case "never":
		return workflow.ConditionNever
	case "value_equals":
		return workflow.ConditionValueEquals
	case "value_greater_than":
		return workflow.ConditionValueGreaterThan
	case "value_contains":
		return workflow.ConditionValueContains
	case "result_success":
		return workflow.ConditionResultSuccess
	case "shared_data_equals":
		return workflow.ConditionSharedDataEquals
	case "shared_data_exists":
		return workflow.ConditionSharedDataExists
	case "step_output_contains":
		return workflow.ConditionStepOutputContains
	case "agent_classification":
		return workflow.ConditionAgentClassification
	case "custom":
		return workflow.ConditionCustom
	default:
		return workflow.ConditionNone
	}
}

func conditionFromMap(m map[string]any) workflow.Condition {
	c := workflow.Condition{Kind: conditionKindFromString(asString(m["kind"])), Path: asString(m["path"])}
	c.Value = m["value"]
	if th, ok := asFloat(m["threshold"]); ok {
		c.Threshold = th
	}
	c.Substr = asString(m["substr"])
	c.Step = asString(m["step"])
	c.AgentType = asString(m["agent_type"])
	c.Name = asString(m["name"])
	return c
}

func branchesFromAny(v any) []workflow.Branch {
	rows := asSlice(v)
	branches := make([]workflow.Branch, 0, len(rows))
	for _, row := range rows {
		m, ok := row.(map[string]any)
		if !ok {
			continue
		}
		b := workflow.Branch{}
		if cond := asMap(m["condition"]); cond != nil {
			b.Condition = conditionFromMap(cond)
		}
		b.Steps = stepsFromAny(m["steps"])
		branches = append(branches, b)
	}
	return branches
}

func iteratorKindFromString(s string) workflow.IteratorKind {
	switch s {
	case "range":
		return workflow.IterRange
	case "while":
		return workflow.IterWhileCondition
	default:
		return workflow.IterCollection
	}
}

func iteratorFromMap(m map[string]any) workflow.Iterator {
	it := workflow.Iterator{Kind: iteratorKindFromString(asString(m["kind"])), Collection: asSlice(m["collection"])}
	if n, ok := asFloat(m["start"]); ok {
		it.Start = int(n)
	}
	if n, ok := asFloat(m["end"]); ok {
		it.End = int(n)
	}
	if n, ok := asFloat(m["step"]); ok {
		it.Step = int(n)
	}
	if while := asMap(m["while"]); while != nil {
		it.While = conditionFromMap(while)
	}
	return it
}

func errorStrategyFromMap(m map[string]any) workflow.ErrorStrategy {
	es := workflow.ErrorStrategy{}
	switch asString(m["kind"]) {
	case "continue":
		es.Kind = workflow.ErrorContinue
	case "retry":
		es.Kind = workflow.ErrorRetry
	default:
		es.Kind = workflow.ErrorFail
	}
	if retry := asMap(m["retry"]); retry != nil {
		es.Retry = retryFromMap(retry)
	}
	return es
}

func waitStrategyFromString(s string) workflow.WaitStrategy {
	if s == "required" {
		return workflow.WaitRequired
	}
	return workflow.WaitAll
}

func aggregationFromString(s string) workflow.Aggregation {
	if s == "array" {
		return workflow.AggregateArray
	}
	return workflow.AggregateMerge
}

// workflowConfigFromJS converts a script-supplied configuration object
// into workflow.TypeConfig, mirroring luabridge's workflowConfigFromTable
// field for field; only the source table type differs.
func workflowConfigFromJS(v goja.Value) workflow.TypeConfig {
	m := namedInputFromJS(v)
	cfg := workflow.TypeConfig{}
	if m == nil {
		return cfg
	}
	cfg.Steps = stepsFromAny(m["steps"])
	if es := asMap(m["error_strategy"]); es != nil {
		cfg.ErrorStrategy = errorStrategyFromMap(es)
	}
	cfg.Branches = branchesFromAny(m["branches"])
	cfg.Else = stepsFromAny(m["else"])
	if iter := asMap(m["iterator"]); iter != nil {
		cfg.Iterator = iteratorFromMap(iter)
	}
	if n, ok := asFloat(m["max_iterations"]); ok {
		cfg.MaxIterations = int(n)
	}
	if bc := asMap(m["break_condition"]); bc != nil {
		cfg.BreakCondition = conditionFromMap(bc)
	}
	cfg.ContinueOnErr = asBool(m["continue_on_error"])
	cfg.Wait = waitStrategyFromString(asString(m["wait"]))
	cfg.Aggregation = aggregationFromString(asString(m["aggregation"]))
	if n, ok := asFloat(m["max_concurrency"]); ok {
		cfg.MaxConcurrency = int(n)
	}
	return cfg
}

// workflowModule wires the Workflow global: pattern builders collapsed
// into one build(kind, id, config) entry point plus execute/list.
func (b *Bridge) workflowModule(g *bridge.WorkflowGlobal) Module {
	buildKind := func(kind string) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			id := call.Argument(0).String()
			meta := component.Metadata{Name: id, Type: component.TypeWorkflow}
			if _, err := g.Build(kind, meta, id, workflowConfigFromJS(call.Argument(1))); err != nil {
				throw(b.vm, err)
			}
			return b.vm.ToValue(id)
		}
	}
	return Module{
		"sequential":  buildKind("sequential"),
		"parallel":    buildKind("parallel"),
		"conditional": buildKind("conditional"),
		"loop":        buildKind("loop"),
		"execute": func(call goja.FunctionCall) goja.Value {
			input := namedInputFromJS(call.Argument(1))
			out, err := g.Execute(context.Background(), call.Argument(0).String(), input)
			if err != nil {
				throw(b.vm, err)
			}
			return b.vm.ToValue(outputToJS(out))
		},
		"list": func(call goja.FunctionCall) goja.Value {
			return b.vm.ToValue(entriesToJS(g.List()))
		},
	}
}

// stateModule wires the State global: get/set/delete/list plus the
// scope-aware workflow_get/list, agent_get/set, tool_get/set helpers.
func (b *Bridge) stateModule(g *bridge.StateGlobal) Module {
	return Module{
		"get": func(call goja.FunctionCall) goja.Value {
			v, _, err := g.Get(call.Argument(0).String())
			if err != nil {
				throw(b.vm, err)
			}
			return b.vm.ToValue(v)
		},
		"set": func(call goja.FunctionCall) goja.Value {
			if err := g.Set(call.Argument(0).String(), fromJS(call.Argument(1))); err != nil {
				throw(b.vm, err)
			}
			return goja.Undefined()
		},
		"delete": func(call goja.FunctionCall) goja.Value {
			_, err := g.Delete(call.Argument(0).String())
			if err != nil {
				throw(b.vm, err)
			}
			return goja.Undefined()
		},
		"list": func(call goja.FunctionCall) goja.Value {
			keys, err := g.List(optString(call, 0))
			if err != nil {
				throw(b.vm, err)
			}
			return b.vm.ToValue(keys)
		},
		"workflowGet": func(call goja.FunctionCall) goja.Value {
			v, _, err := g.WorkflowGet(call.Argument(0).String(), call.Argument(1).String())
			if err != nil {
				throw(b.vm, err)
			}
			return b.vm.ToValue(v)
		},
		"workflowList": func(call goja.FunctionCall) goja.Value {
			keys, err := g.WorkflowList(call.Argument(0).String(), optString(call, 1))
			if err != nil {
				throw(b.vm, err)
			}
			return b.vm.ToValue(keys)
		},
		"agentGet": func(call goja.FunctionCall) goja.Value {
			v, _, err := g.AgentGet(call.Argument(0).String(), call.Argument(1).String())
			if err != nil {
				throw(b.vm, err)
			}
			return b.vm.ToValue(v)
		},
		"agentSet": func(call goja.FunctionCall) goja.Value {
			if err := g.AgentSet(call.Argument(0).String(), call.Argument(1).String(), fromJS(call.Argument(2))); err != nil {
				throw(b.vm, err)
			}
			return goja.Undefined()
		},
		"toolGet": func(call goja.FunctionCall) goja.Value {
			v, _, err := g.ToolGet(call.Argument(0).String(), call.Argument(1).String())
			if err != nil {
				throw(b.vm, err)
			}
			return b.vm.ToValue(v)
		},
		"toolSet": func(call goja.FunctionCall) goja.Value {
			if err := g.ToolSet(call.Argument(0).String(), call.Argument(1).String(), fromJS(call.Argument(2))); err != nil {
				throw(b.vm, err)
			}
			return goja.Undefined()
		},
	}
}

func artifactToJS(a session.Artifact) map[string]any {
	return map[string]any{"id": a.ID, "mime_type": a.MimeType, "size": a.Size}
}

// sessionModule wires the Session global's create, getCurrent,
// setCurrent, save and load; its List and Artifacts methods are not
// exposed to JS.
func (b *Bridge) sessionModule(g *bridge.SessionGlobal) Module {
	return Module{
		"create": func(call goja.FunctionCall) goja.Value {
			s, err := g.Create(optString(call, 0))
			if err != nil {
				throw(b.vm, err)
			}
			return b.vm.ToValue(s.ID())
		},
		"getCurrent": func(call goja.FunctionCall) goja.Value {
			s, ok := g.GetCurrent()
			if !ok {
				return goja.Null()
			}
			return b.vm.ToValue(s.ID())
		},
		"setCurrent": func(call goja.FunctionCall) goja.Value {
			if err := g.SetCurrent(call.Argument(0).String()); err != nil {
				throw(b.vm, err)
			}
			return goja.Undefined()
		},
		"save": func(call goja.FunctionCall) goja.Value {
			m := namedInputFromJS(call.Argument(0))
			a := session.Artifact{ID: asString(m["id"]), MimeType: asString(m["mime_type"])}
			if err := g.Save(a); err != nil {
				throw(b.vm, err)
			}
			return goja.Undefined()
		},
		"load": func(call goja.FunctionCall) goja.Value {
			a, found, err := g.Load(call.Argument(0).String())
			if err != nil {
				throw(b.vm, err)
			}
			if !found {
				return goja.Null()
			}
			return b.vm.ToValue(artifactToJS(a))
		},
	}
}

// hookModule wires the Hook global: register is intentionally omitted
// from the JS surface for the same reason it is omitted in luabridge —
// a script-supplied hook body would need to re-enter this *goja.Runtime
// from the breaker/registry's own goroutine, and goja.Runtime (like
// gopher-lua's LState) is not safe for concurrent use from two
// goroutines. unregister/list/enable/disable only ever touch Go-side
// bookkeeping, so they are safe to expose as-is.
func (b *Bridge) hookModule(g *bridge.HookGlobal) Module {
	return Module{
		"unregister": func(call goja.FunctionCall) goja.Value {
			g.Unregister(call.Argument(0).String())
			return goja.Undefined()
		},
		"list": func(call goja.FunctionCall) goja.Value {
			hooks := g.List()
			names := make([]any, len(hooks))
			for i, h := range hooks {
				names[i] = h.Name()
			}
			return b.vm.ToValue(names)
		},
		"enable": func(call goja.FunctionCall) goja.Value {
			g.Enable(call.Argument(0).String())
			return goja.Undefined()
		},
		"disable": func(call goja.FunctionCall) goja.Value {
			g.Disable(call.Argument(0).String())
			return goja.Undefined()
		},
	}
}

// eventModule wires the Event global's publish; subscribe shares
// hookModule's register omission and the same Runtime thread-safety
// rationale.
func (b *Bridge) eventModule(g *bridge.EventGlobal) Module {
	return Module{
		"publish": func(call goja.FunctionCall) goja.Value {
			data := namedInputFromJS(call.Argument(1))
			g.Publish(call.Argument(0).String(), data)
			return goja.Undefined()
		},
	}
}

func (b *Bridge) debugModule(g *bridge.DebugGlobal) Module {
	logAt := func(level string) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			module := call.Argument(0).String()
			msg := call.Argument(1).String()
			switch level {
			case "trace":
				g.Trace(module, msg)
			case "debug":
				g.Debug(module, msg)
			case "info":
				g.Info(module, msg)
			case "warn":
				g.Warn(module, msg)
			case "error":
				g.Error(module, msg)
			}
			return goja.Undefined()
		}
	}
	return Module{
		"trace": logAt("trace"),
		"debug": logAt("debug"),
		"info":  logAt("info"),
		"warn":  logAt("warn"),
		"error": logAt("error"),
		"timer": func(call goja.FunctionCall) goja.Value {
			d := g.Timer(call.Argument(0).String())
			return b.vm.ToValue(d.Seconds())
		},
		"stacktrace": func(call goja.FunctionCall) goja.Value {
			return b.vm.ToValue(g.Stacktrace())
		},
		"dump": func(call goja.FunctionCall) goja.Value {
			return b.vm.ToValue(g.Dump(fromJS(call.Argument(0))))
		},
		"memory": func(call goja.FunctionCall) goja.Value {
			return b.vm.ToValue(g.Memory())
		},
	}
}

func (b *Bridge) providerModule(g *bridge.ProviderGlobal) Module {
	return Module{
		"isAvailable": func(call goja.FunctionCall) goja.Value {
			return b.vm.ToValue(g.IsAvailable(call.Argument(0).String()))
		},
		"getCapabilities": func(call goja.FunctionCall) goja.Value {
			caps, ok := g.GetCapabilities(call.Argument(0).String())
			if !ok {
				return goja.Null()
			}
			return b.vm.ToValue(caps)
		},
	}
}

func (b *Bridge) configModule(g *bridge.ConfigGlobal) Module {
	return Module{
		"getValue": func(call goja.FunctionCall) goja.Value {
			v, ok := g.GetValue(call.Argument(0).String())
			if !ok {
				return goja.Null()
			}
			return b.vm.ToValue(v)
		},
		"setValue": func(call goja.FunctionCall) goja.Value {
			if err := g.SetValue(call.Argument(0).String(), fromJS(call.Argument(1))); err != nil {
				throw(b.vm, err)
			}
			return goja.Undefined()
		},
		"snapshot": func(call goja.FunctionCall) goja.Value {
			return b.vm.ToValue(g.Snapshot())
		},
	}
}

func (b *Bridge) argsModule(g *bridge.ArgsGlobal) Module {
	return Module{
		"get": func(call goja.FunctionCall) goja.Value {
			v, ok := g.Get(call.Argument(0).String())
			if !ok {
				return goja.Null()
			}
			return b.vm.ToValue(v)
		},
		"all": func(call goja.FunctionCall) goja.Value {
			return b.vm.ToValue(g.All())
		},
	}
}
