package luabridge

import (
	"context"

	lua "github.com/yuin/gopher-lua"

	"time"

	"github.com/orinrun/orin/pkg/agentfactory"
	"github.com/orinrun/orin/pkg/bridge"
	"github.com/orinrun/orin/pkg/component"
	"github.com/orinrun/orin/pkg/registry"
	"github.com/orinrun/orin/pkg/session"
	"github.com/orinrun/orin/pkg/tool"
	"github.com/orinrun/orin/pkg/workflow"
)

func entriesToLua(L *lua.LState, entries []registry.Entry) *lua.LTable {
	t := L.NewTable()
	for i, e := range entries {
		row := L.NewTable()
		row.RawSetString("name", lua.LString(e.Name))
		row.RawSetString("description", lua.LString(e.Metadata.Description))
		row.RawSetString("version", lua.LString(e.Metadata.Version))
		t.RawSetInt(i+1, row)
	}
	return t
}

func outputToLua(L *lua.LState, out component.Output) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("text", lua.LString(out.Text))
	if extra, err := out.AsJSON(); err == nil {
		t.RawSetString("metadata", toLua(L, extra))
	}
	return t
}

func templateFromTable(t *lua.LTable) agentfactory.Template {
	m := namedInputFromTable(t)
	tpl := agentfactory.Template{Meta: component.Metadata{Type: component.TypeAgent}}
	if name, ok := m["name"].(string); ok {
		tpl.Meta.Name = name
	}
	if desc, ok := m["description"].(string); ok {
		tpl.Meta.Description = desc
	}
	if provider, ok := m["provider"].(string); ok {
		tpl.Provider = provider
	}
	if sys, ok := m["system_prompt"].(string); ok {
		tpl.SystemPrompt = sys
	}
	if iters, ok := m["max_iters"].(float64); ok {
		tpl.MaxIters = int(iters)
	}
	if rawTools, ok := m["tools"].([]any); ok {
		for _, rt := range rawTools {
			if s, ok := rt.(string); ok {
				tpl.Tools = append(tpl.Tools, s)
			}
		}
	}
	return tpl
}

// agentModule wires the Agent global (spec.md 4.7): list, get, execute,
// create-from-template, wrap-as-tool.
func (b *Bridge) agentModule(g *bridge.AgentGlobal) Module {
	return Module{
		"list": func(L *lua.LState) int {
			L.Push(entriesToLua(L, g.List()))
			return 1
		},
		"get": func(L *lua.LState) int {
			name := L.CheckString(1)
			_, ok := g.Get(name)
			L.Push(lua.LBool(ok))
			return 1
		},
		"execute": func(L *lua.LState) int {
			name := L.CheckString(1)
			input := namedInputFromTable(L.OptTable(2, nil))
			out, err := g.Execute(context.Background(), name, input)
			if err != nil {
				return pushResultOrError(L, nil, err)
			}
			L.Push(outputToLua(L, out))
			L.Push(lua.LNil)
			return 2
		},
		"create": func(L *lua.LState) int {
			tpl := templateFromTable(L.CheckTable(1))
			_, err := g.Create(tpl)
			return pushResultOrError(L, tpl.Meta.Name, err)
		},
		"wrap_as_tool": func(L *lua.LState) int {
			name := L.CheckString(1)
			maxDepth := L.OptInt(2, 0)
			wrapped, err := g.WrapAsTool(name, maxDepth)
			if err != nil {
				return pushResultOrError(L, nil, err)
			}
			return pushResultOrError(L, wrapped.Metadata().Name, nil)
		},
	}
}

// toolModule wires the Tool global: list, get, invoke, list-by-category.
func (b *Bridge) toolModule(g *bridge.ToolGlobal) Module {
	return Module{
		"list": func(L *lua.LState) int {
			L.Push(entriesToLua(L, g.List()))
			return 1
		},
		"get": func(L *lua.LState) int {
			name := L.CheckString(1)
			_, ok := g.Get(name)
			L.Push(lua.LBool(ok))
			return 1
		},
		"invoke": func(L *lua.LState) int {
			name := L.CheckString(1)
			input := namedInputFromTable(L.OptTable(2, nil))
			out, err := g.Invoke(context.Background(), name, input)
			if err != nil {
				return pushResultOrError(L, nil, err)
			}
			L.Push(outputToLua(L, out))
			L.Push(lua.LNil)
			return 2
		},
		"list_by_category": func(L *lua.LState) int {
			category := L.CheckString(1)
			L.Push(entriesToLua(L, g.ListByCategory(tool.Category(category))))
			return 1
		},
	}
}

// stepTypeFromString maps a script-supplied step kind to StepType,
// defaulting to StepTool since that is the most common step target.
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

func retryFromTable(t *lua.LTable) workflow.RetryConfig {
	if t == nil {
		return workflow.RetryConfig{}
	}
	m := namedInputFromTable(t)
	cfg := workflow.RetryConfig{}
	if n, ok := m["max_attempts"].(float64); ok {
		cfg.MaxAttempts = int(n)
	}
	if s, ok := m["backoff"].(string); ok {
		cfg.Backoff = backoffFromString(s)
	}
	if n, ok := m["delay_ms"].(float64); ok {
		cfg.Delay = time.Duration(n) * time.Millisecond
	}
	return cfg
}

func stepFromTable(t *lua.LTable) workflow.Step {
	m := namedInputFromTable(t)
	step := workflow.Step{Required: true}
	if name, ok := m["name"].(string); ok {
		step.Name = name
	}
	if kind, ok := m["type"].(string); ok {
		step.Type = stepTypeFromString(kind)
	}
	if comp, ok := m["component"].(string); ok {
		step.ComponentName = comp
	}
	if req, ok := m["required"].(bool); ok {
		step.Required = req
	}
	if retry, ok := t.RawGetString("retry").(*lua.LTable); ok {
		step.Retry = retryFromTable(retry)
	}
	return step
}

func stepsFromLua(t *lua.LTable) []workflow.Step {
	if t == nil {
		return nil
	}
	n := t.Len()
	steps := make([]workflow.Step, 0, n)
	for i := 1; i <= n; i++ {
		row, ok := t.RawGetInt(i).(*lua.LTable)
		if !ok {
			continue
		}
		steps = append(steps, stepFromTable(row))
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

func conditionFromTable(t *lua.LTable) workflow.Condition {
	if t == nil {
		return workflow.Condition{}
	}
	m := namedInputFromTable(t)
	c := workflow.Condition{}
	if kind, ok := m["kind"].(string); ok {
		c.Kind = conditionKindFromString(kind)
	}
	if path, ok := m["path"].(string); ok {
		c.Path = path
	}
	if v, ok := m["value"]; ok {
		c.Value = v
	}
	if th, ok := m["threshold"].(float64); ok {
		c.Threshold = th
	}
	if sub, ok := m["substr"].(string); ok {
		c.Substr = sub
	}
	if step, ok := m["step"].(string); ok {
		c.Step = step
	}
	if at, ok := m["agent_type"].(string); ok {
		c.AgentType = at
	}
	if name, ok := m["name"].(string); ok {
		c.Name = name
	}
	return c
}

func branchesFromLua(t *lua.LTable) []workflow.Branch {
	if t == nil {
		return nil
	}
	n := t.Len()
	branches := make([]workflow.Branch, 0, n)
	for i := 1; i <= n; i++ {
		row, ok := t.RawGetInt(i).(*lua.LTable)
		if !ok {
			continue
		}
		b := workflow.Branch{}
		if cond, ok := row.RawGetString("condition").(*lua.LTable); ok {
			b.Condition = conditionFromTable(cond)
		}
		if steps, ok := row.RawGetString("steps").(*lua.LTable); ok {
			b.Steps = stepsFromLua(steps)
		}
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

func iteratorFromTable(t *lua.LTable) workflow.Iterator {
	if t == nil {
		return workflow.Iterator{}
	}
	m := namedInputFromTable(t)
	it := workflow.Iterator{}
	if kind, ok := m["kind"].(string); ok {
		it.Kind = iteratorKindFromString(kind)
	}
	if coll, ok := m["collection"].([]any); ok {
		it.Collection = coll
	}
	if n, ok := m["start"].(float64); ok {
		it.Start = int(n)
	}
	if n, ok := m["end"].(float64); ok {
		it.End = int(n)
	}
	if n, ok := m["step"].(float64); ok {
		it.Step = int(n)
	}
	if while, ok := t.RawGetString("while").(*lua.LTable); ok {
		it.While = conditionFromTable(while)
	}
	return it
}

func errorStrategyFromTable(t *lua.LTable) workflow.ErrorStrategy {
	if t == nil {
		return workflow.ErrorStrategy{}
	}
	m := namedInputFromTable(t)
	es := workflow.ErrorStrategy{}
	if kind, ok := m["kind"].(string); ok {
		switch kind {
		case "continue":
			es.Kind = workflow.ErrorContinue
		case "retry":
			es.Kind = workflow.ErrorRetry
		default:
			es.Kind = workflow.ErrorFail
		}
	}
	if retry, ok := t.RawGetString("retry").(*lua.LTable); ok {
		es.Retry = retryFromTable(retry)
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

// workflowConfigFromTable converts a script-supplied configuration
// table into workflow.TypeConfig, covering every field the four
// builders (sequential/parallel/conditional/loop) read from it. Every
// field is optional: a builder not used by the requested kind simply
// reads its zero value.
func workflowConfigFromTable(t *lua.LTable) workflow.TypeConfig {
	cfg := workflow.TypeConfig{}
	if t == nil {
		return cfg
	}
	m := namedInputFromTable(t)
	if steps, ok := t.RawGetString("steps").(*lua.LTable); ok {
		cfg.Steps = stepsFromLua(steps)
	}
	if es, ok := t.RawGetString("error_strategy").(*lua.LTable); ok {
		cfg.ErrorStrategy = errorStrategyFromTable(es)
	}
	if branches, ok := t.RawGetString("branches").(*lua.LTable); ok {
		cfg.Branches = branchesFromLua(branches)
	}
	if elseSteps, ok := t.RawGetString("else").(*lua.LTable); ok {
		cfg.Else = stepsFromLua(elseSteps)
	}
	if iter, ok := t.RawGetString("iterator").(*lua.LTable); ok {
		cfg.Iterator = iteratorFromTable(iter)
	}
	if n, ok := m["max_iterations"].(float64); ok {
		cfg.MaxIterations = int(n)
	}
	if bc, ok := t.RawGetString("break_condition").(*lua.LTable); ok {
		cfg.BreakCondition = conditionFromTable(bc)
	}
	if v, ok := m["continue_on_error"].(bool); ok {
		cfg.ContinueOnErr = v
	}
	if wait, ok := m["wait"].(string); ok {
		cfg.Wait = waitStrategyFromString(wait)
	}
	if agg, ok := m["aggregation"].(string); ok {
		cfg.Aggregation = aggregationFromString(agg)
	}
	if n, ok := m["max_concurrency"].(float64); ok {
		cfg.MaxConcurrency = int(n)
	}
	return cfg
}

// workflowModule wires the Workflow global: pattern builders collapsed
// into one build(kind, id, config) entry point plus execute/list, the
// shape a script actually calls through (spec.md's four named builders
// are sugar over one factory, matching workflow.New's own design).
func (b *Bridge) workflowModule(g *bridge.WorkflowGlobal) Module {
	buildKind := func(kind string) lua.LGFunction {
		return func(L *lua.LState) int {
			id := L.CheckString(1)
			meta := component.Metadata{Name: id, Type: component.TypeWorkflow}
			_, err := g.Build(kind, meta, id, workflowConfigFromTable(L.OptTable(2, nil)))
			return pushResultOrError(L, id, err)
		}
	}
	return Module{
		"sequential":  buildKind("sequential"),
		"parallel":    buildKind("parallel"),
		"conditional": buildKind("conditional"),
		"loop":        buildKind("loop"),
		"execute": func(L *lua.LState) int {
			id := L.CheckString(1)
			input := namedInputFromTable(L.OptTable(2, nil))
			out, err := g.Execute(context.Background(), id, input)
			if err != nil {
				return pushResultOrError(L, nil, err)
			}
			L.Push(outputToLua(L, out))
			L.Push(lua.LNil)
			return 2
		},
		"list": func(L *lua.LState) int {
			L.Push(entriesToLua(L, g.List()))
			return 1
		},
	}
}

// stateModule wires the State global: get/set/delete/list plus the
// scope-aware workflow_get/list, agent_get/set, tool_get/set helpers.
func (b *Bridge) stateModule(g *bridge.StateGlobal) Module {
	return Module{
		"get": func(L *lua.LState) int {
			v, _, err := g.Get(L.CheckString(1))
			return pushResultOrError(L, v, err)
		},
		"set": func(L *lua.LState) int {
			err := g.Set(L.CheckString(1), fromLua(L.Get(2)))
			return pushResultOrError(L, nil, err)
		},
		"delete": func(L *lua.LState) int {
			_, err := g.Delete(L.CheckString(1))
			return pushResultOrError(L, nil, err)
		},
		"list": func(L *lua.LState) int {
			keys, err := g.List(L.OptString(1, ""))
			return pushResultOrError(L, toAnySlice(keys), err)
		},
		"workflow_get": func(L *lua.LState) int {
			v, _, err := g.WorkflowGet(L.CheckString(1), L.CheckString(2))
			return pushResultOrError(L, v, err)
		},
		"workflow_list": func(L *lua.LState) int {
			keys, err := g.WorkflowList(L.CheckString(1), L.OptString(2, ""))
			return pushResultOrError(L, toAnySlice(keys), err)
		},
		"agent_get": func(L *lua.LState) int {
			v, _, err := g.AgentGet(L.CheckString(1), L.CheckString(2))
			return pushResultOrError(L, v, err)
		},
		"agent_set": func(L *lua.LState) int {
			err := g.AgentSet(L.CheckString(1), L.CheckString(2), fromLua(L.Get(3)))
			return pushResultOrError(L, nil, err)
		},
		"tool_get": func(L *lua.LState) int {
			v, _, err := g.ToolGet(L.CheckString(1), L.CheckString(2))
			return pushResultOrError(L, v, err)
		},
		"tool_set": func(L *lua.LState) int {
			err := g.ToolSet(L.CheckString(1), L.CheckString(2), fromLua(L.Get(3)))
			return pushResultOrError(L, nil, err)
		},
	}
}

func artifactToLua(L *lua.LState, a session.Artifact) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("id", lua.LString(a.ID))
	t.RawSetString("mime_type", lua.LString(a.MimeType))
	t.RawSetString("size", lua.LNumber(a.Size))
	return t
}

// sessionModule wires the Session global's create, get_current,
// set_current, save and load; its List and Artifacts methods are not
// exposed to Lua.
func (b *Bridge) sessionModule(g *bridge.SessionGlobal) Module {
	return Module{
		"create": func(L *lua.LState) int {
			s, err := g.Create(L.OptString(1, ""))
			if err != nil {
				return pushResultOrError(L, nil, err)
			}
			return pushResultOrError(L, s.ID(), nil)
		},
		"get_current": func(L *lua.LState) int {
			s, ok := g.GetCurrent()
			if !ok {
				L.Push(lua.LNil)
				return 1
			}
			L.Push(lua.LString(s.ID()))
			return 1
		},
		"set_current": func(L *lua.LState) int {
			return pushResultOrError(L, nil, g.SetCurrent(L.CheckString(1)))
		},
		"save": func(L *lua.LState) int {
			row := L.CheckTable(1)
			a := session.Artifact{
				ID:       luaTableString(row, "id"),
				MimeType: luaTableString(row, "mime_type"),
			}
			return pushResultOrError(L, nil, g.Save(a))
		},
		"load": func(L *lua.LState) int {
			a, found, err := g.Load(L.CheckString(1))
			if err != nil || !found {
				return pushResultOrError(L, nil, err)
			}
			L.Push(artifactToLua(L, a))
			L.Push(lua.LNil)
			return 2
		},
	}
}

func luaTableString(t *lua.LTable, key string) string {
	v, ok := t.RawGetString(key).(lua.LString)
	if !ok {
		return ""
	}
	return string(v)
}

// hookModule wires the Hook global: register is intentionally omitted
// from the Lua surface — a script-supplied hook body would need to call
// back into this *lua.LState from the breaker/registry's own goroutine,
// and gopher-lua's LState is not safe for concurrent use from two
// goroutines. unregister/list/enable/disable only ever touch Go-side
// bookkeeping, so they are safe to expose as-is.
func (b *Bridge) hookModule(g *bridge.HookGlobal) Module {
	return Module{
		"unregister": func(L *lua.LState) int {
			g.Unregister(L.CheckString(1))
			return 0
		},
		"list": func(L *lua.LState) int {
			hooks := g.List()
			t := L.NewTable()
			for i, h := range hooks {
				t.RawSetInt(i+1, lua.LString(h.Name()))
			}
			L.Push(t)
			return 1
		},
		"enable": func(L *lua.LState) int {
			g.Enable(L.CheckString(1))
			return 0
		},
		"disable": func(L *lua.LState) int {
			g.Disable(L.CheckString(1))
			return 0
		},
	}
}

// eventModule wires the Event global's publish; subscribe shares
// hookModule's register omission and the same LState thread-safety
// rationale.
func (b *Bridge) eventModule(g *bridge.EventGlobal) Module {
	return Module{
		"publish": func(L *lua.LState) int {
			eventType := L.CheckString(1)
			data := namedInputFromTable(L.OptTable(2, nil))
			g.Publish(eventType, data)
			return 0
		},
	}
}

func (b *Bridge) debugModule(g *bridge.DebugGlobal) Module {
	logAt := func(level string) lua.LGFunction {
		return func(L *lua.LState) int {
			module := L.CheckString(1)
			msg := L.CheckString(2)
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
			return 0
		}
	}
	return Module{
		"trace": logAt("trace"),
		"debug": logAt("debug"),
		"info":  logAt("info"),
		"warn":  logAt("warn"),
		"error": logAt("error"),
		"timer": func(L *lua.LState) int {
			d := g.Timer(L.CheckString(1))
			L.Push(lua.LNumber(d.Seconds()))
			return 1
		},
		"stacktrace": func(L *lua.LState) int {
			L.Push(lua.LString(g.Stacktrace()))
			return 1
		},
		"dump": func(L *lua.LState) int {
			L.Push(lua.LString(g.Dump(fromLua(L.Get(1)))))
			return 1
		},
		"memory": func(L *lua.LState) int {
			mem := g.Memory()
			t := L.NewTable()
			for k, v := range mem {
				t.RawSetString(k, lua.LNumber(v))
			}
			L.Push(t)
			return 1
		},
	}
}

func (b *Bridge) providerModule(g *bridge.ProviderGlobal) Module {
	return Module{
		"is_available": func(L *lua.LState) int {
			L.Push(lua.LBool(g.IsAvailable(L.CheckString(1))))
			return 1
		},
		"get_capabilities": func(L *lua.LState) int {
			caps, ok := g.GetCapabilities(L.CheckString(1))
			if !ok {
				L.Push(lua.LNil)
				return 1
			}
			t := L.NewTable()
			for i, c := range caps {
				t.RawSetInt(i+1, lua.LString(c))
			}
			L.Push(t)
			return 1
		},
	}
}

func (b *Bridge) configModule(g *bridge.ConfigGlobal) Module {
	return Module{
		"get_value": func(L *lua.LState) int {
			v, ok := g.GetValue(L.CheckString(1))
			if !ok {
				L.Push(lua.LNil)
				return 1
			}
			L.Push(toLua(L, v))
			return 1
		},
		"set_value": func(L *lua.LState) int {
			return pushResultOrError(L, nil, g.SetValue(L.CheckString(1), fromLua(L.Get(2))))
		},
		"snapshot": func(L *lua.LState) int {
			L.Push(toLua(L, g.Snapshot()))
			return 1
		},
	}
}

func (b *Bridge) argsModule(g *bridge.ArgsGlobal) Module {
	return Module{
		"get": func(L *lua.LState) int {
			v, ok := g.Get(L.CheckString(1))
			if !ok {
				L.Push(lua.LNil)
				return 1
			}
			L.Push(lua.LString(v))
			return 1
		},
		"all": func(L *lua.LState) int {
			L.Push(toLua(L, anyFromStringMapStr(g.All())))
			return 1
		},
	}
}

func toAnySlice(keys []string) []any {
	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = k
	}
	return out
}

func anyFromStringMapStr(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
