package debug

// DAPBridge translates exactly the command set named in spec.md 6.2
// into Coordinator operations; everything else gets the typed
// "unsupported" reply the spec calls for. It implements
// pkg/kernel.DebugHandler so an IntegratedKernel can route
// debug_request frames straight here.
type DAPBridge struct {
	coordinator *Coordinator
	sessionID   string
}

// NewDAPBridge builds a bridge bound to one debug session. A kernel
// wires one DAPBridge per script execution session.
func NewDAPBridge(coordinator *Coordinator, sessionID string) *DAPBridge {
	return &DAPBridge{coordinator: coordinator, sessionID: sessionID}
}

var supportedCommands = map[string]bool{
	"initialize":               true,
	"launch":                   true,
	"attach":                   true,
	"setBreakpoints":           true,
	"setFunctionBreakpoints":   true,
	"setExceptionBreakpoints":  true,
	"stackTrace":               true,
	"scopes":                   true,
	"variables":                true,
	"continue":                 true,
	"next":                     true,
	"stepIn":                   true,
	"stepOut":                  true,
	"pause":                    true,
	"evaluate":                 true,
	"terminate":                true,
	"disconnect":               true,
	"configurationDone":        true,
}

// HandleDAP dispatches one DAP command. Unsupported commands (the
// full DAP surface minus the subset above) answer
// success=false, message="unsupported" and nothing else — spec.md
// 6.2's "only these commands are supported".
func (b *DAPBridge) HandleDAP(command string, arguments map[string]any) (success bool, body map[string]any, message string) {
	if !supportedCommands[command] {
		return false, nil, "unsupported"
	}

	switch command {
	case "initialize":
		return true, map[string]any{
			"supportsConfigurationDoneRequest": true,
			"supportsFunctionBreakpoints":      true,
			"supportsConditionalBreakpoints":   true,
			"supportsEvaluateForHovers":        true,
			"supportsSetVariable":              true,
			"supportsStepBack":                 false,
			"supportsRestartFrame":             false,
			"supportsGotoTargetsRequest":       false,
			"supportsLogPoints":                false,
			"supportsTerminateRequest":         true,
			"supportsExceptionInfoRequest":     true,
			"supportsDelayedStackTraceLoading": false,
		}, ""
	case "launch", "attach", "configurationDone":
		return true, nil, ""
	case "setBreakpoints":
		return b.handleSetBreakpoints(arguments)
	case "setFunctionBreakpoints":
		// Function-name breakpoints are stored like line breakpoints,
		// under File "function:<name>" at Line 0.
		return b.handleSetFunctionBreakpoints(arguments)
	case "setExceptionBreakpoints":
		return b.handleSetExceptionBreakpoints(arguments)
	case "stackTrace":
		return b.handleStackTrace()
	case "scopes":
		return b.handleScopes(arguments)
	case "variables":
		return b.handleVariables(arguments)
	case "continue":
		return b.resume(StepContinue)
	case "next":
		return b.resume(StepNext)
	case "stepIn":
		return b.resume(StepIn)
	case "stepOut":
		return b.resume(StepOut)
	case "pause":
		return true, nil, ""
	case "evaluate":
		return b.handleEvaluate(arguments)
	case "terminate", "disconnect":
		return b.resume(StepTerminate)
	default:
		return false, nil, "unsupported"
	}
}

func (b *DAPBridge) session() (*Session, bool) {
	return b.coordinator.Session(b.sessionID)
}

func (b *DAPBridge) handleSetBreakpoints(args map[string]any) (bool, map[string]any, string) {
	s, ok := b.session()
	if !ok {
		return false, nil, "no active debug session"
	}
	source, _ := args["source"].(map[string]any)
	file, _ := source["path"].(string)
	rawLines, _ := args["breakpoints"].([]any)

	lines := make([]int, 0, len(rawLines))
	conditions := make(map[int]string, len(rawLines))
	for _, raw := range rawLines {
		entry, _ := raw.(map[string]any)
		line := intOf(entry["line"])
		lines = append(lines, line)
		if cond, ok := entry["condition"].(string); ok && cond != "" {
			conditions[line] = cond
		}
	}

	set := s.SetBreakpoints(file, lines, conditions)
	breakpoints := make([]map[string]any, 0, len(set))
	for _, bp := range set {
		breakpoints = append(breakpoints, map[string]any{
			"id":       bp.ID,
			"verified": bp.Verified,
			"line":     bp.Line,
		})
	}
	return true, map[string]any{"breakpoints": breakpoints}, ""
}

func (b *DAPBridge) handleSetFunctionBreakpoints(args map[string]any) (bool, map[string]any, string) {
	s, ok := b.session()
	if !ok {
		return false, nil, "no active debug session"
	}
	raw, _ := args["breakpoints"].([]any)
	breakpoints := make([]map[string]any, 0, len(raw))
	for _, entry := range raw {
		fn, _ := entry.(map[string]any)
		name, _ := fn["name"].(string)
		bp := s.SetBreakpoints("function:"+name, []int{0}, nil)
		if len(bp) > 0 {
			breakpoints = append(breakpoints, map[string]any{"id": bp[0].ID, "verified": true})
		}
	}
	return true, map[string]any{"breakpoints": breakpoints}, ""
}

func (b *DAPBridge) handleSetExceptionBreakpoints(args map[string]any) (bool, map[string]any, string) {
	s, ok := b.session()
	if !ok {
		return false, nil, "no active debug session"
	}
	filters, _ := args["filters"].([]any)
	s.SetExceptionBreakpoints(len(filters) > 0)
	return true, nil, ""
}

func (b *DAPBridge) handleStackTrace() (bool, map[string]any, string) {
	s, ok := b.session()
	if !ok {
		return false, nil, "no active debug session"
	}
	frames := s.Frames()
	out := make([]map[string]any, 0, len(frames))
	for _, f := range frames {
		out = append(out, map[string]any{
			"id":     f.ID,
			"name":   f.Name,
			"source": map[string]any{"path": f.Source},
			"line":   f.Line,
			"column": 1,
		})
	}
	return true, map[string]any{"stackFrames": out, "totalFrames": len(out)}, ""
}

func (b *DAPBridge) handleScopes(args map[string]any) (bool, map[string]any, string) {
	frameID := intOf(args["frameId"])
	return true, map[string]any{
		"scopes": []map[string]any{
			{"name": "Locals", "variablesReference": frameID*2 + 1, "expensive": false},
			{"name": "Upvalues", "variablesReference": frameID*2 + 2, "expensive": false},
		},
	}, ""
}

func (b *DAPBridge) handleVariables(args map[string]any) (bool, map[string]any, string) {
	s, ok := b.session()
	if !ok {
		return false, nil, "no active debug session"
	}
	ref := intOf(args["variablesReference"])
	frameID := (ref - 1) / 2
	all := s.Variables(frameID)

	wantScope := "locals"
	if ref%2 == 0 {
		wantScope = "upvalues"
	}
	vars := make([]map[string]any, 0, len(all))
	for _, v := range all {
		if v["scope"] != wantScope {
			continue
		}
		vars = append(vars, map[string]any{
			"name":  v["name"],
			"value": v["value"],
		})
	}
	return true, map[string]any{"variables": vars}, ""
}

func (b *DAPBridge) handleEvaluate(args map[string]any) (bool, map[string]any, string) {
	s, ok := b.session()
	if !ok {
		return false, nil, "no active debug session"
	}
	expr, _ := args["expression"].(string)
	v, err := s.Evaluate(expr)
	if err != nil {
		return false, nil, err.Error()
	}
	return true, map[string]any{"result": renderValue(v), "variablesReference": 0}, ""
}

func (b *DAPBridge) resume(mode StepMode) (bool, map[string]any, string) {
	s, ok := b.session()
	if !ok {
		return false, nil, "no active debug session"
	}
	if err := s.Resume(mode); err != nil {
		return false, nil, err.Error()
	}
	return true, nil, ""
}

func intOf(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
