package workflow

import (
	"fmt"
	"strings"

	"github.com/orinrun/orin/pkg/component"
)

// ConditionKind names one of the condition types spec.md section 4.4.3
// lists. Conditions are declared as data — type plus params — rather
// than script-language closures, since closures can't cross the script
// FFI boundary.
type ConditionKind int

const (
	// ConditionNone is the zero value: "no condition configured",
	// distinct from ConditionAlways so an unset BreakCondition never
	// fires.
	ConditionNone ConditionKind = iota
	ConditionAlways
	ConditionNever
	ConditionValueEquals
	ConditionValueGreaterThan
	ConditionValueContains
	ConditionResultSuccess
	ConditionSharedDataEquals
	ConditionSharedDataExists
	ConditionStepOutputContains
	ConditionAgentClassification
	ConditionCustom
)

// Condition is the tagged condition value. Only the fields relevant to
// Kind are meaningful.
type Condition struct {
	Kind      ConditionKind
	Path      string  // ValueEquals, ValueGreaterThan, ValueContains, ResultSuccess: state key; SharedDataEquals, SharedDataExists: shared-data key
	Value     any     // ValueEquals, SharedDataEquals
	Threshold float64 // ValueGreaterThan
	Substr    string  // ValueContains, StepOutputContains
	Step      string  // StepOutputContains, AgentClassification
	AgentType string  // AgentClassification
	Name      string  // Custom
	Evaluator func(ctx *component.ExecutionContext) (bool, error) // Custom
}

func evaluateCondition(ctx *component.ExecutionContext, workflowID string, c Condition) (bool, error) {
	switch c.Kind {
	case ConditionNone, ConditionAlways:
		return true, nil
	case ConditionNever:
		return false, nil
	case ConditionValueEquals:
		v, ok, err := readState(ctx, c.Path)
		if err != nil || !ok {
			return false, err
		}
		return fmt.Sprint(v) == fmt.Sprint(c.Value), nil
	case ConditionValueGreaterThan:
		v, ok, err := readState(ctx, c.Path)
		if err != nil || !ok {
			return false, err
		}
		f, ok := toFloat(v)
		return ok && f > c.Threshold, nil
	case ConditionValueContains:
		v, ok, err := readState(ctx, c.Path)
		if err != nil || !ok {
			return false, err
		}
		return strings.Contains(fmt.Sprint(v), c.Substr), nil
	case ConditionResultSuccess:
		v, ok, err := readState(ctx, c.Path)
		if err != nil || !ok {
			return false, err
		}
		return v != nil, nil
	case ConditionSharedDataEquals:
		v, ok := readSharedData(ctx, workflowID, c.Path)
		return ok && fmt.Sprint(v) == fmt.Sprint(c.Value), nil
	case ConditionSharedDataExists:
		_, ok := readSharedData(ctx, workflowID, c.Path)
		return ok, nil
	case ConditionStepOutputContains:
		v, ok, err := readState(ctx, c.Step)
		if err != nil || !ok {
			return false, err
		}
		return strings.Contains(fmt.Sprint(v), c.Substr), nil
	case ConditionAgentClassification:
		v, ok, err := readState(ctx, c.Step)
		if err != nil || !ok {
			return false, err
		}
		return fmt.Sprint(v) == c.AgentType, nil
	case ConditionCustom:
		if c.Evaluator == nil {
			return false, nil
		}
		return c.Evaluator(ctx)
	default:
		return false, nil
	}
}

func readState(ctx *component.ExecutionContext, key string) (any, bool, error) {
	if ctx.State == nil {
		return nil, false, nil
	}
	return ctx.State.Read(key)
}

// readSharedData implements the workflow-private-shadows-global
// precedence: a workflow-scoped SharedDataKey is checked first, then
// the global GlobalSharedDataKey, then — for callers that only ever
// used the in-process data map and never a state backend — ctx.Get as
// a last resort so existing non-state-backed callers keep working.
func readSharedData(ctx *component.ExecutionContext, workflowID, key string) (any, bool) {
	if ctx.State != nil {
		if v, ok, _ := ctx.State.Read(SharedDataKey(workflowID, key)); ok {
			return v, true
		}
		if v, ok, _ := ctx.State.Read(GlobalSharedDataKey(key)); ok {
			return v, true
		}
	}
	return ctx.Get(key)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// Branch pairs a Condition with the steps to run when it holds.
type Branch struct {
	Condition Condition
	Steps     []Step
}

// Conditional evaluates branches in declaration order and executes only
// the first whose condition holds (spec.md section 4.4.3).
type Conditional struct {
	*component.Base

	id       string
	branches []Branch
	elseStep []Step
	executor *StepExecutor
}

// ConditionalConfig configures a Conditional workflow.
type ConditionalConfig struct {
	Meta     component.Metadata
	ID       string
	Branches []Branch
	Else     []Step
	Executor *StepExecutor
}

// NewConditional constructs a Conditional workflow.
func NewConditional(cfg ConditionalConfig) *Conditional {
	cfg.Meta.Type = component.TypeWorkflow
	c := &Conditional{id: cfg.ID, branches: cfg.Branches, elseStep: cfg.Else, executor: cfg.Executor}
	c.Base = component.NewBase(cfg.Meta, c.run, nil, nil)
	return c
}

func (c *Conditional) run(ctx *component.ExecutionContext, input component.Input) (component.Output, error) {
	steps := c.elseStep
	matched := false
	for _, b := range c.branches {
		ok, err := evaluateCondition(ctx, c.id, b.Condition)
		if err != nil {
			return component.Output{}, err
		}
		if ok {
			steps = b.Steps
			matched = true
			break
		}
	}
	_ = matched

	var out component.Output
	for _, step := range steps {
		var err error
		out, err = c.executor.ExecuteStep(ctx, c.id, step, input)
		if err != nil {
			return out, err
		}
	}
	if ctx.State != nil {
		_ = ctx.State.Write(FinalKey(c.id), out.Text)
	}
	return out, nil
}
