package workflow

import (
	"time"

	"github.com/orinrun/orin/internal/orierr"
	"github.com/orinrun/orin/pkg/component"
	"github.com/orinrun/orin/pkg/hook"
	"github.com/orinrun/orin/pkg/registry"
)

// StepExecutor is the shared body every workflow pattern delegates a
// single step to (spec.md section 4.4). It holds the registry lookup
// and the hook registry as runtime infrastructure, never serialized
// with the workflow's own config.
type StepExecutor struct {
	Registry registry.ComponentLookup
	Hooks    *hook.Registry
}

// NewStepExecutor constructs a StepExecutor. hooks may be nil to
// disable hook firing (e.g. in tests).
func NewStepExecutor(lookup registry.ComponentLookup, hooks *hook.Registry) *StepExecutor {
	return &StepExecutor{Registry: lookup, Hooks: hooks}
}

func (e *StepExecutor) resolve(step Step) (component.BaseAgent, error) {
	var comp component.BaseAgent
	var ok bool
	switch step.Type {
	case StepTool:
		comp, ok = e.Registry.GetTool(step.ComponentName)
	case StepAgent:
		comp, ok = e.Registry.GetAgent(step.ComponentName)
	case StepWorkflow:
		comp, ok = e.Registry.GetWorkflow(step.ComponentName)
	default:
		comp, ok = e.Registry.Lookup(step.ComponentName)
	}
	if !ok {
		return nil, orierr.Wrap(orierr.KindNotFound, "workflow", orierr.ErrNotFound)
	}
	return comp, nil
}

// ExecuteStep runs one step: fires WorkflowStepBoundary hooks before and
// after, resolves and executes the named component with the step's
// retry policy applied, and — if ctx.State is present — writes the
// step's output under the deterministic state-key templates.
func (e *StepExecutor) ExecuteStep(ctx *component.ExecutionContext, workflowID string, step Step, input component.Input) (component.Output, error) {
	hc := &hook.Context{Point: hook.WorkflowStepBoundary, Exec: ctx, Input: input}
	if e.Hooks != nil {
		if _, err := e.Hooks.Invoke(hc, 0); err != nil {
			return component.Output{}, err
		}
	}

	comp, err := e.resolve(step)
	if err != nil {
		return component.Output{}, err
	}

	out, err := e.runWithRetry(ctx, comp, input, step.Retry)

	if ctx.State != nil {
		// Store the full serialized Output — not just out.Text — so a
		// downstream step or script reading this key back still sees
		// tool_calls, media, and metadata.extra alongside text.
		doc, jsonErr := out.AsJSON()
		var stored any = doc
		if jsonErr != nil {
			stored = out.Text
		}
		switch step.Type {
		case StepAgent:
			_ = ctx.State.Write(AgentOutputKey(workflowID, step.Name), stored)
			_ = ctx.State.Write(AgentMetadataKey(workflowID, step.Name), out.Metadata.Extra)
		case StepWorkflow:
			_ = ctx.State.Write(NestedOutputKey(workflowID, step.Name), stored)
			_ = ctx.State.Write(NestedMetadataKey(workflowID, step.Name), out.Metadata.Extra)
		default:
			_ = ctx.State.Write(StepOutputKey(workflowID, step.Name), stored)
			_ = ctx.State.Write(StepMetadataKey(workflowID, step.Name), out.Metadata.Extra)
		}
		if err != nil {
			_ = ctx.State.Write(ErrorKey(workflowID), err.Error())
		}
	}

	hc.Output, hc.Err = out, err
	if e.Hooks != nil {
		if _, hookErr := e.Hooks.Invoke(hc, out.Metadata.Duration); hookErr != nil {
			return out, hookErr
		}
	}

	return out, err
}

func (e *StepExecutor) runWithRetry(ctx *component.ExecutionContext, comp component.BaseAgent, input component.Input, retry RetryConfig) (component.Output, error) {
	attempts := retry.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var out component.Output
	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		out, err = comp.Execute(ctx, input)
		if err == nil {
			return out, nil
		}
		if attempt < attempts-1 && retry.Delay > 0 {
			select {
			case <-ctx.Done():
				return out, ctx.Err()
			case <-time.After(retry.delayFor(attempt)):
			}
		}
	}
	return out, err
}
