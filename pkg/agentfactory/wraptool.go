package agentfactory

import (
	"fmt"

	"github.com/orinrun/orin/internal/orierr"
	"github.com/orinrun/orin/pkg/component"
	"github.com/orinrun/orin/pkg/registry"
)

// callStackKey is where the current agent-delegation chain lives in an
// ExecutionContext's inherited data map, so a wrapped agent anywhere
// down the chain can see every ancestor that led to it.
const callStackKey = "agentfactory:call_stack"

// DefaultMaxDepth is spec.md section 4.2's "default max 10" recursion
// bound for AgentWrappedTool.
const DefaultMaxDepth = 10

// WrappedTool is the agent-as-tool wrapper spec.md section 4.2 names
// AgentWrappedTool: it lets a workflow or another agent call a
// registered agent exactly like a tool, while preventing the call stack
// from cycling back into an agent already on it (cyclic composition is
// allowed structurally — workflow → agent → workflow — but an agent
// can never call itself, directly or transitively).
type WrappedTool struct {
	*component.Base

	agentName string
	registry  registry.ComponentLookup
	maxDepth  int
}

// WrapAsTool constructs a WrappedTool delegating to the named agent.
// maxDepth <= 0 defaults to DefaultMaxDepth.
func WrapAsTool(agentName string, lookup registry.ComponentLookup, maxDepth int) *WrappedTool {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	w := &WrappedTool{
		agentName: agentName,
		registry:  lookup,
		maxDepth:  maxDepth,
	}
	w.Base = component.NewBase(
		component.Metadata{
			Name:        agentName + "_as_tool",
			Description: fmt.Sprintf("delegates to agent %q", agentName),
			Type:        component.TypeTool,
		},
		w.run, nil, nil,
	)
	return w
}

// RequiresSandbox implements registry.Sandboxed: delegation never
// touches the filesystem/network directly, so a wrapped agent never
// needs a sandbox of its own (whatever it delegates to enforces its
// own).
func (w *WrappedTool) RequiresSandbox() bool { return false }
func (w *WrappedTool) HasSandbox() bool      { return false }

func (w *WrappedTool) run(ctx *component.ExecutionContext, input component.Input) (component.Output, error) {
	target, ok := w.registry.GetAgent(w.agentName)
	if !ok {
		return component.Output{}, orierr.New(orierr.KindNotFound, "agentfactory", fmt.Sprintf("agent %q not registered", w.agentName))
	}

	stack, _ := ctx.Get(callStackKey)
	chain, _ := stack.([]string)

	if len(chain) >= w.maxDepth {
		return component.Output{}, orierr.ErrRecursionLimit.WithCorrelation(ctx.CorrelationID)
	}
	for _, seen := range chain {
		if seen == w.agentName {
			return component.Output{}, orierr.ErrRecursionLimit.WithCorrelation(ctx.CorrelationID)
		}
	}

	child := ctx.Child(component.AgentScope(w.agentName), component.Inherit)
	child.Set(callStackKey, append(append([]string{}, chain...), w.agentName))

	return target.Execute(child, input)
}
