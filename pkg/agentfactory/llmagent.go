package agentfactory

import (
	"fmt"

	"github.com/orinrun/orin/internal/orierr"
	"github.com/orinrun/orin/pkg/component"
	"github.com/orinrun/orin/pkg/registry"
)

// Template is the declarative shape a script or config file builds an
// LLM agent from (spec.md section 2, "agent factory & registry";
// teacher's config.AgentConfig, generalized to name a provider rather
// than a concrete LLM client).
type Template struct {
	Meta         component.Metadata
	Provider     string
	SystemPrompt string
	Tools        []string // tool names the agent may call, resolved against Registry
	MaxIters     int      // bounds the think/act loop; 0 defaults to 8
}

// LLMAgent runs a bounded think/act loop against an LLMProvider,
// resolving any tool calls the provider requests through a
// registry.ComponentLookup before feeding the result back.
type LLMAgent struct {
	*component.Base

	provider LLMProvider
	tools    []string
	registry registry.ComponentLookup
	system   string
	maxIters int
}

// FromTemplate constructs an LLMAgent, resolving tpl.Provider against
// providers and validating that every tpl.Tools entry resolves against
// lookup so a misconfigured agent fails at construction, not on first
// call.
func FromTemplate(tpl Template, lookup registry.ComponentLookup, providers ProviderLookup) (*LLMAgent, error) {
	provider, ok := providers.GetProvider(tpl.Provider)
	if !ok {
		return nil, orierr.New(orierr.KindNotFound, "agentfactory", fmt.Sprintf("provider %q not registered", tpl.Provider))
	}
	for _, name := range tpl.Tools {
		if _, ok := lookup.GetTool(name); !ok {
			return nil, orierr.New(orierr.KindValidation, "agentfactory", fmt.Sprintf("tool %q not registered", name))
		}
	}

	maxIters := tpl.MaxIters
	if maxIters <= 0 {
		maxIters = 8
	}

	tpl.Meta.Type = component.TypeAgent
	a := &LLMAgent{
		provider: provider,
		tools:    tpl.Tools,
		registry: lookup,
		system:   tpl.SystemPrompt,
		maxIters: maxIters,
	}
	a.Base = component.NewBase(tpl.Meta, a.run, nil, nil)
	return a, nil
}

func (a *LLMAgent) run(ctx *component.ExecutionContext, input component.Input) (component.Output, error) {
	messages := make([]Message, 0, 2)
	if a.system != "" {
		messages = append(messages, Message{Role: RoleSystem, Content: a.system})
	}
	messages = append(messages, Message{Role: RoleUser, Content: input.Text})

	var calls []component.ToolCallRecord
	for i := 0; i < a.maxIters; i++ {
		completion, err := a.provider.Complete(ctx.Context, messages, a.tools)
		if err != nil {
			return component.Output{}, orierr.Wrap(orierr.KindProvider, "agentfactory", err)
		}

		if len(completion.ToolCalls) == 0 {
			return component.Output{
				Text:      completion.Text,
				ToolCalls: calls,
				Metadata:  component.OutputMetadata{Extra: map[string]any{"iterations": i + 1}},
			}, nil
		}

		messages = append(messages, Message{Role: RoleAssistant, Content: completion.Text})
		for _, call := range completion.ToolCalls {
			record, resultText := a.invokeTool(ctx, call)
			calls = append(calls, record)
			messages = append(messages, Message{Role: RoleTool, ToolName: call.Name, Content: resultText})
		}
	}

	return component.Output{}, orierr.New(orierr.KindResourceLimit, "agentfactory", "max iterations exceeded without a final answer")
}

func (a *LLMAgent) invokeTool(ctx *component.ExecutionContext, call ToolCall) (component.ToolCallRecord, string) {
	t, ok := a.registry.GetTool(call.Name)
	if !ok {
		return component.ToolCallRecord{Name: call.Name, Parameters: call.Arguments, Error: "tool not registered"}, "error: tool not registered"
	}
	out, err := t.Execute(ctx, component.Input{Named: call.Arguments})
	if err != nil {
		return component.ToolCallRecord{Name: call.Name, Parameters: call.Arguments, Error: err.Error()}, "error: " + err.Error()
	}
	return component.ToolCallRecord{Name: call.Name, Parameters: call.Arguments, Result: out.Text}, out.Text
}
