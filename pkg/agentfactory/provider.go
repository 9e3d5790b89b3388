// Package agentfactory builds LLM-backed agents from declarative
// templates and wraps any registered agent as a callable tool with
// recursion detection, the two "agent factory & registry" concerns
// spec.md's distillation compresses into one line (spec.md section 4.2,
// "agent factory & registry").
//
// Grounded in the teacher's pkg/agent.AgentFactory/NewAgent (template
// plus component-manager construction) and pkg/agent.AgentCallTool
// (agent-as-tool delegation). Orin's Non-goals exclude concrete LLM
// wire protocols, so LLMProvider is a capability interface plus an
// in-memory FakeProvider for tests, not a real HTTP client.
package agentfactory

import (
	"context"

	"github.com/orinrun/orin/internal/orierr"
)

// Role tags a Message the way every chat-completion wire format does.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one turn in a conversation sent to an LLMProvider.
type Message struct {
	Role    Role
	Content string
	// ToolName is set on RoleTool messages reporting a tool's result back
	// to the model.
	ToolName string
}

// ToolCall is a provider's request to invoke one of the tools advertised
// in a Complete call.
type ToolCall struct {
	Name      string
	Arguments map[string]any
}

// Completion is what a provider returns for one turn: either final text
// or one or more tool calls to satisfy before the loop continues.
type Completion struct {
	Text      string
	ToolCalls []ToolCall
}

// LLMProvider is the capability interface every model backend
// implements. Orin ships no concrete wire-protocol client — providers
// are registered by whatever embeds Orin — matching spec.md's Non-goal
// "LLM provider wire protocols".
type LLMProvider interface {
	Name() string
	Capabilities() []string
	Complete(ctx context.Context, messages []Message, toolNames []string) (Completion, error)
}

// ProviderLookup resolves a provider by name, the capability the
// Provider global's list/get/get_capabilities/is_available methods sit
// on top of.
type ProviderLookup interface {
	GetProvider(name string) (LLMProvider, bool)
}

// ProviderSet is the trivial, map-backed ProviderLookup a host process
// registers its providers into — Orin ships no concrete wire-protocol
// client (see LLMProvider's doc comment), so this is the whole of the
// host-side wiring needed to satisfy bridge.Deps.Providers.
type ProviderSet map[string]LLMProvider

// Register adds p under its own Name(), overwriting any existing entry.
func (s ProviderSet) Register(p LLMProvider) {
	s[p.Name()] = p
}

func (s ProviderSet) GetProvider(name string) (LLMProvider, bool) {
	p, ok := s[name]
	return p, ok
}

// FakeProvider is an in-memory LLMProvider for tests: it delegates to
// its Respond func (and returns a provider error when Respond is nil),
// so tests can script multi-turn tool-calling loops without a real model.
type FakeProvider struct {
	ProviderName string
	Respond      func(messages []Message, toolNames []string) (Completion, error)
}

func (p *FakeProvider) Name() string           { return p.ProviderName }
func (p *FakeProvider) Capabilities() []string { return []string{"chat", "tools"} }

func (p *FakeProvider) Complete(ctx context.Context, messages []Message, toolNames []string) (Completion, error) {
	if p.Respond == nil {
		return Completion{}, orierr.New(orierr.KindProvider, "agentfactory", "fake provider has no Respond configured")
	}
	return p.Respond(messages, toolNames)
}
