// Package component defines the universal component contract (BaseAgent),
// the execution context threaded through every call, and the input/output
// value types every tool, agent, and workflow exchanges.
//
// Every component in Orin — tool, LLM agent, or workflow — implements
// BaseAgent and is looked up by name in a ComponentRegistry. This mirrors
// the teacher's ComponentManager / registry split (pkg/component,
// pkg/registry) generalized so that a workflow step and a tool call go
// through the exact same execute() wrapper.
package component

import (
	"encoding/json"
	"time"
)

// Type tags a component's kind, used for the registry's typed buckets and
// for event-type prefixes ("tool.started", "agent.completed", ...).
type Type string

const (
	TypeTool     Type = "tool"
	TypeAgent    Type = "agent"
	TypeWorkflow Type = "workflow"
)

// ID is a stable identifier for a component, compared by string value.
type ID struct {
	Name string
	Type Type
}

func (id ID) String() string { return string(id.Type) + ":" + id.Name }

// Metadata is immutable once a component is constructed.
type Metadata struct {
	Name        string
	Description string
	Version     string
	Type        Type
}

// ID returns the component's stable identifier.
func (m Metadata) ID() ID { return ID{Name: m.Name, Type: m.Type} }

// Input is the request passed to execute(). Ordered parameters preserve
// positional call shapes from scripts; Named is the same data addressable
// by key. Both views of the same call exist simultaneously because
// script bridges must support positional, named, and mixed invocation
// (spec section 4.7, "Argument passing").
type Input struct {
	Text      string
	Ordered   []any
	Named     map[string]any
	Context   map[string]any
	Streaming bool
}

// Param looks up a named parameter, falling back to nothing found.
func (in Input) Param(name string) (any, bool) {
	if in.Named == nil {
		return nil, false
	}
	v, ok := in.Named[name]
	return v, ok
}

// ToolCallRecord records one tool invocation an agent made while producing
// an Output, surfaced back to the caller/script for inspection.
type ToolCallRecord struct {
	Name       string
	Parameters map[string]any
	Result     any
	Error      string
}

// MediaRef references a non-text artifact produced by a component (an
// image, a file, a generated document) without inlining its bytes.
type MediaRef struct {
	MimeType string
	URI      string
	Bytes    int64
}

// Output is what execute() returns. Metadata.Extra carries anything a
// component wants to report beyond text — a workflow mirrors its
// WorkflowResult here as JSON, per spec.md's data model.
type Output struct {
	Text       string
	ToolCalls  []ToolCallRecord
	Media      []MediaRef
	TransferTo string
	Metadata   OutputMetadata
}

// OutputMetadata holds the free-form extras map plus timing, so the
// execute() wrapper can stamp duration without the body needing to know
// about it.
type OutputMetadata struct {
	Extra    map[string]any
	Duration time.Duration
}

// AsJSON renders o.Metadata.Extra (plus Text) as a JSON document, used when
// a workflow mirrors a step's AgentOutput into state or when the bridge
// converts a result back to a script value.
func (o Output) AsJSON() (map[string]any, error) {
	doc := map[string]any{"text": o.Text}
	for k, v := range o.Metadata.Extra {
		doc[k] = v
	}
	if len(o.ToolCalls) > 0 {
		doc["tool_calls"] = o.ToolCalls
	}
	if len(o.Media) > 0 {
		doc["media"] = o.Media
	}
	if o.TransferTo != "" {
		doc["transfer_to"] = o.TransferTo
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
