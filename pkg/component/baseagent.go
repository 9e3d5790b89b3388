package component

import (
	"fmt"
	"time"
)

// BaseAgent is the universal component capability. Tools, LLM agents, and
// workflows all implement it; ComponentRegistry stores them behind this
// interface uniformly (spec.md section 4.1).
//
// Execute is the single public entry point. It is a provided method — see
// Base.Execute, below — every concrete component gets it for free by embedding
// Base and supplying ExecuteImpl; nothing outside this package should
// reimplement the cross-cutting wrapper.
type BaseAgent interface {
	Metadata() Metadata
	Execute(ctx *ExecutionContext, input Input) (Output, error)
}

// Body is the signature every component implements. It is never called
// directly by bridges, callers, or tests — only Execute calls it. Keeping
// Body as a plain function value (rather than requiring embedders to
// override a method) lets pkg/tool, pkg/workflow and the agent factory
// all reuse Base without repeating the wrapper.
type Body func(ctx *ExecutionContext, input Input) (Output, error)

// Validator optionally validates an Input before the wrapper runs the
// body. A component that has no preconditions beyond its schema leaves
// this nil.
type Validator func(input Input) error

// ErrorHandler optionally post-processes an error returned by Body before
// it is reported through events/to the caller (e.g. to attach a partial
// Output, or to reclassify a provider error as transient).
type ErrorHandler func(err error) error

// Base implements BaseAgent's Execute once, for every component to embed.
// Concrete components (tool.Tool, workflow patterns, agent templates)
// hold a *Base and forward Metadata()/Execute() to it.
type Base struct {
	meta     Metadata
	body     Body
	validate Validator
	onError  ErrorHandler
}

// NewBase constructs the shared BaseAgent plumbing around a concrete
// component body.
func NewBase(meta Metadata, body Body, validate Validator, onError ErrorHandler) *Base {
	return &Base{meta: meta, body: body, validate: validate, onError: onError}
}

func (b *Base) Metadata() Metadata { return b.meta }

// Execute is the cross-cutting wrapper described in spec.md 4.1: it emits
// started/completed|failed events (if ctx.Events is set), times the body,
// runs the optional validator first, and applies the optional error
// handler. ExecuteImpl (Body) is the only thing a component body
// supplies.
func (b *Base) Execute(ctx *ExecutionContext, input Input) (Output, error) {
	id := b.meta.ID()
	eventPrefix := string(b.meta.Type)

	if ctx.Events != nil {
		ctx.Events.Emit(eventPrefix+".started", map[string]any{
			"component_id":   id.String(),
			"correlation_id": ctx.CorrelationID,
			"input_size":     len(input.Text) + len(input.Ordered) + len(input.Named),
		})
	}

	start := time.Now()

	if b.validate != nil {
		if err := b.validate(input); err != nil {
			return b.finish(ctx, eventPrefix, start, Output{}, fmt.Errorf("validate %s: %w", id, err))
		}
	}

	out, err := b.body(ctx, input)
	if err != nil && b.onError != nil {
		err = b.onError(err)
	}
	out.Metadata.Duration = time.Since(start)

	return b.finish(ctx, eventPrefix, start, out, err)
}

func (b *Base) finish(ctx *ExecutionContext, eventPrefix string, start time.Time, out Output, err error) (Output, error) {
	if ctx.Events == nil {
		return out, err
	}
	dur := time.Since(start)
	if err != nil {
		ctx.Events.Emit(eventPrefix+".failed", map[string]any{
			"component_id":   b.meta.ID().String(),
			"correlation_id": ctx.CorrelationID,
			"duration_ms":    dur.Milliseconds(),
			"error":          err.Error(),
		})
		return out, err
	}
	ctx.Events.Emit(eventPrefix+".completed", map[string]any{
		"component_id":   b.meta.ID().String(),
		"correlation_id": ctx.CorrelationID,
		"duration_ms":    dur.Milliseconds(),
		"output_size":    len(out.Text),
	})
	return out, nil
}
