package component_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orinrun/orin/pkg/component"
)

type recordingEmitter struct {
	events []string
}

func (r *recordingEmitter) Emit(eventType string, data map[string]any) {
	r.events = append(r.events, eventType)
}

func TestBaseExecute_EmitsStartedAndCompleted(t *testing.T) {
	emitter := &recordingEmitter{}
	base := component.NewBase(
		component.Metadata{Name: "upper", Type: component.TypeTool},
		func(ctx *component.ExecutionContext, in component.Input) (component.Output, error) {
			return component.Output{Text: "HELLO"}, nil
		},
		nil, nil,
	)

	ctx := component.NewExecutionContext(context.Background(), component.GlobalScope(), "corr-1")
	ctx.Events = emitter

	out, err := base.Execute(ctx, component.Input{Text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "HELLO", out.Text)
	assert.Equal(t, []string{"tool.started", "tool.completed"}, emitter.events)
}

func TestBaseExecute_EmitsFailed(t *testing.T) {
	emitter := &recordingEmitter{}
	wantErr := errors.New("boom")
	base := component.NewBase(
		component.Metadata{Name: "broken", Type: component.TypeTool},
		func(ctx *component.ExecutionContext, in component.Input) (component.Output, error) {
			return component.Output{}, wantErr
		},
		nil, nil,
	)

	ctx := component.NewExecutionContext(context.Background(), component.GlobalScope(), "corr-2")
	ctx.Events = emitter

	_, err := base.Execute(ctx, component.Input{})
	require.Error(t, err)
	assert.Equal(t, []string{"tool.started", "tool.failed"}, emitter.events)
}

func TestBaseExecute_ValidatorRejectsBeforeBody(t *testing.T) {
	called := false
	base := component.NewBase(
		component.Metadata{Name: "validated", Type: component.TypeTool},
		func(ctx *component.ExecutionContext, in component.Input) (component.Output, error) {
			called = true
			return component.Output{}, nil
		},
		func(in component.Input) error { return errors.New("missing required param") },
		nil,
	)

	ctx := component.NewExecutionContext(context.Background(), component.GlobalScope(), "corr-3")
	_, err := base.Execute(ctx, component.Input{})
	require.Error(t, err)
	assert.False(t, called, "body must not run when validation fails")
}

func TestExecutionContext_ChildInheritsDataByDefault(t *testing.T) {
	parent := component.NewExecutionContext(context.Background(), component.GlobalScope(), "corr-4")
	parent.Set("priority", "urgent")

	child := parent.Child(component.WorkflowScope("wf-1"), component.Inherit)
	v, ok := child.Get("priority")
	require.True(t, ok)
	assert.Equal(t, "urgent", v)

	child.Set("priority", "low")
	_, stillThere := parent.Get("priority")
	assert.True(t, stillThere)
	parentVal, _ := parent.Get("priority")
	assert.Equal(t, "urgent", parentVal, "child writes must not propagate to parent")
}

func TestExecutionContext_ChildIsolate(t *testing.T) {
	parent := component.NewExecutionContext(context.Background(), component.GlobalScope(), "corr-5")
	parent.Set("k", "v")

	child := parent.Child(component.AgentScope("a-1"), component.Isolate)
	_, ok := child.Get("k")
	assert.False(t, ok, "isolate policy must not see parent data")
}
