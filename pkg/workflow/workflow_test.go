package workflow_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orinrun/orin/pkg/component"
	"github.com/orinrun/orin/pkg/registry"
	"github.com/orinrun/orin/pkg/state"
	"github.com/orinrun/orin/pkg/workflow"
)

func echoTool(name, suffix string) *component.Base {
	return component.NewBase(
		component.Metadata{Name: name, Type: component.TypeTool},
		func(ctx *component.ExecutionContext, in component.Input) (component.Output, error) {
			return component.Output{Text: in.Text + suffix}, nil
		},
		nil, nil,
	)
}

func failingTool(name string) *component.Base {
	return component.NewBase(
		component.Metadata{Name: name, Type: component.TypeTool},
		func(ctx *component.ExecutionContext, in component.Input) (component.Output, error) {
			return component.Output{}, fmt.Errorf("boom")
		},
		nil, nil,
	)
}

func newExecutor(t *testing.T, tools map[string]component.BaseAgent) (*workflow.StepExecutor, *component.ExecutionContext) {
	t.Helper()
	reg := registry.New(nil)
	for name, tool := range tools {
		require.NoError(t, reg.RegisterTool(name, tool))
	}
	executor := workflow.NewStepExecutor(reg, nil)
	ctx := component.NewExecutionContext(context.Background(), component.WorkflowScope("wf-1"), "corr-1")
	ctx.State = state.NewMemoryStore(state.BreakerConfig{})
	return executor, ctx
}

func TestSequential_RunsStepsInOrderAndWritesStepOutputs(t *testing.T) {
	executor, ctx := newExecutor(t, map[string]component.BaseAgent{
		"a": echoTool("a", "-a"),
		"b": echoTool("b", "-b"),
	})
	steps := []workflow.Step{
		{Name: "a", Type: workflow.StepTool, ComponentName: "a"},
		{Name: "b", Type: workflow.StepTool, ComponentName: "b"},
	}
	seq := workflow.NewSequential(component.Metadata{Name: "seq"}, "wf-1", steps, executor, workflow.ErrorStrategy{})

	out, err := seq.Execute(ctx, component.Input{Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, "x-a-b", out.Text)

	v, ok, err := ctx.State.Read(workflow.StepOutputKey("wf-1", "a"))
	require.NoError(t, err)
	require.True(t, ok)
	doc, ok := v.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "x-a", doc["text"])
}

func TestSequential_FailStrategyHaltsOnError(t *testing.T) {
	executor, ctx := newExecutor(t, map[string]component.BaseAgent{
		"a": failingTool("a"),
		"b": echoTool("b", "-b"),
	})
	steps := []workflow.Step{
		{Name: "a", Type: workflow.StepTool, ComponentName: "a"},
		{Name: "b", Type: workflow.StepTool, ComponentName: "b"},
	}
	seq := workflow.NewSequential(component.Metadata{Name: "seq"}, "wf-1", steps, executor, workflow.ErrorStrategy{Kind: workflow.ErrorFail})

	_, err := seq.Execute(ctx, component.Input{Text: "x"})
	assert.Error(t, err)

	_, ok, _ := ctx.State.Read(workflow.StepOutputKey("wf-1", "b"))
	assert.False(t, ok)
}

func TestSequential_ContinueStrategyKeepsGoing(t *testing.T) {
	executor, ctx := newExecutor(t, map[string]component.BaseAgent{
		"a": failingTool("a"),
		"b": echoTool("b", "-b"),
	})
	steps := []workflow.Step{
		{Name: "a", Type: workflow.StepTool, ComponentName: "a"},
		{Name: "b", Type: workflow.StepTool, ComponentName: "b"},
	}
	seq := workflow.NewSequential(component.Metadata{Name: "seq"}, "wf-1", steps, executor, workflow.ErrorStrategy{Kind: workflow.ErrorContinue})

	out, err := seq.Execute(ctx, component.Input{Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, "x-b", out.Text)
}

func TestParallel_AllRequiredSucceed(t *testing.T) {
	executor, ctx := newExecutor(t, map[string]component.BaseAgent{
		"a": echoTool("a", "-a"),
		"b": echoTool("b", "-b"),
	})
	branches := []workflow.Step{
		{Name: "a", Type: workflow.StepTool, ComponentName: "a", Required: true},
		{Name: "b", Type: workflow.StepTool, ComponentName: "b", Required: true},
	}
	par := workflow.NewParallel(workflow.ParallelConfig{Meta: component.Metadata{Name: "par"}, ID: "wf-1", Branches: branches, Executor: executor})

	out, err := par.Execute(ctx, component.Input{Text: "x"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, out.Metadata.Extra["steps_executed"])
	assert.EqualValues(t, 0, out.Metadata.Extra["steps_failed"])
}

func TestParallel_RequiredFailureFailsWorkflow(t *testing.T) {
	executor, ctx := newExecutor(t, map[string]component.BaseAgent{
		"a": failingTool("a"),
		"b": echoTool("b", "-b"),
	})
	branches := []workflow.Step{
		{Name: "a", Type: workflow.StepTool, ComponentName: "a", Required: true},
		{Name: "b", Type: workflow.StepTool, ComponentName: "b", Required: true},
	}
	par := workflow.NewParallel(workflow.ParallelConfig{Meta: component.Metadata{Name: "par"}, ID: "wf-1", Branches: branches, Executor: executor})

	_, err := par.Execute(ctx, component.Input{Text: "x"})
	assert.Error(t, err)
}

func TestConditional_FirstMatchingBranchRuns(t *testing.T) {
	executor, ctx := newExecutor(t, map[string]component.BaseAgent{
		"a": echoTool("a", "-a"),
		"b": echoTool("b", "-b"),
	})
	cond := workflow.NewConditional(workflow.ConditionalConfig{
		Meta: component.Metadata{Name: "cond"},
		ID:   "wf-1",
		Branches: []workflow.Branch{
			{Condition: workflow.Condition{Kind: workflow.ConditionNever}, Steps: []workflow.Step{{Name: "a", Type: workflow.StepTool, ComponentName: "a"}}},
			{Condition: workflow.Condition{Kind: workflow.ConditionAlways}, Steps: []workflow.Step{{Name: "b", Type: workflow.StepTool, ComponentName: "b"}}},
		},
		Executor: executor,
	})

	out, err := cond.Execute(ctx, component.Input{Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, "x-b", out.Text)
}

func TestLoop_RunsOverCollectionBoundedByMaxIterations(t *testing.T) {
	executor, ctx := newExecutor(t, map[string]component.BaseAgent{
		"a": echoTool("a", "-a"),
	})
	loop := workflow.NewLoop(workflow.LoopConfig{
		Meta:     component.Metadata{Name: "loop"},
		ID:       "wf-1",
		Steps:    []workflow.Step{{Name: "a", Type: workflow.StepTool, ComponentName: "a"}},
		Executor: executor,
		Iterator: workflow.Iterator{Kind: workflow.IterCollection, Collection: []any{1, 2, 3, 4, 5}},
		MaxIterations: 3,
	})

	_, err := loop.Execute(ctx, component.Input{Text: "x"})
	require.NoError(t, err)

	_, ok, _ := ctx.State.Read(workflow.IterationStepKey("wf-1", 2, "a"))
	assert.True(t, ok)
	_, ok, _ = ctx.State.Read(workflow.IterationStepKey("wf-1", 3, "a"))
	assert.False(t, ok)
}

func flakyTool(name string, failTimes int) *component.Base {
	calls := 0
	return component.NewBase(
		component.Metadata{Name: name, Type: component.TypeTool},
		func(ctx *component.ExecutionContext, in component.Input) (component.Output, error) {
			calls++
			if calls <= failTimes {
				return component.Output{}, fmt.Errorf("boom %d", calls)
			}
			return component.Output{Text: in.Text + "-ok"}, nil
		},
		nil, nil,
	)
}

func TestSequential_RetryStrategyRetriesFailingSteps(t *testing.T) {
	executor, ctx := newExecutor(t, map[string]component.BaseAgent{
		"a": flakyTool("a", 2),
	})
	steps := []workflow.Step{{Name: "a", Type: workflow.StepTool, ComponentName: "a"}}
	seq := workflow.NewSequential(component.Metadata{Name: "seq"}, "wf-1", steps, executor, workflow.ErrorStrategy{
		Kind:  workflow.ErrorRetry,
		Retry: workflow.RetryConfig{MaxAttempts: 3},
	})

	out, err := seq.Execute(ctx, component.Input{Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, "x-ok", out.Text)
}

func TestSequential_RetryStrategyFailsAfterExhaustingAttempts(t *testing.T) {
	executor, ctx := newExecutor(t, map[string]component.BaseAgent{
		"a": flakyTool("a", 5),
	})
	steps := []workflow.Step{{Name: "a", Type: workflow.StepTool, ComponentName: "a"}}
	seq := workflow.NewSequential(component.Metadata{Name: "seq"}, "wf-1", steps, executor, workflow.ErrorStrategy{
		Kind:  workflow.ErrorRetry,
		Retry: workflow.RetryConfig{MaxAttempts: 2},
	})

	_, err := seq.Execute(ctx, component.Input{Text: "x"})
	assert.Error(t, err)
}

func TestConditional_SharedDataEqualsPrefersWorkflowScopedOverGlobal(t *testing.T) {
	executor, ctx := newExecutor(t, map[string]component.BaseAgent{
		"a": echoTool("a", "-a"),
		"b": echoTool("b", "-b"),
	})
	require.NoError(t, ctx.State.Write(workflow.GlobalSharedDataKey("priority"), "low"))
	require.NoError(t, workflow.SetSharedData(ctx.State, "wf-1", "priority", "urgent"))

	cond := workflow.NewConditional(workflow.ConditionalConfig{
		Meta: component.Metadata{Name: "cond"},
		ID:   "wf-1",
		Branches: []workflow.Branch{
			{
				Condition: workflow.Condition{Kind: workflow.ConditionSharedDataEquals, Path: "priority", Value: "urgent"},
				Steps:     []workflow.Step{{Name: "a", Type: workflow.StepTool, ComponentName: "a"}},
			},
		},
		Else:     []workflow.Step{{Name: "b", Type: workflow.StepTool, ComponentName: "b"}},
		Executor: executor,
	})

	out, err := cond.Execute(ctx, component.Input{Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, "x-a", out.Text)
}

func TestConditional_SharedDataEqualsFallsBackToGlobal(t *testing.T) {
	executor, ctx := newExecutor(t, map[string]component.BaseAgent{
		"a": echoTool("a", "-a"),
		"b": echoTool("b", "-b"),
	})
	require.NoError(t, ctx.State.Write(workflow.GlobalSharedDataKey("priority"), "urgent"))

	cond := workflow.NewConditional(workflow.ConditionalConfig{
		Meta: component.Metadata{Name: "cond"},
		ID:   "wf-1",
		Branches: []workflow.Branch{
			{
				Condition: workflow.Condition{Kind: workflow.ConditionSharedDataEquals, Path: "priority", Value: "urgent"},
				Steps:     []workflow.Step{{Name: "a", Type: workflow.StepTool, ComponentName: "a"}},
			},
		},
		Else:     []workflow.Step{{Name: "b", Type: workflow.StepTool, ComponentName: "b"}},
		Executor: executor,
	})

	out, err := cond.Execute(ctx, component.Input{Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, "x-a", out.Text)
}

func TestBuilder_RejectsMissingSteps(t *testing.T) {
	executor, _ := newExecutor(t, nil)
	_, err := workflow.NewBuilder("sequential", component.Metadata{Name: "seq"}, "wf-1", executor).Build()
	assert.Error(t, err)
}
