package workflow

import (
	"github.com/orinrun/orin/pkg/component"
)

// IteratorKind discriminates a Loop's iteration source.
type IteratorKind int

const (
	IterCollection IteratorKind = iota
	IterRange
	IterWhileCondition
)

// Iterator is the tagged iteration source spec.md section 4.4.4 names:
// Collection(values), Range(start, end, step), or WhileCondition(cond).
type Iterator struct {
	Kind       IteratorKind
	Collection []any
	Start      int
	End        int
	Step       int
	While      Condition
}

// Loop runs its steps once per iteration, bounded by MaxIterations as a
// safety backstop regardless of which Iterator drives it, and stops
// early if BreakCondition evaluates true.
type Loop struct {
	*component.Base

	id            string
	steps         []Step
	executor      *StepExecutor
	iterator      Iterator
	maxIterations int
	breakCond     Condition
	continueOnErr bool
}

// LoopConfig configures a Loop workflow.
type LoopConfig struct {
	Meta          component.Metadata
	ID            string
	Steps         []Step
	Executor      *StepExecutor
	Iterator      Iterator
	MaxIterations int
	BreakCondition Condition
	ContinueOnError bool
}

// NewLoop constructs a Loop workflow (spec.md section 4.4.4).
// MaxIterations is always enforced, even for IterWhileCondition and
// IterRange sources whose natural bound might otherwise run forever.
func NewLoop(cfg LoopConfig) *Loop {
	cfg.Meta.Type = component.TypeWorkflow
	l := &Loop{
		id:            cfg.ID,
		steps:         cfg.Steps,
		executor:      cfg.Executor,
		iterator:      cfg.Iterator,
		maxIterations: cfg.MaxIterations,
		breakCond:     cfg.BreakCondition,
		continueOnErr: cfg.ContinueOnError,
	}
	l.Base = component.NewBase(cfg.Meta, l.run, nil, nil)
	return l
}

func (l *Loop) iterationCount() int {
	n := l.maxIterations
	switch l.iterator.Kind {
	case IterCollection:
		if n <= 0 || len(l.iterator.Collection) < n {
			n = len(l.iterator.Collection)
		}
	case IterRange:
		step := l.iterator.Step
		if step <= 0 {
			step = 1
		}
		count := (l.iterator.End - l.iterator.Start) / step
		if count < 0 {
			count = 0
		}
		if n <= 0 || count < n {
			n = count
		}
	}
	return n
}

func (l *Loop) run(ctx *component.ExecutionContext, input component.Input) (component.Output, error) {
	limit := l.iterationCount()

	var lastOut component.Output
	iteration := 0
	for {
		if l.maxIterations > 0 && iteration >= l.maxIterations {
			break
		}
		switch l.iterator.Kind {
		case IterWhileCondition:
			if ok, err := evaluateCondition(ctx, l.id, l.iterator.While); err != nil {
				return lastOut, err
			} else if !ok {
				goto done
			}
		default:
			if limit > 0 && iteration >= limit {
				goto done
			}
		}

		for _, step := range l.steps {
			out, err := l.executor.ExecuteStep(ctx, l.id, step, input)
			lastOut = out
			if ctx.State != nil {
				_ = ctx.State.Write(IterationStepKey(l.id, iteration, step.Name), out.Text)
			}
			if err != nil && !l.continueOnErr {
				return lastOut, err
			}
		}

		if l.breakCond.Kind != ConditionNone {
			if stop, err := evaluateCondition(ctx, l.id, l.breakCond); err == nil && stop {
				goto done
			}
		}

		iteration++
	}

done:
	if ctx.State != nil {
		_ = ctx.State.Write(IterationAggregatedKey(l.id, iteration), lastOut.Text)
	}
	return lastOut, nil
}

// NewSequential builds a workflow that executes steps once, in the
// order they're declared — implemented as a Loop with MaxIterations=1,
// exactly as the teacher's workflowagent.NewSequential wraps NewLoop.
//
// errStrategy.Kind selects one of the three named strategies (spec.md
// section 4.4.1): Fail propagates a step's error immediately,
// Continue runs every step regardless of earlier failures, and Retry
// applies errStrategy.Retry to every step that doesn't already declare
// its own RetryConfig, so a step-level retry always takes precedence
// over the workflow-level one.
func NewSequential(meta component.Metadata, id string, steps []Step, executor *StepExecutor, errStrategy ErrorStrategy) *Loop {
	if errStrategy.Kind == ErrorRetry {
		withRetry := make([]Step, len(steps))
		for i, step := range steps {
			if step.Retry.MaxAttempts == 0 {
				step.Retry = errStrategy.Retry
			}
			withRetry[i] = step
		}
		steps = withRetry
	}
	return NewLoop(LoopConfig{
		Meta:            meta,
		ID:              id,
		Steps:           steps,
		Executor:        executor,
		MaxIterations:   1,
		ContinueOnError: errStrategy.Kind == ErrorContinue,
	})
}
