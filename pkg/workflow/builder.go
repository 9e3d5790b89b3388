package workflow

import (
	"github.com/orinrun/orin/internal/orierr"
	"github.com/orinrun/orin/pkg/component"
)

// Builder validates a workflow's configuration before constructing it
// (spec.md section 4.4.5's WorkflowBuilder). One Builder accumulates
// exactly one pattern's configuration; Build returns a BaseAgent so all
// four patterns are interchangeable to callers, including as nested
// workflow steps.
type Builder struct {
	kind     string
	meta     component.Metadata
	id       string
	executor *StepExecutor

	steps          []Step
	errStrategy    ErrorStrategy
	branches       []Branch
	elseSteps      []Step
	iterator       Iterator
	maxIterations  int
	breakCondition Condition
	continueOnErr  bool
	wait           WaitStrategy
	aggregation    Aggregation
	maxConcurrency int
}

func NewBuilder(kind string, meta component.Metadata, id string, executor *StepExecutor) *Builder {
	return &Builder{kind: kind, meta: meta, id: id, executor: executor}
}

func (b *Builder) WithSteps(steps ...Step) *Builder         { b.steps = steps; return b }
func (b *Builder) WithErrorStrategy(s ErrorStrategy) *Builder { b.errStrategy = s; return b }
func (b *Builder) WithBranches(branches ...Branch) *Builder { b.branches = branches; return b }
func (b *Builder) WithElse(steps ...Step) *Builder          { b.elseSteps = steps; return b }
func (b *Builder) WithIterator(it Iterator) *Builder        { b.iterator = it; return b }
func (b *Builder) WithMaxIterations(n int) *Builder         { b.maxIterations = n; return b }
func (b *Builder) WithBreakCondition(c Condition) *Builder  { b.breakCondition = c; return b }
func (b *Builder) WithContinueOnError(v bool) *Builder      { b.continueOnErr = v; return b }
func (b *Builder) WithWait(w WaitStrategy) *Builder         { b.wait = w; return b }
func (b *Builder) WithAggregation(a Aggregation) *Builder   { b.aggregation = a; return b }
func (b *Builder) WithMaxConcurrency(n int) *Builder        { b.maxConcurrency = n; return b }

// Build validates the accumulated configuration and constructs the
// workflow pattern named by kind ("sequential", "parallel",
// "conditional", "loop").
func (b *Builder) Build() (component.BaseAgent, error) {
	if b.id == "" {
		return nil, orierr.New(orierr.KindValidation, "workflow", "workflow id is required")
	}
	if b.executor == nil {
		return nil, orierr.New(orierr.KindValidation, "workflow", "executor is required")
	}

	switch b.kind {
	case "sequential":
		if len(b.steps) == 0 {
			return nil, orierr.New(orierr.KindValidation, "workflow", "sequential workflow requires at least one step")
		}
		return NewSequential(b.meta, b.id, b.steps, b.executor, b.errStrategy), nil
	case "parallel":
		if len(b.steps) == 0 {
			return nil, orierr.New(orierr.KindValidation, "workflow", "parallel workflow requires at least one branch")
		}
		return NewParallel(ParallelConfig{
			Meta: b.meta, ID: b.id, Branches: b.steps, Executor: b.executor,
			Wait: b.wait, Aggregation: b.aggregation, MaxConcurrency: b.maxConcurrency,
		}), nil
	case "conditional":
		if len(b.branches) == 0 {
			return nil, orierr.New(orierr.KindValidation, "workflow", "conditional workflow requires at least one branch")
		}
		return NewConditional(ConditionalConfig{
			Meta: b.meta, ID: b.id, Branches: b.branches, Else: b.elseSteps, Executor: b.executor,
		}), nil
	case "loop":
		if len(b.steps) == 0 {
			return nil, orierr.New(orierr.KindValidation, "workflow", "loop workflow requires at least one step")
		}
		if b.maxIterations <= 0 && b.iterator.Kind != IterCollection && b.iterator.Kind != IterRange {
			return nil, orierr.New(orierr.KindValidation, "workflow", "loop workflow requires max_iterations or a bounded iterator")
		}
		return NewLoop(LoopConfig{
			Meta: b.meta, ID: b.id, Steps: b.steps, Executor: b.executor,
			Iterator: b.iterator, MaxIterations: b.maxIterations,
			BreakCondition: b.breakCondition, ContinueOnError: b.continueOnErr,
		}), nil
	default:
		return nil, orierr.New(orierr.KindValidation, "workflow", "unknown workflow kind: "+b.kind)
	}
}
