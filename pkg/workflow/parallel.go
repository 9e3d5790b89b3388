package workflow

import (
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/orinrun/orin/pkg/component"
)

// WaitStrategy controls when Parallel considers itself done.
type WaitStrategy int

const (
	WaitAll WaitStrategy = iota
	WaitRequired
)

// Aggregation controls how Parallel merges branch outputs into its own
// Output.
type Aggregation int

const (
	AggregateMerge Aggregation = iota // keyed by branch name, in Metadata.Extra
	AggregateArray                    // ordered list in Metadata.Extra["results"]
)

// Parallel forks every branch concurrently over golang.org/x/sync/errgroup
// — the same primitive the teacher's workflowagent.parallel.go uses —
// and aggregates their outputs (spec.md section 4.4.2).
type Parallel struct {
	*component.Base

	id             string
	branches       []Step
	executor       *StepExecutor
	wait           WaitStrategy
	aggregation    Aggregation
	maxConcurrency int
}

// ParallelConfig configures a Parallel workflow.
type ParallelConfig struct {
	Meta           component.Metadata
	ID             string
	Branches       []Step
	Executor       *StepExecutor
	Wait           WaitStrategy
	Aggregation    Aggregation
	MaxConcurrency int
}

// NewParallel constructs a Parallel workflow.
func NewParallel(cfg ParallelConfig) *Parallel {
	cfg.Meta.Type = component.TypeWorkflow
	p := &Parallel{
		id:             cfg.ID,
		branches:       cfg.Branches,
		executor:       cfg.Executor,
		wait:           cfg.Wait,
		aggregation:    cfg.Aggregation,
		maxConcurrency: cfg.MaxConcurrency,
	}
	p.Base = component.NewBase(cfg.Meta, p.run, nil, nil)
	return p
}

type branchResult struct {
	name     string
	required bool
	out      component.Output
	err      error
}

func (p *Parallel) run(ctx *component.ExecutionContext, input component.Input) (component.Output, error) {
	eg, egCtx := errgroup.WithContext(ctx.Context)
	if p.maxConcurrency > 0 {
		eg.SetLimit(p.maxConcurrency)
	}

	var requiredWG sync.WaitGroup
	var resultsMu sync.Mutex
	results := make([]branchResult, len(p.branches))
	for i, branch := range p.branches {
		i, branch := i, branch
		if p.wait == WaitRequired && branch.Required {
			requiredWG.Add(1)
		}
		eg.Go(func() error {
			if p.wait == WaitRequired && branch.Required {
				defer requiredWG.Done()
			}
			branchCtx := ctx.Child(component.WorkflowScope(p.id), component.Isolate)
			branchCtx.Context = egCtx
			out, err := p.executor.ExecuteStep(branchCtx, p.id, branch, input)
			resultsMu.Lock()
			results[i] = branchResult{name: branch.Name, required: branch.Required, out: out, err: err}
			resultsMu.Unlock()
			if err != nil && branch.Required {
				return fmt.Errorf("required branch %q: %w", branch.Name, err)
			}
			return nil
		})
	}

	var groupErr error
	if p.wait == WaitRequired {
		// Return once every required branch has finished; optional
		// branches keep running against egCtx and their results (or
		// cancellation) are collected by the detached goroutine below.
		done := make(chan struct{})
		go func() { requiredWG.Wait(); close(done) }()
		select {
		case <-done:
		case <-egCtx.Done():
		}
		go func() { _ = eg.Wait() }()
	} else {
		groupErr = eg.Wait()
	}

	resultsMu.Lock()
	snapshot := make([]branchResult, len(results))
	copy(snapshot, results)
	resultsMu.Unlock()

	merged := component.Output{Metadata: component.OutputMetadata{Extra: map[string]any{}}}
	var array []any
	failed := 0
	for _, r := range snapshot {
		if r.err != nil {
			failed++
		}
		merged.Metadata.Extra[r.name] = r.out.Text
		array = append(array, r.out.Text)
	}
	if p.aggregation == AggregateArray {
		merged.Metadata.Extra["results"] = array
	}
	merged.Metadata.Extra["steps_executed"] = len(snapshot)
	merged.Metadata.Extra["steps_failed"] = failed

	if ctx.State != nil {
		_ = ctx.State.Write(FinalKey(p.id), merged.Text)
	}

	if groupErr != nil {
		return merged, groupErr
	}
	return merged, nil
}
