package workflow

import (
	"github.com/orinrun/orin/pkg/component"
)

// TypeConfig carries the pattern-specific shape a script bridge passes
// through New when dynamically constructing a workflow (spec.md section
// 4.4.5: "a factory accepts (type_name, config, type_config)").
type TypeConfig struct {
	Steps          []Step
	ErrorStrategy  ErrorStrategy
	Branches       []Branch
	Else           []Step
	Iterator       Iterator
	MaxIterations  int
	BreakCondition Condition
	ContinueOnErr  bool
	Wait           WaitStrategy
	Aggregation    Aggregation
	MaxConcurrency int
}

// New constructs a workflow dynamically by type name, the entry point
// the script bridge's Workflow global calls.
func New(typeName string, meta component.Metadata, id string, executor *StepExecutor, cfg TypeConfig) (component.BaseAgent, error) {
	b := NewBuilder(typeName, meta, id, executor).
		WithSteps(cfg.Steps...).
		WithErrorStrategy(cfg.ErrorStrategy).
		WithBranches(cfg.Branches...).
		WithElse(cfg.Else...).
		WithIterator(cfg.Iterator).
		WithMaxIterations(cfg.MaxIterations).
		WithBreakCondition(cfg.BreakCondition).
		WithContinueOnError(cfg.ContinueOnErr).
		WithWait(cfg.Wait).
		WithAggregation(cfg.Aggregation).
		WithMaxConcurrency(cfg.MaxConcurrency)

	return b.Build()
}
