// Package tracing adapts the tracer/metrics/manager shape of
// pkg/observability to the fixed set of categories named in spec section
// on instrumentation: every span and every counter/histogram is tagged
// with one of a small, closed set of Category values rather than a
// domain-specific metric family per subsystem. This keeps the surface
// small enough that the hook circuit breaker, the kernel, and tests can
// all feed the same Metrics without each needing its own recorder type.
package tracing

// Category is the fixed label every span and metric carries. Components
// outside this package should use one of the named constants rather than
// an arbitrary string, so that dashboards and the circuit breaker see a
// stable, closed vocabulary.
type Category string

const (
	CategoryAgent    Category = "agent"
	CategoryTool     Category = "tool"
	CategoryWorkflow Category = "workflow"
	CategoryHook     Category = "hook"
	CategoryEvent    Category = "event"
	CategoryState    Category = "state"
	CategoryStorage  Category = "storage"
	CategoryVector   Category = "vector"
	CategoryKernel   Category = "kernel"
)

func (c Category) String() string { return string(c) }
