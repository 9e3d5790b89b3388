package tracing

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects per-operation counters and histograms keyed by
// Category, the generalization of pkg/observability.Metrics' one
// metric-family-per-subsystem layout into a single family parameterized
// by category and operation name. Every method is nil-receiver safe so
// a disabled Metrics can be wired in unconditionally.
type Metrics struct {
	registry *prometheus.Registry

	callsTotal *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	errors     *prometheus.CounterVec

	hookOverheadRatio *prometheus.HistogramVec
}

// NewMetrics builds a Metrics from cfg, or returns nil if disabled —
// callers treat a nil *Metrics as "collection off" via the nil checks
// on every method below.
func NewMetrics(cfg MetricsConfig) *Metrics {
	if !cfg.Enabled {
		return nil
	}

	reg := prometheus.NewRegistry()
	m := &Metrics{registry: reg}

	m.callsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: "op",
		Name:      "calls_total",
		Help:      "Total number of operations, labeled by category and operation name.",
	}, []string{"category", "name"})

	m.duration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Subsystem: "op",
		Name:      "duration_seconds",
		Help:      "Operation duration in seconds, labeled by category and operation name.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 18), // 1ms to ~131s
	}, []string{"category", "name"})

	m.errors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: "op",
		Name:      "errors_total",
		Help:      "Total number of failed operations, labeled by category and operation name.",
	}, []string{"category", "name"})

	m.hookOverheadRatio = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Subsystem: "hook",
		Name:      "overhead_ratio",
		Help:      "Hook execution time as a fraction of the body it wraps.",
		Buckets:   prometheus.LinearBuckets(0, 0.1, 20),
	}, []string{"hook_name"})

	reg.MustRegister(m.callsTotal, m.duration, m.errors, m.hookOverheadRatio)
	return m
}

// RecordOperation records one completed operation. err may be nil.
func (m *Metrics) RecordOperation(category Category, name string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.callsTotal.WithLabelValues(string(category), name).Inc()
	m.duration.WithLabelValues(string(category), name).Observe(duration.Seconds())
	if err != nil {
		m.errors.WithLabelValues(string(category), name).Inc()
	}
}

// RecordHookOverhead satisfies pkg/hook.Recorder, folding each hook
// invocation's duration relative to the body it wrapped into the
// op.calls_total/op.duration_seconds series (category "hook") and into
// a dedicated overhead-ratio histogram the circuit breaker's thresholds
// can be cross-checked against in tests and dashboards alike.
func (m *Metrics) RecordHookOverhead(hookName string, hookDur, bodyDur time.Duration) {
	if m == nil {
		return
	}
	m.RecordOperation(CategoryHook, hookName, hookDur, nil)
	if bodyDur > 0 {
		m.hookOverheadRatio.WithLabelValues(hookName).Observe(hookDur.Seconds() / bodyDur.Seconds())
	}
}

// Handler serves the Prometheus exposition format. A nil Metrics serves
// 503, matching pkg/observability.Manager's disabled-metrics behavior.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("metrics not enabled"))
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying Prometheus registry, for tests that
// want to scrape counter values directly rather than through Handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}
