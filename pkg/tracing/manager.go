package tracing

import (
	"context"
	"fmt"
	"net/http"
)

// Manager owns the lifecycle of tracing and metrics together, mirroring
// pkg/observability.Manager's role as the single thing callers
// construct, query, and shut down.
type Manager struct {
	config  Config
	tracer  *Tracer
	metrics *Metrics
}

// NewManager builds a Manager from cfg. A zero Config yields a Manager
// with tracing and metrics both off; Tracer() still returns a usable
// noop-backed *Tracer so callers never need a nil check before
// StartSpan.
func NewManager(ctx context.Context, cfg Config) (*Manager, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("tracing: invalid config: %w", err)
	}

	tracer, err := NewTracer(ctx, cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}

	return &Manager{
		config:  cfg,
		tracer:  tracer,
		metrics: NewMetrics(cfg.Metrics),
	}, nil
}

// Tracer returns the manager's Tracer. Never nil.
func (m *Manager) Tracer() *Tracer {
	if m == nil {
		return nil
	}
	return m.tracer
}

// Metrics returns the manager's Metrics, or nil if metrics collection
// is disabled.
func (m *Manager) Metrics() *Metrics {
	if m == nil {
		return nil
	}
	return m.metrics
}

// TracingEnabled reports whether span export is active.
func (m *Manager) TracingEnabled() bool {
	return m != nil && m.config.Tracing.Enabled
}

// MetricsEnabled reports whether metrics collection is active.
func (m *Manager) MetricsEnabled() bool {
	return m != nil && m.metrics != nil
}

// MetricsHandler returns the HTTP handler for the configured metrics
// endpoint.
func (m *Manager) MetricsHandler() http.Handler {
	if m == nil {
		return (*Metrics)(nil).Handler()
	}
	return m.metrics.Handler()
}

// MetricsEndpoint returns the configured metrics path.
func (m *Manager) MetricsEndpoint() string {
	if m == nil || m.config.Metrics.Endpoint == "" {
		return DefaultMetricsPath
	}
	return m.config.Metrics.Endpoint
}

// Shutdown releases tracer resources. Safe on a nil Manager.
func (m *Manager) Shutdown(ctx context.Context) error {
	if m == nil {
		return nil
	}
	return m.tracer.Shutdown(ctx)
}
