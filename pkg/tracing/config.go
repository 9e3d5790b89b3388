package tracing

import (
	"time"

	"github.com/orinrun/orin/internal/orierr"
)

// Config configures the tracing package, mirroring the split between
// trace export and metrics collection that pkg/observability.Config
// uses, scoped down to what an embedded runtime needs: no jaeger/zipkin
// exporter selection, since the runtime has no collector fleet to point
// at by default.
type Config struct {
	Tracing TracerConfig  `yaml:"tracing,omitempty"`
	Metrics MetricsConfig `yaml:"metrics,omitempty"`
}

// TracerConfig configures span export.
type TracerConfig struct {
	// Enabled turns on span emission.
	Enabled bool `yaml:"enabled,omitempty"`
	// Exporter selects where spans go. Values: "stdout" (default), "none".
	Exporter string `yaml:"exporter,omitempty"`
	// SamplingRate is the fraction of traces sampled, 0.0-1.0.
	SamplingRate float64 `yaml:"sampling_rate,omitempty"`
	// ServiceName identifies this runtime in emitted spans.
	ServiceName string `yaml:"service_name,omitempty"`
	// Timeout bounds exporter flush/shutdown operations.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// MetricsConfig configures Prometheus metrics collection.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled,omitempty"`
	// Endpoint is the path the metrics handler is mounted at.
	Endpoint string `yaml:"endpoint,omitempty"`
	// Namespace prefixes every metric name (e.g. "orin_op_calls_total").
	Namespace string `yaml:"namespace,omitempty"`
}

const (
	DefaultServiceName = "orin"
	DefaultMetricsPath = "/metrics"
	defaultSampling    = 1.0
	defaultTimeout     = 10 * time.Second
)

// SetDefaults fills in zero-valued fields.
func (c *Config) SetDefaults() {
	c.Tracing.setDefaults()
	c.Metrics.setDefaults()
}

func (c *TracerConfig) setDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = DefaultServiceName
	}
	if c.SamplingRate == 0 {
		c.SamplingRate = defaultSampling
	}
	if c.Exporter == "" {
		c.Exporter = "stdout"
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
}

func (c *MetricsConfig) setDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = DefaultMetricsPath
	}
	if c.Namespace == "" {
		c.Namespace = DefaultServiceName
	}
}

// Validate checks Config for internal consistency.
func (c *Config) Validate() error {
	if c.Tracing.Enabled {
		if c.Tracing.SamplingRate < 0 || c.Tracing.SamplingRate > 1 {
			return orierr.New(orierr.KindValidation, "tracing", "sampling_rate must be between 0 and 1")
		}
		if c.Tracing.Exporter != "stdout" && c.Tracing.Exporter != "none" {
			return orierr.New(orierr.KindValidation, "tracing", "exporter must be stdout or none")
		}
	}
	return nil
}
