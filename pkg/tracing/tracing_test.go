package tracing_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orinrun/orin/pkg/hook"
	"github.com/orinrun/orin/pkg/tracing"
)

func TestNewManager_DisabledByDefault(t *testing.T) {
	m, err := tracing.NewManager(context.Background(), tracing.Config{})
	require.NoError(t, err)
	assert.False(t, m.TracingEnabled())
	assert.False(t, m.MetricsEnabled())
	assert.Nil(t, m.Metrics())
	assert.NotNil(t, m.Tracer())
}

func TestNewManager_RejectsBadSamplingRate(t *testing.T) {
	cfg := tracing.Config{Tracing: tracing.TracerConfig{Enabled: true, SamplingRate: 2}}
	_, err := tracing.NewManager(context.Background(), cfg)
	assert.Error(t, err)
}

func TestTracer_StartSpanNoopWhenDisabled(t *testing.T) {
	tr, err := tracing.NewTracer(context.Background(), tracing.TracerConfig{})
	require.NoError(t, err)
	ctx, span := tr.StartSpan(context.Background(), tracing.CategoryKernel, "execute")
	require.NotNil(t, ctx)
	span.End()
}

func TestMetrics_RecordOperationIncrementsCounters(t *testing.T) {
	m := tracing.NewMetrics(tracing.MetricsConfig{Enabled: true, Namespace: "orin_test"})
	require.NotNil(t, m)

	m.RecordOperation(tracing.CategoryTool, "echo", 10*time.Millisecond, nil)
	m.RecordOperation(tracing.CategoryTool, "echo", 20*time.Millisecond, errors.New("boom"))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "orin_test_op_calls_total")
	assert.Contains(t, rec.Body.String(), "orin_test_op_errors_total")
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *tracing.Metrics
	m.RecordOperation(tracing.CategoryAgent, "run", time.Second, nil)
	m.RecordHookOverhead("on_before_tool_call", time.Millisecond, time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 503, rec.Code)
}

func TestMetrics_SatisfiesHookRecorder(t *testing.T) {
	m := tracing.NewMetrics(tracing.MetricsConfig{Enabled: true, Namespace: "orin_hook_test"})
	require.NotNil(t, m)

	reg := hook.NewRegistry(nil)
	reg.SetRecorder(m)
	reg.Register(hook.BeforeToolExec, stubHook{name: "audit"})

	_, err := reg.Invoke(&hook.Context{Point: hook.BeforeToolExec}, 5*time.Millisecond)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "orin_hook_test_hook_overhead_ratio")
}

type stubHook struct{ name string }

func (s stubHook) Name() string    { return s.name }
func (s stubHook) Point() hook.Point { return hook.BeforeToolExec }
func (s stubHook) Invoke(hc *hook.Context) (hook.Result, error) {
	return hook.ContinueResult(), nil
}
