package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orinrun/orin/internal/orierr"
	"github.com/orinrun/orin/pkg/component"
	"github.com/orinrun/orin/pkg/registry"
)

type fakeAgent struct {
	meta      component.Metadata
	sandboxed bool
	hasSB     bool
}

func (f *fakeAgent) Metadata() component.Metadata { return f.meta }
func (f *fakeAgent) Execute(ctx *component.ExecutionContext, in component.Input) (component.Output, error) {
	return component.Output{}, nil
}
func (f *fakeAgent) RequiresSandbox() bool { return f.sandboxed }
func (f *fakeAgent) HasSandbox() bool      { return f.hasSB }

func TestComponentRegistry_LookupAcrossBuckets(t *testing.T) {
	r := registry.New(nil)
	tool := &fakeAgent{meta: component.Metadata{Name: "echo", Type: component.TypeTool}}
	require.NoError(t, r.RegisterTool("echo", tool))

	got, ok := r.Lookup("echo")
	require.True(t, ok)
	assert.Equal(t, "echo", got.Metadata().Name)

	_, ok = r.GetAgent("echo")
	assert.False(t, ok, "tool bucket must not leak into agent bucket")
}

func TestComponentRegistry_RejectsIOToolWithoutSandbox(t *testing.T) {
	r := registry.New(nil)
	tool := &fakeAgent{meta: component.Metadata{Name: "read_file", Type: component.TypeTool}, sandboxed: true, hasSB: false}

	err := r.RegisterTool("read_file", tool)
	require.Error(t, err)
	assert.Equal(t, orierr.KindSecurity, orierr.KindOf(err))

	_, ok := r.GetTool("read_file")
	assert.False(t, ok)
}

func TestComponentRegistry_AllowsIOToolWithSandbox(t *testing.T) {
	r := registry.New(nil)
	tool := &fakeAgent{meta: component.Metadata{Name: "read_file", Type: component.TypeTool}, sandboxed: true, hasSB: true}
	require.NoError(t, r.RegisterTool("read_file", tool))
}

func TestComponentRegistry_List(t *testing.T) {
	r := registry.New(nil)
	require.NoError(t, r.RegisterTool("a", &fakeAgent{meta: component.Metadata{Name: "a", Type: component.TypeTool}}))
	require.NoError(t, r.RegisterAgent("b", &fakeAgent{meta: component.Metadata{Name: "b", Type: component.TypeAgent}}))

	all := r.List(registry.TypeFilter{})
	assert.Len(t, all, 2)

	onlyTools := r.List(registry.TypeFilter{Type: component.TypeTool})
	assert.Len(t, onlyTools, 1)
	assert.Equal(t, "a", onlyTools[0].Name)
}
