package kernel_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orinrun/orin/pkg/agentfactory"
	"github.com/orinrun/orin/pkg/bridge"
	"github.com/orinrun/orin/pkg/bridge/luabridge"
	"github.com/orinrun/orin/pkg/component"
	"github.com/orinrun/orin/pkg/event"
	"github.com/orinrun/orin/pkg/hook"
	"github.com/orinrun/orin/pkg/kernel"
	"github.com/orinrun/orin/pkg/registry"
	"github.com/orinrun/orin/pkg/session"
	"github.com/orinrun/orin/pkg/state"
	"github.com/orinrun/orin/pkg/tool"
)

type providerSet struct {
	providers map[string]agentfactory.LLMProvider
}

func (s providerSet) GetProvider(name string) (agentfactory.LLMProvider, bool) {
	p, ok := s.providers[name]
	return p, ok
}

func newKernel(t *testing.T) (*kernel.IntegratedKernel, *kernel.ChannelTransport) {
	t.Helper()
	reg := registry.New(nil)

	echo := tool.New(tool.Config{
		Meta: component.Metadata{Name: "echo", Description: "echoes its input"},
		Execute: func(_ *component.ExecutionContext, in component.Input) (component.Output, error) {
			return component.Output{Text: in.Text}, nil
		},
	})
	require.NoError(t, reg.RegisterTool("echo", echo))

	providers := providerSet{providers: map[string]agentfactory.LLMProvider{}}
	backend := state.NewMemoryStore(state.BreakerConfig{})
	sessions := session.NewManager(backend, session.Policy{MaxArtifacts: 10})
	hooks := hook.NewRegistry(nil)
	bus := event.NewBus()

	deps := bridge.Deps{
		Registry:  reg,
		Providers: providers,
		State:     backend,
		Sessions:  sessions,
		Hooks:     hooks,
		Events:    bus,
	}

	b := luabridge.New(deps, bridge.NewRuntime())
	globals := bridge.NewGlobals(deps, nil, nil)
	require.NoError(t, b.InjectAPIs(globals))

	transport := kernel.NewChannelTransport(4)
	k := kernel.New(kernel.Config{
		Bridge:    b,
		Transport: transport,
		Sessions:  sessions,
		Registry:  reg,
		Completer: &kernel.RegistryCompleter{Registry: reg},
	})
	return k, transport
}

func runKernel(t *testing.T, k *kernel.IntegratedKernel) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = k.Run(ctx) }()
	return cancel
}

func TestIntegratedKernel_ExecuteRequestReturnsReply(t *testing.T) {
	k, transport := newKernel(t)
	cancel := runKernel(t, k)
	defer cancel()

	req := kernel.NewRequest("sess-1", "execute_request", map[string]any{
		"code": "return 1 + 2",
	})
	require.NoError(t, transport.Submit(context.Background(), req))

	select {
	case reply := <-transport.Replies():
		assert.Equal(t, "execute_reply", reply.Header.MsgType)
		assert.Equal(t, req.Header.MsgID, reply.ParentHeader.MsgID)
		assert.Equal(t, "ok", reply.Content["status"])
		assert.EqualValues(t, 1, reply.Content["execution_count"])
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for execute_reply")
	}
}

func TestIntegratedKernel_ExecuteRequestErrorStatus(t *testing.T) {
	k, transport := newKernel(t)
	cancel := runKernel(t, k)
	defer cancel()

	req := kernel.NewRequest("sess-1", "execute_request", map[string]any{
		"code": "this is not lua (((",
	})
	require.NoError(t, transport.Submit(context.Background(), req))

	select {
	case reply := <-transport.Replies():
		assert.Equal(t, "error", reply.Content["status"])
		assert.NotEmpty(t, reply.Content["evalue"])
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for execute_reply")
	}
}

func TestIntegratedKernel_ShutdownRequestStopsLoop(t *testing.T) {
	k, transport := newKernel(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- k.Run(ctx) }()

	req := kernel.NewRequest("sess-1", "shutdown_request", map[string]any{"restart": false})
	require.NoError(t, transport.Submit(context.Background(), req))

	select {
	case reply := <-transport.Replies():
		assert.Equal(t, "shutdown_reply", reply.Header.MsgType)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for shutdown_reply")
	}

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("kernel loop did not stop after shutdown_request")
	}
}

func TestIntegratedKernel_CompleteRequestMatchesRegisteredTool(t *testing.T) {
	k, transport := newKernel(t)
	cancel := runKernel(t, k)
	defer cancel()

	req := kernel.NewRequest("sess-1", "complete_request", map[string]any{
		"code":       "ech",
		"cursor_pos": 3,
	})
	require.NoError(t, transport.Submit(context.Background(), req))

	select {
	case reply := <-transport.Replies():
		matches, _ := reply.Content["matches"].([]string)
		assert.Contains(t, matches, "echo")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for complete_reply")
	}
}

func TestIntegratedKernel_DebugRequestWithoutCoordinatorIsUnsupported(t *testing.T) {
	k, transport := newKernel(t)
	cancel := runKernel(t, k)
	defer cancel()

	req := kernel.NewRequest("sess-1", "debug_request", map[string]any{
		"command":   "initialize",
		"arguments": map[string]any{},
	})
	require.NoError(t, transport.Submit(context.Background(), req))

	select {
	case reply := <-transport.Replies():
		assert.Equal(t, false, reply.Content["success"])
		assert.Equal(t, "unsupported", reply.Content["message"])
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for debug_reply")
	}
}
