package luabridge_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orinrun/orin/pkg/agentfactory"
	"github.com/orinrun/orin/pkg/bridge"
	"github.com/orinrun/orin/pkg/bridge/luabridge"
	"github.com/orinrun/orin/pkg/component"
	"github.com/orinrun/orin/pkg/event"
	"github.com/orinrun/orin/pkg/hook"
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

func newBridge(t *testing.T) (*luabridge.Bridge, bridge.Deps) {
	t.Helper()
	reg := registry.New(nil)

	echo := tool.New(tool.Config{
		Meta: component.Metadata{Name: "echo", Description: "echoes its input"},
		Execute: func(_ *component.ExecutionContext, in component.Input) (component.Output, error) {
			return component.Output{Text: in.Text}, nil
		},
	})
	require.NoError(t, reg.RegisterTool("echo", echo))

	fake := &agentfactory.FakeProvider{
		ProviderName: "fake",
		Respond: func(messages []agentfactory.Message, _ []string) (agentfactory.Completion, error) {
			return agentfactory.Completion{Text: "hello from fake"}, nil
		},
	}
	providers := providerSet{providers: map[string]agentfactory.LLMProvider{"fake": fake}}

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
	globals := bridge.NewGlobals(deps, map[string]string{"0": "arg0", "name": "orin"}, nil)
	require.NoError(t, b.InjectAPIs(globals))
	return b, deps
}

func TestExecuteScript_ReturnsValueAndStdout(t *testing.T) {
	b, _ := newBridge(t)
	out, err := b.ExecuteScript(context.Background(), `
		print("hi")
		return 1 + 2
	`)
	require.NoError(t, err)
	assert.Equal(t, "hi\n", out.Stdout)
	assert.Equal(t, float64(3), out.Value)
}

func TestExecuteScript_PropagatesLuaError(t *testing.T) {
	b, _ := newBridge(t)
	_, err := b.ExecuteScript(context.Background(), `error("boom")`)
	assert.Error(t, err)
}

func TestToolModule_InvokeRoundTrips(t *testing.T) {
	b, _ := newBridge(t)
	out, err := b.ExecuteScript(context.Background(), `
		local result, err = tool.invoke("echo", {text = "ping"})
		assert(err == nil, err)
		return result.text
	`)
	require.NoError(t, err)
	assert.Equal(t, "ping", out.Value)
}

func TestToolModule_ListIncludesRegisteredTool(t *testing.T) {
	b, _ := newBridge(t)
	out, err := b.ExecuteScript(context.Background(), `
		local tools = tool.list()
		return tools[1].name
	`)
	require.NoError(t, err)
	assert.Equal(t, "echo", out.Value)
}

func TestAgentModule_CreateAndExecute(t *testing.T) {
	b, _ := newBridge(t)
	out, err := b.ExecuteScript(context.Background(), `
		local name, err = agent.create({
			name = "greeter",
			provider = "fake",
			system_prompt = "you are friendly",
		})
		assert(err == nil, err)

		local result, callErr = agent.execute("greeter", {text = "hi"})
		assert(callErr == nil, callErr)
		return result.text
	`)
	require.NoError(t, err)
	assert.Equal(t, "hello from fake", out.Value)
}

func TestStateModule_SetGetRoundTrips(t *testing.T) {
	b, _ := newBridge(t)
	out, err := b.ExecuteScript(context.Background(), `
		state.set("k", "v")
		local v, err = state.get("k")
		assert(err == nil, err)
		return v
	`)
	require.NoError(t, err)
	assert.Equal(t, "v", out.Value)
}

func TestWorkflowModule_SequentialBuildAndExecute(t *testing.T) {
	b, _ := newBridge(t)
	out, err := b.ExecuteScript(context.Background(), `
		local id, err = workflow.sequential("greet_flow", {
			steps = {
				{name = "step1", type = "tool", component = "echo"},
			},
		})
		assert(err == nil, err)

		local result, execErr = workflow.execute("greet_flow", {text = "yo"})
		assert(execErr == nil, execErr)
		return result.text
	`)
	require.NoError(t, err)
	assert.Equal(t, "yo", out.Value)
}

func TestSessionModule_CreateAndSetCurrent(t *testing.T) {
	b, _ := newBridge(t)
	out, err := b.ExecuteScript(context.Background(), `
		local id, err = session.create("")
		assert(err == nil, err)
		local setErr = select(2, session.set_current(id))
		assert(setErr == nil, setErr)
		return session.get_current()
	`)
	require.NoError(t, err)
	assert.NotEmpty(t, out.Value)
}

func TestArgsModule_ReadsSuppliedArgs(t *testing.T) {
	b, _ := newBridge(t)
	out, err := b.ExecuteScript(context.Background(), `
		return args.get("name")
	`)
	require.NoError(t, err)
	assert.Equal(t, "orin", out.Value)
}

func TestDebugModule_TimerRoundTrips(t *testing.T) {
	b, _ := newBridge(t)
	out, err := b.ExecuteScript(context.Background(), `
		debug_api.timer("x")
		local elapsed = debug_api.timer("x")
		return elapsed
	`)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, out.Value, float64(0))
}

func TestHookModule_EnableDisableListDoesNotPanic(t *testing.T) {
	b, _ := newBridge(t)
	_, err := b.ExecuteScript(context.Background(), `
		hook.disable("nonexistent")
		hook.enable("nonexistent")
		local names = hook.list()
		return #names
	`)
	require.NoError(t, err)
}

func TestEventModule_PublishDoesNotPanic(t *testing.T) {
	b, _ := newBridge(t)
	_, err := b.ExecuteScript(context.Background(), `
		event.publish("custom.event", {key = "value"})
	`)
	require.NoError(t, err)
}
