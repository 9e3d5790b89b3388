package jsbridge_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orinrun/orin/pkg/agentfactory"
	"github.com/orinrun/orin/pkg/bridge"
	"github.com/orinrun/orin/pkg/bridge/jsbridge"
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

func newBridge(t *testing.T) *jsbridge.Bridge {
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

	b := jsbridge.New(deps, bridge.NewRuntime())
	globals := bridge.NewGlobals(deps, map[string]string{"0": "arg0", "name": "orin"}, nil)
	require.NoError(t, b.InjectAPIs(globals))
	return b
}

func TestExecuteScript_ReturnsValueAndConsoleOutput(t *testing.T) {
	b := newBridge(t)
	out, err := b.ExecuteScript(context.Background(), `
		console.log("hi");
		1 + 2;
	`)
	require.NoError(t, err)
	assert.Equal(t, "hi\n", out.Stdout)
	assert.EqualValues(t, 3, out.Value)
}

func TestExecuteScript_PropagatesJSError(t *testing.T) {
	b := newBridge(t)
	_, err := b.ExecuteScript(context.Background(), `throw new Error("boom")`)
	assert.Error(t, err)
}

func TestToolModule_InvokeRoundTrips(t *testing.T) {
	b := newBridge(t)
	out, err := b.ExecuteScript(context.Background(), `
		var result = tool.invoke("echo", {text: "ping"});
		result.text;
	`)
	require.NoError(t, err)
	assert.Equal(t, "ping", out.Value)
}

func TestToolModule_ListIncludesRegisteredTool(t *testing.T) {
	b := newBridge(t)
	out, err := b.ExecuteScript(context.Background(), `
		var tools = tool.list();
		tools[0].name;
	`)
	require.NoError(t, err)
	assert.Equal(t, "echo", out.Value)
}

func TestAgentModule_CreateAndExecute(t *testing.T) {
	b := newBridge(t)
	out, err := b.ExecuteScript(context.Background(), `
		agent.create({name: "greeter", provider: "fake", system_prompt: "you are friendly"});
		var result = agent.execute("greeter", {text: "hi"});
		result.text;
	`)
	require.NoError(t, err)
	assert.Equal(t, "hello from fake", out.Value)
}

func TestStateModule_SetGetRoundTrips(t *testing.T) {
	b := newBridge(t)
	out, err := b.ExecuteScript(context.Background(), `
		state.set("k", "v");
		state.get("k");
	`)
	require.NoError(t, err)
	assert.Equal(t, "v", out.Value)
}

func TestWorkflowModule_SequentialBuildAndExecute(t *testing.T) {
	b := newBridge(t)
	out, err := b.ExecuteScript(context.Background(), `
		workflow.sequential("greet_flow", {
			steps: [{name: "step1", type: "tool", component: "echo"}],
		});
		var result = workflow.execute("greet_flow", {text: "yo"});
		result.text;
	`)
	require.NoError(t, err)
	assert.Equal(t, "yo", out.Value)
}

func TestSessionModule_CreateAndSetCurrent(t *testing.T) {
	b := newBridge(t)
	out, err := b.ExecuteScript(context.Background(), `
		var id = session.create("");
		session.setCurrent(id);
		session.getCurrent();
	`)
	require.NoError(t, err)
	assert.NotEmpty(t, out.Value)
}

func TestArgsModule_ReadsSuppliedArgs(t *testing.T) {
	b := newBridge(t)
	out, err := b.ExecuteScript(context.Background(), `args.get("name");`)
	require.NoError(t, err)
	assert.Equal(t, "orin", out.Value)
}

func TestHookModule_EnableDisableListDoesNotPanic(t *testing.T) {
	b := newBridge(t)
	_, err := b.ExecuteScript(context.Background(), `
		hook.disable("nonexistent");
		hook.enable("nonexistent");
		hook.list().length;
	`)
	require.NoError(t, err)
}

func TestEventModule_PublishDoesNotPanic(t *testing.T) {
	b := newBridge(t)
	_, err := b.ExecuteScript(context.Background(), `event.publish("custom.event", {key: "value"});`)
	require.NoError(t, err)
}
