// Command orin is the reference host process for the Orin runtime: it
// loads a config file, wires every package's production dependencies
// together exactly once, and runs one script to completion through the
// same IntegratedKernel/ChannelTransport path every embedder would use.
//
// Orin ships no flag-parsing CLI (spec.md's Non-goals) — this binary's
// own argument handling is the minimum a host needs: a config path, a
// script path, and the name=value pairs that become the Args global.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/orinrun/orin/internal/obslog"
	"github.com/orinrun/orin/pkg/agentfactory"
	"github.com/orinrun/orin/pkg/bridge"
	"github.com/orinrun/orin/pkg/bridge/jsbridge"
	"github.com/orinrun/orin/pkg/bridge/luabridge"
	"github.com/orinrun/orin/pkg/config"
	"github.com/orinrun/orin/pkg/debug"
	"github.com/orinrun/orin/pkg/event"
	"github.com/orinrun/orin/pkg/hook"
	"github.com/orinrun/orin/pkg/kernel"
	"github.com/orinrun/orin/pkg/registry"
	"github.com/orinrun/orin/pkg/sandbox"
	"github.com/orinrun/orin/pkg/session"
	"github.com/orinrun/orin/pkg/state"
	"github.com/orinrun/orin/pkg/state/boltstate"
	"github.com/orinrun/orin/pkg/tracing"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "orin: "+err.Error())
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: orin <config.yaml> <script-file> [name=value ...]")
	}
	configPath, scriptPath := args[0], args[1]
	scriptArgs := parseScriptArgs(args[2:])

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, loader, err := config.LoadConfigFile(ctx, configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	defer loader.Close()

	obslog.Configure(os.Stderr, obslog.ParseLevel(cfg.Debug.Level))
	logger := obslog.With("cmd/orin")

	tracingMgr, err := tracing.NewManager(ctx, tracing.Config{})
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer tracingMgr.Shutdown(ctx)

	script, err := os.ReadFile(scriptPath)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}

	bus := event.NewBus()
	componentRegistry := registry.New(bus)

	backend, closeBackend, err := buildStateBackend(cfg.Runtime.StatePersistence)
	if err != nil {
		return fmt.Errorf("state backend: %w", err)
	}
	defer closeBackend()

	sessions := session.NewManager(backend, session.Policy{
		MaxArtifacts:     cfg.Runtime.Sessions.MaxArtifactsPerSession,
		MaxConcurrentOps: cfg.Runtime.MaxConcurrentScripts,
		RateLimitPerMin:  0,
		Timeout:          scriptTimeout(cfg.Runtime.ScriptTimeoutSeconds),
	})

	breaker := hook.NewCircuitBreaker(cfg.Hooks.RateLimit.Budget, cfg.Hooks.RateLimit.Window, cfg.Hooks.RateLimit.Cooldown)
	hooks := hook.NewRegistry(breaker)

	providers := agentfactory.ProviderSet{}

	if _, err := buildFileSandbox(cfg.Tools.FileOperations); err != nil {
		return fmt.Errorf("file sandbox: %w", err)
	}
	_ = buildNetSandbox(cfg.Tools.WebSearch, cfg.Tools.HTTPRequest)
	_ = sandbox.NewProcessGuard(nil, scriptTimeout(cfg.Runtime.ScriptTimeoutSeconds))

	deps := bridge.Deps{
		Registry:  componentRegistry,
		Providers: providers,
		State:     backend,
		Sessions:  sessions,
		Hooks:     hooks,
		Events:    bus,
	}

	store := config.NewStore(cfg)
	globals := bridge.NewGlobals(deps, scriptArgs, store)
	runtime := bridge.NewRuntime()
	defer runtime.Shutdown()

	engineBridge, err := buildEngineBridge(cfg.Runtime.DefaultEngine, deps, runtime)
	if err != nil {
		return fmt.Errorf("script engine: %w", err)
	}
	defer engineBridge.Shutdown()

	engineBridge.SetScriptArgs(scriptArgs)
	if err := engineBridge.InjectAPIs(globals); err != nil {
		return fmt.Errorf("inject apis: %w", err)
	}

	coordinator := debug.NewCoordinator()
	sessionID := "orin-main"
	coordinator.CreateSession(sessionID)
	dapBridge := debug.NewDAPBridge(coordinator, sessionID)

	transport := kernel.NewChannelTransport(16)
	k := kernel.New(kernel.Config{
		ID:        "orin",
		Bridge:    engineBridge,
		Transport: transport,
		Sessions:  sessions,
		Registry:  componentRegistry,
		Debug:     dapBridge,
	})

	kernelErr := make(chan error, 1)
	go func() { kernelErr <- k.Run(ctx) }()

	req := kernel.NewRequest(sessionID, "execute_request", map[string]any{
		"code":   string(script),
		"silent": false,
	})
	if err := transport.Submit(ctx, req); err != nil {
		return fmt.Errorf("submit script: %w", err)
	}

	select {
	case reply := <-transport.Replies():
		printReply(logger, reply)
	case <-ctx.Done():
		return ctx.Err()
	}

	shutdownReq := kernel.NewRequest(sessionID, "shutdown_request", map[string]any{"restart": false})
	if err := transport.Submit(ctx, shutdownReq); err != nil {
		return fmt.Errorf("submit shutdown: %w", err)
	}
	<-transport.Replies()
	transport.Close()

	return <-kernelErr
}

// parseScriptArgs turns "name=value" operands into the map the Args
// global indexes by name, and also stamps positional "0", "1", ...
// keys so a script can read either by name or position.
func parseScriptArgs(operands []string) map[string]string {
	out := make(map[string]string, len(operands)*2)
	for i, op := range operands {
		out[fmt.Sprintf("%d", i)] = op
		if k, v, ok := strings.Cut(op, "="); ok {
			out[k] = v
		}
	}
	return out
}

func scriptTimeout(seconds uint64) time.Duration {
	if seconds == 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func printReply(logger interface {
	Info(msg string, args ...any)
}, reply kernel.Message) {
	logger.Info("script execution reply", "msg_type", reply.Header.MsgType, "content", reply.Content)
}

func buildStateBackend(cfg config.StatePersistenceConfig) (state.StateAccess, func() error, error) {
	breakerCfg := state.BreakerConfig{MaxFailures: 5, Cooldown: 0}
	if !cfg.Enabled || cfg.Backend == "memory" || cfg.Backend == "" {
		return state.NewMemoryStore(breakerCfg), func() error { return nil }, nil
	}
	if cfg.Backend == "bbolt" {
		store, err := boltstate.Open(cfg.Path, breakerCfg)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown state backend %q", cfg.Backend)
}

func buildFileSandbox(cfg config.FileOperationsConfig) (*sandbox.FileSandbox, error) {
	if len(cfg.AllowedPaths) == 0 {
		return nil, nil
	}
	limits := sandbox.DefaultLimits()
	if cfg.MaxFileSize > 0 {
		limits.MaxFileSizeBytes = cfg.MaxFileSize
	}
	return sandbox.NewFileSandbox(cfg.AllowedPaths, limits)
}

func buildNetSandbox(web config.WebSearchConfig, http config.HTTPRequestConfig) *sandbox.NetSandbox {
	allow := append(append([]string{}, web.AllowedDomains...), http.AllowedHosts...)
	deny := append(append([]string{}, web.BlockedDomains...), http.BlockedHosts...)
	maxBody := http.MaxRequestSize
	if maxBody <= 0 {
		maxBody = sandbox.DefaultLimits().MaxFileSizeBytes
	}
	return sandbox.NewNetSandbox(allow, deny, maxBody)
}

// buildEngineBridge maps runtime.default_engine to the adapter that
// engine name names: "lua" is gopher-lua via luabridge, "goja" is the
// goja-backed JS adapter (config.RuntimeConfig.Validate accepts only
// these two values).
func buildEngineBridge(engine string, deps bridge.Deps, runtime *bridge.Runtime) (bridge.ScriptEngineBridge, error) {
	switch engine {
	case "lua":
		return luabridge.New(deps, runtime), nil
	case "goja":
		return jsbridge.New(deps, runtime), nil
	default:
		return nil, fmt.Errorf("unknown script engine %q", engine)
	}
}
