// Package kernel implements IntegratedKernel (spec.md 4.8): a single
// loop that receives framed requests off a Transport and replies
// inline, never spawning script execution onto a separate goroutine so
// a script's per-request I/O bindings stay attached to the goroutine
// that is actually blocked inside bridge.Runtime.BlockOnAsync.
//
// Grounded in the teacher's pkg/transport.Server for the
// listen-serve-shutdown shape of a long-running loop, generalized from
// a gRPC accept loop to a message-queue receive loop; the kernel's own
// ScriptEngineBridge plumbing is pkg/bridge.
package kernel

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/orinrun/orin/internal/obslog"
	"github.com/orinrun/orin/internal/orierr"
	"github.com/orinrun/orin/pkg/bridge"
	"github.com/orinrun/orin/pkg/registry"
	"github.com/orinrun/orin/pkg/session"
)

// DebugHandler is the narrow capability a debug coordinator's DAP
// bridge exposes to the kernel for debug_request dispatch — kept here
// rather than importing pkg/debug directly so pkg/debug can depend on
// pkg/kernel's types without a cycle, and so a kernel run without
// debugging wired in simply passes nil.
type DebugHandler interface {
	HandleDAP(command string, arguments map[string]any) (success bool, body map[string]any, message string)
}

// Completer answers complete_request by returning candidate
// completions for code truncated at cursorPos.
type Completer interface {
	Complete(code string, cursorPos int) (matches []string, start, end int)
}

// Config bundles everything an IntegratedKernel is constructed with.
type Config struct {
	ID        string
	Bridge    bridge.ScriptEngineBridge
	Transport Transport
	Protocol  Protocol
	Sessions  *session.Manager
	Registry  *registry.ComponentRegistry
	Debug     DebugHandler
	Completer Completer
}

// IntegratedKernel is the kernel described in spec.md 4.8: it owns a
// ScriptEngineBridge behind a mutex (a script VM is not safe for
// concurrent execution), the transport it receives requests from, and
// an execution counter mirroring Jupyter's execution_count semantics.
type IntegratedKernel struct {
	id        string
	bridgeMu  sync.Mutex
	bridge    bridge.ScriptEngineBridge
	transport Transport
	protocol  Protocol
	sessions  *session.Manager
	registry  *registry.ComponentRegistry
	debug     DebugHandler
	completer Completer

	execCount int64
	shutdown  atomic.Bool
}

// New constructs an IntegratedKernel. cfg.Protocol defaults to
// JupyterProtocol when nil.
func New(cfg Config) *IntegratedKernel {
	id := cfg.ID
	if id == "" {
		id = uuid.NewString()
	}
	proto := cfg.Protocol
	if proto == nil {
		proto = JupyterProtocol{}
	}
	return &IntegratedKernel{
		id:        id,
		bridge:    cfg.Bridge,
		transport: cfg.Transport,
		protocol:  proto,
		sessions:  cfg.Sessions,
		registry:  cfg.Registry,
		debug:     cfg.Debug,
		completer: cfg.Completer,
	}
}

func (k *IntegratedKernel) ID() string { return k.id }

// Run is the kernel's main loop (spec.md 4.8): it blocks in
// transport.Receive between requests — the loop's only suspension
// point — and handles every request inline, replying before looping
// back to receive. Run returns when ctx is cancelled or a
// shutdown_request sets the shutdown flag.
func (k *IntegratedKernel) Run(ctx context.Context) error {
	logger := obslog.With("kernel")
	for !k.shutdown.Load() {
		req, err := k.transport.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		reply := k.dispatch(ctx, req)
		if sendErr := k.transport.Send(ctx, reply); sendErr != nil {
			logger.Error("failed to send kernel reply: " + sendErr.Error())
		}
	}
	return nil
}

// dispatch handles one request inline — critically, execute_request's
// script run happens on this same goroutine/call stack rather than
// being spawned, so the bridge's block_on_async call (itself already
// synchronous from the script's point of view) is the only place this
// call suspends.
func (k *IntegratedKernel) dispatch(ctx context.Context, req Message) Message {
	switch k.protocol.RequestType(req) {
	case "execute_request":
		return k.handleExecute(ctx, req)
	case "shutdown_request":
		return k.handleShutdown(req)
	case "complete_request":
		return k.handleComplete(req)
	case "debug_request":
		return k.handleDebug(req)
	default:
		return Reply(req, "error_reply", map[string]any{
			"status": "error",
			"ename":  string(orierr.KindValidation),
			"evalue": "unsupported msg_type: " + req.Header.MsgType,
		})
	}
}

func (k *IntegratedKernel) handleExecute(ctx context.Context, req Message) Message {
	code, _ := req.Content["code"].(string)
	silent, _ := req.Content["silent"].(bool)

	count := atomic.AddInt64(&k.execCount, 1)

	k.bridgeMu.Lock()
	out, err := k.bridge.ExecuteScript(ctx, code)
	k.bridgeMu.Unlock()

	content := map[string]any{
		"execution_count": count,
	}
	if err != nil {
		content["status"] = "error"
		content["ename"] = string(orierr.KindOf(err))
		content["evalue"] = err.Error()
		content["traceback"] = []string{err.Error()}
		return Reply(req, "execute_reply", content)
	}

	content["status"] = "ok"
	if !silent {
		payload := []map[string]any{}
		if out.Stdout != "" {
			payload = append(payload, map[string]any{"source": "stdout", "text": out.Stdout})
		}
		if out.Stderr != "" {
			payload = append(payload, map[string]any{"source": "stderr", "text": out.Stderr})
		}
		content["payload"] = payload
		content["user_expressions"] = map[string]any{"_": out.Value}
	}
	return Reply(req, "execute_reply", content)
}

func (k *IntegratedKernel) handleShutdown(req Message) Message {
	restart, _ := req.Content["restart"].(bool)
	if !restart {
		k.shutdown.Store(true)
	}
	return Reply(req, "shutdown_reply", map[string]any{"restart": restart})
}

func (k *IntegratedKernel) handleComplete(req Message) Message {
	code, _ := req.Content["code"].(string)
	cursor, _ := req.Content["cursor_pos"].(int)

	var matches []string
	start, end := cursor, cursor
	if k.completer != nil {
		matches, start, end = k.completer.Complete(code, cursor)
	}
	return Reply(req, "complete_reply", map[string]any{
		"matches":      matches,
		"cursor_start": start,
		"cursor_end":   end,
	})
}

func (k *IntegratedKernel) handleDebug(req Message) Message {
	command, _ := req.Content["command"].(string)
	arguments, _ := req.Content["arguments"].(map[string]any)

	if k.debug == nil {
		return Reply(req, "debug_reply", map[string]any{
			"success": false,
			"message": "unsupported",
		})
	}
	success, body, message := k.debug.HandleDAP(command, arguments)
	content := map[string]any{"success": success}
	if body != nil {
		content["body"] = body
	}
	if message != "" {
		content["message"] = message
	}
	return Reply(req, "debug_reply", content)
}

// Shutdown sets the shutdown flag and closes the transport, unblocking
// a Run call waiting in Receive.
func (k *IntegratedKernel) Shutdown() error {
	k.shutdown.Store(true)
	return k.transport.Close()
}
