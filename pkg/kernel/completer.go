package kernel

import (
	"strings"

	"github.com/orinrun/orin/pkg/registry"
)

// RegistryCompleter answers complete_request by matching the trailing
// identifier fragment in code against every registered component name
// plus a fixed set of global-object method names — the minimum a REPL
// needs for tab completion without any language-specific parsing.
type RegistryCompleter struct {
	Registry *registry.ComponentRegistry
}

var globalMethodNames = []string{
	"agent.list", "agent.get", "agent.wrapAsTool", "agent.createFromTemplate", "agent.execute", "agent.create",
	"tool.list", "tool.get", "tool.invoke", "tool.listByCategory",
	"workflow.sequential", "workflow.parallel", "workflow.conditional", "workflow.loop", "workflow.execute", "workflow.list",
	"state.get", "state.set", "state.delete", "state.list",
	"session.create", "session.getCurrent", "session.setCurrent", "session.list", "session.save", "session.load",
	"hook.unregister", "hook.list", "hook.enable", "hook.disable",
	"event.publish",
	"debugApi.trace", "debugApi.info", "debugApi.warn", "debugApi.error", "debugApi.timer",
	"provider.list", "provider.get", "provider.isAvailable",
	"config.getValue", "config.setValue",
	"args.get", "args.all",
}

// Complete implements Completer.
func (c *RegistryCompleter) Complete(code string, cursorPos int) (matches []string, start, end int) {
	if cursorPos < 0 || cursorPos > len(code) {
		cursorPos = len(code)
	}
	prefixStart := cursorPos
	for prefixStart > 0 && isIdentByte(code[prefixStart-1]) {
		prefixStart--
	}
	fragment := code[prefixStart:cursorPos]

	var out []string
	for _, name := range globalMethodNames {
		if strings.HasPrefix(name, fragment) {
			out = append(out, name)
		}
	}
	if c.Registry != nil {
		for _, entry := range c.Registry.List(registry.TypeFilter{}) {
			if strings.HasPrefix(entry.Name, fragment) {
				out = append(out, entry.Name)
			}
		}
	}
	return out, prefixStart, cursorPos
}

func isIdentByte(b byte) bool {
	return b == '_' || b == '.' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
