package bridge

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/orinrun/orin/internal/obslog"
)

// DebugGlobal implements spec.md 4.7's Debug global: leveled logging,
// a timer helper, stacktrace/dump/memory introspection, and a
// module-filter allowlist a script can narrow its own output to.
//
// Logging itself goes through the process-wide obslog logger every
// other package uses, so a script's debug calls land in the same
// structured log stream as component lifecycle events rather than a
// separate ad-hoc output.
type DebugGlobal struct {
	mu      sync.RWMutex
	filters map[string]bool
	timers  map[string]time.Time
}

func NewDebugGlobal() *DebugGlobal {
	return &DebugGlobal{filters: make(map[string]bool), timers: make(map[string]time.Time)}
}

func (g *DebugGlobal) allowed(module string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if len(g.filters) == 0 {
		return true
	}
	return g.filters[module]
}

func (g *DebugGlobal) log(level, module, msg string, args ...any) {
	if !g.allowed(module) {
		return
	}
	logger := obslog.With(module)
	rendered := fmt.Sprintf(msg, args...)
	switch level {
	case "trace", "debug":
		logger.Debug(rendered)
	case "info":
		logger.Info(rendered)
	case "warn":
		logger.Warn(rendered)
	case "error":
		logger.Error(rendered)
	}
}

func (g *DebugGlobal) Trace(module, msg string, args ...any) { g.log("trace", module, msg, args...) }
func (g *DebugGlobal) Debug(module, msg string, args ...any) { g.log("debug", module, msg, args...) }
func (g *DebugGlobal) Info(module, msg string, args ...any)  { g.log("info", module, msg, args...) }
func (g *DebugGlobal) Warn(module, msg string, args ...any)  { g.log("warn", module, msg, args...) }
func (g *DebugGlobal) Error(module, msg string, args ...any) { g.log("error", module, msg, args...) }

// Timer starts a named stopwatch; a later call with the same name
// returns the elapsed duration and clears it.
func (g *DebugGlobal) Timer(name string) time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	start, ok := g.timers[name]
	if !ok {
		g.timers[name] = time.Now()
		return 0
	}
	delete(g.timers, name)
	return time.Since(start)
}

// Stacktrace captures the calling goroutine's stack, for a script to
// attach to an error report.
func (g *DebugGlobal) Stacktrace() string {
	buf := make([]byte, 8192)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

// Dump renders v via fmt's "%+v" verb, the quick-and-dirty structure
// dump a script reaches for when inspecting an opaque value.
func (g *DebugGlobal) Dump(v any) string { return fmt.Sprintf("%+v", v) }

// Memory reports the current heap/alloc figures from runtime.MemStats,
// for a script watching its own resource footprint.
func (g *DebugGlobal) Memory() map[string]uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return map[string]uint64{
		"alloc_bytes":       m.Alloc,
		"total_alloc_bytes": m.TotalAlloc,
		"sys_bytes":         m.Sys,
		"num_gc":            uint64(m.NumGC),
	}
}

// SetModuleFilter restricts logging to the named modules; ClearModuleFilter
// removes the restriction, returning to unfiltered output.
func (g *DebugGlobal) SetModuleFilter(modules ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.filters = make(map[string]bool, len(modules))
	for _, m := range modules {
		g.filters[m] = true
	}
}

func (g *DebugGlobal) ClearModuleFilter() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.filters = make(map[string]bool)
}
