// Package obslog provides the process-wide structured logger used across
// Orin's packages. It mirrors the teacher's pkg/logger: a single slog
// logger, a string level parser, and a handler wrapper that filters by
// the configured level only; it does not tell third-party records apart
// from Orin's own.
package obslog

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"
)

const orinPackagePrefix = "github.com/orinrun/orin"

var (
	mu      sync.RWMutex
	current *slog.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
)

// ParseLevel converts a string log level to slog.Level.
// Valid levels: debug, info, warn, error. Unknown strings default to warn.
func ParseLevel(levelStr string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// Configure installs a new process-wide logger at the given level, writing
// to w. It should be called once during startup; subsequent calls replace
// the logger for all callers of Default.
func Configure(w interface {
	Write(p []byte) (n int, err error)
}, level slog.Level) {
	handler := &filteringHandler{
		handler:  slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}),
		minLevel: level,
	}
	mu.Lock()
	current = slog.New(handler)
	mu.Unlock()
}

// Default returns the process-wide logger.
func Default() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// With returns a child logger scoped to a component, the way most Orin
// packages tag their log lines (component registry, workflow engine,
// bridge, kernel, ...).
func With(component string) *slog.Logger {
	return Default().With("component", component)
}

// filteringHandler wraps a slog handler with the configured minimum level.
type filteringHandler struct {
	handler  slog.Handler
	minLevel slog.Level
}

func (h *filteringHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *filteringHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.handler.Handle(ctx, r)
}

func (h *filteringHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &filteringHandler{handler: h.handler.WithAttrs(attrs), minLevel: h.minLevel}
}

func (h *filteringHandler) WithGroup(name string) slog.Handler {
	return &filteringHandler{handler: h.handler.WithGroup(name), minLevel: h.minLevel}
}
