package hook

import (
	"sync"
	"time"
)

// Registry resolves hooks by Point (spec.md section 4.5: "hooks are
// resolved from a global registry keyed by HookPoint") and gates each
// one through an optional CircuitBreaker.
type Registry struct {
	mu       sync.RWMutex
	byPoint  map[Point][]Hook
	disabled map[string]bool
	breaker  *CircuitBreaker
	recorder Recorder
}

// Recorder observes every hook invocation's duration alongside the
// circuit breaker's own bookkeeping, without Registry depending on
// whatever instrumentation package implements it (pkg/tracing).
type Recorder interface {
	RecordHookOverhead(hookName string, hookDur, bodyDur time.Duration)
}

// SetRecorder installs (or clears, with nil) the optional overhead
// recorder. Safe to call at any time; takes effect on the next Invoke.
func (r *Registry) SetRecorder(rec Recorder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recorder = rec
}

// NewRegistry constructs an empty Registry. breaker may be nil to
// disable overhead enforcement (e.g. in tests).
func NewRegistry(breaker *CircuitBreaker) *Registry {
	return &Registry{byPoint: make(map[Point][]Hook), disabled: make(map[string]bool), breaker: breaker}
}

// Register appends h to the ordered list of hooks for p.
func (r *Registry) Register(p Point, h Hook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byPoint[p] = append(r.byPoint[p], h)
}

// Unregister removes every hook named name, at every point. Matches
// the Hook global's "unregister(name)" (spec.md section 4.7); a script
// only ever knows a hook by name, never by point.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for p, hooks := range r.byPoint {
		kept := hooks[:0]
		for _, h := range hooks {
			if h.Name() != name {
				kept = append(kept, h)
			}
		}
		r.byPoint[p] = kept
	}
	delete(r.disabled, name)
}

// Enable and Disable toggle whether a registered hook fires on Invoke,
// without removing it from the registry — the Hook global's
// enable/disable pair (spec.md section 4.7).
func (r *Registry) Enable(name string)  { r.setDisabled(name, false) }
func (r *Registry) Disable(name string) { r.setDisabled(name, true) }

func (r *Registry) setDisabled(name string, disabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if disabled {
		r.disabled[name] = true
	} else {
		delete(r.disabled, name)
	}
}

// Hooks returns the registered hooks for p, in registration order,
// excluding any currently disabled by name.
func (r *Registry) Hooks(p Point) []Hook {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Hook, 0, len(r.byPoint[p]))
	for _, h := range r.byPoint[p] {
		if !r.disabled[h.Name()] {
			out = append(out, h)
		}
	}
	return out
}

// All returns every registered hook across every point, for the Hook
// global's list() (spec.md section 4.7).
func (r *Registry) All() []Hook {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Hook
	for _, hooks := range r.byPoint {
		out = append(out, hooks...)
	}
	return out
}

// Invoke runs every hook registered for hc.Point in sequence, skipping
// any hook whose circuit breaker is currently tripped, and returns the
// aggregate Sequential result.
func (r *Registry) Invoke(hc *Context, bodyDur time.Duration) (Result, error) {
	hooks := r.Hooks(hc.Point)
	r.mu.RLock()
	recorder := r.recorder
	r.mu.RUnlock()

	result := ContinueResult()
	for _, h := range hooks {
		if r.breaker != nil && !r.breaker.Allow(h.Name()) {
			continue
		}
		start := time.Now()
		res, err := h.Invoke(hc)
		dur := time.Since(start)
		if r.breaker != nil {
			r.breaker.Record(h.Name(), dur, bodyDur)
		}
		if recorder != nil {
			recorder.RecordHookOverhead(h.Name(), dur, bodyDur)
		}
		if err != nil {
			return Result{}, err
		}
		if res.Kind == KindCancel {
			return res, nil
		}
		if res.Kind != KindSkipped {
			result = res
		}
	}
	return result, nil
}
