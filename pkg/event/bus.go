package event

import (
	"context"
	"log/slog"
	"path"
	"sync"

	"github.com/orinrun/orin/pkg/component"
)

// Handler processes one delivered event. An error is logged, never
// returned to the publisher (spec.md: "failures never propagate to
// callers").
type Handler func(ctx context.Context, ev UniversalEvent) error

// Subscription represents an active registration; Close is idempotent.
type Subscription interface {
	Close()
}

// Bus is a thread-safe, pattern-matching, backpressure-aware event
// fan-out.
type Bus struct {
	mu   sync.RWMutex
	subs map[*subscription]*subscription
}

// NewBus constructs an empty Bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[*subscription]*subscription)}
}

type subscription struct {
	bus             *Bus
	pattern         string
	componentFilter *component.ID
	backpressure    Backpressure
	handler         Handler
	queue           chan UniversalEvent
	closeOnce       sync.Once
	closed          chan struct{}
}

// Subscribe registers handler for events whose Type matches the glob
// pattern (stdlib path.Match syntax: "*", "?", "[...]") and, if filter
// is non-nil, whose ComponentID equals *filter. queueSize sizes the
// subscriber's queue under Buffer and Drop (64 when not positive); Pause
// ignores it.
func (b *Bus) Subscribe(pattern string, filter *component.ID, backpressure Backpressure, queueSize int, handler Handler) Subscription {
	s := &subscription{
		bus:             b,
		pattern:         pattern,
		componentFilter: filter,
		backpressure:    backpressure,
		handler:         handler,
		closed:          make(chan struct{}),
	}
	if backpressure != Pause {
		if queueSize <= 0 {
			queueSize = 64
		}
		s.queue = make(chan UniversalEvent, queueSize)
		go s.drain()
	}

	b.mu.Lock()
	b.subs[s] = s
	b.mu.Unlock()
	return s
}

func (s *subscription) drain() {
	for {
		select {
		case ev := <-s.queue:
			if err := s.handler(context.Background(), ev); err != nil {
				slog.Warn("event: subscriber handler failed", "type", ev.Type, "error", err)
			}
		case <-s.closed:
			return
		}
	}
}

func (s *subscription) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.bus.mu.Lock()
		delete(s.bus.subs, s)
		s.bus.mu.Unlock()
	})
}

func (s *subscription) matches(ev UniversalEvent) bool {
	if ok, err := path.Match(s.pattern, ev.Type); err != nil || !ok {
		return false
	}
	if s.componentFilter != nil && *s.componentFilter != ev.ComponentID {
		return false
	}
	return true
}

// Publish delivers ev to every matching subscriber according to each
// subscriber's own backpressure policy. Registrations/unregistrations
// during Publish never affect the current delivery: the subscriber set
// is snapshotted up front.
func (b *Bus) Publish(ctx context.Context, ev UniversalEvent) {
	b.mu.RLock()
	targets := make([]*subscription, 0, len(b.subs))
	for _, s := range b.subs {
		if s.matches(ev) {
			targets = append(targets, s)
		}
	}
	b.mu.RUnlock()

	for _, s := range targets {
		switch s.backpressure {
		case Pause:
			if err := s.handler(ctx, ev); err != nil {
				slog.Warn("event: subscriber handler failed", "type", ev.Type, "error", err)
			}
		case Drop:
			select {
			case s.queue <- ev:
			case <-s.closed:
			default:
				slog.Debug("event: dropped event, subscriber queue full", "type", ev.Type)
			}
		default: // Buffer
			select {
			case s.queue <- ev:
			case <-s.closed:
			}
		}
	}
}

// Emit is the narrow, no-error publish entry point scripts and hooks
// call (spec.md's emit(type, data)); it stamps no component id or
// correlation id, for callers that don't have an ExecutionContext handy.
func (b *Bus) Emit(eventType string, data map[string]any) {
	b.Publish(context.Background(), UniversalEvent{Type: eventType, Data: data})
}
