// Package event implements the Event capability (spec.md section 4.5):
// a UniversalEvent carrying correlation ids and language tags, and a
// Bus supporting glob-pattern subscriptions, an optional component
// filter, and a per-subscriber backpressure policy.
//
// The fan-out shape (a subscriber registry behind an RWMutex, Publish
// snapshotting subscribers before iterating, a Subscription handle with
// idempotent Close) is grounded in the pack's
// goadesign-goa-ai/runtime/agent/hooks.Bus; this package generalizes it
// with pattern matching, a component filter, and bounded per-subscriber
// queues instead of always-synchronous delivery.
package event

import (
	"time"

	"github.com/orinrun/orin/pkg/component"
)

// UniversalEvent is the value published on the bus (spec.md's
// "UniversalEvent with correlation ids").
type UniversalEvent struct {
	Type          string
	Data          map[string]any
	ComponentID   component.ID
	CorrelationID string
	LanguageTags  []string
	Occurred      time.Time
}

// Backpressure controls what happens when a subscriber's queue is full.
type Backpressure int

const (
	// Buffer queues up to N events per subscriber, draining them on a
	// dedicated goroutine; Publish never blocks once the queue has room.
	Buffer Backpressure = iota
	// Drop discards the event if the subscriber's queue is full.
	Drop
	// Pause delivers synchronously in the publisher's goroutine, so
	// Publish blocks until the subscriber's handler returns.
	Pause
)
