package event

import (
	"context"

	"github.com/orinrun/orin/pkg/component"
)

// Emitter adapts a Bus to component.EventEmitter, stamping every event
// with a fixed component id and correlation id so a workflow step's
// events inherit the parent workflow's correlation id (spec.md section
// 4.5).
type Emitter struct {
	Bus           *Bus
	ComponentID   component.ID
	CorrelationID string
	LanguageTags  []string
}

// Emit implements component.EventEmitter. It never returns an error:
// Publish delivery failures are logged by the Bus itself, never
// propagated to the caller.
func (e Emitter) Emit(eventType string, data map[string]any) {
	e.Bus.Publish(context.Background(), UniversalEvent{
		Type:          eventType,
		Data:          data,
		ComponentID:   e.ComponentID,
		CorrelationID: e.CorrelationID,
		LanguageTags:  e.LanguageTags,
	})
}

// WithComponent returns a copy of e scoped to a different component,
// keeping the same correlation id — the pattern a workflow uses to
// stamp each step's emitter before invoking it.
func (e Emitter) WithComponent(id component.ID) Emitter {
	e.ComponentID = id
	return e
}
