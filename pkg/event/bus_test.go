package event_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orinrun/orin/pkg/component"
	"github.com/orinrun/orin/pkg/event"
)

func TestBus_PatternMatch(t *testing.T) {
	bus := event.NewBus()
	var mu sync.Mutex
	var received []string

	sub := bus.Subscribe("tool.*", nil, event.Pause, 0, func(ctx context.Context, ev event.UniversalEvent) error {
		mu.Lock()
		received = append(received, ev.Type)
		mu.Unlock()
		return nil
	})
	defer sub.Close()

	bus.Publish(context.Background(), event.UniversalEvent{Type: "tool.started"})
	bus.Publish(context.Background(), event.UniversalEvent{Type: "workflow.started"})

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"tool.started"}, received)
}

func TestBus_ComponentFilter(t *testing.T) {
	bus := event.NewBus()
	want := component.ID{Name: "echo", Type: component.TypeTool}
	other := component.ID{Name: "other", Type: component.TypeTool}

	var got []component.ID
	sub := bus.Subscribe("*", &want, event.Pause, 0, func(ctx context.Context, ev event.UniversalEvent) error {
		got = append(got, ev.ComponentID)
		return nil
	})
	defer sub.Close()

	bus.Publish(context.Background(), event.UniversalEvent{Type: "tool.started", ComponentID: other})
	bus.Publish(context.Background(), event.UniversalEvent{Type: "tool.started", ComponentID: want})

	assert.Equal(t, []component.ID{want}, got)
}

func TestBus_DropBackpressureDiscardsOnFullQueue(t *testing.T) {
	bus := event.NewBus()
	block := make(chan struct{})
	var processed int32
	var mu sync.Mutex

	sub := bus.Subscribe("*", nil, event.Drop, 1, func(ctx context.Context, ev event.UniversalEvent) error {
		<-block
		mu.Lock()
		processed++
		mu.Unlock()
		return nil
	})
	defer sub.Close()

	for i := 0; i < 10; i++ {
		bus.Publish(context.Background(), event.UniversalEvent{Type: "x"})
	}
	close(block)
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Less(t, int(processed), 10)
}

func TestBus_CloseStopsDelivery(t *testing.T) {
	bus := event.NewBus()
	calls := 0
	sub := bus.Subscribe("*", nil, event.Pause, 0, func(ctx context.Context, ev event.UniversalEvent) error {
		calls++
		return nil
	})
	sub.Close()
	sub.Close() // idempotent

	bus.Publish(context.Background(), event.UniversalEvent{Type: "x"})
	assert.Equal(t, 0, calls)
}

func TestEmitter_StampsComponentAndCorrelation(t *testing.T) {
	bus := event.NewBus()
	var got event.UniversalEvent
	sub := bus.Subscribe("*", nil, event.Pause, 0, func(ctx context.Context, ev event.UniversalEvent) error {
		got = ev
		return nil
	})
	defer sub.Close()

	id := component.ID{Name: "wf", Type: component.TypeWorkflow}
	emitter := event.Emitter{Bus: bus, ComponentID: id, CorrelationID: "corr-1"}
	emitter.Emit("workflow.started", map[string]any{"k": "v"})

	require.Equal(t, "workflow.started", got.Type)
	assert.Equal(t, id, got.ComponentID)
	assert.Equal(t, "corr-1", got.CorrelationID)
}
