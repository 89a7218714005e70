package messaging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/interaction-hub/internal/domain/shared"
)

var at = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func TestInMemoryEventBus_DeliversByType(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultInMemoryEventBusConfig())

	var added, all []shared.EventType
	require.NoError(t, bus.Subscribe(shared.EventRecordAdded, func(e shared.Event) error {
		added = append(added, e.EventType())
		return nil
	}))
	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error {
		all = append(all, e.EventType())
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewRecordAddedEvent("c1", "comment", "u1", at)))
	require.NoError(t, bus.Publish(shared.NewRecordStatusEvent(shared.EventRecordDeleted, "c1", "comment", "active", "deleted", at)))

	assert.Equal(t, []shared.EventType{shared.EventRecordAdded}, added)
	assert.Equal(t, []shared.EventType{shared.EventRecordAdded, shared.EventRecordDeleted}, all)
}

func TestInMemoryEventBus_DeliversInPublishingGoroutine(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{})

	var order []string
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		order = append(order, "all")
		return nil
	}))
	require.NoError(t, bus.Subscribe(shared.EventRecordAdded, func(shared.Event) error {
		order = append(order, "first")
		return nil
	}))
	require.NoError(t, bus.Subscribe(shared.EventRecordAdded, func(shared.Event) error {
		order = append(order, "second")
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewRecordAddedEvent("c1", "comment", "u1", at)))

	// Every handler has already run when Publish returns.
	assert.Equal(t, []string{"first", "second", "all"}, order)
}

func TestInMemoryEventBus_HandlerFailuresAreIsolated(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultInMemoryEventBusConfig())

	var delivered int
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { return errors.New("projection down") }))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { panic("boom") }))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		delivered++
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewRecordAddedEvent("c1", "comment", "u1", at)))
	assert.Equal(t, 1, delivered)
}

func TestExecute_RecoversPanics(t *testing.T) {
	err := execute(shared.NewRecordAddedEvent("c1", "comment", "u1", at), func(shared.Event) error { panic("boom") })
	assert.ErrorIs(t, err, ErrHandlerPanic)
	assert.Contains(t, err.Error(), "boom")
}

func TestInMemoryEventBus_Close(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultInMemoryEventBusConfig())
	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())

	assert.ErrorIs(t, bus.Publish(shared.NewRecordAddedEvent("c2", "comment", "u1", at)), ErrEventBusClosed)
	assert.ErrorIs(t, bus.SubscribeAll(func(shared.Event) error { return nil }), ErrEventBusClosed)
	assert.ErrorIs(t, bus.Subscribe(shared.EventRecordAdded, nil), ErrNilHandler)
	assert.Error(t, bus.Publish(nil))
}
