package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newStatusEvent(aggType string) *shared.StatusChanged {
	return shared.NewStatusChanged(aggType, uuid.New(), uuid.New(), "DRAFT", "APPROVED")
}

// testHandler implements EventHandler for testing
type testHandler struct {
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
	mu         sync.Mutex
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{eventTypes: eventTypes}
}

func (h *testHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	return h.err
}

func (h *testHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *testHandler) setError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.err = err
}

func (h *testHandler) getHandled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.handled...)
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	orders := newTestHandler("Order.status_changed")
	cheques := newTestHandler("Cheque.status_changed")
	all := newTestHandler()
	bus.Subscribe(orders)
	bus.Subscribe(cheques)
	bus.Subscribe(all)

	err := bus.Publish(context.Background(), newStatusEvent("Order"), newStatusEvent("Order"))

	require.NoError(t, err)
	assert.Len(t, orders.getHandled(), 2)
	assert.Empty(t, cheques.getHandled())
	assert.Len(t, all.getHandled(), 2)
}

func TestInMemoryEventBus_Publish_ExplicitTypesOverrideHandler(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newTestHandler("Order.status_changed")
	bus.Subscribe(handler, "Cheque.status_changed")

	require.NoError(t, bus.Publish(context.Background(), newStatusEvent("Order"), newStatusEvent("Cheque")))

	handled := handler.getHandled()
	require.Len(t, handled, 1)
	assert.Equal(t, "Cheque.status_changed", handled[0].EventType())
}

func TestInMemoryEventBus_Publish_HandlerError(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	failing := newTestHandler("Order.status_changed")
	failing.setError(errors.New("handler error"))
	healthy := newTestHandler("Order.status_changed")
	bus.Subscribe(failing)
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), newStatusEvent("Order"))

	assert.EqualError(t, err, "handler error")
	assert.Len(t, failing.getHandled(), 1)
	assert.Len(t, healthy.getHandled(), 1)
}

type panicHandler struct{}

func (panicHandler) Handle(context.Context, shared.DomainEvent) error { panic("boom") }
func (panicHandler) EventTypes() []string                             { return nil }

func TestInMemoryEventBus_Publish_HandlerPanic(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(panicHandler{})

	err := bus.Publish(context.Background(), newStatusEvent("Order"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestInMemoryEventBus_StartStop(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	ctx := context.Background()

	require.NoError(t, bus.Start(ctx))
	assert.True(t, bus.Running())
	require.NoError(t, bus.Stop(ctx))
	assert.False(t, bus.Running())
}
