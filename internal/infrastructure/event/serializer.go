package event

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/erp/backoffice/internal/domain/finance"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/domain/trade"
)

// EventSerializer turns domain events into outbox payloads and back. Each
// event type maps to a factory for its concrete Go type.
type EventSerializer struct {
	mu        sync.RWMutex
	factories map[string]func() shared.DomainEvent
}

// NewEventSerializer returns a serializer with no event types
func NewEventSerializer() *EventSerializer {
	return &EventSerializer{factories: make(map[string]func() shared.DomainEvent)}
}

// Register maps eventType to the concrete type T. A second registration of
// the same type replaces the first.
func Register[T any, P interface {
	*T
	shared.DomainEvent
}](s *EventSerializer, eventType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.factories[eventType] = func() shared.DomainEvent { return P(new(T)) }
}

// Serialize encodes event as JSON
func (s *EventSerializer) Serialize(event shared.DomainEvent) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event %s: %w", event.EventType(), err)
	}
	return data, nil
}

// Deserialize decodes an outbox payload stored under eventType. The payload
// must carry the same event type it was stored under.
func (s *EventSerializer) Deserialize(eventType string, data []byte) (shared.DomainEvent, error) {
	s.mu.RLock()
	factory, ok := s.factories[eventType]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}

	event := factory()
	if err := json.Unmarshal(data, event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event %s: %w", eventType, err)
	}
	if event.EventType() != eventType {
		return nil, fmt.Errorf("payload carries event type %q, stored as %q", event.EventType(), eventType)
	}
	return event, nil
}

// Knows reports whether eventType can be deserialized
func (s *EventSerializer) Knows(eventType string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.factories[eventType]
	return ok
}

// Types returns the registered event types in lexical order
func (s *EventSerializer) Types() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	types := make([]string, 0, len(s.factories))
	for t := range s.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// NewDefaultSerializer knows every event raised by the documents
func NewDefaultSerializer() *EventSerializer {
	s := NewEventSerializer()
	Register[trade.OrderCreatedEvent](s, trade.EventTypeOrderCreated)
	Register[trade.InvoiceIssuedEvent](s, trade.EventTypeInvoiceIssued)
	Register[finance.PaymentRecordedEvent](s, finance.EventTypePaymentRecorded)
	for _, aggregateType := range []string{
		trade.AggregateTypeOrder,
		trade.AggregateTypeInvoice,
		finance.AggregateTypeCheque,
		finance.AggregateTypeExpenseList,
	} {
		Register[shared.StatusChanged](s, shared.StatusChangedType(aggregateType))
	}
	return s
}
