package shared

import "context"

// EventHandler reacts to relayed domain events. A handler that returns no
// event types is subscribed to everything.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	EventTypes() []string
}

type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventBus fans relayed outbox events out to subscribers. It only ever sees
// committed events, so subscribers must not be relied on for the write
// itself.
type EventBus interface {
	EventPublisher
	Subscribe(handler EventHandler, eventTypes ...string)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// OutboxEventSaver appends events to the outbox on the transaction carried
// by ctx. They commit or roll back with the document that raised them.
type OutboxEventSaver interface {
	SaveEvents(ctx context.Context, events ...DomainEvent) error
}
