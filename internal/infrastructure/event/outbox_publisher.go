package event

import (
	"context"

	"github.com/erp/backoffice/internal/domain/shared"
)

// OutboxPublisher is the write side of the outbox: it turns raised domain
// events into outbox rows on the transaction in ctx.
type OutboxPublisher struct {
	repo       shared.OutboxRepository
	serializer *EventSerializer
	maxRetries int
}

// NewOutboxPublisher returns a publisher. maxRetries <= 0 keeps
// shared.DefaultMaxRetries on each entry.
func NewOutboxPublisher(repo shared.OutboxRepository, serializer *EventSerializer, maxRetries int) *OutboxPublisher {
	return &OutboxPublisher{repo: repo, serializer: serializer, maxRetries: maxRetries}
}

func (p *OutboxPublisher) SaveEvents(ctx context.Context, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}
	entries := make([]*shared.OutboxEntry, len(events))
	for i, event := range events {
		payload, err := p.serializer.Serialize(event)
		if err != nil {
			return err
		}
		entries[i] = shared.NewOutboxEntry(event, payload)
		if p.maxRetries > 0 {
			entries[i].MaxRetries = p.maxRetries
		}
	}
	return p.repo.Save(ctx, entries...)
}

var _ shared.OutboxEventSaver = (*OutboxPublisher)(nil)
