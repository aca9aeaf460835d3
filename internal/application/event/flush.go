package event

import (
	"context"
	"fmt"

	"github.com/erp/backoffice/internal/domain/shared"
)

// Source is a document collecting domain events until it is persisted
type Source interface {
	GetDomainEvents() []shared.DomainEvent
	ClearDomainEvents()
}

// Flush stores the pending events of every source in the outbox on the unit
// of work carried by ctx and clears them. Call it after the documents were
// written, inside the same transaction.
func Flush(ctx context.Context, saver shared.OutboxEventSaver, sources ...Source) error {
	if saver == nil {
		return nil
	}
	var pending []shared.DomainEvent
	for _, s := range sources {
		pending = append(pending, s.GetDomainEvents()...)
	}
	if len(pending) == 0 {
		return nil
	}
	if err := saver.SaveEvents(ctx, pending...); err != nil {
		return fmt.Errorf("record domain events: %w", err)
	}
	for _, s := range sources {
		s.ClearDomainEvents()
	}
	return nil
}
