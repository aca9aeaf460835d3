package shared

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is a fact raised by a document. Events are stored in the
// outbox with the document change and relayed after commit.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
	AggregateType() string
	BranchID() uuid.UUID
}

// BaseDomainEvent carries the envelope shared by every event
type BaseDomainEvent struct {
	ID            uuid.UUID `json:"id"`
	Type          string    `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggID         uuid.UUID `json:"aggregate_id"`
	AggType       string    `json:"aggregate_type"`
	BranchIDValue uuid.UUID `json:"branch_id"`
}

func (e *BaseDomainEvent) EventID() uuid.UUID { return e.ID }
func (e *BaseDomainEvent) EventType() string { return e.Type }
func (e *BaseDomainEvent) OccurredAt() time.Time { return e.Timestamp }
func (e *BaseDomainEvent) AggregateID() uuid.UUID { return e.AggID }
func (e *BaseDomainEvent) AggregateType() string { return e.AggType }
func (e *BaseDomainEvent) BranchID() uuid.UUID { return e.BranchIDValue }

// NewBaseDomainEvent creates a new base domain event
func NewBaseDomainEvent(eventType, aggType string, aggID, branchID uuid.UUID) BaseDomainEvent {
	return BaseDomainEvent{
		ID:            uuid.New(),
		Type:          eventType,
		Timestamp:     time.Now(),
		AggID:         aggID,
		AggType:       aggType,
		BranchIDValue: branchID,
	}
}

// StatusChangedType is the event type of a transition of aggType documents
func StatusChangedType(aggType string) string {
	return aggType + ".status_changed"
}

// StatusChanged is raised by every document state transition.
type StatusChanged struct {
	BaseDomainEvent
	From string `json:"from"`
	To   string `json:"to"`
}

// NewStatusChanged creates a StatusChanged event for the given aggregate.
func NewStatusChanged(aggType string, aggID, branchID uuid.UUID, from, to string) *StatusChanged {
	return &StatusChanged{
		BaseDomainEvent: NewBaseDomainEvent(StatusChangedType(aggType), aggType, aggID, branchID),
		From:            from,
		To:              to,
	}
}
