package shared

import (
	"time"

	"github.com/google/uuid"
)

// Entity is the base interface for all domain entities
type Entity interface {
	GetID() uuid.UUID
	GetCreatedAt() time.Time
	GetUpdatedAt() time.Time
}

// BranchOwned is implemented by everything stored with a branch_id.
type BranchOwned interface {
	GetBranchID() uuid.UUID
}

// AggregateRoot is the base interface for versioned, branch-owned documents
type AggregateRoot interface {
	Entity
	BranchOwned
	GetVersionToken() VersionToken
	AddDomainEvent(event DomainEvent)
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
}

// BaseEntity provides common fields for all entities
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GetID returns the entity ID
func (e *BaseEntity) GetID() uuid.UUID {
	return e.ID
}

// GetCreatedAt returns the creation timestamp
func (e *BaseEntity) GetCreatedAt() time.Time {
	return e.CreatedAt
}

// GetUpdatedAt returns the last update timestamp
func (e *BaseEntity) GetUpdatedAt() time.Time {
	return e.UpdatedAt
}

// NewBaseEntity creates a new base entity with generated ID
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}

// BaseDocument is embedded by every business document: it carries the owning
// branch, the version token and the soft-delete marker.
type BaseDocument struct {
	BaseEntity
	BranchID     uuid.UUID
	VersionToken VersionToken
	DeletedAt    *time.Time
	domainEvents []DomainEvent
}

// NewBaseDocument creates a document owned by branchID with a fresh token.
func NewBaseDocument(branchID uuid.UUID) BaseDocument {
	return BaseDocument{
		BaseEntity:   NewBaseEntity(),
		BranchID:     branchID,
		VersionToken: NewVersionToken(),
	}
}

// GetBranchID returns the owning branch
func (d *BaseDocument) GetBranchID() uuid.UUID {
	return d.BranchID
}

// GetVersionToken returns the token of the last persisted state
func (d *BaseDocument) GetVersionToken() VersionToken {
	return d.VersionToken
}

// SetVersionToken records the token issued by the last successful write.
func (d *BaseDocument) SetVersionToken(t VersionToken) {
	d.VersionToken = t
}

// IsDeleted reports whether the document was soft-deleted
func (d *BaseDocument) IsDeleted() bool {
	return d.DeletedAt != nil
}

// Touch updates the modification timestamp
func (d *BaseDocument) Touch() {
	d.UpdatedAt = time.Now()
}

// AddDomainEvent adds a domain event to be published
func (d *BaseDocument) AddDomainEvent(event DomainEvent) {
	d.domainEvents = append(d.domainEvents, event)
}

// GetDomainEvents returns all pending domain events
func (d *BaseDocument) GetDomainEvents() []DomainEvent {
	return d.domainEvents
}

// ClearDomainEvents clears the pending domain events
func (d *BaseDocument) ClearDomainEvents() {
	d.domainEvents = nil
}
