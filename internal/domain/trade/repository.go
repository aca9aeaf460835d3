package trade

import (
	"context"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
)

// OrderFilter narrows order queries
type OrderFilter struct {
	shared.Filter
	Type      OrderType
	ContactID *uuid.UUID
}

// OrderRepository persists orders. All reads are branch-scoped by the caller
// on ctx; a document owned by another branch is reported as not found.
type OrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	// FindByIDIncludingDeleted also returns soft-deleted orders, for audit reads.
	FindByIDIncludingDeleted(ctx context.Context, id uuid.UUID) (*Order, error)
	FindAll(ctx context.Context, filter OrderFilter) ([]Order, int64, error)
	Create(ctx context.Context, order *Order) error
	// SaveWithVersion writes the order and its lines only if the stored token
	// still equals expected. On success the order carries the new token.
	SaveWithVersion(ctx context.Context, order *Order, expected shared.VersionToken) error
	// Delete soft-deletes the order under the same version check.
	Delete(ctx context.Context, order *Order, expected shared.VersionToken) error
}

// InvoiceRepository persists invoices
type InvoiceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	FindBySource(ctx context.Context, sourceType SourceType, sourceID uuid.UUID) ([]Invoice, error)
	Create(ctx context.Context, invoice *Invoice) error
	SaveWithVersion(ctx context.Context, invoice *Invoice, expected shared.VersionToken) error
}
