package finance

import (
	"context"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
)

// ChequeFilter narrows cheque queries
type ChequeFilter struct {
	shared.Filter
	Direction ChequeDirection
}

// PaymentFilter narrows payment queries
type PaymentFilter struct {
	shared.Filter
	Direction  PaymentDirection
	SourceType string
	SourceID   *uuid.UUID
}

// ChequeRepository persists cheques. Reads are branch-scoped by the caller on ctx.
type ChequeRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Cheque, error)
	FindAll(ctx context.Context, filter ChequeFilter) ([]Cheque, int64, error)
	Create(ctx context.Context, cheque *Cheque) error
	SaveWithVersion(ctx context.Context, cheque *Cheque, expected shared.VersionToken) error
}

// PaymentRepository persists payments
type PaymentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	FindAll(ctx context.Context, filter PaymentFilter) ([]Payment, int64, error)
	Create(ctx context.Context, payment *Payment) error
}

// ExpenseListRepository persists expense lists and their lines
type ExpenseListRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ExpenseList, error)
	// FindByIDIncludingDeleted also returns soft-deleted lists, for audit reads.
	FindByIDIncludingDeleted(ctx context.Context, id uuid.UUID) (*ExpenseList, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]ExpenseList, int64, error)
	Create(ctx context.Context, list *ExpenseList) error
	SaveWithVersion(ctx context.Context, list *ExpenseList, expected shared.VersionToken) error
	Delete(ctx context.Context, list *ExpenseList, expected shared.VersionToken) error
}
