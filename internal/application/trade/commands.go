package trade

import (
	"github.com/erp/backoffice/internal/application/command"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineInput is one order or invoice line in a request
type LineInput struct {
	ItemID      *uuid.UUID      `json:"item_id,omitempty"`
	Description string          `json:"description" validate:"max=500"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	VatRate     decimal.Decimal `json:"vat_rate"`
}

// CreateOrder drafts a sales or purchase order
type CreateOrder struct {
	command.TxRequired
	command.Keyed
	BranchID  *uuid.UUID  `json:"branch_id,omitempty"`
	Type      string      `json:"type" validate:"required,oneof=SALES PURCHASE"`
	ContactID uuid.UUID   `json:"contact_id" validate:"required"`
	Currency  string      `json:"currency,omitempty" validate:"omitempty,oneof=TRY USD EUR GBP"`
	Notes     string      `json:"notes,omitempty" validate:"max=1000"`
	Lines     []LineInput `json:"lines" validate:"dive"`
}

func (CreateOrder) CommandName() string { return "CreateOrder" }

// ApproveOrder moves a draft order to APPROVED
type ApproveOrder struct {
	command.TxRequired
	ID           uuid.UUID `json:"id" validate:"required"`
	VersionToken string    `json:"version_token"`
}

func (ApproveOrder) CommandName() string { return "ApproveOrder" }

// CancelOrder cancels a draft or approved order
type CancelOrder struct {
	command.TxRequired
	ID           uuid.UUID `json:"id" validate:"required"`
	VersionToken string    `json:"version_token"`
	Reason       string    `json:"reason,omitempty" validate:"max=500"`
}

func (CancelOrder) CommandName() string { return "CancelOrder" }

// InvoiceOrder issues the invoice of an approved order
type InvoiceOrder struct {
	command.TxRequired
	command.Keyed
	ID           uuid.UUID `json:"id" validate:"required"`
	VersionToken string    `json:"version_token"`
}

func (InvoiceOrder) CommandName() string { return "InvoiceOrder" }

// DeleteOrder soft-deletes a draft order
type DeleteOrder struct {
	command.TxRequired
	ID           uuid.UUID `json:"id" validate:"required"`
	VersionToken string    `json:"version_token"`
}

func (DeleteOrder) CommandName() string { return "DeleteOrder" }

// GetOrder reads one order. IncludeDeleted also finds soft-deleted orders;
// the read stays branch-scoped.
type GetOrder struct {
	ID             uuid.UUID `json:"id" validate:"required"`
	IncludeDeleted bool      `json:"include_deleted,omitempty"`
}

func (GetOrder) CommandName() string { return "GetOrder" }

// CheckOrderStock reports, per item, what a sales order needs against what
// its branch holds
type CheckOrderStock struct {
	ID uuid.UUID `json:"id" validate:"required"`
}

func (CheckOrderStock) CommandName() string { return "CheckOrderStock" }

// ListOrders reads one page of orders
type ListOrders struct {
	Page      int        `json:"page,omitempty" validate:"omitempty,min=1"`
	PageSize  int        `json:"page_size,omitempty" validate:"omitempty,min=1,max=200"`
	OrderBy   string     `json:"order_by,omitempty"`
	OrderDir  string     `json:"order_dir,omitempty" validate:"omitempty,oneof=asc desc"`
	Status    string     `json:"status,omitempty" validate:"omitempty,oneof=DRAFT APPROVED INVOICED CANCELLED"`
	Type      string     `json:"type,omitempty" validate:"omitempty,oneof=SALES PURCHASE"`
	ContactID *uuid.UUID `json:"contact_id,omitempty"`
}

func (ListOrders) CommandName() string { return "ListOrders" }

// CreateInvoice issues an invoice. Orders and expense lists dispatch it when
// they are invoiced or posted.
type CreateInvoice struct {
	command.TxRequired
	command.Keyed
	BranchID   *uuid.UUID  `json:"branch_id,omitempty"`
	Kind       string      `json:"kind" validate:"required,oneof=SALES PURCHASE"`
	ContactID  uuid.UUID   `json:"contact_id" validate:"required"`
	Currency   string      `json:"currency,omitempty" validate:"omitempty,oneof=TRY USD EUR GBP"`
	SourceType string      `json:"source_type,omitempty" validate:"omitempty,oneof=order expense_list"`
	SourceID   *uuid.UUID  `json:"source_id,omitempty" validate:"required_with=SourceType"`
	Lines      []LineInput `json:"lines" validate:"required,min=1,dive"`
}

func (CreateInvoice) CommandName() string { return "CreateInvoice" }

// CancelInvoice cancels an issued invoice
type CancelInvoice struct {
	command.TxRequired
	ID           uuid.UUID `json:"id" validate:"required"`
	VersionToken string    `json:"version_token"`
	Reason       string    `json:"reason,omitempty" validate:"max=500"`
}

func (CancelInvoice) CommandName() string { return "CancelInvoice" }

// GetInvoice reads one invoice
type GetInvoice struct {
	ID uuid.UUID `json:"id" validate:"required"`
}

func (GetInvoice) CommandName() string { return "GetInvoice" }
