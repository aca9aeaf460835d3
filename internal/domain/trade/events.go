package trade

import (
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event type constants
const (
	EventTypeOrderCreated  = "Order.created"
	EventTypeInvoiceIssued = "Invoice.issued"
	EventTypeOrderStatus   = AggregateTypeOrder + ".status_changed"
	EventTypeInvoiceStatus = AggregateTypeInvoice + ".status_changed"
)

// OrderCreatedEvent is raised when a new order is drafted
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	Number    string    `json:"number"`
	OrderType OrderType `json:"order_type"`
	ContactID uuid.UUID `json:"contact_id"`
}

// NewOrderCreatedEvent creates a new OrderCreatedEvent
func NewOrderCreatedEvent(o *Order) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCreated, AggregateTypeOrder, o.ID, o.BranchID),
		Number:          o.Number,
		OrderType:       o.Type,
		ContactID:       o.ContactID,
	}
}

// InvoiceIssuedEvent is raised when an invoice is created
type InvoiceIssuedEvent struct {
	shared.BaseDomainEvent
	Number     string          `json:"number"`
	Kind       InvoiceKind     `json:"kind"`
	ContactID  uuid.UUID       `json:"contact_id"`
	SourceType SourceType      `json:"source_type,omitempty"`
	SourceID   *uuid.UUID      `json:"source_id,omitempty"`
	TotalGross decimal.Decimal `json:"total_gross"`
	Currency   string          `json:"currency"`
}

// NewInvoiceIssuedEvent creates a new InvoiceIssuedEvent
func NewInvoiceIssuedEvent(inv *Invoice) *InvoiceIssuedEvent {
	return &InvoiceIssuedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceIssued, AggregateTypeInvoice, inv.ID, inv.BranchID),
		Number:          inv.Number,
		Kind:            inv.Kind,
		ContactID:       inv.ContactID,
		SourceType:      inv.SourceType,
		SourceID:        inv.SourceID,
		TotalGross:      inv.Totals.Gross,
		Currency:        string(inv.Currency),
	}
}
