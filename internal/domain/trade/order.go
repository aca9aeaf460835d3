package trade

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/domain/shared/statemachine"
	"github.com/erp/backoffice/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeOrder is the aggregate type recorded on order events.
const AggregateTypeOrder = "Order"

// OrderType distinguishes sales from purchase orders
type OrderType string

const (
	OrderTypeSales    OrderType = "SALES"
	OrderTypePurchase OrderType = "PURCHASE"
)

// IsValid checks if the order type is valid
func (t OrderType) IsValid() bool {
	return t == OrderTypeSales || t == OrderTypePurchase
}

// InvoiceKind returns the invoice kind an order of this type produces.
func (t OrderType) InvoiceKind() InvoiceKind {
	if t == OrderTypePurchase {
		return InvoiceKindPurchase
	}
	return InvoiceKindSales
}

func (t OrderType) numberPrefix() string {
	if t == OrderTypePurchase {
		return "PO"
	}
	return "SO"
}

// OrderStatus represents the status of an order
type OrderStatus string

const (
	OrderStatusDraft     OrderStatus = "DRAFT"
	OrderStatusApproved  OrderStatus = "APPROVED"
	OrderStatusInvoiced  OrderStatus = "INVOICED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// IsValid checks if the status is a valid OrderStatus value
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusDraft, OrderStatusApproved, OrderStatusInvoiced, OrderStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// OrderAction is a command applied to an order's status
type OrderAction string

const (
	OrderActionApprove OrderAction = "approve"
	OrderActionCancel  OrderAction = "cancel"
	OrderActionInvoice OrderAction = "invoice"
)

// Invoiced and cancelled orders are final. Cancelling twice is rejected rather
// than ignored so duplicate client submissions surface.
var orderMachine = statemachine.New("order", []statemachine.Transition[OrderStatus, OrderAction]{
	{From: []OrderStatus{OrderStatusDraft}, On: OrderActionApprove, To: OrderStatusApproved},
	{From: []OrderStatus{OrderStatusDraft, OrderStatusApproved}, On: OrderActionCancel, To: OrderStatusCancelled},
	{From: []OrderStatus{OrderStatusApproved}, On: OrderActionInvoice, To: OrderStatusInvoiced},
}, OrderStatusInvoiced, OrderStatusCancelled)

// OrderMachine exposes the order transition table.
func OrderMachine() *statemachine.Machine[OrderStatus, OrderAction] {
	return orderMachine
}

// StockValidator checks that a branch holds enough of an item.
// It returns a business rule violation when it does not.
type StockValidator interface {
	ValidateAvailability(ctx context.Context, branchID, itemID uuid.UUID, quantity decimal.Decimal) error
}

// StockRequirement is the total quantity of one item an order needs
type StockRequirement struct {
	ItemID   uuid.UUID
	Quantity decimal.Decimal
}

// Order is the aggregate root for sales and purchase orders
type Order struct {
	shared.BaseDocument
	Type         OrderType
	Number       string
	ContactID    uuid.UUID
	Currency     valueobject.Currency
	Notes        string
	Lines        []Line
	Totals       valueobject.LineAmounts
	Status       OrderStatus
	ApprovedAt   *time.Time
	CancelledAt  *time.Time
	CancelReason string
	InvoicedAt   *time.Time
	InvoiceID    *uuid.UUID
}

// NewOrder creates a draft order owned by branchID
func NewOrder(branchID uuid.UUID, orderType OrderType, contactID uuid.UUID, currency valueobject.Currency) (*Order, error) {
	if branchID == uuid.Nil {
		return nil, shared.NewValidationError("BRANCH_REQUIRED", "Branch ID cannot be empty")
	}
	if !orderType.IsValid() {
		return nil, shared.NewValidationError("INVALID_ORDER_TYPE", fmt.Sprintf("Unknown order type %q", orderType))
	}
	if contactID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_CONTACT", "Contact ID cannot be empty")
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}

	doc := shared.NewBaseDocument(branchID)
	order := &Order{
		BaseDocument: doc,
		Type:         orderType,
		Number:       NewDocumentNumber(orderType.numberPrefix(), doc.CreatedAt),
		ContactID:    contactID,
		Currency:     currency,
		Lines:        make([]Line, 0),
		Status:       OrderStatusDraft,
	}
	order.AddDomainEvent(NewOrderCreatedEvent(order))
	return order, nil
}

// AddLine appends a priced line. Only draft orders can be edited.
func (o *Order) AddLine(in LineInput) (*Line, error) {
	if o.Status != OrderStatusDraft {
		return nil, shared.NewDomainError("ORDER_NOT_EDITABLE",
			fmt.Sprintf("Cannot add lines to an order in %s status", o.Status))
	}
	line, err := newLine(len(o.Lines)+1, in)
	if err != nil {
		return nil, err
	}
	o.Lines = append(o.Lines, line)
	o.recalculate()
	return &o.Lines[len(o.Lines)-1], nil
}

func (o *Order) recalculate() {
	o.Totals = totalsOf(o.Lines)
	o.Touch()
}

// StockRequirements sums line quantities per item for sales orders.
// Lines without an item reference need no stock. Items are returned in the
// order they first appear.
func (o *Order) StockRequirements() []StockRequirement {
	if o.Type != OrderTypeSales {
		return nil
	}
	var reqs []StockRequirement
	index := make(map[uuid.UUID]int)
	for _, l := range o.Lines {
		if l.ItemID == nil || l.Quantity.IsNegative() {
			continue
		}
		if i, ok := index[*l.ItemID]; ok {
			reqs[i].Quantity = reqs[i].Quantity.Add(l.Quantity)
			continue
		}
		index[*l.ItemID] = len(reqs)
		reqs = append(reqs, StockRequirement{ItemID: *l.ItemID, Quantity: l.Quantity})
	}
	return reqs
}

// Approve moves a draft order to APPROVED. Sales orders must pass the stock
// check for every item first; on failure the order stays DRAFT.
func (o *Order) Approve(ctx context.Context, stock StockValidator) error {
	next, err := orderMachine.Fire(o.Status, OrderActionApprove)
	if err != nil {
		return err
	}
	if len(o.Lines) == 0 {
		return shared.NewDomainError("EMPTY_ORDER", "Cannot approve an order without lines")
	}
	if stock != nil {
		for _, req := range o.StockRequirements() {
			if err := stock.ValidateAvailability(ctx, o.BranchID, req.ItemID, req.Quantity); err != nil {
				return err
			}
		}
	}

	now := time.Now()
	o.ApprovedAt = &now
	o.moveTo(next)
	return nil
}

// Cancel cancels a draft or approved order
func (o *Order) Cancel(reason string) error {
	next, err := orderMachine.Fire(o.Status, OrderActionCancel)
	if err != nil {
		return err
	}
	now := time.Now()
	o.CancelledAt = &now
	o.CancelReason = reason
	o.moveTo(next)
	return nil
}

// MarkInvoiced records the invoice produced from an approved order
func (o *Order) MarkInvoiced(invoiceID uuid.UUID) error {
	if invoiceID == uuid.Nil {
		return shared.NewValidationError("INVALID_INVOICE", "Invoice ID cannot be empty")
	}
	next, err := orderMachine.Fire(o.Status, OrderActionInvoice)
	if err != nil {
		return err
	}
	now := time.Now()
	o.InvoicedAt = &now
	o.InvoiceID = &invoiceID
	o.moveTo(next)
	return nil
}

// EnsureDeletable rejects deletion of orders that left DRAFT
func (o *Order) EnsureDeletable() error {
	if o.Status != OrderStatusDraft {
		return shared.NewDomainError("ORDER_NOT_DELETABLE",
			fmt.Sprintf("Only draft orders can be deleted, order is %s", o.Status))
	}
	return nil
}

// InvoiceLines converts the order lines into invoice line inputs
func (o *Order) InvoiceLines() []LineInput {
	out := make([]LineInput, len(o.Lines))
	for i, l := range o.Lines {
		out[i] = LineInput{
			ItemID:      l.ItemID,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			VatRate:     l.VatRate,
		}
	}
	return out
}

func (o *Order) moveTo(next OrderStatus) {
	from := o.Status
	o.Status = next
	o.Touch()
	o.AddDomainEvent(shared.NewStatusChanged(AggregateTypeOrder, o.ID, o.BranchID, from.String(), next.String()))
}
