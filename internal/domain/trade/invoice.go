package trade

import (
	"fmt"
	"time"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/domain/shared/statemachine"
	"github.com/erp/backoffice/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// AggregateTypeInvoice is the aggregate type recorded on invoice events.
const AggregateTypeInvoice = "Invoice"

// InvoiceKind distinguishes sales from purchase invoices
type InvoiceKind string

const (
	InvoiceKindSales    InvoiceKind = "SALES"
	InvoiceKindPurchase InvoiceKind = "PURCHASE"
)

// IsValid checks if the invoice kind is valid
func (k InvoiceKind) IsValid() bool {
	return k == InvoiceKindSales || k == InvoiceKindPurchase
}

// SourceType names the document an invoice was produced from
type SourceType string

const (
	SourceManual      SourceType = ""
	SourceOrder       SourceType = "order"
	SourceExpenseList SourceType = "expense_list"
)

// InvoiceStatus represents the status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusIssued    InvoiceStatus = "ISSUED"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// InvoiceAction is a command applied to an invoice's status
type InvoiceAction string

const InvoiceActionCancel InvoiceAction = "cancel"

var invoiceMachine = statemachine.New("invoice", []statemachine.Transition[InvoiceStatus, InvoiceAction]{
	{From: []InvoiceStatus{InvoiceStatusIssued}, On: InvoiceActionCancel, To: InvoiceStatusCancelled},
}, InvoiceStatusCancelled)

// InvoiceSource links an invoice to the document it was produced from.
type InvoiceSource struct {
	Type SourceType
	ID   uuid.UUID
}

// Invoice is an issued sales or purchase invoice. Its totals are derived from
// its lines and never edited directly.
type Invoice struct {
	shared.BaseDocument
	Kind         InvoiceKind
	Number       string
	ContactID    uuid.UUID
	Currency     valueobject.Currency
	SourceType   SourceType
	SourceID     *uuid.UUID
	IssuedAt     time.Time
	Lines        []Line
	Totals       valueobject.LineAmounts
	Status       InvoiceStatus
	CancelledAt  *time.Time
	CancelReason string
}

// NewInvoice issues an invoice with the given lines
func NewInvoice(branchID uuid.UUID, kind InvoiceKind, contactID uuid.UUID, currency valueobject.Currency, source *InvoiceSource, lines []LineInput) (*Invoice, error) {
	if branchID == uuid.Nil {
		return nil, shared.NewValidationError("BRANCH_REQUIRED", "Branch ID cannot be empty")
	}
	if !kind.IsValid() {
		return nil, shared.NewValidationError("INVALID_INVOICE_KIND", fmt.Sprintf("Unknown invoice kind %q", kind))
	}
	if contactID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_CONTACT", "Contact ID cannot be empty")
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError("EMPTY_INVOICE", "An invoice needs at least one line")
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}

	doc := shared.NewBaseDocument(branchID)
	prefix := "SI"
	if kind == InvoiceKindPurchase {
		prefix = "PI"
	}
	inv := &Invoice{
		BaseDocument: doc,
		Kind:         kind,
		Number:       NewDocumentNumber(prefix, doc.CreatedAt),
		ContactID:    contactID,
		Currency:     currency,
		IssuedAt:     doc.CreatedAt,
		Lines:        make([]Line, 0, len(lines)),
		Status:       InvoiceStatusIssued,
	}
	if source != nil && source.Type != SourceManual {
		id := source.ID
		inv.SourceType = source.Type
		inv.SourceID = &id
	}
	for i, in := range lines {
		line, err := newLine(i+1, in)
		if err != nil {
			return nil, err
		}
		inv.Lines = append(inv.Lines, line)
	}
	inv.Totals = totalsOf(inv.Lines)

	inv.AddDomainEvent(NewInvoiceIssuedEvent(inv))
	return inv, nil
}

// Cancel cancels an issued invoice
func (i *Invoice) Cancel(reason string) error {
	next, err := invoiceMachine.Fire(i.Status, InvoiceActionCancel)
	if err != nil {
		return err
	}
	now := time.Now()
	from := i.Status
	i.Status = next
	i.CancelledAt = &now
	i.CancelReason = reason
	i.Touch()
	i.AddDomainEvent(shared.NewStatusChanged(AggregateTypeInvoice, i.ID, i.BranchID, from.String(), next.String()))
	return nil
}
