package finance

import (
	"time"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypePayment is the aggregate type recorded on payment events.
const AggregateTypePayment = "Payment"

// EventTypePaymentRecorded is raised when a payment row is created
const EventTypePaymentRecorded = "Payment.recorded"

// PaymentDirection is the direction money moved
type PaymentDirection string

const (
	PaymentIn  PaymentDirection = "IN"
	PaymentOut PaymentDirection = "OUT"
)

// PaymentSourceCheque marks payments created by settling a cheque
const PaymentSourceCheque = "cheque"

// Payment records money moving into or out of a cash or bank account.
// Payments are immutable once recorded.
type Payment struct {
	shared.BaseDocument
	Number     string
	Direction  PaymentDirection
	Amount     decimal.Decimal
	Currency   valueobject.Currency
	AccountID  uuid.UUID
	ContactID  uuid.UUID
	SourceType string
	SourceID   *uuid.UUID
	PaidAt     time.Time
}

// NewChequePayment creates the payment that settles c into accountID.
// Amount and currency mirror the cheque.
func NewChequePayment(c *Cheque, accountID uuid.UUID) (*Payment, error) {
	if accountID == uuid.Nil {
		return nil, shared.NewValidationError("ACCOUNT_REQUIRED", "Account ID cannot be empty")
	}
	doc := shared.NewBaseDocument(c.BranchID)
	chequeID := c.ID
	p := &Payment{
		BaseDocument: doc,
		Number:       "PAY-" + c.Number,
		Direction:    c.Direction.PaymentDirection(),
		Amount:       valueobject.Round(c.Amount, valueobject.ScaleAmount),
		Currency:     c.Currency,
		AccountID:    accountID,
		ContactID:    c.ContactID,
		SourceType:   PaymentSourceCheque,
		SourceID:     &chequeID,
		PaidAt:       doc.CreatedAt,
	}
	p.AddDomainEvent(&PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRecorded, AggregateTypePayment, p.ID, p.BranchID),
		Direction:       p.Direction,
		Amount:          valueobject.Format(p.Amount, valueobject.ScaleAmount),
		Currency:        string(p.Currency),
		SourceType:      p.SourceType,
		SourceID:        chequeID,
	})
	return p, nil
}

// PaymentRecordedEvent is raised when a payment is recorded
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	Direction  PaymentDirection `json:"direction"`
	Amount     string           `json:"amount"`
	Currency   string           `json:"currency"`
	SourceType string           `json:"source_type"`
	SourceID   uuid.UUID        `json:"source_id"`
}
