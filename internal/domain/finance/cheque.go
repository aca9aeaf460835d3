package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/domain/shared/statemachine"
	"github.com/erp/backoffice/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeCheque is the aggregate type recorded on cheque events.
const AggregateTypeCheque = "Cheque"

// ChequeDirection tells whether the cheque was received or issued
type ChequeDirection string

const (
	ChequeInbound  ChequeDirection = "INBOUND"
	ChequeOutbound ChequeDirection = "OUTBOUND"
)

// IsValid checks if the direction is valid
func (d ChequeDirection) IsValid() bool {
	return d == ChequeInbound || d == ChequeOutbound
}

// PaymentDirection returns the direction of the payment that settles a
// cheque of this direction.
func (d ChequeDirection) PaymentDirection() PaymentDirection {
	if d == ChequeOutbound {
		return PaymentOut
	}
	return PaymentIn
}

// ChequeStatus represents the status of a cheque
type ChequeStatus string

const (
	ChequeStatusPending   ChequeStatus = "PENDING"
	ChequeStatusPaid      ChequeStatus = "PAID"
	ChequeStatusBounced   ChequeStatus = "BOUNCED"
	ChequeStatusEndorsed  ChequeStatus = "ENDORSED"
	ChequeStatusCancelled ChequeStatus = "CANCELLED"
)

// IsValid checks if the status is a valid ChequeStatus value
func (s ChequeStatus) IsValid() bool {
	switch s {
	case ChequeStatusPending, ChequeStatusPaid, ChequeStatusBounced, ChequeStatusEndorsed, ChequeStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of ChequeStatus
func (s ChequeStatus) String() string {
	return string(s)
}

// Cheque transitions are requested by target status, so the action type is
// the status itself.
var chequeMachine = statemachine.New("cheque", []statemachine.Transition[ChequeStatus, ChequeStatus]{
	{From: []ChequeStatus{ChequeStatusPending}, On: ChequeStatusPaid, To: ChequeStatusPaid},
	{From: []ChequeStatus{ChequeStatusPending}, On: ChequeStatusBounced, To: ChequeStatusBounced},
	{From: []ChequeStatus{ChequeStatusPending}, On: ChequeStatusEndorsed, To: ChequeStatusEndorsed},
	{From: []ChequeStatus{ChequeStatusPending, ChequeStatusEndorsed}, On: ChequeStatusCancelled, To: ChequeStatusCancelled},
}, ChequeStatusPaid, ChequeStatusBounced, ChequeStatusCancelled)

// ChequeMachine exposes the cheque transition table.
func ChequeMachine() *statemachine.Machine[ChequeStatus, ChequeStatus] {
	return chequeMachine
}

// Cheque is a received or issued cheque tracked until it is settled
type Cheque struct {
	shared.BaseDocument
	Direction       ChequeDirection
	Number          string
	BankName        string
	ContactID       uuid.UUID
	Amount          decimal.Decimal
	Currency        valueobject.Currency
	IssueDate       time.Time
	DueDate         time.Time
	Status          ChequeStatus
	StatusChangedAt *time.Time
	PaymentID       *uuid.UUID
}

// NewCheque registers a pending cheque
func NewCheque(branchID uuid.UUID, direction ChequeDirection, number string, contactID uuid.UUID,
	amount decimal.Decimal, currency valueobject.Currency, dueDate time.Time) (*Cheque, error) {
	if branchID == uuid.Nil {
		return nil, shared.NewValidationError("BRANCH_REQUIRED", "Branch ID cannot be empty")
	}
	if !direction.IsValid() {
		return nil, shared.NewValidationError("INVALID_DIRECTION", fmt.Sprintf("Unknown cheque direction %q", direction))
	}
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, shared.NewValidationError("INVALID_NUMBER", "Cheque number cannot be empty")
	}
	if contactID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_CONTACT", "Contact ID cannot be empty")
	}
	amount = valueobject.Round(amount, valueobject.ScaleAmount)
	if !amount.IsPositive() {
		return nil, shared.NewValidationError("INVALID_AMOUNT", "Cheque amount must be positive")
	}
	if dueDate.IsZero() {
		return nil, shared.NewValidationError("INVALID_DUE_DATE", "Due date is required")
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}

	doc := shared.NewBaseDocument(branchID)
	return &Cheque{
		BaseDocument: doc,
		Direction:    direction,
		Number:       number,
		ContactID:    contactID,
		Amount:       amount,
		Currency:     currency,
		IssueDate:    doc.CreatedAt,
		DueDate:      dueDate,
		Status:       ChequeStatusPending,
	}, nil
}

// ChangeStatus moves the cheque to target.
//
// A request for a terminal cheque always fails, including PAID to PAID.
// A request for the status the cheque already has is a no-op: changed is
// false and nothing must be written. Moving to PAID requires accountID and
// returns the settling payment, which the caller persists in the same unit of
// work as the cheque.
func (c *Cheque) ChangeStatus(target ChequeStatus, accountID *uuid.UUID) (changed bool, payment *Payment, err error) {
	if !target.IsValid() {
		return false, nil, shared.NewValidationError("INVALID_STATUS", fmt.Sprintf("Unknown cheque status %q", target))
	}
	if !chequeMachine.IsTerminal(c.Status) && target == c.Status {
		return false, nil, nil
	}
	next, err := chequeMachine.Fire(c.Status, target)
	if err != nil {
		return false, nil, err
	}

	if next == ChequeStatusPaid {
		if accountID == nil || *accountID == uuid.Nil {
			return false, nil, shared.NewValidationError("ACCOUNT_REQUIRED", "A cash or bank account is required to pay a cheque")
		}
		payment, err = NewChequePayment(c, *accountID)
		if err != nil {
			return false, nil, err
		}
		c.PaymentID = &payment.ID
	}

	now := time.Now()
	from := c.Status
	c.Status = next
	c.StatusChangedAt = &now
	c.Touch()
	c.AddDomainEvent(shared.NewStatusChanged(AggregateTypeCheque, c.ID, c.BranchID, from.String(), next.String()))
	return true, payment, nil
}

// AmountMoney returns the cheque amount as Money
func (c *Cheque) AmountMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(c.Amount, c.Currency)
	return m
}
