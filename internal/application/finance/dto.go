package finance

import (
	"time"

	apptrade "github.com/erp/backoffice/internal/application/trade"
	"github.com/erp/backoffice/internal/domain/finance"
	"github.com/erp/backoffice/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// PaymentResponse is the projection of a payment
type PaymentResponse struct {
	ID         uuid.UUID  `json:"id"`
	BranchID   uuid.UUID  `json:"branch_id"`
	Number     string     `json:"number"`
	Direction  string     `json:"direction"`
	Amount     string     `json:"amount"`
	Currency   string     `json:"currency"`
	AccountID  uuid.UUID  `json:"account_id"`
	ContactID  uuid.UUID  `json:"contact_id"`
	SourceType string     `json:"source_type,omitempty"`
	SourceID   *uuid.UUID `json:"source_id,omitempty"`
	PaidAt     time.Time  `json:"paid_at"`
}

// ChequeResponse is the projection of a cheque. Payment is set only on the
// response to the command that paid the cheque.
type ChequeResponse struct {
	ID              uuid.UUID        `json:"id"`
	BranchID        uuid.UUID        `json:"branch_id"`
	Direction       string           `json:"direction"`
	Number          string           `json:"number"`
	BankName        string           `json:"bank_name,omitempty"`
	ContactID       uuid.UUID        `json:"contact_id"`
	Amount          string           `json:"amount"`
	Currency        string           `json:"currency"`
	IssueDate       time.Time        `json:"issue_date"`
	DueDate         time.Time        `json:"due_date"`
	Status          string           `json:"status"`
	StatusChangedAt *time.Time       `json:"status_changed_at,omitempty"`
	PaymentID       *uuid.UUID       `json:"payment_id,omitempty"`
	Payment         *PaymentResponse `json:"payment,omitempty"`
	VersionToken    string           `json:"version_token"`
}

// ExpenseLineResponse is one line of an expense list
type ExpenseLineResponse struct {
	ID          uuid.UUID `json:"id"`
	LineNo      int       `json:"line_no"`
	Description string    `json:"description"`
	ExpenseDate time.Time `json:"expense_date"`
	Quantity    string    `json:"quantity"`
	UnitPrice   string    `json:"unit_price"`
	VatRate     string    `json:"vat_rate"`
	Net         string    `json:"net"`
	Vat         string    `json:"vat"`
	Gross       string    `json:"gross"`
	Deleted     bool      `json:"deleted"`
	Consumed    bool      `json:"consumed"`
}

// ExpenseListResponse is the projection of an expense list
type ExpenseListResponse struct {
	ID           uuid.UUID               `json:"id"`
	BranchID     uuid.UUID               `json:"branch_id"`
	Number       string                  `json:"number"`
	Title        string                  `json:"title"`
	Currency     string                  `json:"currency"`
	Status       string                  `json:"status"`
	Lines        []ExpenseLineResponse   `json:"lines"`
	Totals       apptrade.TotalsResponse `json:"totals"`
	SupplierID   *uuid.UUID              `json:"supplier_id,omitempty"`
	InvoiceID    *uuid.UUID              `json:"invoice_id,omitempty"`
	ReviewedAt   *time.Time              `json:"reviewed_at,omitempty"`
	PostedAt     *time.Time              `json:"posted_at,omitempty"`
	DeletedAt    *time.Time              `json:"deleted_at,omitempty"`
	VersionToken string                  `json:"version_token"`
}

// ListResponse is one page of projections
type ListResponse[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

func amount(m valueobject.Money) string {
	return valueobject.Format(m.Amount(), valueobject.ScaleAmount)
}

// ToPaymentResponse projects a payment
func ToPaymentResponse(p *finance.Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:         p.ID,
		BranchID:   p.BranchID,
		Number:     p.Number,
		Direction:  string(p.Direction),
		Amount:     valueobject.Format(p.Amount, valueobject.ScaleAmount),
		Currency:   string(p.Currency),
		AccountID:  p.AccountID,
		ContactID:  p.ContactID,
		SourceType: p.SourceType,
		SourceID:   p.SourceID,
		PaidAt:     p.PaidAt,
	}
}

// ToChequeResponse projects a cheque
func ToChequeResponse(c *finance.Cheque) *ChequeResponse {
	return &ChequeResponse{
		ID:              c.ID,
		BranchID:        c.BranchID,
		Direction:       string(c.Direction),
		Number:          c.Number,
		BankName:        c.BankName,
		ContactID:       c.ContactID,
		Amount:          amount(c.AmountMoney()),
		Currency:        string(c.Currency),
		IssueDate:       c.IssueDate,
		DueDate:         c.DueDate,
		Status:          c.Status.String(),
		StatusChangedAt: c.StatusChangedAt,
		PaymentID:       c.PaymentID,
		VersionToken:    c.VersionToken.Encode(),
	}
}

// ToExpenseListResponse projects an expense list
func ToExpenseListResponse(l *finance.ExpenseList) *ExpenseListResponse {
	lines := make([]ExpenseLineResponse, len(l.Lines))
	for i, line := range l.Lines {
		lines[i] = ExpenseLineResponse{
			ID:          line.ID,
			LineNo:      line.LineNo,
			Description: line.Description,
			ExpenseDate: line.ExpenseDate,
			Quantity:    valueobject.Format(line.Quantity, valueobject.ScaleQuantity),
			UnitPrice:   valueobject.Format(line.UnitPrice, valueobject.ScaleQuantity),
			VatRate:     valueobject.Format(line.VatRate, valueobject.ScaleRate),
			Net:         valueobject.Format(line.Net, valueobject.ScaleAmount),
			Vat:         valueobject.Format(line.Vat, valueobject.ScaleAmount),
			Gross:       valueobject.Format(line.Gross, valueobject.ScaleAmount),
			Deleted:     line.Deleted,
			Consumed:    line.Consumed,
		}
	}
	return &ExpenseListResponse{
		ID:           l.ID,
		BranchID:     l.BranchID,
		Number:       l.Number,
		Title:        l.Title,
		Currency:     string(l.Currency),
		Status:       l.Status.String(),
		Lines:        lines,
		Totals:       apptrade.ToTotalsResponse(l.Totals),
		SupplierID:   l.SupplierID,
		InvoiceID:    l.InvoiceID,
		ReviewedAt:   l.ReviewedAt,
		PostedAt:     l.PostedAt,
		DeletedAt:    l.DeletedAt,
		VersionToken: l.VersionToken.Encode(),
	}
}
