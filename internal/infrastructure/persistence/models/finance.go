package models

import (
	"time"

	"github.com/erp/backoffice/internal/domain/finance"
	"github.com/erp/backoffice/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ChequeModel is the persistence model for the Cheque aggregate root.
type ChequeModel struct {
	DocumentModel
	Direction       finance.ChequeDirection `gorm:"type:varchar(20);not null;index"`
	Number          string                  `gorm:"type:varchar(50);not null;index"`
	BankName        string                  `gorm:"type:varchar(200)"`
	ContactID       uuid.UUID               `gorm:"type:uuid;not null;index"`
	Amount          decimal.Decimal         `gorm:"type:decimal(18,2);not null"`
	Currency        string                  `gorm:"type:varchar(3);not null"`
	IssueDate       time.Time               `gorm:"not null"`
	DueDate         time.Time               `gorm:"not null;index"`
	Status          finance.ChequeStatus    `gorm:"type:varchar(20);not null;index"`
	StatusChangedAt *time.Time
	PaymentID       *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (ChequeModel) TableName() string {
	return "cheques"
}

// ToDomain converts the persistence model to a domain Cheque
func (m *ChequeModel) ToDomain() *finance.Cheque {
	return &finance.Cheque{
		BaseDocument:    m.ToDomainDocument(),
		Direction:       m.Direction,
		Number:          m.Number,
		BankName:        m.BankName,
		ContactID:       m.ContactID,
		Amount:          m.Amount,
		Currency:        valueobject.Currency(m.Currency),
		IssueDate:       m.IssueDate,
		DueDate:         m.DueDate,
		Status:          m.Status,
		StatusChangedAt: m.StatusChangedAt,
		PaymentID:       m.PaymentID,
	}
}

// FromDomain populates the persistence model from a domain Cheque
func (m *ChequeModel) FromDomain(c *finance.Cheque) {
	m.FromDomainDocument(c.BaseDocument)
	m.Direction = c.Direction
	m.Number = c.Number
	m.BankName = c.BankName
	m.ContactID = c.ContactID
	m.Amount = c.Amount
	m.Currency = string(c.Currency)
	m.IssueDate = c.IssueDate
	m.DueDate = c.DueDate
	m.Status = c.Status
	m.StatusChangedAt = c.StatusChangedAt
	m.PaymentID = c.PaymentID
}

// StateColumns returns the mutable columns written by a guarded update
func (m *ChequeModel) StateColumns() map[string]any {
	return map[string]any{
		"status":            m.Status,
		"status_changed_at": m.StatusChangedAt,
		"payment_id":        m.PaymentID,
	}
}

// ChequeModelFromDomain creates a new persistence model from a domain Cheque
func ChequeModelFromDomain(c *finance.Cheque) *ChequeModel {
	m := &ChequeModel{}
	m.FromDomain(c)
	return m
}

// PaymentModel is the persistence model for the Payment aggregate root.
type PaymentModel struct {
	DocumentModel
	Number     string                   `gorm:"type:varchar(50);not null;index"`
	Direction  finance.PaymentDirection `gorm:"type:varchar(10);not null;index"`
	Amount     decimal.Decimal          `gorm:"type:decimal(18,2);not null"`
	Currency   string                   `gorm:"type:varchar(3);not null"`
	AccountID  uuid.UUID                `gorm:"type:uuid;not null;index"`
	ContactID  uuid.UUID                `gorm:"type:uuid;not null;index"`
	SourceType string                   `gorm:"type:varchar(30);index:idx_payment_source,priority:1"`
	SourceID   *uuid.UUID               `gorm:"type:uuid;index:idx_payment_source,priority:2"`
	PaidAt     time.Time                `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment
func (m *PaymentModel) ToDomain() *finance.Payment {
	return &finance.Payment{
		BaseDocument: m.ToDomainDocument(),
		Number:       m.Number,
		Direction:    m.Direction,
		Amount:       m.Amount,
		Currency:     valueobject.Currency(m.Currency),
		AccountID:    m.AccountID,
		ContactID:    m.ContactID,
		SourceType:   m.SourceType,
		SourceID:     m.SourceID,
		PaidAt:       m.PaidAt,
	}
}

// FromDomain populates the persistence model from a domain Payment
func (m *PaymentModel) FromDomain(p *finance.Payment) {
	m.FromDomainDocument(p.BaseDocument)
	m.Number = p.Number
	m.Direction = p.Direction
	m.Amount = p.Amount
	m.Currency = string(p.Currency)
	m.AccountID = p.AccountID
	m.ContactID = p.ContactID
	m.SourceType = p.SourceType
	m.SourceID = p.SourceID
	m.PaidAt = p.PaidAt
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment
func PaymentModelFromDomain(p *finance.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(p)
	return m
}

// ExpenseListModel is the persistence model for the ExpenseList aggregate root.
type ExpenseListModel struct {
	DocumentModel
	TotalColumns
	Number     string                    `gorm:"type:varchar(50);not null;uniqueIndex:idx_expense_lists_number,where:deleted_at IS NULL"`
	Title      string                    `gorm:"type:varchar(200);not null"`
	Currency   string                    `gorm:"type:varchar(3);not null"`
	Status     finance.ExpenseListStatus `gorm:"type:varchar(20);not null;index"`
	SupplierID *uuid.UUID                `gorm:"type:uuid"`
	InvoiceID  *uuid.UUID                `gorm:"type:uuid"`
	ReviewedAt *time.Time
	PostedAt   *time.Time
	Lines      []ExpenseLineModel `gorm:"foreignKey:ExpenseListID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (ExpenseListModel) TableName() string {
	return "expense_lists"
}

// ToDomain converts the persistence model to a domain ExpenseList
func (m *ExpenseListModel) ToDomain() *finance.ExpenseList {
	l := &finance.ExpenseList{
		BaseDocument: m.ToDomainDocument(),
		Number:       m.Number,
		Title:        m.Title,
		Currency:     valueobject.Currency(m.Currency),
		Totals:       m.TotalColumns.toDomain(),
		Status:       m.Status,
		SupplierID:   m.SupplierID,
		InvoiceID:    m.InvoiceID,
		ReviewedAt:   m.ReviewedAt,
		PostedAt:     m.PostedAt,
		Lines:        make([]finance.ExpenseLine, 0, len(m.Lines)),
	}
	for i := range m.Lines {
		l.Lines = append(l.Lines, m.Lines[i].ToDomain())
	}
	return l
}

// FromDomain populates the persistence model from a domain ExpenseList
func (m *ExpenseListModel) FromDomain(l *finance.ExpenseList) {
	m.FromDomainDocument(l.BaseDocument)
	m.TotalColumns = totalColumnsFrom(l.Totals)
	m.Number = l.Number
	m.Title = l.Title
	m.Currency = string(l.Currency)
	m.Status = l.Status
	m.SupplierID = l.SupplierID
	m.InvoiceID = l.InvoiceID
	m.ReviewedAt = l.ReviewedAt
	m.PostedAt = l.PostedAt
	m.Lines = make([]ExpenseLineModel, 0, len(l.Lines))
	for _, line := range l.Lines {
		m.Lines = append(m.Lines, ExpenseLineModelFromDomain(l.ID, line))
	}
}

// StateColumns returns the mutable columns written by a guarded update
func (m *ExpenseListModel) StateColumns() map[string]any {
	cols := m.TotalColumns.Columns()
	cols["title"] = m.Title
	cols["status"] = m.Status
	cols["supplier_id"] = m.SupplierID
	cols["invoice_id"] = m.InvoiceID
	cols["reviewed_at"] = m.ReviewedAt
	cols["posted_at"] = m.PostedAt
	return cols
}

// ExpenseListModelFromDomain creates a new persistence model from a domain ExpenseList
func ExpenseListModelFromDomain(l *finance.ExpenseList) *ExpenseListModel {
	m := &ExpenseListModel{}
	m.FromDomain(l)
	return m
}

// ExpenseLineModel is the persistence model for an expense line.
type ExpenseLineModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	ExpenseListID uuid.UUID `gorm:"type:uuid;not null;index"`
	LineNo        int       `gorm:"not null"`
	Description   string    `gorm:"type:varchar(500)"`
	ExpenseDate   time.Time `gorm:"not null"`
	PricedColumns
	Deleted  bool `gorm:"not null;default:false"`
	Consumed bool `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (ExpenseLineModel) TableName() string {
	return "expense_lines"
}

// ToDomain converts the persistence model to a domain ExpenseLine
func (m *ExpenseLineModel) ToDomain() finance.ExpenseLine {
	return finance.ExpenseLine{
		ID:          m.ID,
		LineNo:      m.LineNo,
		Description: m.Description,
		ExpenseDate: m.ExpenseDate,
		PricedLine:  m.PricedColumns.toDomain(),
		Deleted:     m.Deleted,
		Consumed:    m.Consumed,
	}
}

// ExpenseLineModelFromDomain creates a line model owned by listID
func ExpenseLineModelFromDomain(listID uuid.UUID, l finance.ExpenseLine) ExpenseLineModel {
	return ExpenseLineModel{
		ID:            l.ID,
		ExpenseListID: listID,
		LineNo:        l.LineNo,
		Description:   l.Description,
		ExpenseDate:   l.ExpenseDate,
		PricedColumns: pricedColumnsFrom(l.PricedLine),
		Deleted:       l.Deleted,
		Consumed:      l.Consumed,
	}
}
