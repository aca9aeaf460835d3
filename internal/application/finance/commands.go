package finance

import (
	"time"

	"github.com/erp/backoffice/internal/application/command"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateCheque registers a received or issued cheque
type CreateCheque struct {
	command.TxRequired
	command.Keyed
	BranchID  *uuid.UUID      `json:"branch_id,omitempty"`
	Direction string          `json:"direction" validate:"required,oneof=INBOUND OUTBOUND"`
	Number    string          `json:"number" validate:"required,max=50"`
	BankName  string          `json:"bank_name,omitempty" validate:"max=100"`
	ContactID uuid.UUID       `json:"contact_id" validate:"required"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency,omitempty" validate:"omitempty,oneof=TRY USD EUR GBP"`
	DueDate   time.Time       `json:"due_date" validate:"required"`
}

func (CreateCheque) CommandName() string { return "CreateCheque" }

// ChangeChequeStatus moves a cheque to the requested status. Paying a cheque
// records its payment into AccountID.
type ChangeChequeStatus struct {
	command.TxRequired
	command.Keyed
	ID           uuid.UUID  `json:"id" validate:"required"`
	VersionToken string     `json:"version_token"`
	Status       string     `json:"status" validate:"required,oneof=PENDING PAID BOUNCED ENDORSED CANCELLED"`
	AccountID    *uuid.UUID `json:"account_id,omitempty"`
}

func (ChangeChequeStatus) CommandName() string { return "ChangeChequeStatus" }

// GetCheque reads one cheque
type GetCheque struct {
	ID uuid.UUID `json:"id" validate:"required"`
}

func (GetCheque) CommandName() string { return "GetCheque" }

// ListCheques reads one page of cheques
type ListCheques struct {
	Page      int    `json:"page,omitempty" validate:"omitempty,min=1"`
	PageSize  int    `json:"page_size,omitempty" validate:"omitempty,min=1,max=200"`
	OrderBy   string `json:"order_by,omitempty"`
	OrderDir  string `json:"order_dir,omitempty" validate:"omitempty,oneof=asc desc"`
	Status    string `json:"status,omitempty" validate:"omitempty,oneof=PENDING PAID BOUNCED ENDORSED CANCELLED"`
	Direction string `json:"direction,omitempty" validate:"omitempty,oneof=INBOUND OUTBOUND"`
}

func (ListCheques) CommandName() string { return "ListCheques" }

// ListPayments reads one page of payments
type ListPayments struct {
	Page       int        `json:"page,omitempty" validate:"omitempty,min=1"`
	PageSize   int        `json:"page_size,omitempty" validate:"omitempty,min=1,max=200"`
	OrderBy    string     `json:"order_by,omitempty"`
	OrderDir   string     `json:"order_dir,omitempty" validate:"omitempty,oneof=asc desc"`
	Direction  string     `json:"direction,omitempty" validate:"omitempty,oneof=IN OUT"`
	SourceType string     `json:"source_type,omitempty"`
	SourceID   *uuid.UUID `json:"source_id,omitempty"`
}

func (ListPayments) CommandName() string { return "ListPayments" }

// CreateExpenseList opens an empty draft expense list
type CreateExpenseList struct {
	command.TxRequired
	command.Keyed
	BranchID *uuid.UUID `json:"branch_id,omitempty"`
	Title    string     `json:"title" validate:"required,max=200"`
	Currency string     `json:"currency,omitempty" validate:"omitempty,oneof=TRY USD EUR GBP"`
}

func (CreateExpenseList) CommandName() string { return "CreateExpenseList" }

// AddExpenseLine appends a line to a draft list
type AddExpenseLine struct {
	command.TxRequired
	ID           uuid.UUID       `json:"id" validate:"required"`
	VersionToken string          `json:"version_token"`
	Description  string          `json:"description" validate:"required,max=500"`
	ExpenseDate  time.Time       `json:"expense_date"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	VatRate      decimal.Decimal `json:"vat_rate"`
}

func (AddExpenseLine) CommandName() string { return "AddExpenseLine" }

// RemoveExpenseLine flags a line of a draft list as deleted
type RemoveExpenseLine struct {
	command.TxRequired
	ID           uuid.UUID `json:"id" validate:"required"`
	VersionToken string    `json:"version_token"`
	LineID       uuid.UUID `json:"line_id" validate:"required"`
}

func (RemoveExpenseLine) CommandName() string { return "RemoveExpenseLine" }

// ReviewExpenseList marks a draft list reviewed
type ReviewExpenseList struct {
	command.TxRequired
	ID           uuid.UUID `json:"id" validate:"required"`
	VersionToken string    `json:"version_token"`
}

func (ReviewExpenseList) CommandName() string { return "ReviewExpenseList" }

// PostExpenseList turns a reviewed list into a purchase invoice
type PostExpenseList struct {
	command.TxRequired
	command.Keyed
	ID           uuid.UUID `json:"id" validate:"required"`
	VersionToken string    `json:"version_token"`
	SupplierID   uuid.UUID `json:"supplier_id" validate:"required"`
}

func (PostExpenseList) CommandName() string { return "PostExpenseList" }

// DeleteExpenseList soft-deletes a draft list
type DeleteExpenseList struct {
	command.TxRequired
	ID           uuid.UUID `json:"id" validate:"required"`
	VersionToken string    `json:"version_token"`
}

func (DeleteExpenseList) CommandName() string { return "DeleteExpenseList" }

// GetExpenseList reads one expense list, soft-deleted ones included on request
type GetExpenseList struct {
	ID             uuid.UUID `json:"id" validate:"required"`
	IncludeDeleted bool      `json:"include_deleted,omitempty"`
}

func (GetExpenseList) CommandName() string { return "GetExpenseList" }
