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

// AggregateTypeExpenseList is the aggregate type recorded on expense list events.
const AggregateTypeExpenseList = "ExpenseList"

// ExpenseListStatus represents the status of an expense list
type ExpenseListStatus string

const (
	ExpenseListDraft    ExpenseListStatus = "DRAFT"
	ExpenseListReviewed ExpenseListStatus = "REVIEWED"
	ExpenseListPosted   ExpenseListStatus = "POSTED"
)

// String returns the string representation of ExpenseListStatus
func (s ExpenseListStatus) String() string {
	return string(s)
}

// ExpenseListAction is a command applied to an expense list's status
type ExpenseListAction string

const (
	ExpenseListActionReview ExpenseListAction = "review"
	ExpenseListActionPost   ExpenseListAction = "post"
)

var expenseListMachine = statemachine.New("expense list", []statemachine.Transition[ExpenseListStatus, ExpenseListAction]{
	{From: []ExpenseListStatus{ExpenseListDraft}, On: ExpenseListActionReview, To: ExpenseListReviewed},
	{From: []ExpenseListStatus{ExpenseListReviewed}, On: ExpenseListActionPost, To: ExpenseListPosted},
}, ExpenseListPosted)

// ExpenseListMachine exposes the expense list transition table.
func ExpenseListMachine() *statemachine.Machine[ExpenseListStatus, ExpenseListAction] {
	return expenseListMachine
}

// ExpenseLineInput is the caller-supplied part of an expense line
type ExpenseLineInput struct {
	Description string
	ExpenseDate time.Time
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	VatRate     decimal.Decimal
}

// ExpenseLine is one expense on a list. Removed lines are kept and flagged.
type ExpenseLine struct {
	ID          uuid.UUID
	LineNo      int
	Description string
	ExpenseDate time.Time
	valueobject.PricedLine
	Deleted  bool
	Consumed bool
}

// ExpenseList collects expenses that are posted together as one purchase invoice
type ExpenseList struct {
	shared.BaseDocument
	Number     string
	Title      string
	Currency   valueobject.Currency
	Lines      []ExpenseLine
	Totals     valueobject.LineAmounts
	Status     ExpenseListStatus
	SupplierID *uuid.UUID
	InvoiceID  *uuid.UUID
	ReviewedAt *time.Time
	PostedAt   *time.Time
}

// NewExpenseList creates an empty draft list
func NewExpenseList(branchID uuid.UUID, title string, currency valueobject.Currency) (*ExpenseList, error) {
	if branchID == uuid.Nil {
		return nil, shared.NewValidationError("BRANCH_REQUIRED", "Branch ID cannot be empty")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, shared.NewValidationError("INVALID_TITLE", "Title cannot be empty")
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	doc := shared.NewBaseDocument(branchID)
	return &ExpenseList{
		BaseDocument: doc,
		Number:       fmt.Sprintf("EXP-%s-%s", doc.CreatedAt.Format("20060102"), strings.ToUpper(doc.ID.String()[:8])),
		Title:        title,
		Currency:     currency,
		Lines:        make([]ExpenseLine, 0),
		Status:       ExpenseListDraft,
	}, nil
}

func (l *ExpenseList) ensureDraft(op string) error {
	if l.Status != ExpenseListDraft {
		return shared.NewDomainError("EXPENSE_LIST_NOT_EDITABLE",
			fmt.Sprintf("Cannot %s an expense list in %s status", op, l.Status))
	}
	return nil
}

// AddLine appends an expense line to a draft list
func (l *ExpenseList) AddLine(in ExpenseLineInput) (*ExpenseLine, error) {
	if err := l.ensureDraft("edit"); err != nil {
		return nil, err
	}
	priced, err := valueobject.NewPricedLine(in.Quantity, in.UnitPrice, in.VatRate)
	if err != nil {
		return nil, err
	}
	date := in.ExpenseDate
	if date.IsZero() {
		date = time.Now()
	}
	l.Lines = append(l.Lines, ExpenseLine{
		ID:          uuid.New(),
		LineNo:      len(l.Lines) + 1,
		Description: strings.TrimSpace(in.Description),
		ExpenseDate: date,
		PricedLine:  priced,
	})
	l.recalculate()
	return &l.Lines[len(l.Lines)-1], nil
}

// RemoveLine flags a line as deleted. The line stays on the list for audit.
func (l *ExpenseList) RemoveLine(lineID uuid.UUID) error {
	if err := l.ensureDraft("edit"); err != nil {
		return err
	}
	for i := range l.Lines {
		if l.Lines[i].ID == lineID && !l.Lines[i].Deleted {
			l.Lines[i].Deleted = true
			l.recalculate()
			return nil
		}
	}
	return shared.NewNotFoundError("expense line")
}

// ActiveLines returns the lines that were not removed
func (l *ExpenseList) ActiveLines() []ExpenseLine {
	active := make([]ExpenseLine, 0, len(l.Lines))
	for _, line := range l.Lines {
		if !line.Deleted {
			active = append(active, line)
		}
	}
	return active
}

func (l *ExpenseList) recalculate() {
	active := l.ActiveLines()
	priced := make([]valueobject.PricedLine, len(active))
	for i, line := range active {
		priced[i] = line.PricedLine
	}
	l.Totals = valueobject.TotalsOf(priced)
	l.Touch()
}

// Review marks a draft list as reviewed. The list needs at least one active line.
func (l *ExpenseList) Review() error {
	next, err := expenseListMachine.Fire(l.Status, ExpenseListActionReview)
	if err != nil {
		return err
	}
	if len(l.ActiveLines()) == 0 {
		return shared.NewDomainError("EMPTY_EXPENSE_LIST", "Cannot review an expense list without lines")
	}
	now := time.Now()
	l.ReviewedAt = &now
	l.moveTo(next)
	return nil
}

// CanPost reports why the list cannot be posted, if it cannot.
func (l *ExpenseList) CanPost() error {
	_, err := expenseListMachine.Fire(l.Status, ExpenseListActionPost)
	return err
}

// Post records the purchase invoice created from the list and marks its
// active lines consumed.
func (l *ExpenseList) Post(supplierID, invoiceID uuid.UUID) error {
	next, err := expenseListMachine.Fire(l.Status, ExpenseListActionPost)
	if err != nil {
		return err
	}
	if supplierID == uuid.Nil {
		return shared.NewValidationError("SUPPLIER_REQUIRED", "Supplier ID cannot be empty")
	}
	if invoiceID == uuid.Nil {
		return shared.NewValidationError("INVALID_INVOICE", "Invoice ID cannot be empty")
	}
	for i := range l.Lines {
		if !l.Lines[i].Deleted {
			l.Lines[i].Consumed = true
		}
	}
	now := time.Now()
	l.SupplierID = &supplierID
	l.InvoiceID = &invoiceID
	l.PostedAt = &now
	l.moveTo(next)
	return nil
}

// EnsureDeletable rejects deletion of lists that left DRAFT
func (l *ExpenseList) EnsureDeletable() error {
	if l.Status != ExpenseListDraft {
		return shared.NewDomainError("EXPENSE_LIST_NOT_DELETABLE",
			fmt.Sprintf("Only draft expense lists can be deleted, list is %s", l.Status))
	}
	return nil
}

func (l *ExpenseList) moveTo(next ExpenseListStatus) {
	from := l.Status
	l.Status = next
	l.Touch()
	l.AddDomainEvent(shared.NewStatusChanged(AggregateTypeExpenseList, l.ID, l.BranchID, from.String(), next.String()))
}
