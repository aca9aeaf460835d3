package finance

import (
	"context"
	"fmt"

	"github.com/erp/backoffice/internal/application/command"
	appevent "github.com/erp/backoffice/internal/application/event"
	apptrade "github.com/erp/backoffice/internal/application/trade"
	"github.com/erp/backoffice/internal/domain/finance"
	"github.com/erp/backoffice/internal/domain/identity"
	"github.com/erp/backoffice/internal/domain/partner"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/domain/shared/valueobject"
	"github.com/erp/backoffice/internal/domain/trade"
	"github.com/erp/backoffice/internal/infrastructure/logger"
	"github.com/erp/backoffice/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handlers executes cheque, payment and expense list commands
type Handlers struct {
	cheques    finance.ChequeRepository
	payments   finance.PaymentRepository
	expenses   finance.ExpenseListRepository
	contacts   partner.ContactRepository
	events     shared.OutboxEventSaver
	dispatcher *command.Dispatcher
}

// NewHandlers creates the finance handlers
func NewHandlers(
	cheques finance.ChequeRepository,
	payments finance.PaymentRepository,
	expenses finance.ExpenseListRepository,
	contacts partner.ContactRepository,
	events shared.OutboxEventSaver,
) *Handlers {
	return &Handlers{
		cheques:  cheques,
		payments: payments,
		expenses: expenses,
		contacts: contacts,
		events:   events,
	}
}

// Register binds every finance command to d. Posting an expense list
// dispatches CreateInvoice, so the trade handlers must be registered on d too.
func (h *Handlers) Register(d *command.Dispatcher) {
	h.dispatcher = d
	command.Register(d, h.CreateCheque)
	command.Register(d, h.ChangeChequeStatus)
	command.Register(d, h.GetCheque)
	command.Register(d, h.ListCheques)
	command.Register(d, h.ListPayments)
	command.Register(d, h.CreateExpenseList)
	command.Register(d, h.AddExpenseLine)
	command.Register(d, h.RemoveExpenseLine)
	command.Register(d, h.ReviewExpenseList)
	command.Register(d, h.PostExpenseList)
	command.Register(d, h.DeleteExpenseList)
	command.Register(d, h.GetExpenseList)
}

// CreateCheque registers a pending cheque
func (h *Handlers) CreateCheque(ctx context.Context, cmd CreateCheque) (*ChequeResponse, error) {
	branchID, err := identity.FromContext(ctx).OwningBranch(cmd.BranchID)
	if err != nil {
		return nil, err
	}
	currency, err := valueobject.CurrencyOrDefault(cmd.Currency)
	if err != nil {
		return nil, err
	}
	if h.contacts != nil {
		if _, err := h.contacts.FindByID(ctx, cmd.ContactID); err != nil {
			return nil, err
		}
	}

	cheque, err := finance.NewCheque(branchID, finance.ChequeDirection(cmd.Direction), cmd.Number,
		cmd.ContactID, cmd.Amount, currency, cmd.DueDate)
	if err != nil {
		return nil, err
	}
	cheque.BankName = cmd.BankName

	if err := h.cheques.Create(ctx, cheque); err != nil {
		return nil, fmt.Errorf("create cheque: %w", err)
	}
	return ToChequeResponse(cheque), nil
}

// ChangeChequeStatus moves a cheque to the requested status.
//
// Asking for the status the cheque already has changes nothing and writes
// nothing. Paying a cheque records exactly one payment in the same unit of
// work; if the payment cannot be stored the status change is rolled back
// with it.
func (h *Handlers) ChangeChequeStatus(ctx context.Context, cmd ChangeChequeStatus) (*ChequeResponse, error) {
	cheque, err := h.cheques.FindByID(ctx, cmd.ID)
	if err != nil {
		return nil, err
	}
	expected, err := shared.CheckVersionToken(cheque.VersionToken, cmd.VersionToken)
	if err != nil {
		return nil, err
	}

	from := cheque.Status
	changed, payment, err := cheque.ChangeStatus(finance.ChequeStatus(cmd.Status), cmd.AccountID)
	if err != nil {
		return nil, err
	}
	if !changed {
		return ToChequeResponse(cheque), nil
	}
	telemetry.AnnotateTransition(ctx, finance.AggregateTypeCheque, cheque.ID.String(), from.String(), cheque.Status.String())

	if err := h.cheques.SaveWithVersion(ctx, cheque, expected); err != nil {
		return nil, err
	}
	sources := []appevent.Source{cheque}
	if payment != nil {
		if err := h.payments.Create(ctx, payment); err != nil {
			return nil, fmt.Errorf("record cheque payment: %w", err)
		}
		sources = append(sources, payment)
	}
	if err := appevent.Flush(ctx, h.events, sources...); err != nil {
		return nil, err
	}

	resp := ToChequeResponse(cheque)
	if payment != nil {
		resp.Payment = ToPaymentResponse(payment)
		logger.L(ctx).Info("Cheque paid",
			zap.String("cheque_id", cheque.ID.String()),
			zap.String("payment_id", payment.ID.String()),
			zap.String("amount", resp.Payment.Amount),
			zap.String("currency", resp.Payment.Currency),
		)
	}
	return resp, nil
}

// GetCheque returns a cheque visible to the caller
func (h *Handlers) GetCheque(ctx context.Context, cmd GetCheque) (*ChequeResponse, error) {
	cheque, err := h.cheques.FindByID(ctx, cmd.ID)
	if err != nil {
		return nil, err
	}
	return ToChequeResponse(cheque), nil
}

// ListCheques returns one page of the cheques visible to the caller
func (h *Handlers) ListCheques(ctx context.Context, cmd ListCheques) (*ListResponse[ChequeResponse], error) {
	filter := finance.ChequeFilter{
		Filter: shared.Filter{
			Page:     cmd.Page,
			PageSize: cmd.PageSize,
			OrderBy:  cmd.OrderBy,
			OrderDir: cmd.OrderDir,
			Status:   cmd.Status,
		}.Normalize(),
		Direction: finance.ChequeDirection(cmd.Direction),
	}
	cheques, total, err := h.cheques.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]ChequeResponse, len(cheques))
	for i := range cheques {
		items[i] = *ToChequeResponse(&cheques[i])
	}
	return newListResponse(items, total, filter.Filter), nil
}

// ListPayments returns one page of the payments visible to the caller
func (h *Handlers) ListPayments(ctx context.Context, cmd ListPayments) (*ListResponse[PaymentResponse], error) {
	filter := finance.PaymentFilter{
		Filter: shared.Filter{
			Page:     cmd.Page,
			PageSize: cmd.PageSize,
			OrderBy:  cmd.OrderBy,
			OrderDir: cmd.OrderDir,
		}.Normalize(),
		Direction:  finance.PaymentDirection(cmd.Direction),
		SourceType: cmd.SourceType,
		SourceID:   cmd.SourceID,
	}
	payments, total, err := h.payments.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]PaymentResponse, len(payments))
	for i := range payments {
		items[i] = *ToPaymentResponse(&payments[i])
	}
	return newListResponse(items, total, filter.Filter), nil
}

func newListResponse[T any](items []T, total int64, f shared.Filter) *ListResponse[T] {
	page := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &ListResponse[T]{
		Items:      page.Items,
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}
}

// CreateExpenseList opens an empty draft list
func (h *Handlers) CreateExpenseList(ctx context.Context, cmd CreateExpenseList) (*ExpenseListResponse, error) {
	branchID, err := identity.FromContext(ctx).OwningBranch(cmd.BranchID)
	if err != nil {
		return nil, err
	}
	currency, err := valueobject.CurrencyOrDefault(cmd.Currency)
	if err != nil {
		return nil, err
	}
	list, err := finance.NewExpenseList(branchID, cmd.Title, currency)
	if err != nil {
		return nil, err
	}
	if err := h.expenses.Create(ctx, list); err != nil {
		return nil, fmt.Errorf("create expense list: %w", err)
	}
	return ToExpenseListResponse(list), nil
}

// AddExpenseLine appends a line to a draft list
func (h *Handlers) AddExpenseLine(ctx context.Context, cmd AddExpenseLine) (*ExpenseListResponse, error) {
	return h.updateExpenseList(ctx, cmd.ID, cmd.VersionToken, func(l *finance.ExpenseList) error {
		_, err := l.AddLine(finance.ExpenseLineInput{
			Description: cmd.Description,
			ExpenseDate: cmd.ExpenseDate,
			Quantity:    cmd.Quantity,
			UnitPrice:   cmd.UnitPrice,
			VatRate:     cmd.VatRate,
		})
		return err
	})
}

// RemoveExpenseLine flags a line of a draft list as deleted
func (h *Handlers) RemoveExpenseLine(ctx context.Context, cmd RemoveExpenseLine) (*ExpenseListResponse, error) {
	return h.updateExpenseList(ctx, cmd.ID, cmd.VersionToken, func(l *finance.ExpenseList) error {
		return l.RemoveLine(cmd.LineID)
	})
}

// ReviewExpenseList marks a draft list with at least one line reviewed
func (h *Handlers) ReviewExpenseList(ctx context.Context, cmd ReviewExpenseList) (*ExpenseListResponse, error) {
	return h.updateExpenseList(ctx, cmd.ID, cmd.VersionToken, func(l *finance.ExpenseList) error {
		return l.Review()
	})
}

// PostExpenseList issues a purchase invoice for the active lines of a
// reviewed list against the chosen supplier, then marks the list posted.
func (h *Handlers) PostExpenseList(ctx context.Context, cmd PostExpenseList) (*ExpenseListResponse, error) {
	return h.updateExpenseList(ctx, cmd.ID, cmd.VersionToken, func(l *finance.ExpenseList) error {
		if err := l.CanPost(); err != nil {
			return err
		}
		active := l.ActiveLines()
		lines := make([]apptrade.LineInput, len(active))
		for i, line := range active {
			lines[i] = apptrade.LineInput{
				Description: line.Description,
				Quantity:    line.Quantity,
				UnitPrice:   line.UnitPrice,
				VatRate:     line.VatRate,
			}
		}

		branchID := l.BranchID
		listID := l.ID
		inv, err := command.DispatchAs[*apptrade.InvoiceResponse](ctx, h.dispatcher, apptrade.CreateInvoice{
			BranchID:   &branchID,
			Kind:       string(trade.InvoiceKindPurchase),
			ContactID:  cmd.SupplierID,
			Currency:   string(l.Currency),
			SourceType: string(trade.SourceExpenseList),
			SourceID:   &listID,
			Lines:      lines,
		})
		if err != nil {
			return err
		}
		return l.Post(cmd.SupplierID, inv.ID)
	})
}

// DeleteExpenseList soft-deletes a draft list
func (h *Handlers) DeleteExpenseList(ctx context.Context, cmd DeleteExpenseList) (*ExpenseListResponse, error) {
	list, expected, err := h.loadExpenseList(ctx, cmd.ID, cmd.VersionToken)
	if err != nil {
		return nil, err
	}
	if err := list.EnsureDeletable(); err != nil {
		return nil, err
	}
	if err := h.expenses.Delete(ctx, list, expected); err != nil {
		return nil, err
	}
	return ToExpenseListResponse(list), nil
}

// GetExpenseList returns an expense list visible to the caller
func (h *Handlers) GetExpenseList(ctx context.Context, cmd GetExpenseList) (*ExpenseListResponse, error) {
	find := h.expenses.FindByID
	if cmd.IncludeDeleted {
		find = h.expenses.FindByIDIncludingDeleted
	}
	list, err := find(ctx, cmd.ID)
	if err != nil {
		return nil, err
	}
	return ToExpenseListResponse(list), nil
}

func (h *Handlers) updateExpenseList(ctx context.Context, id uuid.UUID, token string, fn func(l *finance.ExpenseList) error) (*ExpenseListResponse, error) {
	list, expected, err := h.loadExpenseList(ctx, id, token)
	if err != nil {
		return nil, err
	}

	from := list.Status
	if err := fn(list); err != nil {
		return nil, err
	}
	if from != list.Status {
		telemetry.AnnotateTransition(ctx, finance.AggregateTypeExpenseList, list.ID.String(), from.String(), list.Status.String())
	}

	if err := h.expenses.SaveWithVersion(ctx, list, expected); err != nil {
		return nil, err
	}
	if err := appevent.Flush(ctx, h.events, list); err != nil {
		return nil, err
	}
	return ToExpenseListResponse(list), nil
}

func (h *Handlers) loadExpenseList(ctx context.Context, id uuid.UUID, token string) (*finance.ExpenseList, shared.VersionToken, error) {
	list, err := h.expenses.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	expected, err := shared.CheckVersionToken(list.VersionToken, token)
	if err != nil {
		return nil, nil, err
	}
	return list, expected, nil
}
