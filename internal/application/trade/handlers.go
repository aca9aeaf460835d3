package trade

import (
	"context"
	"fmt"

	"github.com/erp/backoffice/internal/application/command"
	appevent "github.com/erp/backoffice/internal/application/event"
	"github.com/erp/backoffice/internal/domain/identity"
	"github.com/erp/backoffice/internal/domain/inventory"
	"github.com/erp/backoffice/internal/domain/partner"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/domain/shared/valueobject"
	"github.com/erp/backoffice/internal/domain/trade"
	"github.com/erp/backoffice/internal/infrastructure/logger"
	"github.com/erp/backoffice/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StockService validates availability on approval and reports stock for
// CheckOrderStock
type StockService interface {
	trade.StockValidator
	GetStockStatus(ctx context.Context, branchID uuid.UUID, itemIDs []uuid.UUID) ([]inventory.StockStatus, error)
}

// Handlers executes order and invoice commands
type Handlers struct {
	orders     trade.OrderRepository
	invoices   trade.InvoiceRepository
	contacts   partner.ContactRepository
	stock      StockService
	events     shared.OutboxEventSaver
	dispatcher *command.Dispatcher
}

// NewHandlers creates the trade handlers. events may be nil when no outbox
// is wired.
func NewHandlers(
	orders trade.OrderRepository,
	invoices trade.InvoiceRepository,
	contacts partner.ContactRepository,
	stock StockService,
	events shared.OutboxEventSaver,
) *Handlers {
	return &Handlers{
		orders:   orders,
		invoices: invoices,
		contacts: contacts,
		stock:    stock,
		events:   events,
	}
}

// Register binds every trade command to d. Invoicing an order dispatches
// CreateInvoice through d.
func (h *Handlers) Register(d *command.Dispatcher) {
	h.dispatcher = d
	command.Register(d, h.CreateOrder)
	command.Register(d, h.ApproveOrder)
	command.Register(d, h.CancelOrder)
	command.Register(d, h.InvoiceOrder)
	command.Register(d, h.DeleteOrder)
	command.Register(d, h.GetOrder)
	command.Register(d, h.ListOrders)
	command.Register(d, h.CheckOrderStock)
	command.Register(d, h.CreateInvoice)
	command.Register(d, h.CancelInvoice)
	command.Register(d, h.GetInvoice)
}

// CreateOrder drafts an order in the caller's branch
func (h *Handlers) CreateOrder(ctx context.Context, cmd CreateOrder) (*OrderResponse, error) {
	branchID, err := identity.FromContext(ctx).OwningBranch(cmd.BranchID)
	if err != nil {
		return nil, err
	}
	currency, err := valueobject.CurrencyOrDefault(cmd.Currency)
	if err != nil {
		return nil, err
	}
	orderType := trade.OrderType(cmd.Type)
	if err := h.checkContact(ctx, cmd.ContactID, orderType.InvoiceKind()); err != nil {
		return nil, err
	}

	order, err := trade.NewOrder(branchID, orderType, cmd.ContactID, currency)
	if err != nil {
		return nil, err
	}
	order.Notes = cmd.Notes
	for _, line := range toDomainLines(cmd.Lines) {
		if _, err := order.AddLine(line); err != nil {
			return nil, err
		}
	}

	if err := h.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	if err := appevent.Flush(ctx, h.events, order); err != nil {
		return nil, err
	}

	logger.L(ctx).Info("Order created",
		zap.String("order_id", order.ID.String()),
		zap.String("number", order.Number),
	)
	return ToOrderResponse(order), nil
}

// ApproveOrder approves a draft order. Sales orders must pass the stock check
// of their branch first.
func (h *Handlers) ApproveOrder(ctx context.Context, cmd ApproveOrder) (*OrderResponse, error) {
	return h.transitionOrder(ctx, cmd.ID, cmd.VersionToken, func(o *trade.Order) error {
		return o.Approve(ctx, h.stock)
	})
}

// CancelOrder cancels a draft or approved order
func (h *Handlers) CancelOrder(ctx context.Context, cmd CancelOrder) (*OrderResponse, error) {
	return h.transitionOrder(ctx, cmd.ID, cmd.VersionToken, func(o *trade.Order) error {
		return o.Cancel(cmd.Reason)
	})
}

// InvoiceOrder issues the invoice of an approved order and marks the order
// invoiced in the same unit of work.
func (h *Handlers) InvoiceOrder(ctx context.Context, cmd InvoiceOrder) (*OrderResponse, error) {
	return h.transitionOrder(ctx, cmd.ID, cmd.VersionToken, func(o *trade.Order) error {
		if _, err := trade.OrderMachine().Fire(o.Status, trade.OrderActionInvoice); err != nil {
			return err
		}
		branchID := o.BranchID
		sourceID := o.ID
		inv, err := command.DispatchAs[*InvoiceResponse](ctx, h.dispatcher, CreateInvoice{
			BranchID:   &branchID,
			Kind:       string(o.Type.InvoiceKind()),
			ContactID:  o.ContactID,
			Currency:   string(o.Currency),
			SourceType: string(trade.SourceOrder),
			SourceID:   &sourceID,
			Lines:      fromDomainLines(o.InvoiceLines()),
		})
		if err != nil {
			return err
		}
		return o.MarkInvoiced(inv.ID)
	})
}

// DeleteOrder soft-deletes a draft order
func (h *Handlers) DeleteOrder(ctx context.Context, cmd DeleteOrder) (*OrderResponse, error) {
	order, expected, err := h.loadOrder(ctx, cmd.ID, cmd.VersionToken)
	if err != nil {
		return nil, err
	}
	if err := order.EnsureDeletable(); err != nil {
		return nil, err
	}
	if err := h.orders.Delete(ctx, order, expected); err != nil {
		return nil, err
	}
	return ToOrderResponse(order), nil
}

// GetOrder returns an order visible to the caller
func (h *Handlers) GetOrder(ctx context.Context, cmd GetOrder) (*OrderResponse, error) {
	find := h.orders.FindByID
	if cmd.IncludeDeleted {
		find = h.orders.FindByIDIncludingDeleted
	}
	order, err := find(ctx, cmd.ID)
	if err != nil {
		return nil, err
	}
	return ToOrderResponse(order), nil
}

// CheckOrderStock reads the order's stock requirements at the order's branch.
// Purchase orders and lines without an item have none.
func (h *Handlers) CheckOrderStock(ctx context.Context, cmd CheckOrderStock) (*OrderStockResponse, error) {
	order, err := h.orders.FindByID(ctx, cmd.ID)
	if err != nil {
		return nil, err
	}

	reqs := order.StockRequirements()
	resp := &OrderStockResponse{
		OrderID:    order.ID,
		BranchID:   order.BranchID,
		Items:      make([]StockLineResponse, len(reqs)),
		Sufficient: true,
	}
	if len(reqs) == 0 {
		return resp, nil
	}

	itemIDs := make([]uuid.UUID, len(reqs))
	for i, r := range reqs {
		itemIDs[i] = r.ItemID
	}
	statuses, err := h.stock.GetStockStatus(ctx, order.BranchID, itemIDs)
	if err != nil {
		return nil, err
	}
	for i, r := range reqs {
		available := statuses[i].Available
		ok := !available.LessThan(r.Quantity)
		resp.Items[i] = StockLineResponse{
			ItemID:     r.ItemID,
			Required:   valueobject.Format(r.Quantity, valueobject.ScaleQuantity),
			Available:  valueobject.Format(available, valueobject.ScaleQuantity),
			Sufficient: ok,
		}
		resp.Sufficient = resp.Sufficient && ok
	}
	return resp, nil
}

// ListOrders returns one page of the orders visible to the caller
func (h *Handlers) ListOrders(ctx context.Context, cmd ListOrders) (*OrderListResponse, error) {
	filter := trade.OrderFilter{
		Filter: shared.Filter{
			Page:     cmd.Page,
			PageSize: cmd.PageSize,
			OrderBy:  cmd.OrderBy,
			OrderDir: cmd.OrderDir,
			Status:   cmd.Status,
		}.Normalize(),
		Type:      trade.OrderType(cmd.Type),
		ContactID: cmd.ContactID,
	}
	orders, total, err := h.orders.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]OrderResponse, len(orders))
	for i := range orders {
		items[i] = *ToOrderResponse(&orders[i])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &OrderListResponse{
		Items:      page.Items,
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}, nil
}

// CreateInvoice issues an invoice against a customer or supplier
func (h *Handlers) CreateInvoice(ctx context.Context, cmd CreateInvoice) (*InvoiceResponse, error) {
	branchID, err := identity.FromContext(ctx).OwningBranch(cmd.BranchID)
	if err != nil {
		return nil, err
	}
	currency, err := valueobject.CurrencyOrDefault(cmd.Currency)
	if err != nil {
		return nil, err
	}
	kind := trade.InvoiceKind(cmd.Kind)
	if err := h.checkContact(ctx, cmd.ContactID, kind); err != nil {
		return nil, err
	}

	var source *trade.InvoiceSource
	if cmd.SourceType != "" && cmd.SourceID != nil {
		source = &trade.InvoiceSource{Type: trade.SourceType(cmd.SourceType), ID: *cmd.SourceID}
	}
	inv, err := trade.NewInvoice(branchID, kind, cmd.ContactID, currency, source, toDomainLines(cmd.Lines))
	if err != nil {
		return nil, err
	}

	if err := h.invoices.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	if err := appevent.Flush(ctx, h.events, inv); err != nil {
		return nil, err
	}

	logger.L(ctx).Info("Invoice issued",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("number", inv.Number),
		zap.String("gross", valueobject.Format(inv.Totals.Gross, valueobject.ScaleAmount)),
	)
	return ToInvoiceResponse(inv), nil
}

// CancelInvoice cancels an issued invoice
func (h *Handlers) CancelInvoice(ctx context.Context, cmd CancelInvoice) (*InvoiceResponse, error) {
	inv, err := h.invoices.FindByID(ctx, cmd.ID)
	if err != nil {
		return nil, err
	}
	expected, err := shared.CheckVersionToken(inv.VersionToken, cmd.VersionToken)
	if err != nil {
		return nil, err
	}

	from := inv.Status
	if err := inv.Cancel(cmd.Reason); err != nil {
		return nil, err
	}
	telemetry.AnnotateTransition(ctx, trade.AggregateTypeInvoice, inv.ID.String(), from.String(), inv.Status.String())

	if err := h.invoices.SaveWithVersion(ctx, inv, expected); err != nil {
		return nil, err
	}
	if err := appevent.Flush(ctx, h.events, inv); err != nil {
		return nil, err
	}
	return ToInvoiceResponse(inv), nil
}

// GetInvoice returns an invoice visible to the caller
func (h *Handlers) GetInvoice(ctx context.Context, cmd GetInvoice) (*InvoiceResponse, error) {
	inv, err := h.invoices.FindByID(ctx, cmd.ID)
	if err != nil {
		return nil, err
	}
	return ToInvoiceResponse(inv), nil
}

// transitionOrder loads an order under the supplied token, applies fn and
// writes the result back under the same token.
func (h *Handlers) transitionOrder(ctx context.Context, id uuid.UUID, token string, fn func(o *trade.Order) error) (*OrderResponse, error) {
	order, expected, err := h.loadOrder(ctx, id, token)
	if err != nil {
		return nil, err
	}

	from := order.Status
	if err := fn(order); err != nil {
		return nil, err
	}
	telemetry.AnnotateTransition(ctx, trade.AggregateTypeOrder, order.ID.String(), from.String(), order.Status.String())

	if err := h.orders.SaveWithVersion(ctx, order, expected); err != nil {
		return nil, err
	}
	if err := appevent.Flush(ctx, h.events, order); err != nil {
		return nil, err
	}
	return ToOrderResponse(order), nil
}

func (h *Handlers) loadOrder(ctx context.Context, id uuid.UUID, token string) (*trade.Order, shared.VersionToken, error) {
	order, err := h.orders.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	expected, err := shared.CheckVersionToken(order.VersionToken, token)
	if err != nil {
		return nil, nil, err
	}
	return order, expected, nil
}

func (h *Handlers) checkContact(ctx context.Context, contactID uuid.UUID, kind trade.InvoiceKind) error {
	if h.contacts == nil {
		return nil
	}
	contact, err := h.contacts.FindByID(ctx, contactID)
	if err != nil {
		return err
	}
	if kind == trade.InvoiceKindPurchase {
		return contact.EnsureSupplier()
	}
	return contact.EnsureCustomer()
}
