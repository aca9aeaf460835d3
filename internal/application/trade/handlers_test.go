package trade

import (
	"context"
	"testing"
	"time"

	"github.com/erp/backoffice/internal/application/command"
	"github.com/erp/backoffice/internal/domain/identity"
	"github.com/erp/backoffice/internal/domain/inventory"
	"github.com/erp/backoffice/internal/domain/partner"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/domain/trade"
	"github.com/erp/backoffice/internal/infrastructure/cache"
	infraevent "github.com/erp/backoffice/internal/infrastructure/event"
	"github.com/erp/backoffice/internal/infrastructure/persistence"
	"github.com/erp/backoffice/internal/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	branch7 = testutil.NewTestUUID("branch-7")
	branch8 = testutil.NewTestUUID("branch-8")
)

type tradeHarness struct {
	d        *command.Dispatcher
	invoices *persistence.GormInvoiceRepository
	stock    *persistence.GormStockLevelRepository
	outbox   *infraevent.GormOutboxRepository
	customer uuid.UUID
	supplier uuid.UUID
}

func newTradeHarness(t *testing.T) *tradeHarness {
	t.Helper()
	db := testutil.NewSQLiteDB(t)

	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })

	outbox := infraevent.NewGormOutboxRepository(db)
	d := command.NewPipeline(command.PipelineConfig{
		Logger:      zap.NewNop(),
		Validator:   command.NewValidator(),
		Idempotency: store,
		UnitOfWork:  persistence.NewTxCoordinator(db),
	})

	h := &tradeHarness{
		d:        d,
		invoices: persistence.NewGormInvoiceRepository(db),
		stock:    persistence.NewGormStockLevelRepository(db),
		outbox:   outbox,
	}
	contacts := persistence.NewGormContactRepository(db)
	NewHandlers(
		persistence.NewGormOrderRepository(db),
		h.invoices,
		contacts,
		inventory.NewStockService(h.stock),
		infraevent.NewOutboxPublisher(outbox, infraevent.NewDefaultSerializer(), 0),
	).Register(d)

	h.customer = saveContact(t, contacts, "C-001", partner.ContactCustomer)
	h.supplier = saveContact(t, contacts, "S-001", partner.ContactSupplier)
	return h
}

func saveContact(t *testing.T, repo partner.ContactRepository, code string, kind partner.ContactKind) uuid.UUID {
	t.Helper()
	c, err := partner.NewContact(code, "Contact "+code, kind)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), c))
	return c.ID
}

func (h *tradeHarness) seedStock(t *testing.T, branchID, itemID uuid.UUID, qty string) {
	t.Helper()
	require.NoError(t, h.stock.Save(context.Background(), &inventory.StockLevel{
		ID:        uuid.New(),
		BranchID:  branchID,
		ItemID:    itemID,
		Quantity:  decimal.RequireFromString(qty),
		Reserved:  decimal.Zero,
		UpdatedAt: time.Now(),
	}))
}

func (h *tradeHarness) createOrder(t *testing.T, ctx context.Context, cmd CreateOrder) *OrderResponse {
	t.Helper()
	resp, err := command.DispatchAs[*OrderResponse](ctx, h.d, cmd)
	require.NoError(t, err)
	return resp
}

func salesOrder(contactID uuid.UUID, lines ...LineInput) CreateOrder {
	if len(lines) == 0 {
		lines = []LineInput{{
			Description: "Consulting",
			Quantity:    decimal.NewFromInt(2),
			UnitPrice:   decimal.RequireFromString("10.50"),
			VatRate:     decimal.NewFromInt(20),
		}}
	}
	return CreateOrder{Type: "SALES", ContactID: contactID, Lines: lines}
}

func noBranchCaller() context.Context {
	return identity.WithCaller(context.Background(), identity.Caller{UserID: testutil.NewTestUUID("drifter")})
}

func TestCreateOrder(t *testing.T) {
	h := newTradeHarness(t)
	ctx := testutil.BranchCaller(branch7)

	order := h.createOrder(t, ctx, salesOrder(h.customer))

	assert.Equal(t, branch7, order.BranchID)
	assert.Equal(t, "DRAFT", order.Status)
	assert.Equal(t, "TRY", order.Currency)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, "2.0000", order.Lines[0].Quantity)
	assert.Equal(t, TotalsResponse{Net: "21.00", Vat: "4.20", Gross: "25.20"}, order.Totals)
	assert.NotEmpty(t, order.VersionToken)

	counts, err := h.outbox.CountByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[shared.OutboxStatusPending])
}

func TestCreateOrder_Rejections(t *testing.T) {
	h := newTradeHarness(t)
	ctx := testutil.BranchCaller(branch7)

	tests := []struct {
		name string
		ctx  context.Context
		cmd  CreateOrder
		kind shared.ErrorKind
		code string
	}{
		{
			name: "missing contact",
			ctx:  ctx,
			cmd:  CreateOrder{Type: "SALES"},
			kind: shared.KindValidation,
			code: "INVALID_INPUT",
		},
		{
			name: "purchase from a customer",
			ctx:  ctx,
			cmd:  CreateOrder{Type: "PURCHASE", ContactID: h.customer},
			kind: shared.KindBusinessRule,
			code: "NOT_A_SUPPLIER",
		},
		{
			name: "another branch",
			ctx:  ctx,
			cmd:  CreateOrder{Type: "SALES", ContactID: h.customer, BranchID: &branch8},
			kind: shared.KindAccessDenied,
			code: "ACCESS_DENIED",
		},
		{
			name: "caller without branch",
			ctx:  noBranchCaller(),
			cmd:  salesOrder(h.customer),
			kind: shared.KindAccessDenied,
			code: "ACCESS_DENIED",
		},
		{
			name: "headquarters without target branch",
			ctx:  testutil.HeadquartersCaller(),
			cmd:  salesOrder(h.customer),
			kind: shared.KindValidation,
			code: "BRANCH_REQUIRED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.d.Dispatch(tt.ctx, tt.cmd)
			require.Error(t, err)
			var de *shared.DomainError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.kind, de.Kind)
			assert.Equal(t, tt.code, de.Code)
		})
	}
}

func TestOrders_BranchIsolation(t *testing.T) {
	h := newTradeHarness(t)
	order := h.createOrder(t, testutil.BranchCaller(branch7), salesOrder(h.customer))

	_, err := h.d.Dispatch(testutil.BranchCaller(branch8), GetOrder{ID: order.ID})
	assert.Equal(t, shared.KindNotFound, shared.KindOf(err))

	_, err = h.d.Dispatch(noBranchCaller(), GetOrder{ID: order.ID})
	assert.Equal(t, shared.KindNotFound, shared.KindOf(err))

	_, err = h.d.Dispatch(testutil.BranchCaller(branch8), ApproveOrder{ID: order.ID, VersionToken: order.VersionToken})
	assert.Equal(t, shared.KindNotFound, shared.KindOf(err))

	list, err := command.DispatchAs[*OrderListResponse](testutil.BranchCaller(branch8), h.d, ListOrders{})
	require.NoError(t, err)
	assert.Zero(t, list.Total)

	hq, err := command.DispatchAs[*OrderResponse](testutil.HeadquartersCaller(), h.d, GetOrder{ID: order.ID})
	require.NoError(t, err)
	assert.Equal(t, branch7, hq.BranchID)

	own, err := command.DispatchAs[*OrderListResponse](testutil.BranchCaller(branch7), h.d, ListOrders{Status: "DRAFT"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), own.Total)
}

func TestApproveOrder_StaleToken(t *testing.T) {
	h := newTradeHarness(t)
	ctx := testutil.BranchCaller(branch7)
	order := h.createOrder(t, ctx, CreateOrder{Type: "PURCHASE", ContactID: h.supplier, Lines: salesOrder(h.customer).Lines})

	approved, err := command.DispatchAs[*OrderResponse](ctx, h.d, ApproveOrder{ID: order.ID, VersionToken: order.VersionToken})
	require.NoError(t, err)
	assert.Equal(t, "APPROVED", approved.Status)
	assert.NotEqual(t, order.VersionToken, approved.VersionToken)

	_, err = h.d.Dispatch(ctx, CancelOrder{ID: order.ID, VersionToken: order.VersionToken, Reason: "late"})
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)

	_, err = h.d.Dispatch(ctx, CancelOrder{ID: order.ID, Reason: "no token"})
	assert.Equal(t, shared.KindConcurrencyConflict, shared.KindOf(err))

	current, err := command.DispatchAs[*OrderResponse](ctx, h.d, GetOrder{ID: order.ID})
	require.NoError(t, err)
	assert.Equal(t, "APPROVED", current.Status)
	assert.Equal(t, approved.VersionToken, current.VersionToken)
	assert.Empty(t, current.CancelReason)
}

func TestApproveOrder_Stock(t *testing.T) {
	h := newTradeHarness(t)
	ctx := testutil.BranchCaller(branch7)
	item := testutil.NewTestUUID("item-1")

	order := h.createOrder(t, ctx, salesOrder(h.customer, LineInput{
		ItemID:    &item,
		Quantity:  decimal.NewFromInt(5),
		UnitPrice: decimal.NewFromInt(100),
		VatRate:   decimal.NewFromInt(18),
	}))

	// Stock held by another branch does not count.
	h.seedStock(t, branch8, item, "50")

	_, err := h.d.Dispatch(ctx, ApproveOrder{ID: order.ID, VersionToken: order.VersionToken})
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "INSUFFICIENT_STOCK", de.Code)

	current, err := command.DispatchAs[*OrderResponse](ctx, h.d, GetOrder{ID: order.ID})
	require.NoError(t, err)
	assert.Equal(t, "DRAFT", current.Status)
	assert.Equal(t, order.VersionToken, current.VersionToken)

	h.seedStock(t, branch7, item, "5")

	approved, err := command.DispatchAs[*OrderResponse](ctx, h.d, ApproveOrder{ID: order.ID, VersionToken: order.VersionToken})
	require.NoError(t, err)
	assert.Equal(t, "APPROVED", approved.Status)
	assert.NotNil(t, approved.ApprovedAt)
}

func TestCheckOrderStock(t *testing.T) {
	h := newTradeHarness(t)
	ctx := testutil.BranchCaller(branch7)
	a, b := testutil.NewTestUUID("item-a"), testutil.NewTestUUID("item-b")
	line := func(item *uuid.UUID, qty int64) LineInput {
		return LineInput{ItemID: item, Quantity: decimal.NewFromInt(qty), UnitPrice: decimal.NewFromInt(10), VatRate: decimal.NewFromInt(18)}
	}

	order := h.createOrder(t, ctx, salesOrder(h.customer, line(&a, 2), line(&b, 4), line(&a, 3), line(nil, 1)))
	h.seedStock(t, branch7, a, "6")
	h.seedStock(t, branch8, b, "100")

	status, err := command.DispatchAs[*OrderStockResponse](ctx, h.d, CheckOrderStock{ID: order.ID})
	require.NoError(t, err)
	assert.Equal(t, branch7, status.BranchID)
	assert.False(t, status.Sufficient)
	require.Len(t, status.Items, 2)

	byItem := map[uuid.UUID]StockLineResponse{}
	for _, it := range status.Items {
		byItem[it.ItemID] = it
	}
	assert.Equal(t, StockLineResponse{ItemID: a, Required: "5.0000", Available: "6.0000", Sufficient: true}, byItem[a])
	assert.Equal(t, StockLineResponse{ItemID: b, Required: "4.0000", Available: "0.0000", Sufficient: false}, byItem[b])

	t.Run("headquarters reads the order's branch stock", func(t *testing.T) {
		hq, err := command.DispatchAs[*OrderStockResponse](testutil.HeadquartersCaller(), h.d, CheckOrderStock{ID: order.ID})
		require.NoError(t, err)
		assert.Equal(t, status.Items, hq.Items)
	})

	t.Run("other branch cannot see the order", func(t *testing.T) {
		_, err := h.d.Dispatch(testutil.BranchCaller(branch8), CheckOrderStock{ID: order.ID})
		assert.Equal(t, shared.KindNotFound, shared.KindOf(err))
	})

	t.Run("purchase orders need no stock", func(t *testing.T) {
		po := h.createOrder(t, ctx, CreateOrder{Type: "PURCHASE", ContactID: h.supplier, Lines: []LineInput{line(&b, 4)}})
		res, err := command.DispatchAs[*OrderStockResponse](ctx, h.d, CheckOrderStock{ID: po.ID})
		require.NoError(t, err)
		assert.True(t, res.Sufficient)
		assert.Empty(t, res.Items)
	})
}

func TestApproveOrder_WithoutLines(t *testing.T) {
	h := newTradeHarness(t)
	ctx := testutil.BranchCaller(branch7)
	order := h.createOrder(t, ctx, CreateOrder{Type: "SALES", ContactID: h.customer})

	_, err := h.d.Dispatch(ctx, ApproveOrder{ID: order.ID, VersionToken: order.VersionToken})
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "EMPTY_ORDER", de.Code)
}

func TestCancelOrder(t *testing.T) {
	h := newTradeHarness(t)
	ctx := testutil.BranchCaller(branch7)
	order := h.createOrder(t, ctx, salesOrder(h.customer))

	cancelled, err := command.DispatchAs[*OrderResponse](ctx, h.d, CancelOrder{
		ID: order.ID, VersionToken: order.VersionToken, Reason: "customer withdrew",
	})
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", cancelled.Status)
	assert.Equal(t, "customer withdrew", cancelled.CancelReason)

	_, err = h.d.Dispatch(ctx, CancelOrder{ID: order.ID, VersionToken: cancelled.VersionToken})
	assert.Equal(t, shared.KindBusinessRule, shared.KindOf(err))
}

func TestInvoiceOrder(t *testing.T) {
	h := newTradeHarness(t)
	ctx := testutil.BranchCaller(branch7)
	order := h.createOrder(t, ctx, CreateOrder{
		Type:      "PURCHASE",
		ContactID: h.supplier,
		Currency:  "EUR",
		Lines:     salesOrder(h.customer).Lines,
	})

	_, err := h.d.Dispatch(ctx, InvoiceOrder{ID: order.ID, VersionToken: order.VersionToken})
	assert.ErrorIs(t, err, shared.ErrInvalidTransition)
	none, err := h.invoices.FindBySource(ctx, trade.SourceOrder, order.ID)
	require.NoError(t, err)
	assert.Empty(t, none)

	approved, err := command.DispatchAs[*OrderResponse](ctx, h.d, ApproveOrder{ID: order.ID, VersionToken: order.VersionToken})
	require.NoError(t, err)

	invoiced, err := command.DispatchAs[*OrderResponse](ctx, h.d, InvoiceOrder{ID: order.ID, VersionToken: approved.VersionToken})
	require.NoError(t, err)
	assert.Equal(t, "INVOICED", invoiced.Status)
	require.NotNil(t, invoiced.InvoiceID)

	inv, err := command.DispatchAs[*InvoiceResponse](ctx, h.d, GetInvoice{ID: *invoiced.InvoiceID})
	require.NoError(t, err)
	assert.Equal(t, "PURCHASE", inv.Kind)
	assert.Equal(t, "EUR", inv.Currency)
	assert.Equal(t, "order", inv.SourceType)
	assert.Equal(t, order.ID, *inv.SourceID)
	assert.Equal(t, branch7, inv.BranchID)
	assert.Equal(t, invoiced.Totals, inv.Totals)

	_, err = h.d.Dispatch(ctx, InvoiceOrder{ID: order.ID, VersionToken: invoiced.VersionToken})
	assert.Equal(t, shared.KindBusinessRule, shared.KindOf(err))
	issued, err := h.invoices.FindBySource(ctx, trade.SourceOrder, order.ID)
	require.NoError(t, err)
	assert.Len(t, issued, 1)
}

func TestDeleteOrder(t *testing.T) {
	h := newTradeHarness(t)
	ctx := testutil.BranchCaller(branch7)

	draft := h.createOrder(t, ctx, salesOrder(h.customer))
	deleted, err := command.DispatchAs[*OrderResponse](ctx, h.d, DeleteOrder{ID: draft.ID, VersionToken: draft.VersionToken})
	require.NoError(t, err)
	assert.NotNil(t, deleted.DeletedAt)

	_, err = h.d.Dispatch(ctx, GetOrder{ID: draft.ID})
	assert.Equal(t, shared.KindNotFound, shared.KindOf(err))

	other := h.createOrder(t, ctx, CreateOrder{Type: "PURCHASE", ContactID: h.supplier, Lines: salesOrder(h.customer).Lines})
	approved, err := command.DispatchAs[*OrderResponse](ctx, h.d, ApproveOrder{ID: other.ID, VersionToken: other.VersionToken})
	require.NoError(t, err)
	_, err = h.d.Dispatch(ctx, DeleteOrder{ID: other.ID, VersionToken: approved.VersionToken})
	assert.Equal(t, shared.KindBusinessRule, shared.KindOf(err))
}

func TestGetOrder_IncludeDeleted(t *testing.T) {
	h := newTradeHarness(t)
	ctx := testutil.BranchCaller(branch7)

	draft := h.createOrder(t, ctx, salesOrder(h.customer))
	_, err := h.d.Dispatch(ctx, DeleteOrder{ID: draft.ID, VersionToken: draft.VersionToken})
	require.NoError(t, err)

	audit, err := command.DispatchAs[*OrderResponse](ctx, h.d, GetOrder{ID: draft.ID, IncludeDeleted: true})
	require.NoError(t, err)
	require.NotNil(t, audit.DeletedAt)
	assert.Equal(t, branch7, audit.BranchID)
	assert.Len(t, audit.Lines, 1)

	_, err = h.d.Dispatch(testutil.BranchCaller(branch8), GetOrder{ID: draft.ID, IncludeDeleted: true})
	assert.Equal(t, shared.KindNotFound, shared.KindOf(err))

	_, err = h.d.Dispatch(noBranchCaller(), GetOrder{ID: draft.ID, IncludeDeleted: true})
	assert.Equal(t, shared.KindNotFound, shared.KindOf(err))

	hq, err := command.DispatchAs[*OrderResponse](testutil.HeadquartersCaller(), h.d, GetOrder{ID: draft.ID, IncludeDeleted: true})
	require.NoError(t, err)
	assert.NotNil(t, hq.DeletedAt)
}

func TestCreateOrder_DuplicateKey(t *testing.T) {
	h := newTradeHarness(t)
	ctx := testutil.BranchCaller(branch7)

	cmd := salesOrder(h.customer)
	cmd.Key = "order-2026-0001"
	h.createOrder(t, ctx, cmd)

	_, err := h.d.Dispatch(ctx, cmd)
	assert.ErrorIs(t, err, shared.ErrDuplicateRequest)

	list, err := command.DispatchAs[*OrderListResponse](ctx, h.d, ListOrders{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Total)
}

func TestCancelInvoice(t *testing.T) {
	h := newTradeHarness(t)
	ctx := testutil.BranchCaller(branch7)

	inv, err := command.DispatchAs[*InvoiceResponse](ctx, h.d, CreateInvoice{
		Kind:      "SALES",
		ContactID: h.customer,
		Lines:     salesOrder(h.customer).Lines,
	})
	require.NoError(t, err)
	assert.Equal(t, "ISSUED", inv.Status)
	assert.Equal(t, "25.20", inv.Totals.Gross)

	cancelled, err := command.DispatchAs[*InvoiceResponse](ctx, h.d, CancelInvoice{
		ID: inv.ID, VersionToken: inv.VersionToken, Reason: "wrong customer",
	})
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", cancelled.Status)

	_, err = h.d.Dispatch(ctx, CancelInvoice{ID: inv.ID, VersionToken: inv.VersionToken})
	assert.Equal(t, shared.KindConcurrencyConflict, shared.KindOf(err))
}

func TestExecute_MapsHandlerErrors(t *testing.T) {
	h := newTradeHarness(t)
	ctx := testutil.BranchCaller(branch7)
	order := h.createOrder(t, ctx, salesOrder(h.customer))

	res := command.Execute(ctx, h.d, ApproveOrder{ID: order.ID, VersionToken: "bm90LWEtdG9rZW4"})
	assert.False(t, res.OK)
	require.NotNil(t, res.Error)
	assert.Equal(t, shared.KindConcurrencyConflict, res.Error.Kind)
	assert.NotEmpty(t, res.Error.CorrelationID)

	res = command.Execute(ctx, h.d, GetOrder{ID: order.ID})
	assert.True(t, res.OK)
	assert.IsType(t, &OrderResponse{}, res.Data)
}
