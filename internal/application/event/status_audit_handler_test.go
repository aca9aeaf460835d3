package event

import (
	"context"
	"testing"

	"github.com/erp/backoffice/internal/domain/finance"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestStatusAuditHandler(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := NewStatusAuditHandler(zap.New(core))

	assert.Contains(t, h.EventTypes(), trade.EventTypeOrderStatus)
	assert.Contains(t, h.EventTypes(), finance.EventTypePaymentRecorded)

	changed := shared.NewStatusChanged(finance.AggregateTypeCheque, uuid.New(), uuid.New(), "PENDING", "PAID")
	require.NoError(t, h.Handle(context.Background(), changed))

	payment := &finance.PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(finance.EventTypePaymentRecorded, finance.AggregateTypePayment, uuid.New(), uuid.New()),
		Direction:       finance.PaymentIn,
		Amount:          "1000.00",
		Currency:        "TRY",
		SourceType:      finance.PaymentSourceCheque,
	}
	require.NoError(t, h.Handle(context.Background(), payment))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "Document status changed", entries[0].Message)
	assert.Equal(t, "PAID", entries[0].ContextMap()["to"])
	assert.Equal(t, "1000.00", entries[1].ContextMap()["amount"])
}

func TestStatusAuditHandler_UnexpectedEvent(t *testing.T) {
	h := NewStatusAuditHandler(zap.NewNop())
	order, err := trade.NewOrder(uuid.New(), trade.OrderTypeSales, uuid.New(), "TRY")
	require.NoError(t, err)

	events := order.GetDomainEvents()
	require.NotEmpty(t, events)
	assert.Error(t, h.Handle(context.Background(), events[0]))
}
