package event

import (
	"context"
	"fmt"

	"github.com/erp/backoffice/internal/domain/finance"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/domain/trade"
	"go.uber.org/zap"
)

// StatusAuditHandler writes an audit line for every relayed document
// transition and recorded payment
type StatusAuditHandler struct {
	logger *zap.Logger
}

// NewStatusAuditHandler creates a new audit handler
func NewStatusAuditHandler(logger *zap.Logger) *StatusAuditHandler {
	return &StatusAuditHandler{logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *StatusAuditHandler) EventTypes() []string {
	return []string{
		trade.EventTypeOrderStatus,
		trade.EventTypeInvoiceStatus,
		shared.StatusChangedType(finance.AggregateTypeCheque),
		shared.StatusChangedType(finance.AggregateTypeExpenseList),
		finance.EventTypePaymentRecorded,
	}
}

// Handle logs the event
func (h *StatusAuditHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.String("branch_id", event.BranchID().String()),
	}

	switch e := event.(type) {
	case *shared.StatusChanged:
		h.logger.Info("Document status changed",
			append(fields, zap.String("from", e.From), zap.String("to", e.To))...)
	case *finance.PaymentRecordedEvent:
		h.logger.Info("Payment recorded",
			append(fields,
				zap.String("direction", string(e.Direction)),
				zap.String("amount", e.Amount),
				zap.String("currency", e.Currency),
				zap.String("source_type", e.SourceType),
			)...)
	default:
		return fmt.Errorf("unexpected event type %s", event.EventType())
	}
	return nil
}

var _ shared.EventHandler = (*StatusAuditHandler)(nil)
