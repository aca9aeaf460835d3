package event

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/erp/backoffice/internal/domain/shared"
	"go.uber.org/zap"
)

// DeliveryStats counts what an IdempotentHandler did with the events it saw
type DeliveryStats struct {
	Handled    int64 `json:"handled"`
	Duplicates int64 `json:"duplicates"`
	Failed     int64 `json:"failed"`
}

// IdempotentHandler makes an at-least-once outbox delivery look exactly-once
// to the handler it wraps. Claims are keyed by handler name and event ID, so
// two subscribers of one event never shadow each other. A failed delivery
// releases its claim because the relay will redeliver the entry.
type IdempotentHandler struct {
	next   shared.EventHandler
	name   string
	store  shared.IdempotencyStore
	ttl    time.Duration
	logger *zap.Logger

	handled, duplicates, failed atomic.Int64
}

// IdempotentHandlerOption configures an IdempotentHandler
type IdempotentHandlerOption func(*IdempotentHandler)

// WithHandlerName sets the name claims are scoped by. It defaults to the Go
// type of the wrapped handler.
func WithHandlerName(name string) IdempotentHandlerOption {
	return func(h *IdempotentHandler) { h.name = name }
}

// WithClaimTTL sets how long a handled event stays claimed
func WithClaimTTL(ttl time.Duration) IdempotentHandlerOption {
	return func(h *IdempotentHandler) {
		if ttl > 0 {
			h.ttl = ttl
		}
	}
}

// NewIdempotentHandler wraps next with claim checking against store
func NewIdempotentHandler(next shared.EventHandler, store shared.IdempotencyStore, logger *zap.Logger, opts ...IdempotentHandlerOption) *IdempotentHandler {
	h := &IdempotentHandler{
		next:   next,
		name:   fmt.Sprintf("%T", next),
		store:  store,
		ttl:    shared.DefaultIdempotencyTTL,
		logger: logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *IdempotentHandler) EventTypes() []string {
	return h.next.EventTypes()
}

func (h *IdempotentHandler) claimKey(event shared.DomainEvent) string {
	return fmt.Sprintf("event:%s:%s", h.name, event.EventID())
}

// Handle runs the wrapped handler unless this handler already handled the
// event. If the store is unreachable the event is handled anyway: a stalled
// relay is worse than a duplicate audit line.
func (h *IdempotentHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	key := h.claimKey(event)
	log := h.logger.With(
		zap.String("handler", h.name),
		zap.String("event_id", event.EventID().String()),
		zap.String("event_type", event.EventType()),
	)

	claimed, err := h.store.MarkProcessed(ctx, key, h.ttl)
	switch {
	case err != nil:
		log.Warn("Idempotency store unavailable, handling without claim", zap.Error(err))
	case !claimed:
		h.duplicates.Add(1)
		log.Debug("Skipping already handled event")
		return nil
	}

	if err := h.next.Handle(ctx, event); err != nil {
		h.failed.Add(1)
		log.Error("Event handler failed", zap.Error(err))
		if claimed {
			if ferr := h.store.Forget(ctx, key); ferr != nil {
				log.Warn("Failed to release event claim", zap.Error(ferr))
			}
		}
		return err
	}

	h.handled.Add(1)
	return nil
}

// Stats returns a snapshot of the delivery counters
func (h *IdempotentHandler) Stats() DeliveryStats {
	return DeliveryStats{
		Handled:    h.handled.Load(),
		Duplicates: h.duplicates.Load(),
		Failed:     h.failed.Load(),
	}
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
