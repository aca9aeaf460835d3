package event

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/config"
	"github.com/erp/backoffice/internal/infrastructure/persistence/branchscope"
	"go.uber.org/zap"
)

// OutboxProcessorConfig tunes the relay. Cleanup deletes SENT entries older
// than CleanupRetention every CleanupInterval.
type OutboxProcessorConfig struct {
	BatchSize        int
	PollInterval     time.Duration
	CleanupEnabled   bool
	CleanupRetention time.Duration
	CleanupInterval  time.Duration
}

func DefaultOutboxProcessorConfig() OutboxProcessorConfig {
	return OutboxProcessorConfig{
		BatchSize:        100,
		PollInterval:     5 * time.Second,
		CleanupEnabled:   true,
		CleanupRetention: 7 * 24 * time.Hour,
		CleanupInterval:  time.Hour,
	}
}

// ProcessorConfigFrom overlays the event section of the service config on
// the defaults. Cleanup is only on when the config turns it on.
func ProcessorConfigFrom(cfg config.EventConfig) OutboxProcessorConfig {
	out := DefaultOutboxProcessorConfig()
	out.CleanupEnabled = cfg.CleanupEnabled
	if cfg.BatchSize > 0 {
		out.BatchSize = cfg.BatchSize
	}
	if cfg.PollInterval > 0 {
		out.PollInterval = cfg.PollInterval
	}
	if cfg.CleanupRetention > 0 {
		out.CleanupRetention = cfg.CleanupRetention
	}
	return out
}

// OutboxProcessor relays committed outbox entries to the event bus. It reads
// across all branches. Delivery is at least once, so subscribers that care
// deduplicate by event ID.
type OutboxProcessor struct {
	repo       shared.OutboxRepository
	eventBus   shared.EventBus
	serializer *EventSerializer
	config     OutboxProcessorConfig
	logger     *zap.Logger

	stop    context.CancelFunc
	running sync.WaitGroup
}

func NewOutboxProcessor(
	repo shared.OutboxRepository,
	eventBus shared.EventBus,
	serializer *EventSerializer,
	config OutboxProcessorConfig,
	logger *zap.Logger,
) *OutboxProcessor {
	return &OutboxProcessor{
		repo:       repo,
		eventBus:   eventBus,
		serializer: serializer,
		config:     config,
		logger:     logger.Named("outbox"),
	}
}

// Start launches the relay loop. It returns at once; Stop ends the loop.
func (p *OutboxProcessor) Start(ctx context.Context) error {
	ctx, p.stop = context.WithCancel(branchscope.WithoutScope(ctx))

	p.running.Add(1)
	go func() {
		defer p.running.Done()
		p.run(ctx)
	}()

	p.logger.Info("Outbox relay started",
		zap.Int("batch_size", p.config.BatchSize),
		zap.Duration("poll_interval", p.config.PollInterval),
		zap.Bool("cleanup", p.config.CleanupEnabled),
	)
	return nil
}

// Stop cancels the loop and waits for the batch in flight, up to ctx
func (p *OutboxProcessor) Stop(ctx context.Context) error {
	if p.stop != nil {
		p.stop()
	}
	done := make(chan struct{})
	go func() {
		p.running.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("Outbox relay stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *OutboxProcessor) run(ctx context.Context) {
	poll := time.NewTicker(p.config.PollInterval)
	defer poll.Stop()

	// A nil channel never fires, which keeps cleanup off when disabled.
	var cleanup <-chan time.Time
	if p.config.CleanupEnabled {
		t := time.NewTicker(p.config.CleanupInterval)
		defer t.Stop()
		cleanup = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-poll.C:
			p.ProcessBatch(ctx)
		case <-cleanup:
			p.purgeSent(ctx)
		}
	}
}

// ProcessBatch relays one batch of due entries and returns how many were
// delivered.
func (p *OutboxProcessor) ProcessBatch(ctx context.Context) int {
	ctx = branchscope.WithoutScope(ctx)
	due, err := p.repo.FindDeliverable(ctx, time.Now(), p.config.BatchSize)
	if err != nil {
		p.logger.Error("Failed to load deliverable outbox entries", zap.Error(err))
		return 0
	}

	delivered := 0
	for _, entry := range due {
		if ctx.Err() != nil {
			break
		}
		if err := p.deliver(ctx, entry); err != nil {
			p.recordFailure(ctx, entry, err)
			continue
		}
		if err := p.repo.Update(ctx, entry); err != nil {
			p.logger.Error("Failed to mark outbox entry sent", entryFields(entry, zap.Error(err))...)
			continue
		}
		delivered++
	}
	return delivered
}

func (p *OutboxProcessor) deliver(ctx context.Context, entry *shared.OutboxEntry) error {
	event, err := p.serializer.Deserialize(entry.EventType, entry.Payload)
	if err != nil {
		return err
	}
	if err := p.eventBus.Publish(ctx, event); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	entry.MarkSent()
	return nil
}

// recordFailure schedules the entry again, or leaves it DEAD for an operator
// once its retries are spent.
func (p *OutboxProcessor) recordFailure(ctx context.Context, entry *shared.OutboxEntry, cause error) {
	entry.MarkFailed(cause.Error())
	if entry.IsDead() {
		p.logger.Warn("Outbox entry is dead",
			entryFields(entry,
				zap.String("aggregate_id", entry.AggregateID.String()),
				zap.String("branch_id", entry.BranchID.String()),
				zap.Int("retry_count", entry.RetryCount),
				zap.Error(cause),
			)...)
	} else {
		p.logger.Error("Outbox delivery failed",
			entryFields(entry, zap.Timep("next_retry_at", entry.NextRetryAt), zap.Error(cause))...)
	}
	if err := p.repo.Update(ctx, entry); err != nil {
		p.logger.Error("Failed to record outbox failure", entryFields(entry, zap.Error(err))...)
	}
}

func (p *OutboxProcessor) purgeSent(ctx context.Context) {
	cutoff := time.Now().Add(-p.config.CleanupRetention)
	n, err := p.repo.DeleteSentBefore(ctx, cutoff)
	switch {
	case err != nil:
		p.logger.Error("Failed to purge sent outbox entries", zap.Error(err))
	case n > 0:
		p.logger.Info("Purged sent outbox entries", zap.Int64("deleted", n), zap.Time("cutoff", cutoff))
	}
}

func entryFields(entry *shared.OutboxEntry, extra ...zap.Field) []zap.Field {
	return append([]zap.Field{
		zap.String("event_id", entry.EventID.String()),
		zap.String("event_type", entry.EventType),
		zap.String("aggregate_type", entry.AggregateType),
	}, extra...)
}
