package event

import (
	"context"
	"time"

	"github.com/erp/backoffice/internal/application/command"
	"github.com/erp/backoffice/internal/domain/identity"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const retryBatchSize = 100

// OutboxAdminRepository is the slice of the outbox store the admin commands need
type OutboxAdminRepository interface {
	FindDead(ctx context.Context, page, pageSize int) ([]*shared.OutboxEntry, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*shared.OutboxEntry, error)
	Update(ctx context.Context, entry *shared.OutboxEntry) error
	CountByStatus(ctx context.Context) (map[shared.OutboxStatus]int64, error)
}

// OutboxService lets administrators inspect and requeue undeliverable events
type OutboxService struct {
	repo OutboxAdminRepository
}

// NewOutboxService creates a new outbox service
func NewOutboxService(repo OutboxAdminRepository) *OutboxService {
	return &OutboxService{repo: repo}
}

// Register binds the outbox admin commands to d
func (s *OutboxService) Register(d *command.Dispatcher) {
	command.Register(d, s.GetOutboxStats)
	command.Register(d, s.ListDeadLetters)
	command.Register(d, s.RetryDeadLetter)
	command.Register(d, s.RetryAllDeadLetters)
}

// GetOutboxStats counts outbox entries per status
type GetOutboxStats struct{}

func (GetOutboxStats) CommandName() string { return "GetOutboxStats" }

// ListDeadLetters reads one page of dead entries
type ListDeadLetters struct {
	Page     int `json:"page,omitempty" validate:"omitempty,min=1"`
	PageSize int `json:"page_size,omitempty" validate:"omitempty,min=1,max=100"`
}

func (ListDeadLetters) CommandName() string { return "ListDeadLetters" }

// RetryDeadLetter requeues one dead entry
type RetryDeadLetter struct {
	command.TxRequired
	ID uuid.UUID `json:"id" validate:"required"`
}

func (RetryDeadLetter) CommandName() string { return "RetryDeadLetter" }

// RetryAllDeadLetters requeues every dead entry
type RetryAllDeadLetters struct {
	command.TxRequired
}

func (RetryAllDeadLetters) CommandName() string { return "RetryAllDeadLetters" }

// OutboxEntryDTO represents an outbox entry
type OutboxEntryDTO struct {
	ID            uuid.UUID  `json:"id"`
	BranchID      uuid.UUID  `json:"branch_id"`
	EventID       uuid.UUID  `json:"event_id"`
	EventType     string     `json:"event_type"`
	AggregateID   uuid.UUID  `json:"aggregate_id"`
	AggregateType string     `json:"aggregate_type"`
	Status        string     `json:"status"`
	RetryCount    int        `json:"retry_count"`
	MaxRetries    int        `json:"max_retries"`
	LastError     string     `json:"last_error,omitempty"`
	NextRetryAt   *time.Time `json:"next_retry_at,omitempty"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// OutboxListResult is one page of outbox entries
type OutboxListResult struct {
	Entries    []OutboxEntryDTO `json:"entries"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}

// OutboxStatsDTO represents outbox statistics
type OutboxStatsDTO struct {
	Pending int64 `json:"pending"`
	Sent    int64 `json:"sent"`
	Failed  int64 `json:"failed"`
	Dead    int64 `json:"dead"`
	Total   int64 `json:"total"`
}

// RetryAllResult reports how many entries were requeued
type RetryAllResult struct {
	Requeued int64 `json:"requeued"`
}

// GetOutboxStats counts entries per delivery status
func (s *OutboxService) GetOutboxStats(ctx context.Context, _ GetOutboxStats) (*OutboxStatsDTO, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	stats := &OutboxStatsDTO{
		Pending: counts[shared.OutboxStatusPending],
		Sent:    counts[shared.OutboxStatusSent],
		Failed:  counts[shared.OutboxStatusFailed],
		Dead:    counts[shared.OutboxStatusDead],
	}
	stats.Total = stats.Pending + stats.Sent + stats.Failed + stats.Dead
	return stats, nil
}

// ListDeadLetters returns dead entries, most recently failed first
func (s *OutboxService) ListDeadLetters(ctx context.Context, cmd ListDeadLetters) (*OutboxListResult, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	filter := shared.Filter{Page: cmd.Page, PageSize: cmd.PageSize}.Normalize()

	entries, total, err := s.repo.FindDead(ctx, filter.Page, filter.PageSize)
	if err != nil {
		return nil, err
	}

	dtos := make([]OutboxEntryDTO, len(entries))
	for i, entry := range entries {
		dtos[i] = toOutboxEntryDTO(entry)
	}
	page := shared.NewPaginated(dtos, total, filter.Page, filter.PageSize)
	return &OutboxListResult{
		Entries:    page.Items,
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}, nil
}

// RetryDeadLetter resets a dead entry so the relay picks it up again
func (s *OutboxService) RetryDeadLetter(ctx context.Context, cmd RetryDeadLetter) (*OutboxEntryDTO, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	entry, err := s.repo.FindByID(ctx, cmd.ID)
	if err != nil {
		return nil, err
	}
	if err := entry.ResetForRetry(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, entry); err != nil {
		return nil, err
	}

	logger.L(ctx).Info("Dead letter requeued",
		zap.String("entry_id", entry.ID.String()),
		zap.String("event_type", entry.EventType),
	)
	dto := toOutboxEntryDTO(entry)
	return &dto, nil
}

// RetryAllDeadLetters resets every dead entry
func (s *OutboxService) RetryAllDeadLetters(ctx context.Context, _ RetryAllDeadLetters) (*RetryAllResult, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}

	var requeued int64
	for {
		// Reset entries leave the dead set, so the first page is always fresh.
		entries, _, err := s.repo.FindDead(ctx, 1, retryBatchSize)
		if err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			break
		}
		for _, entry := range entries {
			if err := entry.ResetForRetry(); err != nil {
				return nil, err
			}
			if err := s.repo.Update(ctx, entry); err != nil {
				return nil, err
			}
			requeued++
		}
		if len(entries) < retryBatchSize {
			break
		}
	}

	logger.L(ctx).Info("Dead letters requeued", zap.Int64("count", requeued))
	return &RetryAllResult{Requeued: requeued}, nil
}

func requireAdmin(ctx context.Context) error {
	if !identity.FromContext(ctx).IsAdmin {
		return shared.NewAccessDeniedError("outbox administration requires an administrator")
	}
	return nil
}

func toOutboxEntryDTO(entry *shared.OutboxEntry) OutboxEntryDTO {
	return OutboxEntryDTO{
		ID:            entry.ID,
		BranchID:      entry.BranchID,
		EventID:       entry.EventID,
		EventType:     entry.EventType,
		AggregateID:   entry.AggregateID,
		AggregateType: entry.AggregateType,
		Status:        string(entry.Status),
		RetryCount:    entry.RetryCount,
		MaxRetries:    entry.MaxRetries,
		LastError:     entry.LastError,
		NextRetryAt:   entry.NextRetryAt,
		ProcessedAt:   entry.ProcessedAt,
		CreatedAt:     entry.CreatedAt,
		UpdatedAt:     entry.UpdatedAt,
	}
}
