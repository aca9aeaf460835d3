package event

import (
	"context"
	"sort"
	"testing"

	"github.com/erp/backoffice/internal/application/command"
	"github.com/erp/backoffice/internal/domain/identity"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryOutboxRepo struct {
	entries map[uuid.UUID]*shared.OutboxEntry
	updates int
}

func newMemoryOutboxRepo(entries ...*shared.OutboxEntry) *memoryOutboxRepo {
	r := &memoryOutboxRepo{entries: make(map[uuid.UUID]*shared.OutboxEntry)}
	for _, e := range entries {
		r.entries[e.ID] = e
	}
	return r
}

func (r *memoryOutboxRepo) FindDead(_ context.Context, page, pageSize int) ([]*shared.OutboxEntry, int64, error) {
	var dead []*shared.OutboxEntry
	for _, e := range r.entries {
		if e.Status == shared.OutboxStatusDead {
			dead = append(dead, e)
		}
	}
	sort.Slice(dead, func(i, j int) bool { return dead[i].CreatedAt.Before(dead[j].CreatedAt) })

	total := int64(len(dead))
	start := (page - 1) * pageSize
	if start >= len(dead) {
		return nil, total, nil
	}
	end := min(start+pageSize, len(dead))
	return dead[start:end], total, nil
}

func (r *memoryOutboxRepo) FindByID(_ context.Context, id uuid.UUID) (*shared.OutboxEntry, error) {
	if e, ok := r.entries[id]; ok {
		return e, nil
	}
	return nil, shared.NewNotFoundError("outbox entry")
}

func (r *memoryOutboxRepo) Update(_ context.Context, entry *shared.OutboxEntry) error {
	r.updates++
	r.entries[entry.ID] = entry
	return nil
}

func (r *memoryOutboxRepo) CountByStatus(_ context.Context) (map[shared.OutboxStatus]int64, error) {
	counts := make(map[shared.OutboxStatus]int64)
	for _, e := range r.entries {
		counts[e.Status]++
	}
	return counts, nil
}

func outboxEntry(status shared.OutboxStatus) *shared.OutboxEntry {
	e := shared.NewOutboxEntry(shared.NewStatusChanged("order", uuid.New(), uuid.New(), "DRAFT", "APPROVED"), []byte(`{}`))
	e.Status = status
	if status == shared.OutboxStatusDead {
		e.RetryCount = e.MaxRetries
		e.LastError = "handler failed"
	}
	return e
}

func adminContext() context.Context {
	return identity.WithCaller(context.Background(), identity.Caller{
		UserID:  testutil.NewTestUUID("admin"),
		IsAdmin: true,
	})
}

func TestOutboxService_RequiresAdmin(t *testing.T) {
	svc := NewOutboxService(newMemoryOutboxRepo())

	for _, ctx := range []context.Context{
		testutil.HeadquartersCaller(),
		testutil.BranchCaller(testutil.NewTestUUID("branch-7")),
		context.Background(),
	} {
		_, err := svc.GetOutboxStats(ctx, GetOutboxStats{})
		assert.Equal(t, shared.KindAccessDenied, shared.KindOf(err))
	}
}

func TestOutboxService_ListDeadLetters(t *testing.T) {
	repo := newMemoryOutboxRepo(
		outboxEntry(shared.OutboxStatusDead),
		outboxEntry(shared.OutboxStatusDead),
		outboxEntry(shared.OutboxStatusDead),
		outboxEntry(shared.OutboxStatusSent),
	)
	svc := NewOutboxService(repo)

	result, err := svc.ListDeadLetters(adminContext(), ListDeadLetters{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.Total)
	assert.Len(t, result.Entries, 2)
	assert.Equal(t, 2, result.TotalPages)
	assert.Equal(t, "handler failed", result.Entries[0].LastError)

	defaults, err := svc.ListDeadLetters(adminContext(), ListDeadLetters{})
	require.NoError(t, err)
	assert.Equal(t, 1, defaults.Page)
	assert.Equal(t, 20, defaults.PageSize)
	assert.Len(t, defaults.Entries, 3)
}

func TestOutboxService_RetryDeadLetter(t *testing.T) {
	dead := outboxEntry(shared.OutboxStatusDead)
	sent := outboxEntry(shared.OutboxStatusSent)
	repo := newMemoryOutboxRepo(dead, sent)
	svc := NewOutboxService(repo)

	t.Run("requeues a dead entry", func(t *testing.T) {
		dto, err := svc.RetryDeadLetter(adminContext(), RetryDeadLetter{ID: dead.ID})
		require.NoError(t, err)
		assert.Equal(t, string(shared.OutboxStatusPending), dto.Status)
		assert.Zero(t, dto.RetryCount)
		assert.Empty(t, dto.LastError)
		assert.Equal(t, 1, repo.updates)
	})

	t.Run("rejects an entry that is not dead", func(t *testing.T) {
		_, err := svc.RetryDeadLetter(adminContext(), RetryDeadLetter{ID: sent.ID})
		assert.Equal(t, shared.KindBusinessRule, shared.KindOf(err))
	})

	t.Run("unknown entry", func(t *testing.T) {
		_, err := svc.RetryDeadLetter(adminContext(), RetryDeadLetter{ID: uuid.New()})
		assert.Equal(t, shared.KindNotFound, shared.KindOf(err))
	})
}

func TestOutboxService_RetryAllDeadLetters(t *testing.T) {
	var entries []*shared.OutboxEntry
	for range retryBatchSize + 5 {
		entries = append(entries, outboxEntry(shared.OutboxStatusDead))
	}
	entries = append(entries, outboxEntry(shared.OutboxStatusSent))
	repo := newMemoryOutboxRepo(entries...)
	svc := NewOutboxService(repo)

	result, err := svc.RetryAllDeadLetters(adminContext(), RetryAllDeadLetters{})
	require.NoError(t, err)
	assert.Equal(t, int64(retryBatchSize+5), result.Requeued)

	stats, err := svc.GetOutboxStats(adminContext(), GetOutboxStats{})
	require.NoError(t, err)
	assert.Equal(t, int64(retryBatchSize+5), stats.Pending)
	assert.Equal(t, int64(1), stats.Sent)
	assert.Zero(t, stats.Dead)
	assert.Equal(t, int64(retryBatchSize+6), stats.Total)
}

func TestOutboxService_Register(t *testing.T) {
	d := command.NewDispatcher()
	NewOutboxService(newMemoryOutboxRepo(outboxEntry(shared.OutboxStatusFailed))).Register(d)

	assert.Equal(t, []string{"GetOutboxStats", "ListDeadLetters", "RetryAllDeadLetters", "RetryDeadLetter"}, d.Commands())

	stats, err := command.DispatchAs[*OutboxStatsDTO](adminContext(), d, GetOutboxStats{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Failed)
}
