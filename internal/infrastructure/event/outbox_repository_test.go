package event

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/persistence"
	"github.com/erp/backoffice/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEntry(branchID uuid.UUID) *shared.OutboxEntry {
	event := shared.NewStatusChanged("Order", uuid.New(), branchID, "DRAFT", "APPROVED")
	return shared.NewOutboxEntry(event, []byte(`{"from":"DRAFT","to":"APPROVED"}`))
}

func TestGormOutboxRepository_Save_Empty(t *testing.T) {
	mdb := testutil.NewMockDB(t)
	repo := NewGormOutboxRepository(mdb.DB)

	require.NoError(t, repo.Save(context.Background()))
	mdb.ExpectationsWereMet(t)
}

func TestGormOutboxRepository_SaveAndFindDeliverable(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewGormOutboxRepository(db)
	branch := testutil.NewTestUUID("branch-7")
	ctx := testutil.BranchCaller(branch)

	first := newTestEntry(branch)
	second := newTestEntry(testutil.NewTestUUID("branch-8"))
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	require.NoError(t, repo.Save(ctx, first, second))

	// The relay sees every branch, not only the caller's.
	entries, err := repo.FindDeliverable(ctx, time.Now(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, first.ID, entries[0].ID)
	assert.Equal(t, second.ID, entries[1].ID)
	assert.Equal(t, first.Payload, entries[0].Payload)
	assert.Equal(t, branch, entries[0].BranchID)

	limited, err := repo.FindDeliverable(ctx, time.Now(), 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestGormOutboxRepository_FindDeliverable_SkipsNotDue(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewGormOutboxRepository(db)
	ctx := context.Background()
	branch := uuid.New()

	due := newTestEntry(branch)
	later := newTestEntry(branch)
	sent := newTestEntry(branch)
	dead := newTestEntry(branch)
	require.NoError(t, repo.Save(ctx, due, later, sent, dead))

	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	due.MarkFailed("boom")
	due.NextRetryAt = &past
	require.NoError(t, repo.Update(ctx, due))

	later.MarkFailed("boom")
	later.NextRetryAt = &future
	require.NoError(t, repo.Update(ctx, later))

	sent.MarkSent()
	require.NoError(t, repo.Update(ctx, sent))

	dead.MaxRetries = 1
	dead.MarkFailed("boom")
	require.True(t, dead.IsDead())
	require.NoError(t, repo.Update(ctx, dead))

	entries, err := repo.FindDeliverable(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, due.ID, entries[0].ID)
	assert.Equal(t, shared.OutboxStatusFailed, entries[0].Status)
	assert.Equal(t, 1, entries[0].RetryCount)
	assert.Equal(t, "boom", entries[0].LastError)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[shared.OutboxStatusFailed])
	assert.Equal(t, int64(1), counts[shared.OutboxStatusSent])
	assert.Equal(t, int64(1), counts[shared.OutboxStatusDead])
}

func TestGormOutboxRepository_SaveJoinsTransaction(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewGormOutboxRepository(db)
	ctx := context.Background()

	err := persistence.NewTxCoordinator(db).Run(ctx, true, func(ctx context.Context) error {
		require.NoError(t, repo.Save(ctx, newTestEntry(uuid.New())))
		return shared.ErrConcurrencyConflict
	})
	require.ErrorIs(t, err, shared.ErrConcurrencyConflict)

	entries, err := repo.FindDeliverable(ctx, time.Now(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGormOutboxRepository_DeleteSentBefore(t *testing.T) {
	mdb := testutil.NewMockDB(t)
	repo := NewGormOutboxRepository(mdb.DB)

	before := time.Now().Add(-7 * 24 * time.Hour)

	mdb.Mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "outbox_events" WHERE status = $1 AND processed_at < $2`)).
		WithArgs(shared.OutboxStatusSent, before).
		WillReturnResult(sqlmock.NewResult(0, 5))

	deleted, err := repo.DeleteSentBefore(context.Background(), before)

	require.NoError(t, err)
	assert.Equal(t, int64(5), deleted)
	mdb.ExpectationsWereMet(t)
}

func TestGormOutboxRepository_FindDeadAndFindByID(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewGormOutboxRepository(db)
	ctx := testutil.BranchCaller(testutil.NewTestUUID("branch-7"))

	dead := newTestEntry(testutil.NewTestUUID("branch-8"))
	dead.Status = shared.OutboxStatusDead
	dead.LastError = "handler exploded"
	pending := newTestEntry(testutil.NewTestUUID("branch-7"))
	require.NoError(t, repo.Save(ctx, dead, pending))

	entries, total, err := repo.FindDead(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, entries, 1)
	assert.Equal(t, dead.ID, entries[0].ID)
	assert.Equal(t, "handler exploded", entries[0].LastError)

	found, err := repo.FindByID(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, shared.OutboxStatusPending, found.Status)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.Equal(t, shared.KindNotFound, shared.KindOf(err))
}
