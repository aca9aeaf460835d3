package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/persistence/branchscope"
	"github.com/erp/backoffice/internal/infrastructure/persistence/models"
	"github.com/erp/backoffice/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const guardedUpdate = `UPDATE "orders" SET .* WHERE \(id = \$\d+ AND version_token = \$\d+\)`

func TestUpdateWithVersion(t *testing.T) {
	ctx := branchscope.WithoutScope(context.Background())
	id := uuid.New()

	t.Run("matching token issues a new one", func(t *testing.T) {
		mdb := testutil.NewMockDB(t)
		expected := shared.NewVersionToken()

		mdb.Mock.ExpectExec(guardedUpdate).WillReturnResult(sqlmock.NewResult(0, 1))

		next, err := UpdateWithVersion(ctx, mdb.DB, &models.OrderModel{}, id, expected,
			map[string]any{"status": "APPROVED"})

		require.NoError(t, err)
		assert.False(t, next.IsZero())
		assert.False(t, next.Equal(expected))
		mdb.ExpectationsWereMet(t)
	})

	t.Run("stale token is a conflict", func(t *testing.T) {
		mdb := testutil.NewMockDB(t)

		mdb.Mock.ExpectExec(guardedUpdate).WillReturnResult(sqlmock.NewResult(0, 0))

		_, err := UpdateWithVersion(ctx, mdb.DB, &models.OrderModel{}, id, shared.NewVersionToken(),
			map[string]any{"status": "APPROVED"})

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		mdb.ExpectationsWereMet(t)
	})

	t.Run("missing token is a conflict without touching the row", func(t *testing.T) {
		mdb := testutil.NewMockDB(t)

		_, err := UpdateWithVersion(ctx, mdb.DB, &models.OrderModel{}, id, nil,
			map[string]any{"status": "APPROVED"})

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		mdb.ExpectationsWereMet(t)
	})

	t.Run("driver error is returned as is", func(t *testing.T) {
		mdb := testutil.NewMockDB(t)
		dbErr := errors.New("connection reset")

		mdb.Mock.ExpectExec(guardedUpdate).WillReturnError(dbErr)

		_, err := UpdateWithVersion(ctx, mdb.DB, &models.OrderModel{}, id, shared.NewVersionToken(),
			map[string]any{"status": "APPROVED"})

		assert.ErrorIs(t, err, dbErr)
		assert.False(t, errors.Is(err, shared.ErrConcurrencyConflict))
	})
}

func TestUpdateWithVersion_BranchScoped(t *testing.T) {
	mdb := testutil.NewMockDB(t)
	branch := uuid.New()

	mdb.Mock.ExpectExec(guardedUpdate + `.*"orders"."branch_id" = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := UpdateWithVersion(testutil.BranchCaller(branch), mdb.DB, &models.OrderModel{}, uuid.New(),
		shared.NewVersionToken(), map[string]any{"status": "APPROVED"})

	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	mdb.ExpectationsWereMet(t)
}
