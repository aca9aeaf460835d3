package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockStockLevelRepository struct {
	mock.Mock
}

func (m *MockStockLevelRepository) FindByBranchAndItem(ctx context.Context, branchID, itemID uuid.UUID) (*StockLevel, error) {
	args := m.Called(ctx, branchID, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*StockLevel), args.Error(1)
}

func (m *MockStockLevelRepository) FindByBranchAndItems(ctx context.Context, branchID uuid.UUID, itemIDs []uuid.UUID) ([]StockLevel, error) {
	args := m.Called(ctx, branchID, itemIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]StockLevel), args.Error(1)
}

func TestStockService_ValidateAvailability(t *testing.T) {
	ctx := context.Background()
	branch, item := uuid.New(), uuid.New()
	level := &StockLevel{BranchID: branch, ItemID: item, Quantity: decimal.NewFromInt(10), Reserved: decimal.NewFromInt(4)}

	tests := []struct {
		name     string
		level    *StockLevel
		findErr  error
		required string
		wantErr  error
	}{
		{"enough", level, nil, "6", nil},
		{"reserved stock is not available", level, nil, "7", shared.ErrInsufficientStock},
		{"missing row means none", nil, shared.NewNotFoundError("stock level"), "1", shared.ErrInsufficientStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockStockLevelRepository)
			repo.On("FindByBranchAndItem", ctx, branch, item).Return(tt.level, tt.findErr)
			svc := NewStockService(repo)

			err := svc.ValidateAvailability(ctx, branch, item, decimal.RequireFromString(tt.required))

			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, shared.KindBusinessRule, shared.KindOf(err))
			}
			repo.AssertExpectations(t)
		})
	}

	t.Run("storage errors pass through", func(t *testing.T) {
		repo := new(MockStockLevelRepository)
		boom := errors.New("connection reset")
		repo.On("FindByBranchAndItem", ctx, branch, item).Return(nil, boom)

		err := NewStockService(repo).ValidateAvailability(ctx, branch, item, decimal.NewFromInt(1))
		assert.ErrorIs(t, err, boom)
	})
}

func TestStockService_GetStockStatus(t *testing.T) {
	ctx := context.Background()
	branch, a, b := uuid.New(), uuid.New(), uuid.New()
	repo := new(MockStockLevelRepository)
	repo.On("FindByBranchAndItems", ctx, branch, []uuid.UUID{a, b}).
		Return([]StockLevel{{ItemID: a, Quantity: decimal.NewFromInt(5), Reserved: decimal.Zero}}, nil)

	status, err := NewStockService(repo).GetStockStatus(ctx, branch, []uuid.UUID{a, b})

	require.NoError(t, err)
	require.Len(t, status, 2)
	assert.True(t, status[0].Available.Equal(decimal.NewFromInt(5)))
	assert.True(t, status[1].Available.IsZero())
}
