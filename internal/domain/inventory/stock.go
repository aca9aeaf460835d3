package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockLevel is the on-hand quantity of one item in one branch
type StockLevel struct {
	ID        uuid.UUID
	BranchID  uuid.UUID
	ItemID    uuid.UUID
	Quantity  decimal.Decimal
	Reserved  decimal.Decimal
	UpdatedAt time.Time
}

// Available returns the quantity that can still be sold
func (s *StockLevel) Available() decimal.Decimal {
	return s.Quantity.Sub(s.Reserved)
}

// StockStatus is the read-side view of an item's availability
type StockStatus struct {
	ItemID    uuid.UUID       `json:"item_id"`
	Available decimal.Decimal `json:"available"`
}

// StockLevelRepository reads stock levels. Writes happen in the stock module,
// outside this service.
type StockLevelRepository interface {
	FindByBranchAndItem(ctx context.Context, branchID, itemID uuid.UUID) (*StockLevel, error)
	FindByBranchAndItems(ctx context.Context, branchID uuid.UUID, itemIDs []uuid.UUID) ([]StockLevel, error)
}

// StockService answers availability questions for order approval
type StockService struct {
	repo StockLevelRepository
}

// NewStockService creates a StockService
func NewStockService(repo StockLevelRepository) *StockService {
	return &StockService{repo: repo}
}

// ValidateAvailability fails with INSUFFICIENT_STOCK when the branch holds
// less of itemID than required. An item with no stock row has none available.
func (s *StockService) ValidateAvailability(ctx context.Context, branchID, itemID uuid.UUID, required decimal.Decimal) error {
	available := decimal.Zero
	level, err := s.repo.FindByBranchAndItem(ctx, branchID, itemID)
	switch {
	case err == nil:
		available = level.Available()
	case shared.KindOf(err) != shared.KindNotFound:
		return err
	}

	if available.LessThan(required) {
		return shared.NewDomainError(shared.ErrInsufficientStock.Code,
			fmt.Sprintf("Insufficient stock for item %s: required %s, available %s", itemID,
				valueobject.Format(required, valueobject.ScaleQuantity),
				valueobject.Format(available, valueobject.ScaleQuantity)))
	}
	return nil
}

// GetStockStatus returns the available quantity for each requested item.
// Items without a stock row are reported with zero.
func (s *StockService) GetStockStatus(ctx context.Context, branchID uuid.UUID, itemIDs []uuid.UUID) ([]StockStatus, error) {
	levels, err := s.repo.FindByBranchAndItems(ctx, branchID, itemIDs)
	if err != nil {
		return nil, err
	}
	byItem := make(map[uuid.UUID]decimal.Decimal, len(levels))
	for _, l := range levels {
		byItem[l.ItemID] = l.Available()
	}
	out := make([]StockStatus, len(itemIDs))
	for i, id := range itemIDs {
		out[i] = StockStatus{ItemID: id, Available: byItem[id]}
	}
	return out, nil
}
