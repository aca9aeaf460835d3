package persistence

import (
	"context"

	"github.com/erp/backoffice/internal/domain/inventory"
	"github.com/erp/backoffice/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStockLevelRepository implements inventory.StockLevelRepository using GORM
type GormStockLevelRepository struct {
	db *gorm.DB
}

// NewGormStockLevelRepository creates a new GormStockLevelRepository
func NewGormStockLevelRepository(db *gorm.DB) *GormStockLevelRepository {
	return &GormStockLevelRepository{db: db}
}

// FindByBranchAndItem returns the stock of one item at one branch
func (r *GormStockLevelRepository) FindByBranchAndItem(ctx context.Context, branchID, itemID uuid.UUID) (*inventory.StockLevel, error) {
	var m models.StockLevelModel
	if err := Conn(ctx, r.db).
		Where("branch_id = ? AND item_id = ?", branchID, itemID).
		First(&m).Error; err != nil {
		return nil, notFound(err, "stock level")
	}
	return m.ToDomain(), nil
}

// FindByBranchAndItems returns the stock rows present for the given items at one branch
func (r *GormStockLevelRepository) FindByBranchAndItems(ctx context.Context, branchID uuid.UUID, itemIDs []uuid.UUID) ([]inventory.StockLevel, error) {
	if len(itemIDs) == 0 {
		return []inventory.StockLevel{}, nil
	}
	var rows []models.StockLevelModel
	if err := Conn(ctx, r.db).
		Where("branch_id = ? AND item_id IN ?", branchID, itemIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	levels := make([]inventory.StockLevel, 0, len(rows))
	for i := range rows {
		levels = append(levels, *rows[i].ToDomain())
	}
	return levels, nil
}

// Save upserts a stock level
func (r *GormStockLevelRepository) Save(ctx context.Context, level *inventory.StockLevel) error {
	return Conn(ctx, r.db).Save(models.StockLevelModelFromDomain(level)).Error
}

var _ inventory.StockLevelRepository = (*GormStockLevelRepository)(nil)
