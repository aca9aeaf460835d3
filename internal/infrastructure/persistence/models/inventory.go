package models

import (
	"time"

	"github.com/erp/backoffice/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockLevelModel is the persistence model for the on-hand quantity of an
// item at one branch.
type StockLevelModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	BranchID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_branch_item,priority:1"`
	ItemID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_branch_item,priority:2"`
	Quantity  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Reserved  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UpdatedAt time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StockLevelModel) TableName() string {
	return "stock_levels"
}

// ToDomain converts the persistence model to a domain StockLevel
func (m *StockLevelModel) ToDomain() *inventory.StockLevel {
	return &inventory.StockLevel{
		ID:        m.ID,
		BranchID:  m.BranchID,
		ItemID:    m.ItemID,
		Quantity:  m.Quantity,
		Reserved:  m.Reserved,
		UpdatedAt: m.UpdatedAt,
	}
}

// StockLevelModelFromDomain creates a new persistence model from a domain StockLevel
func StockLevelModelFromDomain(s *inventory.StockLevel) *StockLevelModel {
	return &StockLevelModel{
		ID:        s.ID,
		BranchID:  s.BranchID,
		ItemID:    s.ItemID,
		Quantity:  s.Quantity,
		Reserved:  s.Reserved,
		UpdatedAt: s.UpdatedAt,
	}
}
