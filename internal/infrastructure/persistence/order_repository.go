package persistence

import (
	"context"
	"time"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/domain/trade"
	"github.com/erp/backoffice/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormOrderRepository implements trade.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds a live order visible to the caller
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Order, error) {
	var m models.OrderModel
	if err := Conn(ctx, r.db).
		Preload("Lines", orderedLines).
		First(&m, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "order")
	}
	return m.ToDomain(), nil
}

// FindByIDIncludingDeleted finds an order visible to the caller even when it
// was soft-deleted
func (r *GormOrderRepository) FindByIDIncludingDeleted(ctx context.Context, id uuid.UUID) (*trade.Order, error) {
	var m models.OrderModel
	if err := Conn(ctx, r.db).
		Unscoped().
		Preload("Lines", orderedLines).
		First(&m, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "order")
	}
	return m.ToDomain(), nil
}

func (r *GormOrderRepository) filtered(ctx context.Context, filter trade.OrderFilter) *gorm.DB {
	query := Conn(ctx, r.db).Model(&models.OrderModel{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.ContactID != nil {
		query = query.Where("contact_id = ?", *filter.ContactID)
	}
	return query
}

// FindAll returns one page of the orders visible to the caller and the total count
func (r *GormOrderRepository) FindAll(ctx context.Context, filter trade.OrderFilter) ([]trade.Order, int64, error) {
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.OrderModel
	if err := Paginate(r.filtered(ctx, filter), filter.Filter, OrderSortColumns).
		Preload("Lines", orderedLines).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	orders := make([]trade.Order, 0, len(rows))
	for i := range rows {
		orders = append(orders, *rows[i].ToDomain())
	}
	return orders, total, nil
}

// Create inserts a new order with its lines
func (r *GormOrderRepository) Create(ctx context.Context, order *trade.Order) error {
	return Conn(ctx, r.db).Create(models.OrderModelFromDomain(order)).Error
}

// SaveWithVersion writes the order header under the version check and then
// replaces its lines
func (r *GormOrderRepository) SaveWithVersion(ctx context.Context, order *trade.Order, expected shared.VersionToken) error {
	m := models.OrderModelFromDomain(order)
	return writeInTx(ctx, r.db, func(ctx context.Context) error {
		next, err := UpdateWithVersion(ctx, r.db, &models.OrderModel{}, order.ID, expected, m.StateColumns())
		if err != nil {
			return err
		}
		if err := Conn(ctx, r.db).Where("order_id = ?", order.ID).Delete(&models.OrderLineModel{}).Error; err != nil {
			return err
		}
		if len(m.Lines) > 0 {
			if err := Conn(ctx, r.db).Create(&m.Lines).Error; err != nil {
				return err
			}
		}
		order.SetVersionToken(next)
		return nil
	})
}

// Delete soft-deletes the order under the version check
func (r *GormOrderRepository) Delete(ctx context.Context, order *trade.Order, expected shared.VersionToken) error {
	now := time.Now()
	next, err := UpdateWithVersion(ctx, r.db, &models.OrderModel{}, order.ID, expected, map[string]any{
		"deleted_at": now,
	})
	if err != nil {
		return err
	}
	order.DeletedAt = &now
	order.SetVersionToken(next)
	return nil
}

var _ trade.OrderRepository = (*GormOrderRepository)(nil)

// GormInvoiceRepository implements trade.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID finds an invoice visible to the caller
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Invoice, error) {
	var m models.InvoiceModel
	if err := Conn(ctx, r.db).
		Preload("Lines", orderedLines).
		First(&m, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "invoice")
	}
	return m.ToDomain(), nil
}

// FindBySource returns the invoices created from the given source document
func (r *GormInvoiceRepository) FindBySource(ctx context.Context, sourceType trade.SourceType, sourceID uuid.UUID) ([]trade.Invoice, error) {
	var rows []models.InvoiceModel
	if err := Conn(ctx, r.db).
		Preload("Lines", orderedLines).
		Where("source_type = ? AND source_id = ?", sourceType, sourceID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	invoices := make([]trade.Invoice, 0, len(rows))
	for i := range rows {
		invoices = append(invoices, *rows[i].ToDomain())
	}
	return invoices, nil
}

// Create inserts a new invoice with its lines
func (r *GormInvoiceRepository) Create(ctx context.Context, invoice *trade.Invoice) error {
	return Conn(ctx, r.db).Create(models.InvoiceModelFromDomain(invoice)).Error
}

// SaveWithVersion writes the invoice status under the version check. Issued
// lines never change.
func (r *GormInvoiceRepository) SaveWithVersion(ctx context.Context, invoice *trade.Invoice, expected shared.VersionToken) error {
	m := models.InvoiceModelFromDomain(invoice)
	next, err := UpdateWithVersion(ctx, r.db, &models.InvoiceModel{}, invoice.ID, expected, m.StateColumns())
	if err != nil {
		return err
	}
	invoice.SetVersionToken(next)
	return nil
}

var _ trade.InvoiceRepository = (*GormInvoiceRepository)(nil)
