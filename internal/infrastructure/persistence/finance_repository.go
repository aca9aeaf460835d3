package persistence

import (
	"context"
	"time"

	"github.com/erp/backoffice/internal/domain/finance"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormChequeRepository implements finance.ChequeRepository using GORM
type GormChequeRepository struct {
	db *gorm.DB
}

// NewGormChequeRepository creates a new GormChequeRepository
func NewGormChequeRepository(db *gorm.DB) *GormChequeRepository {
	return &GormChequeRepository{db: db}
}

// FindByID finds a cheque visible to the caller
func (r *GormChequeRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Cheque, error) {
	var m models.ChequeModel
	if err := Conn(ctx, r.db).First(&m, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "cheque")
	}
	return m.ToDomain(), nil
}

func (r *GormChequeRepository) filtered(ctx context.Context, filter finance.ChequeFilter) *gorm.DB {
	query := Conn(ctx, r.db).Model(&models.ChequeModel{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Direction != "" {
		query = query.Where("direction = ?", filter.Direction)
	}
	return query
}

// FindAll returns one page of the cheques visible to the caller and the total count
func (r *GormChequeRepository) FindAll(ctx context.Context, filter finance.ChequeFilter) ([]finance.Cheque, int64, error) {
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ChequeModel
	if err := Paginate(r.filtered(ctx, filter), filter.Filter, ChequeSortColumns).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	cheques := make([]finance.Cheque, 0, len(rows))
	for i := range rows {
		cheques = append(cheques, *rows[i].ToDomain())
	}
	return cheques, total, nil
}

// Create inserts a new cheque
func (r *GormChequeRepository) Create(ctx context.Context, cheque *finance.Cheque) error {
	return Conn(ctx, r.db).Create(models.ChequeModelFromDomain(cheque)).Error
}

// SaveWithVersion writes the cheque status under the version check
func (r *GormChequeRepository) SaveWithVersion(ctx context.Context, cheque *finance.Cheque, expected shared.VersionToken) error {
	m := models.ChequeModelFromDomain(cheque)
	next, err := UpdateWithVersion(ctx, r.db, &models.ChequeModel{}, cheque.ID, expected, m.StateColumns())
	if err != nil {
		return err
	}
	cheque.SetVersionToken(next)
	return nil
}

var _ finance.ChequeRepository = (*GormChequeRepository)(nil)

// GormPaymentRepository implements finance.PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByID finds a payment visible to the caller
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Payment, error) {
	var m models.PaymentModel
	if err := Conn(ctx, r.db).First(&m, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "payment")
	}
	return m.ToDomain(), nil
}

func (r *GormPaymentRepository) filtered(ctx context.Context, filter finance.PaymentFilter) *gorm.DB {
	query := Conn(ctx, r.db).Model(&models.PaymentModel{})
	if filter.Direction != "" {
		query = query.Where("direction = ?", filter.Direction)
	}
	if filter.SourceType != "" {
		query = query.Where("source_type = ?", filter.SourceType)
	}
	if filter.SourceID != nil {
		query = query.Where("source_id = ?", *filter.SourceID)
	}
	return query
}

// FindAll returns one page of the payments visible to the caller and the total count
func (r *GormPaymentRepository) FindAll(ctx context.Context, filter finance.PaymentFilter) ([]finance.Payment, int64, error) {
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.PaymentModel
	if err := Paginate(r.filtered(ctx, filter), filter.Filter, PaymentSortColumns).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	payments := make([]finance.Payment, 0, len(rows))
	for i := range rows {
		payments = append(payments, *rows[i].ToDomain())
	}
	return payments, total, nil
}

// Create inserts a new payment
func (r *GormPaymentRepository) Create(ctx context.Context, payment *finance.Payment) error {
	return Conn(ctx, r.db).Create(models.PaymentModelFromDomain(payment)).Error
}

var _ finance.PaymentRepository = (*GormPaymentRepository)(nil)

// GormExpenseListRepository implements finance.ExpenseListRepository using GORM
type GormExpenseListRepository struct {
	db *gorm.DB
}

// NewGormExpenseListRepository creates a new GormExpenseListRepository
func NewGormExpenseListRepository(db *gorm.DB) *GormExpenseListRepository {
	return &GormExpenseListRepository{db: db}
}

// FindByID finds an expense list visible to the caller, removed lines included
func (r *GormExpenseListRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.ExpenseList, error) {
	var m models.ExpenseListModel
	if err := Conn(ctx, r.db).
		Preload("Lines", orderedLines).
		First(&m, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "expense list")
	}
	return m.ToDomain(), nil
}

// FindByIDIncludingDeleted ignores soft deletion but not the branch scope
func (r *GormExpenseListRepository) FindByIDIncludingDeleted(ctx context.Context, id uuid.UUID) (*finance.ExpenseList, error) {
	var m models.ExpenseListModel
	if err := Conn(ctx, r.db).
		Unscoped().
		Preload("Lines", orderedLines).
		First(&m, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "expense list")
	}
	return m.ToDomain(), nil
}

// FindAll returns one page of the expense lists visible to the caller and the total count
func (r *GormExpenseListRepository) FindAll(ctx context.Context, filter shared.Filter) ([]finance.ExpenseList, int64, error) {
	base := func() *gorm.DB {
		query := Conn(ctx, r.db).Model(&models.ExpenseListModel{})
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
		return query
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ExpenseListModel
	if err := Paginate(base(), filter, ExpenseListSortColumns).
		Preload("Lines", orderedLines).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	lists := make([]finance.ExpenseList, 0, len(rows))
	for i := range rows {
		lists = append(lists, *rows[i].ToDomain())
	}
	return lists, total, nil
}

// Create inserts a new expense list with its lines
func (r *GormExpenseListRepository) Create(ctx context.Context, list *finance.ExpenseList) error {
	return Conn(ctx, r.db).Create(models.ExpenseListModelFromDomain(list)).Error
}

// SaveWithVersion writes the list header under the version check and then
// upserts its lines. Removed lines stay as flagged rows.
func (r *GormExpenseListRepository) SaveWithVersion(ctx context.Context, list *finance.ExpenseList, expected shared.VersionToken) error {
	m := models.ExpenseListModelFromDomain(list)
	return writeInTx(ctx, r.db, func(ctx context.Context) error {
		next, err := UpdateWithVersion(ctx, r.db, &models.ExpenseListModel{}, list.ID, expected, m.StateColumns())
		if err != nil {
			return err
		}
		for i := range m.Lines {
			if err := Conn(ctx, r.db).Save(&m.Lines[i]).Error; err != nil {
				return err
			}
		}
		list.SetVersionToken(next)
		return nil
	})
}

// Delete soft-deletes the list under the version check
func (r *GormExpenseListRepository) Delete(ctx context.Context, list *finance.ExpenseList, expected shared.VersionToken) error {
	now := time.Now()
	next, err := UpdateWithVersion(ctx, r.db, &models.ExpenseListModel{}, list.ID, expected, map[string]any{
		"deleted_at": now,
	})
	if err != nil {
		return err
	}
	list.DeletedAt = &now
	list.SetVersionToken(next)
	return nil
}

var _ finance.ExpenseListRepository = (*GormExpenseListRepository)(nil)
