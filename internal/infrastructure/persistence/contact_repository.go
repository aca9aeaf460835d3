package persistence

import (
	"context"

	"github.com/erp/backoffice/internal/domain/partner"
	"github.com/erp/backoffice/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormContactRepository implements partner.ContactRepository using GORM.
// Contacts are shared by all branches.
type GormContactRepository struct {
	db *gorm.DB
}

// NewGormContactRepository creates a new GormContactRepository
func NewGormContactRepository(db *gorm.DB) *GormContactRepository {
	return &GormContactRepository{db: db}
}

// FindByID finds a contact by its ID
func (r *GormContactRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Contact, error) {
	var m models.ContactModel
	if err := Conn(ctx, r.db).First(&m, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "contact")
	}
	return m.ToDomain(), nil
}

// Save creates or updates a contact
func (r *GormContactRepository) Save(ctx context.Context, contact *partner.Contact) error {
	return Conn(ctx, r.db).Save(models.ContactModelFromDomain(contact)).Error
}

var _ partner.ContactRepository = (*GormContactRepository)(nil)
