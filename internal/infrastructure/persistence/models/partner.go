package models

import (
	"time"

	"github.com/erp/backoffice/internal/domain/partner"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
)

// ContactModel is the persistence model for customers and suppliers.
// Contacts are shared by all branches and carry no branch_id.
type ContactModel struct {
	ID        uuid.UUID           `gorm:"type:uuid;primaryKey"`
	Code      string              `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name      string              `gorm:"type:varchar(200);not null"`
	Kind      partner.ContactKind `gorm:"type:varchar(20);not null;index"`
	TaxNumber string              `gorm:"type:varchar(50)"`
	Active    bool                `gorm:"not null"`
	CreatedAt time.Time           `gorm:"not null"`
	UpdatedAt time.Time           `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ContactModel) TableName() string {
	return "contacts"
}

// ToDomain converts the persistence model to a domain Contact
func (m *ContactModel) ToDomain() *partner.Contact {
	return &partner.Contact{
		BaseEntity: shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		Code:       m.Code,
		Name:       m.Name,
		Kind:       m.Kind,
		TaxNumber:  m.TaxNumber,
		Active:     m.Active,
	}
}

// ContactModelFromDomain creates a new persistence model from a domain Contact
func ContactModelFromDomain(c *partner.Contact) *ContactModel {
	return &ContactModel{
		ID:        c.ID,
		Code:      c.Code,
		Name:      c.Name,
		Kind:      c.Kind,
		TaxNumber: c.TaxNumber,
		Active:    c.Active,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
