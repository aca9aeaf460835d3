package models

import (
	"time"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DocumentModel provides the persistence fields common to every business
// document: the owning branch, the version token and the soft-delete marker.
type DocumentModel struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey"`
	BranchID     uuid.UUID      `gorm:"type:uuid;not null;index"`
	VersionToken []byte         `gorm:"not null"`
	CreatedAt    time.Time      `gorm:"not null"`
	UpdatedAt    time.Time      `gorm:"not null"`
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

// FromDomainDocument populates DocumentModel from a domain BaseDocument
func (m *DocumentModel) FromDomainDocument(d shared.BaseDocument) {
	m.ID = d.ID
	m.BranchID = d.BranchID
	m.VersionToken = []byte(d.VersionToken)
	m.CreatedAt = d.CreatedAt
	m.UpdatedAt = d.UpdatedAt
	if d.DeletedAt != nil {
		m.DeletedAt = gorm.DeletedAt{Time: *d.DeletedAt, Valid: true}
	}
}

// ToDomainDocument converts DocumentModel to a domain BaseDocument
func (m *DocumentModel) ToDomainDocument() shared.BaseDocument {
	d := shared.BaseDocument{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		BranchID:     m.BranchID,
		VersionToken: shared.VersionToken(m.VersionToken),
	}
	if m.DeletedAt.Valid {
		t := m.DeletedAt.Time
		d.DeletedAt = &t
	}
	return d
}
