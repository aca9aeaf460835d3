package partner

import (
	"context"
	"fmt"
	"strings"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
)

// ContactKind is the role a contact plays towards the company
type ContactKind string

const (
	ContactCustomer ContactKind = "CUSTOMER"
	ContactSupplier ContactKind = "SUPPLIER"
	ContactBoth     ContactKind = "BOTH"
)

// IsValid checks if the kind is valid
func (k ContactKind) IsValid() bool {
	switch k {
	case ContactCustomer, ContactSupplier, ContactBoth:
		return true
	}
	return false
}

// Contact is a customer or supplier shared by all branches
type Contact struct {
	shared.BaseEntity
	Code      string
	Name      string
	Kind      ContactKind
	TaxNumber string
	Active    bool
}

// NewContact creates an active contact
func NewContact(code, name string, kind ContactKind) (*Contact, error) {
	code = strings.TrimSpace(code)
	name = strings.TrimSpace(name)
	if code == "" {
		return nil, shared.NewValidationError("INVALID_CODE", "Contact code cannot be empty")
	}
	if name == "" {
		return nil, shared.NewValidationError("INVALID_NAME", "Contact name cannot be empty")
	}
	if !kind.IsValid() {
		return nil, shared.NewValidationError("INVALID_KIND", fmt.Sprintf("Unknown contact kind %q", kind))
	}
	return &Contact{
		BaseEntity: shared.NewBaseEntity(),
		Code:       strings.ToUpper(code),
		Name:       name,
		Kind:       kind,
		Active:     true,
	}, nil
}

// IsCustomer reports whether the contact can be sold to
func (c *Contact) IsCustomer() bool {
	return c.Kind == ContactCustomer || c.Kind == ContactBoth
}

// IsSupplier reports whether the contact can be bought from
func (c *Contact) IsSupplier() bool {
	return c.Kind == ContactSupplier || c.Kind == ContactBoth
}

// EnsureSupplier fails unless the contact is an active supplier
func (c *Contact) EnsureSupplier() error {
	if !c.Active || !c.IsSupplier() {
		return shared.NewDomainError("NOT_A_SUPPLIER", fmt.Sprintf("Contact %s is not an active supplier", c.Code))
	}
	return nil
}

// EnsureCustomer fails unless the contact is an active customer
func (c *Contact) EnsureCustomer() error {
	if !c.Active || !c.IsCustomer() {
		return shared.NewDomainError("NOT_A_CUSTOMER", fmt.Sprintf("Contact %s is not an active customer", c.Code))
	}
	return nil
}

// ContactRepository reads and stores contacts
type ContactRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Contact, error)
	Save(ctx context.Context, contact *Contact) error
}
