package partner

import (
	"testing"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewContact(t *testing.T) {
	c, err := NewContact(" acme ", "Acme Ltd", ContactSupplier)
	require.NoError(t, err)
	assert.Equal(t, "ACME", c.Code)
	assert.True(t, c.Active)

	_, err = NewContact("", "x", ContactCustomer)
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))
	_, err = NewContact("x", "x", "EMPLOYEE")
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))
}

func TestContact_Roles(t *testing.T) {
	tests := []struct {
		kind     ContactKind
		customer bool
		supplier bool
	}{
		{ContactCustomer, true, false},
		{ContactSupplier, false, true},
		{ContactBoth, true, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			c, err := NewContact("C1", "Contact", tt.kind)
			require.NoError(t, err)
			assert.Equal(t, tt.customer, c.IsCustomer())
			assert.Equal(t, tt.supplier, c.IsSupplier())
			assert.Equal(t, tt.customer, c.EnsureCustomer() == nil)
			assert.Equal(t, tt.supplier, c.EnsureSupplier() == nil)
		})
	}

	t.Run("inactive supplier is rejected", func(t *testing.T) {
		c, _ := NewContact("C2", "Old", ContactSupplier)
		c.Active = false
		assert.Equal(t, shared.KindBusinessRule, shared.KindOf(c.EnsureSupplier()))
	})
}
