package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_IsMatchesByCode(t *testing.T) {
	err := NewNotFoundError("Order")

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(fmt.Errorf("load: %w", err), ErrNotFound))
	assert.False(t, errors.Is(err, ErrConcurrencyConflict))
	assert.Equal(t, "Order not found", err.Error())
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"not found", NewNotFoundError("Cheque"), KindNotFound},
		{"validation", NewValidationError("INVALID_RATE", "bad rate"), KindValidation},
		{"business rule", NewDomainError("EMPTY_EXPENSE_LIST", "no lines"), KindBusinessRule},
		{"conflict", ErrConcurrencyConflict, KindConcurrencyConflict},
		{"access denied", NewAccessDeniedError("nope"), KindAccessDenied},
		{"wrapped", fmt.Errorf("ctx: %w", ErrInvalidTransition), KindBusinessRule},
		{"plain error", errors.New("boom"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}
