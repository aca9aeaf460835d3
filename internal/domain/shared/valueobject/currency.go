package valueobject

import (
	"fmt"

	"github.com/erp/backoffice/internal/domain/shared"
)

// Currency is an ISO 4217 code. Only the currencies the books are kept in
// are accepted.
type Currency string

const (
	TRY Currency = "TRY"
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
)

// DefaultCurrency applies to documents that name no currency
const DefaultCurrency = TRY

var supportedCurrencies = map[Currency]struct{}{TRY: {}, USD: {}, EUR: {}, GBP: {}}

func (c Currency) IsValid() bool {
	_, ok := supportedCurrencies[c]
	return ok
}

// ParseCurrency validates a currency code
func ParseCurrency(code string) (Currency, error) {
	if c := Currency(code); c.IsValid() {
		return c, nil
	}
	return "", fmt.Errorf("unsupported currency: %q", code)
}

// CurrencyOrDefault parses a requested code. Empty means DefaultCurrency; an
// unknown code is a validation error.
func CurrencyOrDefault(code string) (Currency, error) {
	if code == "" {
		return DefaultCurrency, nil
	}
	c, err := ParseCurrency(code)
	if err != nil {
		return "", shared.NewValidationError("INVALID_CURRENCY", err.Error())
	}
	return c, nil
}
