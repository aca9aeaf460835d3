package valueobject

import (
	"fmt"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PricedLine is the monetary part of any document line. Its amounts are always
// derived through ComputeLine and never set directly.
type PricedLine struct {
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	VatRate   decimal.Decimal
	LineAmounts
}

// NewPricedLine validates the inputs and computes the line amounts from them.
// Inputs finer than their stored scale are rejected rather than rounded, so
// the amounts always equal ComputeLine on exactly what is stored.
func NewPricedLine(quantity, unitPrice, vatRate decimal.Decimal) (PricedLine, error) {
	if quantity.IsZero() {
		return PricedLine{}, shared.NewValidationError("INVALID_QUANTITY", "Quantity cannot be zero")
	}
	if unitPrice.IsNegative() {
		return PricedLine{}, shared.NewValidationError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if vatRate.IsNegative() || vatRate.GreaterThan(hundred) {
		return PricedLine{}, shared.NewValidationError("INVALID_VAT_RATE", "VAT rate must be between 0 and 100")
	}
	if err := checkPrecision("quantity", quantity, ScaleQuantity); err != nil {
		return PricedLine{}, err
	}
	if err := checkPrecision("unit price", unitPrice, ScaleQuantity); err != nil {
		return PricedLine{}, err
	}
	if err := checkPrecision("VAT rate", vatRate, ScaleRate); err != nil {
		return PricedLine{}, err
	}

	return PricedLine{
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		VatRate:     vatRate,
		LineAmounts: ComputeLine(quantity, unitPrice, vatRate),
	}, nil
}

func checkPrecision(field string, value decimal.Decimal, scale Scale) error {
	if value.Equal(Round(value, scale)) {
		return nil
	}
	return shared.NewValidationError("INVALID_PRECISION",
		fmt.Sprintf("%s allows at most %d decimal places", field, int32(scale)))
}

// TotalsOf aggregates the amounts of the given lines.
func TotalsOf(lines []PricedLine) LineAmounts {
	amounts := make([]LineAmounts, len(lines))
	for i, l := range lines {
		amounts[i] = l.LineAmounts
	}
	return ComputeTotals(amounts)
}
