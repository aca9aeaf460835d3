package valueobject

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits a value is rounded to.
type Scale int32

const (
	ScaleAmount   Scale = 2 // monetary amounts
	ScaleRate     Scale = 3 // exchange and tax rates
	ScaleQuantity Scale = 4 // quantities and unit prices
)

// IsValid reports whether s is one of the supported scales.
func (s Scale) IsValid() bool {
	return s == ScaleAmount || s == ScaleRate || s == ScaleQuantity
}

// ParseScale converts an integer into a supported Scale.
func ParseScale(n int) (Scale, error) {
	s := Scale(n)
	if !s.IsValid() {
		return 0, fmt.Errorf("unsupported scale %d: must be 2, 3 or 4", n)
	}
	return s, nil
}

func (s Scale) orDefault() int32 {
	if !s.IsValid() {
		return int32(ScaleAmount)
	}
	return int32(s)
}

// Round rounds half away from zero: 2.345 -> 2.35, -2.345 -> -2.35.
func Round(value decimal.Decimal, scale Scale) decimal.Decimal {
	return value.Round(scale.orDefault())
}

// Format renders value rounded at scale with a dot separator, no grouping
// and exactly scale fractional digits. A value that rounds to zero is unsigned.
func Format(value decimal.Decimal, scale Scale) string {
	return Round(value, scale).StringFixed(scale.orDefault())
}

// LineAmounts holds the rounded amounts of one document line or of a whole document.
type LineAmounts struct {
	Net   decimal.Decimal `json:"net"`
	Vat   decimal.Decimal `json:"vat"`
	Gross decimal.Decimal `json:"gross"`
}

var hundred = decimal.NewFromInt(100)

// ComputeLine derives net, VAT and gross for a single line.
// Net and VAT are each rounded at the monetary scale before gross is summed,
// so gross always equals net + vat exactly.
func ComputeLine(quantity, unitPrice, vatRatePercent decimal.Decimal) LineAmounts {
	net := Round(quantity.Mul(unitPrice), ScaleAmount)
	vat := Round(net.Mul(vatRatePercent).Div(hundred), ScaleAmount)
	return LineAmounts{
		Net:   net,
		Vat:   vat,
		Gross: net.Add(vat),
	}
}

// ComputeTotals sums already-rounded line amounts and rounds the sums once more.
// It never recomputes VAT from the document net total.
func ComputeTotals(lines []LineAmounts) LineAmounts {
	net, vat, gross := decimal.Zero, decimal.Zero, decimal.Zero
	for _, l := range lines {
		net = net.Add(l.Net)
		vat = vat.Add(l.Vat)
		gross = gross.Add(l.Gross)
	}
	return LineAmounts{
		Net:   Round(net, ScaleAmount),
		Vat:   Round(vat, ScaleAmount),
		Gross: Round(gross, ScaleAmount),
	}
}
