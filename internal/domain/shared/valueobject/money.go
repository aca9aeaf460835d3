package valueobject

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Money pairs an amount with its currency. The amount is kept at full
// precision; callers round with Round at the point the rules require it.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	if currency == "" {
		return Money{}, errors.New("currency cannot be empty")
	}
	return Money{amount: amount, currency: currency}, nil
}

// ParseMoney reads a decimal string such as "1250.40"
func ParseMoney(amount string, currency Currency) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	return NewMoney(d, currency)
}

func Zero(currency Currency) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() Currency      { return m.currency }
func (m Money) IsZero() bool            { return m.amount.IsZero() }

// Plus adds other. Amounts in different currencies never mix.
func (m Money) Plus(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// Minus subtracts other under the same currency rule as Plus
func (m Money) Minus(other Money) (Money, error) {
	return m.Plus(other.Neg())
}

func (m Money) Neg() Money {
	return Money{amount: m.amount.Neg(), currency: m.currency}
}

// Round applies the money engine's half-away-from-zero rounding at scale
func (m Money) Round(scale Scale) Money {
	return Money{amount: Round(m.amount, scale), currency: m.currency}
}

func (m Money) sameCurrency(other Money) error {
	if m.currency == other.currency {
		return nil
	}
	return shared.NewDomainError("CURRENCY_MISMATCH",
		fmt.Sprintf("cannot combine %s with %s", m.currency, other.currency))
}

// Format renders the amount at ScaleAmount without the currency code
func (m Money) Format() string {
	return Format(m.amount, ScaleAmount)
}

func (m Money) String() string {
	return m.Format() + " " + string(m.currency)
}

type moneyJSON struct {
	Amount   string   `json:"amount"`
	Currency Currency `json:"currency"`
}

// MarshalJSON writes the amount as a string at ScaleAmount
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.Format(), Currency: m.currency})
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var raw moneyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseMoney(raw.Amount, raw.Currency)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
