package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	m, err := NewMoney(decimal.RequireFromString("100.50"), TRY)
	require.NoError(t, err)
	assert.Equal(t, TRY, m.Currency())
	assert.Equal(t, "100.5", m.Amount().String())

	_, err = NewMoney(decimal.NewFromInt(1), "")
	assert.EqualError(t, err, "currency cannot be empty")
}

func TestParseMoney(t *testing.T) {
	m, err := ParseMoney("123.45", USD)
	require.NoError(t, err)
	assert.Equal(t, "123.45", m.Format())

	_, err = ParseMoney("not-a-number", USD)
	assert.Error(t, err)
}

func TestParseCurrency(t *testing.T) {
	for _, code := range []string{"TRY", "USD", "EUR", "GBP"} {
		c, err := ParseCurrency(code)
		require.NoError(t, err, code)
		assert.True(t, c.IsValid())
	}

	_, err := ParseCurrency("XYZ")
	assert.Error(t, err)
	_, err = ParseCurrency("usd")
	assert.Error(t, err)
}

func TestCurrencyOrDefault(t *testing.T) {
	c, err := CurrencyOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, DefaultCurrency, c)

	c, err = CurrencyOrDefault("USD")
	require.NoError(t, err)
	assert.Equal(t, USD, c)

	_, err = CurrencyOrDefault("XYZ")
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))
}

func TestMoney_Arithmetic(t *testing.T) {
	a, _ := ParseMoney("10.10", TRY)
	b, _ := ParseMoney("0.905", TRY)

	sum, err := a.Plus(b)
	require.NoError(t, err)
	assert.Equal(t, "11.005", sum.Amount().String())
	assert.Equal(t, "11.01", sum.Round(ScaleAmount).Format())

	diff, err := a.Minus(b)
	require.NoError(t, err)
	assert.Equal(t, "9.195", diff.Amount().String())

	_, err = a.Plus(Zero(USD))
	assert.Equal(t, shared.KindBusinessRule, shared.KindOf(err))

	assert.Equal(t, "-10.10", a.Neg().Format())
	assert.True(t, Zero(EUR).IsZero())
}

func TestMoney_String(t *testing.T) {
	m, _ := ParseMoney("1000", TRY)
	assert.Equal(t, "1000.00 TRY", m.String())
}

func TestMoney_JSON(t *testing.T) {
	m, _ := ParseMoney("99.999", EUR)

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"100.00","currency":"EUR"}`, string(data))

	var out Money
	require.NoError(t, json.Unmarshal([]byte(`{"amount":"12.30","currency":"USD"}`), &out))
	assert.Equal(t, USD, out.Currency())
	assert.Equal(t, "12.30", out.Format())

	assert.Error(t, json.Unmarshal([]byte(`{"amount":"12.30"}`), &out))
}
