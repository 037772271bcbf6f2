package pricing

import (
	"testing"

	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func money(s string) valueobject.Money { return valueobject.MustParseMoney(s) }
func rate(s string) decimal.Decimal    { return decimal.RequireFromString(s) }

func TestCalculateTax(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		rate   string
		want   string
	}{
		{"ten percent", "100.00", "10", "10.00"},
		{"rounds half up", "0.05", "10", "0.01"},
		{"rounds down", "0.04", "10", "0.00"},
		{"fractional rate", "19.99", "8.25", "1.65"},
		{"zero rate", "50.00", "0", "0.00"},
		{"zero amount", "0.00", "20", "0.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculateTax(money(tt.amount), rate(tt.rate))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}

	t.Run("rejects negative amount", func(t *testing.T) {
		_, err := CalculateTax(money("-1.00"), rate("10"))
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("rejects negative rate", func(t *testing.T) {
		_, err := CalculateTax(money("1.00"), rate("-10"))
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("rejects tax that does not fit", func(t *testing.T) {
		_, err := CalculateTax(valueobject.NewMoney(1<<62), rate("300"))
		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

func TestCalculateTotalWithTax(t *testing.T) {
	got, err := CalculateTotalWithTax(money("100.00"), rate("10"))
	require.NoError(t, err)
	assert.Equal(t, "110.00", got.String())

	_, err = CalculateTotalWithTax(money("-5.00"), rate("10"))
	assert.Error(t, err)
}

func TestExtractTaxFromTotal(t *testing.T) {
	got, err := ExtractTaxFromTotal(money("110.00"), rate("10"))
	require.NoError(t, err)
	assert.Equal(t, "10.00", got.String())

	got, err = ExtractTaxFromTotal(money("110.00"), decimal.Zero)
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestExtractTaxFromTotal_RoundTrip(t *testing.T) {
	cent := valueobject.NewMoney(1)
	subtotals := []string{"0.00", "0.01", "1.00", "9.99", "19.95", "100.00", "1234.56", "99999.99"}
	rates := []string{"0", "0.5", "5", "7.25", "10", "12.5", "20", "33.333", "100"}

	for _, s := range subtotals {
		for _, r := range rates {
			total, err := CalculateTotalWithTax(money(s), rate(r))
			require.NoError(t, err)
			expected, err := CalculateTax(money(s), rate(r))
			require.NoError(t, err)
			extracted, err := ExtractTaxFromTotal(total, rate(r))
			require.NoError(t, err)
			assert.Truef(t, extracted.WithinTolerance(expected, cent),
				"subtotal %s rate %s: extracted %s, expected %s", s, r, extracted, expected)
		}
	}
}

func TestCalculateTotalWithMultipleTaxes(t *testing.T) {
	got, err := CalculateTotalWithMultipleTaxes(money("100.00"), []decimal.Decimal{rate("10"), rate("5")})
	require.NoError(t, err)
	// 10% and 5% both on 100.00, not compounded
	assert.Equal(t, "115.00", got.String())

	got, err = CalculateTotalWithMultipleTaxes(money("100.00"), nil)
	require.NoError(t, err)
	assert.Equal(t, "100.00", got.String())

	_, err = CalculateTotalWithMultipleTaxes(money("100.00"), []decimal.Decimal{rate("-1")})
	assert.Error(t, err)
}

func TestApplyPercentageDiscount(t *testing.T) {
	got, err := ApplyPercentageDiscount(money("80.00"), rate("25"))
	require.NoError(t, err)
	assert.Equal(t, "20.00", got.String())

	got, err = ApplyPercentageDiscount(money("80.00"), rate("150"))
	require.NoError(t, err)
	assert.Equal(t, "80.00", got.String(), "discount is clamped to the amount")

	_, err = ApplyPercentageDiscount(money("80.00"), rate("-5"))
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestApplyFixedDiscount(t *testing.T) {
	assert.Equal(t, "70.00", ApplyFixedDiscount(money("80.00"), money("10.00")).String())
	assert.Equal(t, "0.00", ApplyFixedDiscount(money("80.00"), money("100.00")).String())
}
