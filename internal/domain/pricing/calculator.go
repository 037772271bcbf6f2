// Package pricing holds the tax and discount arithmetic used to price a sale.
// All functions are pure: they read only their arguments.
package pricing

import (
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CalculateTax returns amount * ratePercent / 100 rounded to the cent
func CalculateTax(amount valueobject.Money, ratePercent decimal.Decimal) (valueobject.Money, error) {
	if amount.IsNegative() {
		return valueobject.Zero, shared.NewValidationError("taxable amount cannot be negative")
	}
	if ratePercent.IsNegative() {
		return valueobject.Zero, shared.NewValidationError("tax rate cannot be negative")
	}
	tax, err := amount.PercentChecked(ratePercent)
	if err != nil {
		return valueobject.Zero, shared.NewValidationError("tax on %s at %s%% is out of range", amount, ratePercent)
	}
	return tax, nil
}

// CalculateTotalWithTax returns subtotal plus its tax
func CalculateTotalWithTax(subtotal valueobject.Money, ratePercent decimal.Decimal) (valueobject.Money, error) {
	tax, err := CalculateTax(subtotal, ratePercent)
	if err != nil {
		return valueobject.Zero, err
	}
	return subtotal.Add(tax), nil
}

// ExtractTaxFromTotal returns the tax portion of a tax-inclusive total:
// total * rate / (100 + rate), rounded to the cent.
func ExtractTaxFromTotal(totalWithTax valueobject.Money, ratePercent decimal.Decimal) (valueobject.Money, error) {
	if totalWithTax.IsNegative() {
		return valueobject.Zero, shared.NewValidationError("total cannot be negative")
	}
	if ratePercent.IsNegative() {
		return valueobject.Zero, shared.NewValidationError("tax rate cannot be negative")
	}
	if ratePercent.IsZero() {
		return valueobject.Zero, nil
	}
	tax := totalWithTax.Decimal().Mul(ratePercent).Div(hundred.Add(ratePercent))
	return valueobject.NewMoneyFromDecimal(tax), nil
}

// CalculateTotalWithMultipleTaxes adds every rate's tax, each computed on
// the original subtotal (no compounding).
func CalculateTotalWithMultipleTaxes(subtotal valueobject.Money, ratesPercent []decimal.Decimal) (valueobject.Money, error) {
	total := subtotal
	for _, rate := range ratesPercent {
		tax, err := CalculateTax(subtotal, rate)
		if err != nil {
			return valueobject.Zero, err
		}
		total = total.Add(tax)
	}
	return total, nil
}

// ApplyPercentageDiscount returns the discount amount for percent of amount,
// never more than amount itself.
func ApplyPercentageDiscount(amount valueobject.Money, percent decimal.Decimal) (valueobject.Money, error) {
	if amount.IsNegative() {
		return valueobject.Zero, shared.NewValidationError("amount cannot be negative")
	}
	if percent.IsNegative() {
		return valueobject.Zero, shared.NewValidationError("discount percent cannot be negative")
	}
	return amount.Percent(percent).Min(amount), nil
}

// ApplyFixedDiscount returns what is left of amount after taking off
// discount, floored at zero.
func ApplyFixedDiscount(amount, discount valueobject.Money) valueobject.Money {
	return amount.Sub(discount).Max(valueobject.Zero)
}
