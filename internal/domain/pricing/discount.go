package pricing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// DiscountType selects how a discount's value is interpreted
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
	DiscountTypeBuyXGetY   DiscountType = "buy_x_get_y"
	DiscountTypeBundle     DiscountType = "bundle"
)

// IsValid returns true if the discount type is known
func (t DiscountType) IsValid() bool {
	switch t {
	case DiscountTypePercentage, DiscountTypeFixed, DiscountTypeBuyXGetY, DiscountTypeBundle:
		return true
	}
	return false
}

// AppliesToSaleTotal is false for item-rule promotions that cannot be
// priced from a subtotal alone.
func (t DiscountType) AppliesToSaleTotal() bool {
	return t == DiscountTypePercentage || t == DiscountTypeFixed
}

// Discount is a promotional rule. Value is a percent for percentage
// discounts and an amount in currency units for fixed ones.
type Discount struct {
	shared.BaseEntity
	StoreID   uuid.UUID
	Name      string
	Type      DiscountType
	Value     decimal.Decimal
	MinAmount valueobject.Money
	MaxUses   *int
	Uses      int
	StartDate *time.Time
	EndDate   *time.Time
	Active    bool
}

// NewDiscount creates an active discount
func NewDiscount(storeID uuid.UUID, name string, discountType DiscountType, value decimal.Decimal) (*Discount, error) {
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewValidationError("discount name cannot be empty")
	}
	if !discountType.IsValid() {
		return nil, shared.NewValidationError("invalid discount type %q", discountType)
	}
	if value.IsNegative() {
		return nil, shared.NewValidationError("discount value cannot be negative")
	}
	return &Discount{
		BaseEntity: shared.NewBaseEntity(),
		StoreID:    storeID,
		Name:       name,
		Type:       discountType,
		Value:      value,
		Active:     true,
	}, nil
}

// IsUsable reports whether the discount is active, inside its window and
// not exhausted at now.
func (d *Discount) IsUsable(now time.Time) bool {
	return d.unusableReason(now) == ""
}

func (d *Discount) unusableReason(now time.Time) string {
	switch {
	case !d.Active:
		return "discount is inactive"
	case d.StartDate != nil && now.Before(*d.StartDate):
		return "discount has not started"
	case d.EndDate != nil && now.After(*d.EndDate):
		return "discount has ended"
	case d.MaxUses != nil && d.Uses >= *d.MaxUses:
		return "discount usage limit reached"
	}
	return ""
}

// AmountFor computes the discount this rule grants on subtotal
func (d *Discount) AmountFor(subtotal valueobject.Money) (valueobject.Money, error) {
	if subtotal.LessThan(d.MinAmount) {
		return valueobject.Zero, shared.NewValidationError("subtotal %s is below the minimum %s", subtotal, d.MinAmount)
	}
	switch d.Type {
	case DiscountTypePercentage:
		return ApplyPercentageDiscount(subtotal, d.Value)
	case DiscountTypeFixed:
		fixed := valueobject.NewMoneyFromDecimal(d.Value)
		return subtotal.Sub(ApplyFixedDiscount(subtotal, fixed)), nil
	default:
		return valueobject.Zero, shared.NewValidationError("%s discounts cannot be applied to a sale total", d.Type)
	}
}

// RecordUse increments the usage counter
func (d *Discount) RecordUse(now time.Time) {
	d.Uses++
	d.Touch(now)
}
