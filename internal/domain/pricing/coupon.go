package pricing

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/shared/valueobject"
)

// Coupon is a redeemable code wrapping a Discount
type Coupon struct {
	shared.BaseEntity
	StoreID            uuid.UUID
	Code               string
	DiscountID         uuid.UUID
	Discount           *Discount
	MaxUses            *int
	MaxUsesPerCustomer *int
	Uses               int
	StartsAt           *time.Time
	ExpiresAt          *time.Time
	Active             bool
}

// NewCoupon creates an active coupon for discount
func NewCoupon(code string, discount *Discount) (*Coupon, error) {
	code = NormalizeCouponCode(code)
	if code == "" {
		return nil, shared.NewValidationError("coupon code cannot be empty")
	}
	if discount == nil {
		return nil, shared.NewValidationError("coupon requires a discount")
	}
	return &Coupon{
		BaseEntity: shared.NewBaseEntity(),
		StoreID:    discount.StoreID,
		Code:       code,
		DiscountID: discount.ID,
		Discount:   discount,
		Active:     true,
	}, nil
}

// NormalizeCouponCode trims and upper-cases a code for lookup
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// InvalidCouponError explains why a coupon cannot be applied
type InvalidCouponError struct {
	Code   string
	Reason string
}

func (e *InvalidCouponError) Error() string {
	return fmt.Sprintf("coupon %s cannot be applied: %s", e.Code, e.Reason)
}

// Unwrap exposes the INVALID_COUPON domain error
func (e *InvalidCouponError) Unwrap() error {
	return shared.ErrInvalidCoupon
}

// ValidateCoupon fails with InvalidCouponError when the coupon is inactive,
// not yet started, expired or exhausted at now. It does not touch counters.
func ValidateCoupon(c *Coupon, now time.Time) error {
	if c == nil {
		return &InvalidCouponError{Reason: "coupon not found"}
	}
	reason := ""
	switch {
	case !c.Active:
		reason = "coupon is inactive"
	case c.StartsAt != nil && now.Before(*c.StartsAt):
		reason = "coupon is not valid yet"
	case c.ExpiresAt != nil && now.After(*c.ExpiresAt):
		reason = "coupon has expired"
	case c.MaxUses != nil && c.Uses >= *c.MaxUses:
		reason = "coupon usage limit reached"
	case c.Discount != nil:
		reason = c.Discount.unusableReason(now)
	}
	if reason != "" {
		return &InvalidCouponError{Code: c.Code, Reason: reason}
	}
	return nil
}

// ValidateForCustomer checks the per-customer limit given how many times the
// customer has already redeemed the coupon.
func (c *Coupon) ValidateForCustomer(customerUses int) error {
	if c.MaxUsesPerCustomer != nil && customerUses >= *c.MaxUsesPerCustomer {
		return &InvalidCouponError{Code: c.Code, Reason: "customer usage limit reached"}
	}
	return nil
}

// DiscountFor validates the coupon at now and returns the discount it grants on subtotal
func (c *Coupon) DiscountFor(subtotal valueobject.Money, now time.Time) (valueobject.Money, error) {
	if err := ValidateCoupon(c, now); err != nil {
		return valueobject.Zero, err
	}
	if c.Discount == nil {
		return valueobject.Zero, &InvalidCouponError{Code: c.Code, Reason: "coupon has no discount"}
	}
	if !c.Discount.Type.AppliesToSaleTotal() {
		return valueobject.Zero, &InvalidCouponError{Code: c.Code, Reason: fmt.Sprintf("%s discounts apply to items, not sales", c.Discount.Type)}
	}
	amount, err := c.Discount.AmountFor(subtotal)
	if err != nil {
		return valueobject.Zero, &InvalidCouponError{Code: c.Code, Reason: err.Error()}
	}
	return amount, nil
}

// RecordUse increments the coupon and discount usage counters
func (c *Coupon) RecordUse(now time.Time) {
	c.Uses++
	c.Touch(now)
	if c.Discount != nil {
		c.Discount.RecordUse(now)
	}
}
