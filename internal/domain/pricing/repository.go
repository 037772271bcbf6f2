package pricing

import (
	"context"

	"github.com/google/uuid"
)

// CouponRepository loads and updates coupons with their discounts
type CouponRepository interface {
	// FindByCodeForUpdate loads a coupon by code and locks it (and its
	// discount) until the surrounding transaction ends.
	FindByCodeForUpdate(ctx context.Context, storeID uuid.UUID, code string) (*Coupon, error)
	// CountCustomerUses counts sales by customerID that redeemed the coupon
	CountCustomerUses(ctx context.Context, couponID, customerID uuid.UUID) (int, error)
	// SaveUsage persists the coupon and discount usage counters
	SaveUsage(ctx context.Context, coupon *Coupon) error
	Save(ctx context.Context, coupon *Coupon) error
	SaveDiscount(ctx context.Context, discount *Discount) error
}
