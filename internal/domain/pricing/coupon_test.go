package pricing

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPercentCoupon(t *testing.T, percent string) *Coupon {
	t.Helper()
	d, err := NewDiscount(uuid.New(), "Spring", DiscountTypePercentage, rate(percent))
	require.NoError(t, err)
	c, err := NewCoupon(" spring10 ", d)
	require.NoError(t, err)
	return c
}

func intPtr(v int) *int { return &v }

func TestValidateCoupon(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name   string
		mutate func(c *Coupon)
		reason string
	}{
		{"valid coupon", func(c *Coupon) {}, ""},
		{"inactive", func(c *Coupon) { c.Active = false }, "coupon is inactive"},
		{"not started", func(c *Coupon) { c.StartsAt = &future }, "coupon is not valid yet"},
		{"expired", func(c *Coupon) { c.ExpiresAt = &past }, "coupon has expired"},
		{"exhausted", func(c *Coupon) { c.MaxUses = intPtr(5); c.Uses = 5 }, "coupon usage limit reached"},
		{"uses below max", func(c *Coupon) { c.MaxUses = intPtr(5); c.Uses = 4 }, ""},
		{"discount ended", func(c *Coupon) { c.Discount.EndDate = &past }, "discount has ended"},
		{"discount exhausted", func(c *Coupon) { c.Discount.MaxUses = intPtr(1); c.Discount.Uses = 1 }, "discount usage limit reached"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newPercentCoupon(t, "10")
			tt.mutate(c)

			err := ValidateCoupon(c, now)
			if tt.reason == "" {
				assert.NoError(t, err)
				return
			}
			var couponErr *InvalidCouponError
			require.True(t, errors.As(err, &couponErr))
			assert.Equal(t, "SPRING10", couponErr.Code)
			assert.Equal(t, tt.reason, couponErr.Reason)
			assert.ErrorIs(t, err, shared.ErrInvalidCoupon)
		})
	}

	t.Run("validation does not change counters", func(t *testing.T) {
		c := newPercentCoupon(t, "10")
		require.NoError(t, ValidateCoupon(c, now))
		assert.Equal(t, 0, c.Uses)
		assert.Equal(t, 0, c.Discount.Uses)
	})
}

func TestCoupon_DiscountFor(t *testing.T) {
	now := time.Now()

	t.Run("percentage coupon", func(t *testing.T) {
		c := newPercentCoupon(t, "10")
		got, err := c.DiscountFor(money("110.00"), now)
		require.NoError(t, err)
		assert.Equal(t, "11.00", got.String())
	})

	t.Run("fixed coupon never exceeds the subtotal", func(t *testing.T) {
		d, err := NewDiscount(uuid.New(), "Five off", DiscountTypeFixed, rate("5"))
		require.NoError(t, err)
		c, err := NewCoupon("FIVE", d)
		require.NoError(t, err)

		got, err := c.DiscountFor(money("20.00"), now)
		require.NoError(t, err)
		assert.Equal(t, "5.00", got.String())

		got, err = c.DiscountFor(money("3.00"), now)
		require.NoError(t, err)
		assert.Equal(t, "3.00", got.String())
	})

	t.Run("exhausted coupon is rejected before any math", func(t *testing.T) {
		c := newPercentCoupon(t, "10")
		c.MaxUses = intPtr(5)
		c.Uses = 5
		_, err := c.DiscountFor(money("100.00"), now)
		assert.ErrorIs(t, err, shared.ErrInvalidCoupon)
	})

	t.Run("minimum amount not met", func(t *testing.T) {
		c := newPercentCoupon(t, "10")
		c.Discount.MinAmount = money("50.00")
		_, err := c.DiscountFor(money("49.99"), now)
		assert.ErrorIs(t, err, shared.ErrInvalidCoupon)
	})

	t.Run("item-rule discounts are not sale discounts", func(t *testing.T) {
		d, err := NewDiscount(uuid.New(), "BOGO", DiscountTypeBuyXGetY, rate("1"))
		require.NoError(t, err)
		c, err := NewCoupon("BOGO", d)
		require.NoError(t, err)
		_, err = c.DiscountFor(money("100.00"), now)
		assert.ErrorIs(t, err, shared.ErrInvalidCoupon)
	})
}

func TestCoupon_ValidateForCustomer(t *testing.T) {
	c := newPercentCoupon(t, "10")
	assert.NoError(t, c.ValidateForCustomer(10))

	c.MaxUsesPerCustomer = intPtr(1)
	assert.NoError(t, c.ValidateForCustomer(0))
	assert.ErrorIs(t, c.ValidateForCustomer(1), shared.ErrInvalidCoupon)
}

func TestCoupon_RecordUse(t *testing.T) {
	c := newPercentCoupon(t, "10")
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.RecordUse(at)
	assert.Equal(t, 1, c.Uses)
	assert.Equal(t, 1, c.Discount.Uses)
	assert.Equal(t, at, c.UpdatedAt)
	assert.Equal(t, at, c.Discount.UpdatedAt)
}

func TestNewDiscount(t *testing.T) {
	_, err := NewDiscount(uuid.New(), "", DiscountTypeFixed, rate("1"))
	assert.Error(t, err)
	_, err = NewDiscount(uuid.New(), "x", "mystery", rate("1"))
	assert.Error(t, err)
	_, err = NewDiscount(uuid.New(), "x", DiscountTypeFixed, rate("-1"))
	assert.Error(t, err)
}
