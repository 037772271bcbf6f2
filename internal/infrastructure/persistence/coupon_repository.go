package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/pricing"
	"github.com/pos/backend/internal/domain/trade"
	"github.com/pos/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCouponRepository implements pricing.CouponRepository using GORM
type GormCouponRepository struct {
	db *gorm.DB
}

// NewGormCouponRepository creates a new GormCouponRepository
func NewGormCouponRepository(db *gorm.DB) *GormCouponRepository {
	return &GormCouponRepository{db: db}
}

// FindByCodeForUpdate locks the coupon row, then its discount row, so that
// concurrent redemptions of one code serialize on the usage counters
func (r *GormCouponRepository) FindByCodeForUpdate(ctx context.Context, storeID uuid.UUID, code string) (*pricing.Coupon, error) {
	code = pricing.NormalizeCouponCode(code)

	var coupon models.CouponModel
	if err := r.db.WithContext(ctx).Clauses(lockForUpdate).
		Where("store_id = ? AND code = ?", storeID, code).
		First(&coupon).Error; err != nil {
		return nil, translateNotFound(err, "coupon", code)
	}

	var discount models.DiscountModel
	if err := r.db.WithContext(ctx).Clauses(lockForUpdate).
		First(&discount, "id = ?", coupon.DiscountID).Error; err != nil {
		return nil, translateNotFound(err, "discount", coupon.DiscountID)
	}
	coupon.Discount = &discount
	return coupon.ToDomain(), nil
}

// CountCustomerUses counts the customer's non-cancelled sales that redeemed the coupon
func (r *GormCouponRepository) CountCustomerUses(ctx context.Context, couponID, customerID uuid.UUID) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.SaleModel{}).
		Where("coupon_id = ? AND customer_id = ? AND status <> ?", couponID, customerID, string(trade.SaleStatusCancelled)).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count coupon uses: %w", err)
	}
	return int(count), nil
}

// SaveUsage writes the uses counters of the coupon and its discount
func (r *GormCouponRepository) SaveUsage(ctx context.Context, coupon *pricing.Coupon) error {
	now := time.Now()
	if err := r.db.WithContext(ctx).Model(&models.CouponModel{}).
		Where("id = ?", coupon.ID).
		Updates(map[string]any{"uses": coupon.Uses, "updated_at": now}).Error; err != nil {
		return err
	}
	if coupon.Discount == nil {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.DiscountModel{}).
		Where("id = ?", coupon.Discount.ID).
		Updates(map[string]any{"uses": coupon.Discount.Uses, "updated_at": now}).Error
}

// Save creates or updates a coupon. Its discount is saved with SaveDiscount.
func (r *GormCouponRepository) Save(ctx context.Context, coupon *pricing.Coupon) error {
	return r.db.WithContext(ctx).Omit("Discount").Save(models.CouponModelFromDomain(coupon)).Error
}

// SaveDiscount creates or updates a discount
func (r *GormCouponRepository) SaveDiscount(ctx context.Context, discount *pricing.Discount) error {
	return r.db.WithContext(ctx).Save(models.DiscountModelFromDomain(discount)).Error
}

var _ pricing.CouponRepository = (*GormCouponRepository)(nil)
