package persistence

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/trade"
	"github.com/pos/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// referenceDigits is the zero-padded width of a reference's daily sequence
const referenceDigits = 5

// GormSaleRepository implements trade.SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// FindByID loads a sale with items and payments
func (r *GormSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Sale, error) {
	return r.load(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate locks the sale row first and then loads the aggregate.
// Preload queries do not inherit locking clauses, so the lock is taken by
// a separate statement.
func (r *GormSaleRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*trade.Sale, error) {
	var locked models.SaleModel
	if err := r.db.WithContext(ctx).Clauses(lockForUpdate).
		Select("id").
		First(&locked, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err, "sale", id)
	}
	return r.load(r.db.WithContext(ctx), id)
}

func (r *GormSaleRepository) load(db *gorm.DB, id uuid.UUID) (*trade.Sale, error) {
	var model models.SaleModel
	err := db.
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at ASC, id ASC") }).
		Preload("Payments", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at ASC, id ASC") }).
		First(&model, "id = ?", id).Error
	if err != nil {
		return nil, translateNotFound(err, "sale", id)
	}
	return model.ToDomain()
}

// Create inserts the sale header and its items
func (r *GormSaleRepository) Create(ctx context.Context, sale *trade.Sale) error {
	model := models.SaleModelFromDomain(sale)
	if err := r.db.WithContext(ctx).Omit("Payments").Create(model).Error; err != nil {
		return fmt.Errorf("create sale %s: %w", sale.Reference, err)
	}
	return nil
}

// Update writes the mutable header fields of the sale
func (r *GormSaleRepository) Update(ctx context.Context, sale *trade.Sale) error {
	result := r.db.WithContext(ctx).Model(&models.SaleModel{}).
		Where("id = ?", sale.ID).
		Updates(map[string]any{
			"status":         string(sale.Status),
			"subtotal":       sale.Subtotal,
			"tax":            sale.Tax,
			"discount":       sale.Discount,
			"total":          sale.Total,
			"refunded_total": sale.RefundedTotal,
			"notes":          sale.Notes,
			"coupon_id":      sale.CouponID,
			"completed_at":   sale.CompletedAt,
			"version":        sale.Version,
			"updated_at":     sale.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("update sale %s: %w", sale.Reference, result.Error)
	}
	if result.RowsAffected == 0 {
		return translateNotFound(gorm.ErrRecordNotFound, "sale", sale.ID)
	}
	return nil
}

// CreatePayments inserts payment rows
func (r *GormSaleRepository) CreatePayments(ctx context.Context, payments []trade.SalePayment) error {
	if len(payments) == 0 {
		return nil
	}
	rows := make([]models.SalePaymentModel, len(payments))
	for i := range payments {
		rows[i] = *models.SalePaymentModelFromDomain(&payments[i])
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// NextReference issues <prefix>-<YYYYMMDD>-<NNNNN> from the store's daily
// counter row. The row stays locked until the surrounding transaction ends,
// so concurrent sales for the same store and day get distinct numbers.
// A new counter starts after the highest reference already stored for the
// day, soft-deleted sales included.
func (r *GormSaleRepository) NextReference(ctx context.Context, storeID uuid.UUID, prefix string, day time.Time) (string, error) {
	stamp := day.Format("20060102")
	stem := fmt.Sprintf("%s-%s-", prefix, stamp)
	db := r.db.WithContext(ctx)

	counter := models.SaleReferenceSequenceModel{StoreID: storeID, Prefix: prefix, Day: stamp}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&counter).Error; err != nil {
		return "", fmt.Errorf("open reference counter %s: %w", stem, err)
	}
	key := "store_id = ? AND prefix = ? AND day = ?"
	var locked models.SaleReferenceSequenceModel
	if err := db.Clauses(lockForUpdate).Where(key, storeID, prefix, stamp).First(&locked).Error; err != nil {
		return "", fmt.Errorf("lock reference counter %s: %w", stem, err)
	}

	last := locked.LastSeq
	if last == 0 {
		highest, err := r.highestSequence(db, storeID, stem)
		if err != nil {
			return "", err
		}
		last = highest
	}
	next := last + 1

	if err := db.Model(&models.SaleReferenceSequenceModel{}).
		Where(key, storeID, prefix, stamp).
		Updates(map[string]any{"last_seq": next, "updated_at": time.Now()}).Error; err != nil {
		return "", fmt.Errorf("advance reference counter %s: %w", stem, err)
	}
	return fmt.Sprintf("%s%0*d", stem, referenceDigits, next), nil
}

// highestSequence returns the largest number stored under stem. Longer
// references sort first so 100000 outranks 99999.
func (r *GormSaleRepository) highestSequence(db *gorm.DB, storeID uuid.UUID, stem string) (int64, error) {
	var refs []string
	if err := db.Unscoped().Model(&models.SaleModel{}).
		Where("store_id = ? AND reference LIKE ?", storeID, stem+"%").
		Order("LENGTH(reference) DESC, reference DESC").
		Limit(1).
		Pluck("reference", &refs).Error; err != nil {
		return 0, fmt.Errorf("scan references %s: %w", stem, err)
	}
	if len(refs) == 0 {
		return 0, nil
	}
	seq, err := strconv.ParseInt(strings.TrimPrefix(refs[0], stem), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed sale reference %q: %w", refs[0], err)
	}
	return seq, nil
}

var _ trade.SaleRepository = (*GormSaleRepository)(nil)
