package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/trade"
	"github.com/pos/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSaleReturnRepository implements trade.SaleReturnRepository using GORM
type GormSaleReturnRepository struct {
	db *gorm.DB
}

// NewGormSaleReturnRepository creates a new GormSaleReturnRepository
func NewGormSaleReturnRepository(db *gorm.DB) *GormSaleReturnRepository {
	return &GormSaleReturnRepository{db: db}
}

// Create inserts the return and its items
func (r *GormSaleReturnRepository) Create(ctx context.Context, ret *trade.SaleReturn) error {
	if err := r.db.WithContext(ctx).Create(models.SaleReturnModelFromDomain(ret)).Error; err != nil {
		return fmt.Errorf("create sale return: %w", err)
	}
	return nil
}

// FindBySale lists a sale's returns oldest first
func (r *GormSaleReturnRepository) FindBySale(ctx context.Context, saleID uuid.UUID) ([]trade.SaleReturn, error) {
	var rows []models.SaleReturnModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("sale_id = ?", saleID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	returns := make([]trade.SaleReturn, 0, len(rows))
	for i := range rows {
		ret, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		returns = append(returns, *ret)
	}
	return returns, nil
}

type returnedQuantity struct {
	SaleItemID uuid.UUID
	Quantity   int64
}

// ReturnedQuantities sums returned units per sale item over the sale's
// pending and approved returns
func (r *GormSaleReturnRepository) ReturnedQuantities(ctx context.Context, saleID uuid.UUID) (map[uuid.UUID]int64, error) {
	var rows []returnedQuantity
	err := r.db.WithContext(ctx).
		Table("sale_return_items AS sri").
		Select("sri.sale_item_id AS sale_item_id, SUM(sri.quantity) AS quantity").
		Joins("JOIN sale_returns sr ON sr.id = sri.sale_return_id").
		Where("sr.sale_id = ? AND sr.status <> ?", saleID, string(trade.ReturnStatusRejected)).
		Group("sri.sale_item_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("sum returned quantities: %w", err)
	}

	returned := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		returned[row.SaleItemID] = row.Quantity
	}
	return returned, nil
}

var _ trade.SaleReturnRepository = (*GormSaleReturnRepository)(nil)
