package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/inventory"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormStockRepository reads and writes the stock columns of products and
// variants. A variant's store comes from its parent product.
type GormStockRepository struct {
	db *gorm.DB
}

// NewGormStockRepository creates a new GormStockRepository
func NewGormStockRepository(db *gorm.DB) *GormStockRepository {
	return &GormStockRepository{db: db}
}

// Find loads the stock level without locking
func (r *GormStockRepository) Find(ctx context.Context, item catalog.ItemRef) (*inventory.StockLevel, error) {
	return r.find(ctx, item, false)
}

// FindForUpdate loads the stock level with SELECT ... FOR UPDATE on the
// product or variant row
func (r *GormStockRepository) FindForUpdate(ctx context.Context, item catalog.ItemRef) (*inventory.StockLevel, error) {
	return r.find(ctx, item, true)
}

func (r *GormStockRepository) find(ctx context.Context, item catalog.ItemRef, lock bool) (*inventory.StockLevel, error) {
	query := r.db.WithContext(ctx)
	if lock {
		query = query.Clauses(lockForUpdate)
	}

	switch item.Kind() {
	case catalog.ItemKindProduct:
		var product models.ProductModel
		if err := query.First(&product, "id = ?", item.ID()).Error; err != nil {
			return nil, translateNotFound(err, "product", item.ID())
		}
		return &inventory.StockLevel{
			Item:         item,
			ProductID:    product.ID,
			StoreID:      product.StoreID,
			Quantity:     product.StockQuantity,
			ReorderPoint: product.ReorderPoint,
			TrackStock:   product.TrackStock,
		}, nil

	case catalog.ItemKindVariant:
		var variant models.ProductVariantModel
		if err := query.First(&variant, "id = ?", item.ID()).Error; err != nil {
			return nil, translateNotFound(err, "product variant", item.ID())
		}
		var product models.ProductModel
		if err := r.db.WithContext(ctx).Select("id", "store_id").
			First(&product, "id = ?", variant.ProductID).Error; err != nil {
			return nil, translateNotFound(err, "product", variant.ProductID)
		}
		return &inventory.StockLevel{
			Item:         item,
			ProductID:    product.ID,
			StoreID:      product.StoreID,
			Quantity:     variant.StockQuantity,
			ReorderPoint: variant.ReorderPoint,
			TrackStock:   variant.TrackStock,
		}, nil
	}
	return nil, shared.NewValidationError("stock lookup requires a product or variant, got %s", item)
}

// SaveQuantity writes the level's quantity back to its row
func (r *GormStockRepository) SaveQuantity(ctx context.Context, level *inventory.StockLevel) error {
	var model any
	switch level.Item.Kind() {
	case catalog.ItemKindProduct:
		model = &models.ProductModel{}
	case catalog.ItemKindVariant:
		model = &models.ProductVariantModel{}
	default:
		return shared.NewValidationError("stock update requires a product or variant, got %s", level.Item)
	}

	result := r.db.WithContext(ctx).Model(model).
		Where("id = ?", level.Item.ID()).
		Updates(map[string]any{
			"stock_quantity": level.Quantity,
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("save stock for %s: %w", level.Item, result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError(string(level.Item.Kind()), level.Item.ID())
	}
	return nil
}

var _ inventory.StockRepository = (*GormStockRepository)(nil)
