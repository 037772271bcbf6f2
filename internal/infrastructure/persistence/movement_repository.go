package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/inventory"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormMovementRepository appends to and reads the stock_movements ledger.
// Rows are never updated or deleted.
type GormMovementRepository struct {
	db *gorm.DB
}

// NewGormMovementRepository creates a new GormMovementRepository
func NewGormMovementRepository(db *gorm.DB) *GormMovementRepository {
	return &GormMovementRepository{db: db}
}

// Create appends one movement
func (r *GormMovementRepository) Create(ctx context.Context, movement *inventory.StockMovement) error {
	if err := r.db.WithContext(ctx).Create(models.StockMovementModelFromDomain(movement)).Error; err != nil {
		return fmt.Errorf("append stock movement: %w", err)
	}
	return nil
}

// ListByItem returns one page of an item's movements and the total count
func (r *GormMovementRepository) ListByItem(ctx context.Context, item catalog.ItemRef, filter shared.Filter) ([]inventory.StockMovement, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.StockMovementModel{}).
		Where("item_kind = ? AND item_id = ?", string(item.Kind()), item.ID()).
		Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	dir := "ASC"
	if strings.EqualFold(filter.OrderDir, "desc") {
		dir = "DESC"
	}
	query = query.Order("created_at " + dir).Order("id " + dir)
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var rows []models.StockMovementModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	movements := make([]inventory.StockMovement, 0, len(rows))
	for i := range rows {
		m, err := rows[i].ToDomain()
		if err != nil {
			return nil, 0, err
		}
		movements = append(movements, *m)
	}
	return movements, total, nil
}

var _ inventory.MovementRepository = (*GormMovementRepository)(nil)
