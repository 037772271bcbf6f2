package inventory

import (
	"context"

	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/shared"
)

// StockRepository reads and writes the stock columns of products and variants
type StockRepository interface {
	// Find loads the stock level without locking
	Find(ctx context.Context, item catalog.ItemRef) (*StockLevel, error)
	// FindForUpdate loads the stock level and holds a row lock on it until
	// the surrounding transaction ends. Only valid inside a transaction.
	FindForUpdate(ctx context.Context, item catalog.ItemRef) (*StockLevel, error)
	// SaveQuantity persists the level's current quantity
	SaveQuantity(ctx context.Context, level *StockLevel) error
}

// MovementRepository appends to and reads the stock ledger
type MovementRepository interface {
	Create(ctx context.Context, movement *StockMovement) error
	// ListByItem returns an item's movements ordered by creation time in filter.OrderDir
	ListByItem(ctx context.Context, item catalog.ItemRef, filter shared.Filter) ([]StockMovement, int64, error)
}
