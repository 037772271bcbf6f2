package inventory

import (
	"context"
	"fmt"

	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/inventory"
	"github.com/pos/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// LedgerResult is the outcome of one stock mutation
type LedgerResult struct {
	Level    *inventory.StockLevel
	Movement *inventory.StockMovement
	Events   []shared.DomainEvent
}

// Ledger applies stock mutations. Each call locks the item's stock row,
// changes the quantity and appends one movement, all through the repositories
// passed in, so it must run inside the caller's transaction. Events are
// returned to the caller to publish after commit.
type Ledger struct {
	logger *zap.Logger
}

// NewLedger creates a new Ledger
func NewLedger(logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{logger: logger}
}

// Deduct removes qty units of item
func (l *Ledger) Deduct(ctx context.Context, repos LedgerRepositories, item catalog.ItemRef, qty int64, in inventory.MovementInput) (*LedgerResult, error) {
	return l.apply(ctx, repos, item, func(level *inventory.StockLevel) (*inventory.StockMovement, error) {
		return level.Deduct(qty, in)
	})
}

// Add returns qty units of item to stock
func (l *Ledger) Add(ctx context.Context, repos LedgerRepositories, item catalog.ItemRef, qty int64, in inventory.MovementInput) (*LedgerResult, error) {
	return l.apply(ctx, repos, item, func(level *inventory.StockLevel) (*inventory.StockMovement, error) {
		return level.Add(qty, in)
	})
}

// Restore returns qty units of a tracked item to stock. Untracked items are
// left untouched and a nil result is returned.
func (l *Ledger) Restore(ctx context.Context, repos LedgerRepositories, item catalog.ItemRef, qty int64, in inventory.MovementInput) (*LedgerResult, error) {
	return l.apply(ctx, repos, item, func(level *inventory.StockLevel) (*inventory.StockMovement, error) {
		if !level.TrackStock {
			return nil, nil
		}
		return level.Add(qty, in)
	})
}

// AdjustTo sets item's stock to an absolute counted quantity
func (l *Ledger) AdjustTo(ctx context.Context, repos LedgerRepositories, item catalog.ItemRef, newQty int64, in inventory.MovementInput) (*LedgerResult, error) {
	return l.apply(ctx, repos, item, func(level *inventory.StockLevel) (*inventory.StockMovement, error) {
		return level.AdjustTo(newQty, in)
	})
}

// IsLowStock reads item's stock without locking and reports whether it is at
// or below its reorder point
func (l *Ledger) IsLowStock(ctx context.Context, stock inventory.StockRepository, item catalog.ItemRef) (bool, error) {
	level, err := stock.Find(ctx, item)
	if err != nil {
		return false, err
	}
	return level.IsLowStock(), nil
}

func (l *Ledger) apply(
	ctx context.Context,
	repos LedgerRepositories,
	item catalog.ItemRef,
	op func(level *inventory.StockLevel) (*inventory.StockMovement, error),
) (*LedgerResult, error) {
	level, err := repos.StockRepo().FindForUpdate(ctx, item)
	if err != nil {
		return nil, err
	}

	movement, err := op(level)
	if err != nil {
		return nil, err
	}
	if movement == nil {
		return nil, nil
	}

	if err := repos.StockRepo().SaveQuantity(ctx, level); err != nil {
		return nil, fmt.Errorf("save stock quantity for %s: %w", item, err)
	}
	if err := repos.MovementRepo().Create(ctx, movement); err != nil {
		return nil, fmt.Errorf("append stock movement for %s: %w", item, err)
	}

	l.logger.Debug("stock movement recorded",
		zap.String("item", item.String()),
		zap.String("type", string(movement.Type)),
		zap.Int64("quantity", movement.Quantity),
		zap.Int64("quantity_before", movement.QuantityBefore),
		zap.Int64("quantity_after", movement.QuantityAfter),
	)

	return &LedgerResult{
		Level:    level,
		Movement: movement,
		Events:   level.PullDomainEvents(),
	}, nil
}
