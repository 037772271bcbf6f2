package inventory

import (
	"context"

	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/inventory"
	"github.com/pos/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// InventoryService exposes standalone stock operations: counted adjustments,
// receipts and ledger queries. Sale-driven deductions go through the sale
// service, which calls the Ledger inside its own transaction.
type InventoryService struct {
	txScope        TransactionScope
	stockRepo      inventory.StockRepository
	movementRepo   inventory.MovementRepository
	ledger         *Ledger
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewInventoryService creates a new InventoryService
func NewInventoryService(
	txScope TransactionScope,
	stockRepo inventory.StockRepository,
	movementRepo inventory.MovementRepository,
	ledger *Ledger,
	logger *zap.Logger,
) *InventoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryService{
		txScope:      txScope,
		stockRepo:    stockRepo,
		movementRepo: movementRepo,
		ledger:       ledger,
		logger:       logger,
	}
}

// SetEventPublisher sets the publisher used after commit
func (s *InventoryService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// AdjustStock sets an item's stock to a counted quantity
func (s *InventoryService) AdjustStock(ctx context.Context, req AdjustStockRequest) (*MovementResponse, error) {
	item, err := ParseItemRef(req.ItemKind, req.ItemID)
	if err != nil {
		return nil, err
	}

	var result *LedgerResult
	err = s.txScope.Execute(ctx, func(repos LedgerRepositories) error {
		var err error
		result, err = s.ledger.AdjustTo(ctx, repos, item, req.NewQuantity, inventory.MovementInput{
			Reason:    req.Reason,
			Reference: req.Reference,
			UserID:    req.UserID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("stock adjusted",
		zap.String("item", item.String()),
		zap.Int64("quantity_before", result.Movement.QuantityBefore),
		zap.Int64("quantity_after", result.Movement.QuantityAfter),
	)
	s.publish(ctx, result.Events)

	resp := ToMovementResponse(result.Movement)
	return &resp, nil
}

// ReceiveStock adds received units to an item's stock
func (s *InventoryService) ReceiveStock(ctx context.Context, req ReceiveStockRequest) (*MovementResponse, error) {
	item, err := ParseItemRef(req.ItemKind, req.ItemID)
	if err != nil {
		return nil, err
	}
	if req.Quantity <= 0 {
		return nil, shared.NewValidationError("received quantity must be positive")
	}

	in := inventory.MovementInput{Reason: req.Reason, UserID: req.UserID}
	if req.PurchaseOrderID != nil {
		in.Source = inventory.NewSource(inventory.SourceTypePurchaseOrder, *req.PurchaseOrderID)
	}

	var result *LedgerResult
	err = s.txScope.Execute(ctx, func(repos LedgerRepositories) error {
		var err error
		result, err = s.ledger.Add(ctx, repos, item, req.Quantity, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, result.Events)

	resp := ToMovementResponse(result.Movement)
	return &resp, nil
}

// GetStockStatus returns an item's current stock and low-stock flag
func (s *InventoryService) GetStockStatus(ctx context.Context, item catalog.ItemRef) (*StockStatusResponse, error) {
	level, err := s.stockRepo.Find(ctx, item)
	if err != nil {
		return nil, err
	}
	resp := ToStockStatusResponse(level)
	return &resp, nil
}

// IsLowStock reports whether an item is at or below its reorder point
func (s *InventoryService) IsLowStock(ctx context.Context, item catalog.ItemRef) (bool, error) {
	return s.ledger.IsLowStock(ctx, s.stockRepo, item)
}

// ListMovements returns a page of an item's ledger
func (s *InventoryService) ListMovements(ctx context.Context, item catalog.ItemRef, filter shared.Filter) (*shared.Paginated[MovementResponse], error) {
	movements, total, err := s.movementRepo.ListByItem(ctx, item, filter)
	if err != nil {
		return nil, err
	}
	items := make([]MovementResponse, len(movements))
	for i := range movements {
		items[i] = ToMovementResponse(&movements[i])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

func (s *InventoryService) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Error("failed to publish inventory events", zap.Error(err))
	}
}
