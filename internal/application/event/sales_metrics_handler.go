// Package event holds application-level listeners for domain events.
package event

import (
	"context"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/inventory"
	"github.com/pos/backend/internal/domain/partner"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// SalesRecorder receives business measurements. Amounts are minor currency units.
type SalesRecorder interface {
	RecordSaleCompleted(ctx context.Context, storeID uuid.UUID, totalMinor int64)
	RecordRefund(ctx context.Context, storeID uuid.UUID, amountMinor int64, fully bool)
	RecordStockAdjustment(ctx context.Context, storeID uuid.UUID, itemKind string)
	RecordLowStock(ctx context.Context, storeID uuid.UUID, itemKind, alertType string)
	RecordLoyaltyPoints(ctx context.Context, storeID uuid.UUID, points int64)
}

// SalesMetricsHandler turns committed sale, stock and loyalty events into metrics
type SalesMetricsHandler struct {
	recorder SalesRecorder
	logger   *zap.Logger
}

// NewSalesMetricsHandler creates a SalesMetricsHandler
func NewSalesMetricsHandler(recorder SalesRecorder, logger *zap.Logger) *SalesMetricsHandler {
	return &SalesMetricsHandler{recorder: recorder, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *SalesMetricsHandler) EventTypes() []string {
	return []string{
		trade.EventTypeSaleCompleted,
		trade.EventTypeSaleRefunded,
		inventory.EventTypeStockAdjusted,
		inventory.EventTypeLowStockDetected,
		partner.EventTypeLoyaltyPointsEarned,
	}
}

// Handle records the measurement for one event. Unknown events are ignored.
func (h *SalesMetricsHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	store := event.StoreID()

	switch e := event.(type) {
	case *trade.SaleCompletedEvent:
		h.recorder.RecordSaleCompleted(ctx, store, e.Total.Minor())
	case *trade.SaleRefundedEvent:
		h.recorder.RecordRefund(ctx, store, e.Total.Minor(), e.FullyRefunded)
	case *inventory.StockAdjustedEvent:
		h.recorder.RecordStockAdjustment(ctx, store, string(e.ItemKind))
	case *inventory.LowStockDetectedEvent:
		alertType := "low_stock"
		if e.Quantity <= 0 {
			alertType = "out_of_stock"
		}
		h.recorder.RecordLowStock(ctx, store, string(e.ItemKind), alertType)
	case *partner.LoyaltyPointsEarnedEvent:
		h.recorder.RecordLoyaltyPoints(ctx, store, e.Points)
	default:
		h.logger.Debug("sales metrics ignoring event", zap.String("event_type", event.EventType()))
	}
	return nil
}
