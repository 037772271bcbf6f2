package inventory

import (
	"context"
	"fmt"

	"github.com/pos/backend/internal/domain/inventory"
	"github.com/pos/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// StockAlert is a low- or out-of-stock notification
type StockAlert struct {
	StoreID      string `json:"store_id"`
	ItemKind     string `json:"item_kind"`
	ItemID       string `json:"item_id"`
	ProductID    string `json:"product_id"`
	Quantity     int64  `json:"quantity"`
	ReorderPoint int64  `json:"reorder_point"`
	AlertType    string `json:"alert_type"` // "low_stock", "out_of_stock"
}

// StockAlertNotifier delivers stock alerts to inventory managers
type StockAlertNotifier interface {
	SendAlert(ctx context.Context, alert StockAlert) error
}

// LowStockHandler turns LowStockDetected events into alerts.
// It runs after the triggering transaction has committed.
type LowStockHandler struct {
	logger   *zap.Logger
	notifier StockAlertNotifier
}

// NewLowStockHandler creates a new handler for low stock events
func NewLowStockHandler(logger *zap.Logger) *LowStockHandler {
	return &LowStockHandler{logger: logger}
}

// WithNotifier sets the notifier for sending alerts
func (h *LowStockHandler) WithNotifier(notifier StockAlertNotifier) *LowStockHandler {
	h.notifier = notifier
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *LowStockHandler) EventTypes() []string {
	return []string{inventory.EventTypeLowStockDetected}
}

// Handle processes a LowStockDetectedEvent. A notifier failure is returned
// so the dispatcher can retry it.
func (h *LowStockHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	low, ok := event.(*inventory.LowStockDetectedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			inventory.EventTypeLowStockDetected, event.EventType())
	}

	alertType := "low_stock"
	if low.Quantity <= 0 {
		alertType = "out_of_stock"
	}

	h.logger.Warn("low stock detected",
		zap.String("store_id", event.StoreID().String()),
		zap.String("item_kind", string(low.ItemKind)),
		zap.String("item_id", low.ItemID.String()),
		zap.Int64("quantity", low.Quantity),
		zap.Int64("reorder_point", low.ReorderPoint),
		zap.String("alert_type", alertType),
	)

	if h.notifier == nil {
		return nil
	}
	alert := StockAlert{
		StoreID:      event.StoreID().String(),
		ItemKind:     string(low.ItemKind),
		ItemID:       low.ItemID.String(),
		ProductID:    low.ProductID.String(),
		Quantity:     low.Quantity,
		ReorderPoint: low.ReorderPoint,
		AlertType:    alertType,
	}
	if err := h.notifier.SendAlert(ctx, alert); err != nil {
		return fmt.Errorf("send stock alert for %s: %w", alert.ItemID, err)
	}
	return nil
}

// Ensure LowStockHandler implements shared.EventHandler
var _ shared.EventHandler = (*LowStockHandler)(nil)

// LoggingStockAlertNotifier logs alerts instead of delivering them
type LoggingStockAlertNotifier struct {
	logger *zap.Logger
}

// NewLoggingStockAlertNotifier creates a new logging notifier
func NewLoggingStockAlertNotifier(logger *zap.Logger) *LoggingStockAlertNotifier {
	return &LoggingStockAlertNotifier{logger: logger}
}

// SendAlert logs the stock alert
func (n *LoggingStockAlertNotifier) SendAlert(_ context.Context, alert StockAlert) error {
	n.logger.Warn("STOCK ALERT",
		zap.String("type", alert.AlertType),
		zap.String("item_id", alert.ItemID),
		zap.Int64("quantity", alert.Quantity),
		zap.Int64("reorder_point", alert.ReorderPoint),
	)
	return nil
}
