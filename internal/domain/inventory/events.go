package inventory

import (
	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/shared"
)

// AggregateTypeStockLevel is the aggregate type of inventory events
const AggregateTypeStockLevel = "StockLevel"

// Event type constants
const (
	EventTypeStockAdjusted    = "StockAdjusted"
	EventTypeLowStockDetected = "LowStockDetected"
)

// StockAdjustedEvent is raised when stock is set to a counted value
type StockAdjustedEvent struct {
	shared.BaseDomainEvent
	ItemKind       catalog.ItemKind `json:"item_kind"`
	ItemID         uuid.UUID        `json:"item_id"`
	ProductID      uuid.UUID        `json:"product_id"`
	QuantityBefore int64            `json:"quantity_before"`
	QuantityAfter  int64            `json:"quantity_after"`
	Difference     int64            `json:"difference"`
	Reason         string           `json:"reason"`
}

// NewStockAdjustedEvent creates a new StockAdjustedEvent
func NewStockAdjustedEvent(level *StockLevel, before int64, reason string) *StockAdjustedEvent {
	return &StockAdjustedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockAdjusted, AggregateTypeStockLevel, level.Item.ID(), level.StoreID),
		ItemKind:        level.Item.Kind(),
		ItemID:          level.Item.ID(),
		ProductID:       level.ProductID,
		QuantityBefore:  before,
		QuantityAfter:   level.Quantity,
		Difference:      level.Quantity - before,
		Reason:          reason,
	}
}

// EventType returns the event type name
func (e *StockAdjustedEvent) EventType() string {
	return EventTypeStockAdjusted
}

// LowStockDetectedEvent is raised when a tracked item drops to its reorder point
type LowStockDetectedEvent struct {
	shared.BaseDomainEvent
	ItemKind     catalog.ItemKind `json:"item_kind"`
	ItemID       uuid.UUID        `json:"item_id"`
	ProductID    uuid.UUID        `json:"product_id"`
	Quantity     int64            `json:"quantity"`
	ReorderPoint int64            `json:"reorder_point"`
}

// NewLowStockDetectedEvent creates a new LowStockDetectedEvent
func NewLowStockDetectedEvent(level *StockLevel) *LowStockDetectedEvent {
	var reorder int64
	if level.ReorderPoint != nil {
		reorder = *level.ReorderPoint
	}
	return &LowStockDetectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLowStockDetected, AggregateTypeStockLevel, level.Item.ID(), level.StoreID),
		ItemKind:        level.Item.Kind(),
		ItemID:          level.Item.ID(),
		ProductID:       level.ProductID,
		Quantity:        level.Quantity,
		ReorderPoint:    reorder,
	}
}

// EventType returns the event type name
func (e *LowStockDetectedEvent) EventType() string {
	return EventTypeLowStockDetected
}
