package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/inventory"
)

// AdjustStockRequest sets an item's stock to a counted quantity
type AdjustStockRequest struct {
	ItemKind    string     `json:"item_kind" binding:"required,oneof=product variant"`
	ItemID      uuid.UUID  `json:"item_id" binding:"required"`
	NewQuantity int64      `json:"new_quantity" binding:"min=0,max=1000000000"`
	Reason      string     `json:"reason" binding:"required,max=255"`
	Reference   string     `json:"reference" binding:"max=100"`
	UserID      *uuid.UUID `json:"-"`
}

// ReceiveStockRequest adds received units to an item's stock
type ReceiveStockRequest struct {
	ItemKind        string     `json:"item_kind" binding:"required,oneof=product variant"`
	ItemID          uuid.UUID  `json:"item_id" binding:"required"`
	Quantity        int64      `json:"quantity" binding:"required,gt=0,max=1000000"`
	Reason          string     `json:"reason" binding:"max=255"`
	PurchaseOrderID *uuid.UUID `json:"purchase_order_id"`
	UserID          *uuid.UUID `json:"-"`
}

// MovementResponse is the API view of a stock movement
type MovementResponse struct {
	ID             uuid.UUID  `json:"id"`
	StoreID        uuid.UUID  `json:"store_id"`
	ItemKind       string     `json:"item_kind"`
	ItemID         uuid.UUID  `json:"item_id"`
	UserID         *uuid.UUID `json:"user_id,omitempty"`
	Type           string     `json:"type"`
	Quantity       int64      `json:"quantity"`
	QuantityBefore int64      `json:"quantity_before"`
	QuantityAfter  int64      `json:"quantity_after"`
	Reference      string     `json:"reference,omitempty"`
	Reason         string     `json:"reason,omitempty"`
	SourceType     string     `json:"source_type,omitempty"`
	SourceID       *uuid.UUID `json:"source_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// StockStatusResponse describes an item's current stock
type StockStatusResponse struct {
	ItemKind     string    `json:"item_kind"`
	ItemID       uuid.UUID `json:"item_id"`
	ProductID    uuid.UUID `json:"product_id"`
	Quantity     int64     `json:"quantity"`
	ReorderPoint *int64    `json:"reorder_point,omitempty"`
	TrackStock   bool      `json:"track_stock"`
	LowStock     bool      `json:"low_stock"`
}

// ToMovementResponse converts a domain movement to its response
func ToMovementResponse(m *inventory.StockMovement) MovementResponse {
	resp := MovementResponse{
		ID:             m.ID,
		StoreID:        m.StoreID,
		ItemKind:       string(m.Item.Kind()),
		ItemID:         m.Item.ID(),
		UserID:         m.UserID,
		Type:           string(m.Type),
		Quantity:       m.Quantity,
		QuantityBefore: m.QuantityBefore,
		QuantityAfter:  m.QuantityAfter,
		Reference:      m.Reference,
		Reason:         m.Reason,
		CreatedAt:      m.CreatedAt,
	}
	if m.Source != nil {
		resp.SourceType = string(m.Source.Type)
		id := m.Source.ID
		resp.SourceID = &id
	}
	return resp
}

// ToStockStatusResponse converts a stock level to its response
func ToStockStatusResponse(level *inventory.StockLevel) StockStatusResponse {
	return StockStatusResponse{
		ItemKind:     string(level.Item.Kind()),
		ItemID:       level.Item.ID(),
		ProductID:    level.ProductID,
		Quantity:     level.Quantity,
		ReorderPoint: level.ReorderPoint,
		TrackStock:   level.TrackStock,
		LowStock:     level.IsLowStock(),
	}
}

// ParseItemRef builds an item reference from request fields
func ParseItemRef(kind string, id uuid.UUID) (catalog.ItemRef, error) {
	return catalog.NewItemRef(catalog.ItemKind(kind), id)
}
