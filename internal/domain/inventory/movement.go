package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/shared"
)

// MovementType classifies a stock movement
type MovementType string

const (
	MovementTypeIn          MovementType = "in"
	MovementTypeOut         MovementType = "out"
	MovementTypeAdjustment  MovementType = "adjustment"
	MovementTypeSale        MovementType = "sale"
	MovementTypeReturn      MovementType = "return"
	MovementTypePurchase    MovementType = "purchase"
	MovementTypeTransferIn  MovementType = "transfer_in"
	MovementTypeTransferOut MovementType = "transfer_out"
)

// IsValid returns true if the movement type is known
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeIn,
		MovementTypeOut,
		MovementTypeAdjustment,
		MovementTypeSale,
		MovementTypeReturn,
		MovementTypePurchase,
		MovementTypeTransferIn,
		MovementTypeTransferOut:
		return true
	}
	return false
}

// SourceType names the kind of document that caused a movement
type SourceType string

const (
	SourceTypeSale            SourceType = "sale"
	SourceTypePurchaseOrder   SourceType = "purchase_order"
	SourceTypeStockAdjustment SourceType = "stock_adjustment"
	SourceTypeSaleReturn      SourceType = "sale_return"
)

// IsValid returns true if the source type is known
func (s SourceType) IsValid() bool {
	switch s {
	case SourceTypeSale, SourceTypePurchaseOrder, SourceTypeStockAdjustment, SourceTypeSaleReturn:
		return true
	}
	return false
}

// Source is the optional link from a movement to the document that caused it
type Source struct {
	Type SourceType
	ID   uuid.UUID
}

// NewSource builds a movement source
func NewSource(t SourceType, id uuid.UUID) *Source {
	return &Source{Type: t, ID: id}
}

// MovementInput carries the audit details of a stock mutation
type MovementInput struct {
	Reason    string
	Reference string
	UserID    *uuid.UUID
	Source    *Source
}

// StockMovement is an append-only ledger entry. It is never updated or
// deleted; corrections are new movements.
// QuantityAfter always equals QuantityBefore + Quantity.
type StockMovement struct {
	shared.BaseEntity
	StoreID        uuid.UUID
	Item           catalog.ItemRef
	UserID         *uuid.UUID
	Type           MovementType
	Quantity       int64
	QuantityBefore int64
	QuantityAfter  int64
	Reference      string
	Reason         string
	Source         *Source
}

// NewStockMovement records the transition of an item's stock from before to after
func NewStockMovement(storeID uuid.UUID, item catalog.ItemRef, movementType MovementType, before, after int64, in MovementInput) (*StockMovement, error) {
	if item.IsZero() {
		return nil, shared.NewValidationError("stock movement requires an item")
	}
	if !movementType.IsValid() {
		return nil, shared.NewValidationError("invalid movement type %q", movementType)
	}
	if in.Source != nil && !in.Source.Type.IsValid() {
		return nil, shared.NewValidationError("invalid movement source %q", in.Source.Type)
	}
	return &StockMovement{
		BaseEntity: shared.BaseEntity{
			ID:        uuid.New(),
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
		StoreID:        storeID,
		Item:           item,
		UserID:         in.UserID,
		Type:           movementType,
		Quantity:       after - before,
		QuantityBefore: before,
		QuantityAfter:  after,
		Reference:      in.Reference,
		Reason:         in.Reason,
		Source:         in.Source,
	}, nil
}

// IsConsistent checks the ledger invariant for this entry
func (m *StockMovement) IsConsistent() bool {
	return m.QuantityAfter == m.QuantityBefore+m.Quantity
}

// Replay applies movements in order to an initial quantity and returns the
// resulting stock, or false if the chain is broken.
func Replay(initial int64, movements []StockMovement) (int64, bool) {
	current := initial
	for i := range movements {
		m := &movements[i]
		if !m.IsConsistent() || m.QuantityBefore != current {
			return current, false
		}
		current = m.QuantityAfter
	}
	return current, true
}
