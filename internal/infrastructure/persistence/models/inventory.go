package models

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/inventory"
)

// StockMovementModel is one append-only row of the stock ledger
type StockMovementModel struct {
	BaseModel
	StoreID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	ItemKind       string     `gorm:"type:varchar(16);not null;index:idx_stock_movements_item,priority:1"`
	ItemID         uuid.UUID  `gorm:"type:uuid;not null;index:idx_stock_movements_item,priority:2"`
	UserID         *uuid.UUID `gorm:"type:uuid"`
	Type           string     `gorm:"type:varchar(20);not null"`
	Quantity       int64      `gorm:"not null"`
	QuantityBefore int64      `gorm:"not null"`
	QuantityAfter  int64      `gorm:"not null"`
	Reference      string     `gorm:"type:varchar(100)"`
	Reason         string     `gorm:"type:varchar(255)"`
	SourceType     *string    `gorm:"type:varchar(30)"`
	SourceID       *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (StockMovementModel) TableName() string {
	return "stock_movements"
}

// ToDomain converts the model to a domain StockMovement
func (m *StockMovementModel) ToDomain() (*inventory.StockMovement, error) {
	item, err := catalog.NewItemRef(catalog.ItemKind(m.ItemKind), m.ItemID)
	if err != nil {
		return nil, fmt.Errorf("stock movement %s: %w", m.ID, err)
	}
	movement := &inventory.StockMovement{
		BaseEntity:     m.BaseModel.ToDomain(),
		StoreID:        m.StoreID,
		Item:           item,
		UserID:         m.UserID,
		Type:           inventory.MovementType(m.Type),
		Quantity:       m.Quantity,
		QuantityBefore: m.QuantityBefore,
		QuantityAfter:  m.QuantityAfter,
		Reference:      m.Reference,
		Reason:         m.Reason,
	}
	if m.SourceType != nil && m.SourceID != nil {
		movement.Source = inventory.NewSource(inventory.SourceType(*m.SourceType), *m.SourceID)
	}
	return movement, nil
}

// StockMovementModelFromDomain creates a model from a domain StockMovement
func StockMovementModelFromDomain(s *inventory.StockMovement) *StockMovementModel {
	m := &StockMovementModel{
		StoreID:        s.StoreID,
		ItemKind:       string(s.Item.Kind()),
		ItemID:         s.Item.ID(),
		UserID:         s.UserID,
		Type:           string(s.Type),
		Quantity:       s.Quantity,
		QuantityBefore: s.QuantityBefore,
		QuantityAfter:  s.QuantityAfter,
		Reference:      s.Reference,
		Reason:         s.Reason,
	}
	if s.Source != nil {
		sourceType := string(s.Source.Type)
		sourceID := s.Source.ID
		m.SourceType = &sourceType
		m.SourceID = &sourceID
	}
	m.FromDomainBaseEntity(s.BaseEntity)
	return m
}
