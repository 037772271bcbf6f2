package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
)

// BaseModel provides common persistence fields for all models.
// It maps to the domain's BaseEntity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts BaseModel to domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomainBaseEntity populates BaseModel from domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// StoreAggregateModel holds the persistence fields of store-scoped aggregate roots
type StoreAggregateModel struct {
	BaseModel
	Version   int        `gorm:"not null;default:1"`
	StoreID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	CreatedBy *uuid.UUID `gorm:"type:uuid"`
}

// FromDomainStoreAggregateRoot populates the model from a domain StoreAggregateRoot
func (m *StoreAggregateModel) FromDomainStoreAggregateRoot(a shared.StoreAggregateRoot) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.Version = a.Version
	m.StoreID = a.StoreID
	m.CreatedBy = a.CreatedBy
}

// ToDomainStoreAggregateRoot rebuilds the domain StoreAggregateRoot
func (m *StoreAggregateModel) ToDomainStoreAggregateRoot() shared.StoreAggregateRoot {
	return shared.StoreAggregateRoot{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: m.BaseModel.ToDomain(),
			Version:    m.Version,
		},
		StoreID:   m.StoreID,
		CreatedBy: m.CreatedBy,
	}
}

// All lists every model, in dependency order, for schema bootstrapping in tests
func All() []any {
	return []any{
		&TaxRateModel{},
		&ProductModel{},
		&ProductVariantModel{},
		&StockMovementModel{},
		&DiscountModel{},
		&CouponModel{},
		&CustomerModel{},
		&SaleModel{},
		&SaleReferenceSequenceModel{},
		&SaleItemModel{},
		&SalePaymentModel{},
		&SaleReturnModel{},
		&SaleReturnItemModel{},
	}
}
