package models

import (
	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TaxRateModel is the persistence model for TaxRate
type TaxRateModel struct {
	BaseModel
	StoreID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name     string          `gorm:"type:varchar(100);not null"`
	Rate     decimal.Decimal `gorm:"type:decimal(8,4);not null"`
	IsActive bool            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TaxRateModel) TableName() string {
	return "tax_rates"
}

// ToDomain converts the model to a domain TaxRate
func (m *TaxRateModel) ToDomain() *catalog.TaxRate {
	return &catalog.TaxRate{
		BaseEntity: m.BaseModel.ToDomain(),
		StoreID:    m.StoreID,
		Name:       m.Name,
		Rate:       m.Rate,
		Active:     m.IsActive,
	}
}

// TaxRateModelFromDomain creates a model from a domain TaxRate
func TaxRateModelFromDomain(t *catalog.TaxRate) *TaxRateModel {
	m := &TaxRateModel{
		StoreID:  t.StoreID,
		Name:     t.Name,
		Rate:     t.Rate,
		IsActive: t.Active,
	}
	m.FromDomainBaseEntity(t.BaseEntity)
	return m
}

// ProductModel is the persistence model for Product.
// stock_quantity is written only through the stock ledger.
type ProductModel struct {
	StoreAggregateModel
	SKU           string            `gorm:"type:varchar(64);not null;index"`
	Name          string            `gorm:"type:varchar(200);not null"`
	Price         valueobject.Money `gorm:"type:bigint;not null;default:0"`
	Cost          valueobject.Money `gorm:"type:bigint;not null;default:0"`
	TaxRateID     *uuid.UUID        `gorm:"type:uuid"`
	StockQuantity int64             `gorm:"not null;default:0"`
	ReorderPoint  *int64
	TrackStock    bool           `gorm:"not null"`
	IsActive      bool           `gorm:"not null"`
	DeletedAt     gorm.DeletedAt `gorm:"index"`
	TaxRate       *TaxRateModel  `gorm:"foreignKey:TaxRateID"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the model to a domain Product
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		StoreAggregateRoot: m.ToDomainStoreAggregateRoot(),
		SKU:                m.SKU,
		Name:               m.Name,
		Price:              m.Price,
		Cost:               m.Cost,
		TaxRateID:          m.TaxRateID,
		StockQuantity:      m.StockQuantity,
		ReorderPoint:       m.ReorderPoint,
		TrackStock:         m.TrackStock,
		Active:             m.IsActive,
	}
}

// ProductModelFromDomain creates a model from a domain Product
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{
		SKU:           p.SKU,
		Name:          p.Name,
		Price:         p.Price,
		Cost:          p.Cost,
		TaxRateID:     p.TaxRateID,
		StockQuantity: p.StockQuantity,
		ReorderPoint:  p.ReorderPoint,
		TrackStock:    p.TrackStock,
		IsActive:      p.Active,
	}
	m.FromDomainStoreAggregateRoot(p.StoreAggregateRoot)
	return m
}

// ProductVariantModel is the persistence model for ProductVariant
type ProductVariantModel struct {
	BaseModel
	ProductID     uuid.UUID         `gorm:"type:uuid;not null;index"`
	SKU           string            `gorm:"type:varchar(64);not null"`
	Name          string            `gorm:"type:varchar(200);not null"`
	Price         valueobject.Money `gorm:"type:bigint;not null;default:0"`
	Cost          valueobject.Money `gorm:"type:bigint;not null;default:0"`
	StockQuantity int64             `gorm:"not null;default:0"`
	ReorderPoint  *int64
	TrackStock    bool           `gorm:"not null"`
	IsActive      bool           `gorm:"not null"`
	DeletedAt     gorm.DeletedAt `gorm:"index"`
	Product       *ProductModel  `gorm:"foreignKey:ProductID"`
}

// TableName returns the table name for GORM
func (ProductVariantModel) TableName() string {
	return "product_variants"
}

// ToDomain converts the model to a domain ProductVariant
func (m *ProductVariantModel) ToDomain() *catalog.ProductVariant {
	return &catalog.ProductVariant{
		BaseEntity:   m.BaseModel.ToDomain(),
		ProductID:    m.ProductID,
		SKU:          m.SKU,
		Name:         m.Name,
		Price:        m.Price,
		Cost:         m.Cost,
		Stock:        m.StockQuantity,
		ReorderPoint: m.ReorderPoint,
		TrackStock:   m.TrackStock,
		Active:       m.IsActive,
	}
}

// ProductVariantModelFromDomain creates a model from a domain ProductVariant
func ProductVariantModelFromDomain(v *catalog.ProductVariant) *ProductVariantModel {
	m := &ProductVariantModel{
		ProductID:     v.ProductID,
		SKU:           v.SKU,
		Name:          v.Name,
		Price:         v.Price,
		Cost:          v.Cost,
		StockQuantity: v.Stock,
		ReorderPoint:  v.ReorderPoint,
		TrackStock:    v.TrackStock,
		IsActive:      v.Active,
	}
	m.FromDomainBaseEntity(v.BaseEntity)
	return m
}
