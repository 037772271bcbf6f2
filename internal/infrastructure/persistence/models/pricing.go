package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/pricing"
	"github.com/pos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// DiscountModel is the persistence model for Discount
type DiscountModel struct {
	BaseModel
	StoreID   uuid.UUID         `gorm:"type:uuid;not null;index"`
	Name      string            `gorm:"type:varchar(100);not null"`
	Type      string            `gorm:"type:varchar(20);not null"`
	Value     decimal.Decimal   `gorm:"type:decimal(12,4);not null"`
	MinAmount valueobject.Money `gorm:"type:bigint;not null;default:0"`
	MaxUses   *int
	Uses      int `gorm:"not null;default:0"`
	StartDate *time.Time
	EndDate   *time.Time
	IsActive  bool `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DiscountModel) TableName() string {
	return "discounts"
}

// ToDomain converts the model to a domain Discount
func (m *DiscountModel) ToDomain() *pricing.Discount {
	return &pricing.Discount{
		BaseEntity: m.BaseModel.ToDomain(),
		StoreID:    m.StoreID,
		Name:       m.Name,
		Type:       pricing.DiscountType(m.Type),
		Value:      m.Value,
		MinAmount:  m.MinAmount,
		MaxUses:    m.MaxUses,
		Uses:       m.Uses,
		StartDate:  m.StartDate,
		EndDate:    m.EndDate,
		Active:     m.IsActive,
	}
}

// DiscountModelFromDomain creates a model from a domain Discount
func DiscountModelFromDomain(d *pricing.Discount) *DiscountModel {
	m := &DiscountModel{
		StoreID:   d.StoreID,
		Name:      d.Name,
		Type:      string(d.Type),
		Value:     d.Value,
		MinAmount: d.MinAmount,
		MaxUses:   d.MaxUses,
		Uses:      d.Uses,
		StartDate: d.StartDate,
		EndDate:   d.EndDate,
		IsActive:  d.Active,
	}
	m.FromDomainBaseEntity(d.BaseEntity)
	return m
}

// CouponModel is the persistence model for Coupon
type CouponModel struct {
	BaseModel
	StoreID            uuid.UUID `gorm:"type:uuid;not null;index"`
	Code               string    `gorm:"type:varchar(50);not null;index"`
	DiscountID         uuid.UUID `gorm:"type:uuid;not null"`
	MaxUses            *int
	MaxUsesPerCustomer *int
	Uses               int `gorm:"not null;default:0"`
	StartsAt           *time.Time
	ExpiresAt          *time.Time
	IsActive           bool           `gorm:"not null"`
	Discount           *DiscountModel `gorm:"foreignKey:DiscountID"`
}

// TableName returns the table name for GORM
func (CouponModel) TableName() string {
	return "coupons"
}

// ToDomain converts the model to a domain Coupon
func (m *CouponModel) ToDomain() *pricing.Coupon {
	c := &pricing.Coupon{
		BaseEntity:         m.BaseModel.ToDomain(),
		StoreID:            m.StoreID,
		Code:               m.Code,
		DiscountID:         m.DiscountID,
		MaxUses:            m.MaxUses,
		MaxUsesPerCustomer: m.MaxUsesPerCustomer,
		Uses:               m.Uses,
		StartsAt:           m.StartsAt,
		ExpiresAt:          m.ExpiresAt,
		Active:             m.IsActive,
	}
	if m.Discount != nil {
		c.Discount = m.Discount.ToDomain()
	}
	return c
}

// CouponModelFromDomain creates a model from a domain Coupon.
// The discount is saved separately.
func CouponModelFromDomain(c *pricing.Coupon) *CouponModel {
	m := &CouponModel{
		StoreID:            c.StoreID,
		Code:               c.Code,
		DiscountID:         c.DiscountID,
		MaxUses:            c.MaxUses,
		MaxUsesPerCustomer: c.MaxUsesPerCustomer,
		Uses:               c.Uses,
		StartsAt:           c.StartsAt,
		ExpiresAt:          c.ExpiresAt,
		IsActive:           c.Active,
	}
	m.FromDomainBaseEntity(c.BaseEntity)
	return m
}
