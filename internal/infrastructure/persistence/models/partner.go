package models

import (
	"github.com/pos/backend/internal/domain/partner"
)

// CustomerModel is the persistence model for Customer
type CustomerModel struct {
	StoreAggregateModel
	Name          string `gorm:"type:varchar(200);not null"`
	Email         string `gorm:"type:varchar(200)"`
	Phone         string `gorm:"type:varchar(50)"`
	LoyaltyPoints int64  `gorm:"not null;default:0"`
	IsActive      bool   `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the model to a domain Customer
func (m *CustomerModel) ToDomain() *partner.Customer {
	return &partner.Customer{
		StoreAggregateRoot: m.ToDomainStoreAggregateRoot(),
		Name:               m.Name,
		Email:              m.Email,
		Phone:              m.Phone,
		LoyaltyPoints:      m.LoyaltyPoints,
		Active:             m.IsActive,
	}
}

// CustomerModelFromDomain creates a model from a domain Customer
func CustomerModelFromDomain(c *partner.Customer) *CustomerModel {
	m := &CustomerModel{
		Name:          c.Name,
		Email:         c.Email,
		Phone:         c.Phone,
		LoyaltyPoints: c.LoyaltyPoints,
		IsActive:      c.Active,
	}
	m.FromDomainStoreAggregateRoot(c.StoreAggregateRoot)
	return m
}
