package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/shared/valueobject"
	"github.com/pos/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SaleModel is the persistence model for the Sale aggregate root
type SaleModel struct {
	StoreAggregateModel
	CashierID     uuid.UUID         `gorm:"type:uuid;not null"`
	CustomerID    *uuid.UUID        `gorm:"type:uuid;index"`
	Reference     string            `gorm:"type:varchar(50);not null;index"`
	Subtotal      valueobject.Money `gorm:"type:bigint;not null;default:0"`
	Tax           valueobject.Money `gorm:"type:bigint;not null;default:0"`
	Discount      valueobject.Money `gorm:"type:bigint;not null;default:0"`
	Total         valueobject.Money `gorm:"type:bigint;not null;default:0"`
	RefundedTotal valueobject.Money `gorm:"type:bigint;not null;default:0"`
	Status        string            `gorm:"type:varchar(20);not null;index"`
	Notes         string            `gorm:"type:text"`
	CouponID      *uuid.UUID        `gorm:"type:uuid;index"`
	CompletedAt   *time.Time
	DeletedAt     gorm.DeletedAt     `gorm:"index"`
	Items         []SaleItemModel    `gorm:"foreignKey:SaleID;references:ID"`
	Payments      []SalePaymentModel `gorm:"foreignKey:SaleID;references:ID"`
}

// TableName returns the table name for GORM
func (SaleModel) TableName() string {
	return "sales"
}

// SaleReferenceSequenceModel is the per store, prefix and day counter behind
// sale references. The row is locked while a number is issued.
type SaleReferenceSequenceModel struct {
	StoreID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Prefix    string    `gorm:"type:varchar(20);primaryKey"`
	Day       string    `gorm:"type:char(8);primaryKey"`
	LastSeq   int64     `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SaleReferenceSequenceModel) TableName() string {
	return "sale_reference_sequences"
}

// ToDomain converts the model, with any loaded items and payments, to a domain Sale
func (m *SaleModel) ToDomain() (*trade.Sale, error) {
	sale := &trade.Sale{
		StoreAggregateRoot: m.ToDomainStoreAggregateRoot(),
		CashierID:          m.CashierID,
		CustomerID:         m.CustomerID,
		Reference:          m.Reference,
		Subtotal:           m.Subtotal,
		Tax:                m.Tax,
		Discount:           m.Discount,
		Total:              m.Total,
		RefundedTotal:      m.RefundedTotal,
		Status:             trade.SaleStatus(m.Status),
		Notes:              m.Notes,
		CouponID:           m.CouponID,
		CompletedAt:        m.CompletedAt,
		Items:              make([]trade.SaleItem, 0, len(m.Items)),
		Payments:           make([]trade.SalePayment, 0, len(m.Payments)),
	}
	if m.DeletedAt.Valid {
		deletedAt := m.DeletedAt.Time
		sale.DeletedAt = &deletedAt
	}
	for i := range m.Items {
		item, err := m.Items[i].ToDomain()
		if err != nil {
			return nil, err
		}
		sale.Items = append(sale.Items, *item)
	}
	for i := range m.Payments {
		sale.Payments = append(sale.Payments, *m.Payments[i].ToDomain())
	}
	return sale, nil
}

// SaleModelFromDomain creates a model from a domain Sale including its items
// and payments
func SaleModelFromDomain(s *trade.Sale) *SaleModel {
	m := &SaleModel{
		CashierID:     s.CashierID,
		CustomerID:    s.CustomerID,
		Reference:     s.Reference,
		Subtotal:      s.Subtotal,
		Tax:           s.Tax,
		Discount:      s.Discount,
		Total:         s.Total,
		RefundedTotal: s.RefundedTotal,
		Status:        string(s.Status),
		Notes:         s.Notes,
		CouponID:      s.CouponID,
		CompletedAt:   s.CompletedAt,
		Items:         make([]SaleItemModel, len(s.Items)),
		Payments:      make([]SalePaymentModel, len(s.Payments)),
	}
	m.FromDomainStoreAggregateRoot(s.StoreAggregateRoot)
	if s.DeletedAt != nil {
		m.DeletedAt = gorm.DeletedAt{Time: *s.DeletedAt, Valid: true}
	}
	for i := range s.Items {
		m.Items[i] = *SaleItemModelFromDomain(&s.Items[i])
	}
	for i := range s.Payments {
		m.Payments[i] = *SalePaymentModelFromDomain(&s.Payments[i])
	}
	return m
}

// SaleItemModel is one sale line
type SaleItemModel struct {
	BaseModel
	SaleID    uuid.UUID         `gorm:"type:uuid;not null;index"`
	ItemKind  string            `gorm:"type:varchar(16);not null"`
	ItemID    uuid.UUID         `gorm:"type:uuid;not null"`
	ProductID uuid.UUID         `gorm:"type:uuid;not null;index"`
	Name      string            `gorm:"type:varchar(200);not null"`
	SKU       string            `gorm:"type:varchar(64)"`
	Quantity  int64             `gorm:"not null"`
	UnitPrice valueobject.Money `gorm:"type:bigint;not null"`
	UnitCost  valueobject.Money `gorm:"type:bigint;not null;default:0"`
	Discount  valueobject.Money `gorm:"type:bigint;not null;default:0"`
	TaxRate   decimal.Decimal   `gorm:"type:decimal(8,4);not null;default:0"`
	Tax       valueobject.Money `gorm:"type:bigint;not null;default:0"`
	Total     valueobject.Money `gorm:"type:bigint;not null"`
}

// TableName returns the table name for GORM
func (SaleItemModel) TableName() string {
	return "sale_items"
}

// ToDomain converts the model to a domain SaleItem
func (m *SaleItemModel) ToDomain() (*trade.SaleItem, error) {
	ref, err := catalog.NewItemRef(catalog.ItemKind(m.ItemKind), m.ItemID)
	if err != nil {
		return nil, fmt.Errorf("sale item %s: %w", m.ID, err)
	}
	return &trade.SaleItem{
		BaseEntity: m.BaseModel.ToDomain(),
		SaleID:     m.SaleID,
		Item:       ref,
		ProductID:  m.ProductID,
		Name:       m.Name,
		SKU:        m.SKU,
		Quantity:   m.Quantity,
		UnitPrice:  m.UnitPrice,
		UnitCost:   m.UnitCost,
		Discount:   m.Discount,
		TaxRate:    m.TaxRate,
		Tax:        m.Tax,
		Total:      m.Total,
	}, nil
}

// SaleItemModelFromDomain creates a model from a domain SaleItem
func SaleItemModelFromDomain(i *trade.SaleItem) *SaleItemModel {
	m := &SaleItemModel{
		SaleID:    i.SaleID,
		ItemKind:  string(i.Item.Kind()),
		ItemID:    i.Item.ID(),
		ProductID: i.ProductID,
		Name:      i.Name,
		SKU:       i.SKU,
		Quantity:  i.Quantity,
		UnitPrice: i.UnitPrice,
		UnitCost:  i.UnitCost,
		Discount:  i.Discount,
		TaxRate:   i.TaxRate,
		Tax:       i.Tax,
		Total:     i.Total,
	}
	m.FromDomainBaseEntity(i.BaseEntity)
	return m
}

// SalePaymentModel is one tender against a sale
type SalePaymentModel struct {
	BaseModel
	SaleID          uuid.UUID         `gorm:"type:uuid;not null;index"`
	PaymentMethodID uuid.UUID         `gorm:"type:uuid;not null"`
	Amount          valueobject.Money `gorm:"type:bigint;not null"`
	Reference       string            `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (SalePaymentModel) TableName() string {
	return "sale_payments"
}

// ToDomain converts the model to a domain SalePayment
func (m *SalePaymentModel) ToDomain() *trade.SalePayment {
	return &trade.SalePayment{
		BaseEntity:      m.BaseModel.ToDomain(),
		SaleID:          m.SaleID,
		PaymentMethodID: m.PaymentMethodID,
		Amount:          m.Amount,
		Reference:       m.Reference,
	}
}

// SalePaymentModelFromDomain creates a model from a domain SalePayment
func SalePaymentModelFromDomain(p *trade.SalePayment) *SalePaymentModel {
	m := &SalePaymentModel{
		SaleID:          p.SaleID,
		PaymentMethodID: p.PaymentMethodID,
		Amount:          p.Amount,
		Reference:       p.Reference,
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	return m
}

// SaleReturnModel is the persistence model for SaleReturn
type SaleReturnModel struct {
	StoreAggregateModel
	SaleID          uuid.UUID  `gorm:"type:uuid;not null;index"`
	Reason          string     `gorm:"type:varchar(255)"`
	Status          string     `gorm:"type:varchar(20);not null"`
	RequestedBy     uuid.UUID  `gorm:"type:uuid;not null"`
	ApprovedBy      *uuid.UUID `gorm:"type:uuid"`
	ApprovedAt      *time.Time
	RejectionReason string                `gorm:"type:varchar(255)"`
	Subtotal        valueobject.Money     `gorm:"type:bigint;not null"`
	Tax             valueobject.Money     `gorm:"type:bigint;not null"`
	Total           valueobject.Money     `gorm:"type:bigint;not null"`
	Items           []SaleReturnItemModel `gorm:"foreignKey:SaleReturnID;references:ID"`
}

// TableName returns the table name for GORM
func (SaleReturnModel) TableName() string {
	return "sale_returns"
}

// ToDomain converts the model with its items to a domain SaleReturn
func (m *SaleReturnModel) ToDomain() (*trade.SaleReturn, error) {
	ret := &trade.SaleReturn{
		StoreAggregateRoot: m.ToDomainStoreAggregateRoot(),
		SaleID:             m.SaleID,
		Reason:             m.Reason,
		Status:             trade.ReturnStatus(m.Status),
		RequestedBy:        m.RequestedBy,
		ApprovedBy:         m.ApprovedBy,
		ApprovedAt:         m.ApprovedAt,
		RejectionReason:    m.RejectionReason,
		Subtotal:           m.Subtotal,
		Tax:                m.Tax,
		Total:              m.Total,
		Items:              make([]trade.SaleReturnItem, 0, len(m.Items)),
	}
	for i := range m.Items {
		item, err := m.Items[i].ToDomain()
		if err != nil {
			return nil, err
		}
		ret.Items = append(ret.Items, *item)
	}
	return ret, nil
}

// SaleReturnModelFromDomain creates a model from a domain SaleReturn
func SaleReturnModelFromDomain(r *trade.SaleReturn) *SaleReturnModel {
	m := &SaleReturnModel{
		SaleID:          r.SaleID,
		Reason:          r.Reason,
		Status:          string(r.Status),
		RequestedBy:     r.RequestedBy,
		ApprovedBy:      r.ApprovedBy,
		ApprovedAt:      r.ApprovedAt,
		RejectionReason: r.RejectionReason,
		Subtotal:        r.Subtotal,
		Tax:             r.Tax,
		Total:           r.Total,
		Items:           make([]SaleReturnItemModel, len(r.Items)),
	}
	m.FromDomainStoreAggregateRoot(r.StoreAggregateRoot)
	for i := range r.Items {
		m.Items[i] = *SaleReturnItemModelFromDomain(&r.Items[i])
	}
	return m
}

// SaleReturnItemModel is one returned line
type SaleReturnItemModel struct {
	BaseModel
	SaleReturnID uuid.UUID         `gorm:"type:uuid;not null;index"`
	SaleItemID   uuid.UUID         `gorm:"type:uuid;not null;index"`
	ItemKind     string            `gorm:"type:varchar(16);not null"`
	ItemID       uuid.UUID         `gorm:"type:uuid;not null"`
	ProductID    uuid.UUID         `gorm:"type:uuid;not null"`
	Quantity     int64             `gorm:"not null"`
	UnitPrice    valueobject.Money `gorm:"type:bigint;not null"`
	Subtotal     valueobject.Money `gorm:"type:bigint;not null"`
	Tax          valueobject.Money `gorm:"type:bigint;not null"`
	Total        valueobject.Money `gorm:"type:bigint;not null"`
	Reason       string            `gorm:"type:varchar(255)"`
}

// TableName returns the table name for GORM
func (SaleReturnItemModel) TableName() string {
	return "sale_return_items"
}

// ToDomain converts the model to a domain SaleReturnItem
func (m *SaleReturnItemModel) ToDomain() (*trade.SaleReturnItem, error) {
	ref, err := catalog.NewItemRef(catalog.ItemKind(m.ItemKind), m.ItemID)
	if err != nil {
		return nil, fmt.Errorf("sale return item %s: %w", m.ID, err)
	}
	return &trade.SaleReturnItem{
		BaseEntity:   m.BaseModel.ToDomain(),
		SaleReturnID: m.SaleReturnID,
		SaleItemID:   m.SaleItemID,
		Item:         ref,
		ProductID:    m.ProductID,
		Quantity:     m.Quantity,
		UnitPrice:    m.UnitPrice,
		Subtotal:     m.Subtotal,
		Tax:          m.Tax,
		Total:        m.Total,
		Reason:       m.Reason,
	}, nil
}

// SaleReturnItemModelFromDomain creates a model from a domain SaleReturnItem
func SaleReturnItemModelFromDomain(i *trade.SaleReturnItem) *SaleReturnItemModel {
	m := &SaleReturnItemModel{
		SaleReturnID: i.SaleReturnID,
		SaleItemID:   i.SaleItemID,
		ItemKind:     string(i.Item.Kind()),
		ItemID:       i.Item.ID(),
		ProductID:    i.ProductID,
		Quantity:     i.Quantity,
		UnitPrice:    i.UnitPrice,
		Subtotal:     i.Subtotal,
		Tax:          i.Tax,
		Total:        i.Total,
		Reason:       i.Reason,
	}
	m.FromDomainBaseEntity(i.BaseEntity)
	return m
}
