package catalog

import (
	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Sellable is the read model a sale line is priced from: the item's
// identity, prices and resolved tax rate.
type Sellable struct {
	Ref        ItemRef
	ProductID  uuid.UUID
	StoreID    uuid.UUID
	SKU        string
	Name       string
	Price      valueobject.Money
	Cost       valueobject.Money
	TaxRate    decimal.Decimal
	TrackStock bool
	Active     bool
}

// NewSellableFromProduct builds the read model for a plain product
func NewSellableFromProduct(p *Product, taxRate *TaxRate) Sellable {
	return Sellable{
		Ref:        ProductRef(p.ID),
		ProductID:  p.ID,
		StoreID:    p.StoreID,
		SKU:        p.SKU,
		Name:       p.Name,
		Price:      p.Price,
		Cost:       p.Cost,
		TaxRate:    activeRate(taxRate),
		TrackStock: p.TrackStock,
		Active:     p.Active,
	}
}

// NewSellableFromVariant builds the read model for a variant of p
func NewSellableFromVariant(v *ProductVariant, p *Product, taxRate *TaxRate) Sellable {
	return Sellable{
		Ref:        VariantRef(v.ID),
		ProductID:  p.ID,
		StoreID:    p.StoreID,
		SKU:        v.SKU,
		Name:       p.Name + " - " + v.Name,
		Price:      v.EffectivePrice(p),
		Cost:       v.EffectiveCost(p),
		TaxRate:    activeRate(taxRate),
		TrackStock: v.TrackStock,
		Active:     v.Active && p.Active,
	}
}

func activeRate(taxRate *TaxRate) decimal.Decimal {
	if taxRate == nil || !taxRate.Active {
		return decimal.Zero
	}
	return taxRate.Rate
}
