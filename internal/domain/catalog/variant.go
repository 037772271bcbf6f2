package catalog

import (
	"strings"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/shared/valueobject"
)

// ProductVariant is a size/colour/etc. variation of a product with its own
// stock counter. A zero Price falls back to the parent product price.
type ProductVariant struct {
	shared.BaseEntity
	ProductID    uuid.UUID
	SKU          string
	Name         string
	Price        valueobject.Money
	Cost         valueobject.Money
	Stock        int64
	ReorderPoint *int64
	TrackStock   bool
	Active       bool
}

// NewProductVariant creates a variant of the given product
func NewProductVariant(product *Product, sku, name string) (*ProductVariant, error) {
	if product == nil {
		return nil, shared.NewValidationError("variant requires a product")
	}
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return nil, shared.NewValidationError("variant SKU cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewValidationError("variant name cannot be empty")
	}
	return &ProductVariant{
		BaseEntity: shared.NewBaseEntity(),
		ProductID:  product.ID,
		SKU:        strings.ToUpper(sku),
		Name:       name,
		TrackStock: product.TrackStock,
		Active:     true,
	}, nil
}

// EffectivePrice returns the variant price or the product price when unset
func (v *ProductVariant) EffectivePrice(product *Product) valueobject.Money {
	if v.Price.IsZero() && product != nil {
		return product.Price
	}
	return v.Price
}

// EffectiveCost returns the variant cost or the product cost when unset
func (v *ProductVariant) EffectiveCost(product *Product) valueobject.Money {
	if v.Cost.IsZero() && product != nil {
		return product.Cost
	}
	return v.Cost
}
