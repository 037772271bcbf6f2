package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ProductRepository reads catalog entries
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindVariantByID(ctx context.Context, id uuid.UUID) (*ProductVariant, error)
	// FindSellable resolves a reference into its priced read model.
	// Returns shared.ErrNotFound when the item does not exist.
	FindSellable(ctx context.Context, ref ItemRef) (*Sellable, error)
	Save(ctx context.Context, product *Product) error
	SaveVariant(ctx context.Context, variant *ProductVariant) error
	SaveTaxRate(ctx context.Context, rate *TaxRate) error
}
