package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/shared/valueobject"
)

// Product is a sellable, stock-bearing catalog entry.
// StockQuantity is changed only by the inventory ledger.
type Product struct {
	shared.StoreAggregateRoot
	SKU           string
	Name          string
	Price         valueobject.Money
	Cost          valueobject.Money
	TaxRateID     *uuid.UUID
	StockQuantity int64
	ReorderPoint  *int64
	TrackStock    bool
	Active        bool
}

// NewProduct creates an active product that tracks stock
func NewProduct(storeID uuid.UUID, sku, name string, price valueobject.Money) (*Product, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return nil, shared.NewValidationError("product SKU cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewValidationError("product name cannot be empty")
	}
	if price.IsNegative() {
		return nil, shared.NewValidationError("product price cannot be negative")
	}
	return &Product{
		StoreAggregateRoot: shared.NewStoreAggregateRoot(storeID),
		SKU:                strings.ToUpper(sku),
		Name:               name,
		Price:              price,
		TrackStock:         true,
		Active:             true,
	}, nil
}

// SetCost sets the unit cost used for margin reporting
func (p *Product) SetCost(cost valueobject.Money) error {
	if cost.IsNegative() {
		return shared.NewValidationError("product cost cannot be negative")
	}
	p.Cost = cost
	p.touch()
	return nil
}

// SetTaxRate assigns (or clears, with nil) the product's tax rate
func (p *Product) SetTaxRate(taxRateID *uuid.UUID) {
	p.TaxRateID = taxRateID
	p.touch()
}

// SetReorderPoint sets the low-stock threshold; nil disables low-stock alerts
func (p *Product) SetReorderPoint(point *int64) error {
	if point != nil && *point < 0 {
		return shared.NewValidationError("reorder point cannot be negative")
	}
	p.ReorderPoint = point
	p.touch()
	return nil
}

// SetTrackStock toggles stock tracking
func (p *Product) SetTrackStock(track bool) {
	p.TrackStock = track
	p.touch()
}

// Deactivate removes the product from sale
func (p *Product) Deactivate() {
	p.Active = false
	p.touch()
}

func (p *Product) touch() {
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}
