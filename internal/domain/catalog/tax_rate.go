package catalog

import (
	"strings"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// TaxRate is a named percentage applied to product lines
type TaxRate struct {
	shared.BaseEntity
	StoreID uuid.UUID
	Name    string
	Rate    decimal.Decimal // percent, e.g. 10 for 10%
	Active  bool
}

// NewTaxRate creates an active tax rate
func NewTaxRate(storeID uuid.UUID, name string, rate decimal.Decimal) (*TaxRate, error) {
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewValidationError("tax rate name cannot be empty")
	}
	if rate.IsNegative() {
		return nil, shared.NewValidationError("tax rate cannot be negative")
	}
	return &TaxRate{
		BaseEntity: shared.NewBaseEntity(),
		StoreID:    storeID,
		Name:       name,
		Rate:       rate,
		Active:     true,
	}, nil
}
