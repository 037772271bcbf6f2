package trade

import (
	"context"

	"github.com/pos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Config holds the sale engine settings
type Config struct {
	// ReferencePrefix starts every generated sale reference
	ReferencePrefix string
	// PaymentTolerance is the largest accepted gap between paid and total
	PaymentTolerance valueobject.Money
}

// DefaultConfig returns the default sale engine settings
func DefaultConfig() Config {
	return Config{
		ReferencePrefix:  "SALE",
		PaymentTolerance: valueobject.NewMoney(1),
	}
}

// LoyaltyConfig controls point accrual on completion
type LoyaltyConfig struct {
	Enabled bool
	// Rate is points earned per currency unit of the sale total
	Rate decimal.Decimal
}

// Locker serializes work on a single sale across processes.
// Lock blocks until the key is held or ctx ends and returns the release func.
type Locker interface {
	Lock(ctx context.Context, key string) (release func(context.Context) error, err error)
}
