package partner

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Customer is a store's customer and loyalty account
type Customer struct {
	shared.StoreAggregateRoot
	Name          string
	Email         string
	Phone         string
	LoyaltyPoints int64
	Active        bool
}

// NewCustomer creates an active customer with no points
func NewCustomer(storeID uuid.UUID, name, email, phone string) (*Customer, error) {
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewValidationError("customer name cannot be empty")
	}
	return &Customer{
		StoreAggregateRoot: shared.NewStoreAggregateRoot(storeID),
		Name:               strings.TrimSpace(name),
		Email:              strings.TrimSpace(email),
		Phone:              strings.TrimSpace(phone),
		Active:             true,
	}, nil
}

// EarnPoints credits points earned by a sale. Zero points is a no-op.
func (c *Customer) EarnPoints(points int64, saleID uuid.UUID) error {
	if points < 0 {
		return shared.NewValidationError("loyalty points cannot be negative")
	}
	if points == 0 {
		return nil
	}
	c.LoyaltyPoints += points
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
	c.AddDomainEvent(NewLoyaltyPointsEarnedEvent(c, points, saleID))
	return nil
}

// LoyaltyPointsFor returns floor(total * rate), where rate is points per
// currency unit. Negative totals earn nothing.
func LoyaltyPointsFor(total valueobject.Money, rate decimal.Decimal) int64 {
	if !total.IsPositive() || !rate.IsPositive() {
		return 0
	}
	return total.Decimal().Mul(rate).Floor().IntPart()
}
