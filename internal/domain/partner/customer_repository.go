package partner

import (
	"context"

	"github.com/google/uuid"
)

// CustomerRepository persists customers
type CustomerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	// FindByIDForUpdate locks the customer row until the transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Customer, error)
	Save(ctx context.Context, customer *Customer) error
	// SaveLoyaltyPoints persists only the points balance
	SaveLoyaltyPoints(ctx context.Context, customer *Customer) error
}
