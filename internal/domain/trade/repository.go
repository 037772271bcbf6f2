package trade

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SaleRepository persists sales with their items and payments
type SaleRepository interface {
	// FindByID loads a sale with items and payments
	FindByID(ctx context.Context, id uuid.UUID) (*Sale, error)
	// FindByIDForUpdate is FindByID holding a row lock on the sale until the
	// surrounding transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Sale, error)
	// Create inserts the sale and all of its items
	Create(ctx context.Context, sale *Sale) error
	// Update writes the sale header fields
	Update(ctx context.Context, sale *Sale) error
	// CreatePayments inserts payment rows
	CreatePayments(ctx context.Context, payments []SalePayment) error
	// NextReference returns the next unused reference for the store on the given day
	NextReference(ctx context.Context, storeID uuid.UUID, prefix string, day time.Time) (string, error)
}

// SaleReturnRepository persists returns
type SaleReturnRepository interface {
	// Create inserts the return and all of its items
	Create(ctx context.Context, ret *SaleReturn) error
	FindBySale(ctx context.Context, saleID uuid.UUID) ([]SaleReturn, error)
	// ReturnedQuantities sums returned units per sale item id over all
	// non-rejected returns of the sale
	ReturnedQuantities(ctx context.Context, saleID uuid.UUID) (map[uuid.UUID]int64, error)
}
