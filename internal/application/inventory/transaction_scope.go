package inventory

import (
	"context"

	"github.com/pos/backend/internal/domain/inventory"
)

// TransactionScope provides transactional access to the stock ledger.
// All repository operations inside Execute share one database transaction
// and are committed or rolled back together.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos LedgerRepositories) error) error
}

// LedgerRepositories are the repositories a stock mutation touches.
// Every stock change writes the quantity and exactly one movement through
// the same transaction.
type LedgerRepositories interface {
	// StockRepo returns the stock repository scoped to the current transaction
	StockRepo() inventory.StockRepository
	// MovementRepo returns the movement ledger scoped to the current transaction
	MovementRepo() inventory.MovementRepository
}
