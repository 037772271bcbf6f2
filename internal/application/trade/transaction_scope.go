package trade

import (
	"context"

	appinv "github.com/pos/backend/internal/application/inventory"
	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/partner"
	"github.com/pos/backend/internal/domain/pricing"
	"github.com/pos/backend/internal/domain/trade"
)

// TransactionScope runs a sale operation in one database transaction.
// All repository operations inside Execute are committed or rolled back together.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories are the repositories a sale operation touches,
// all bound to the same transaction. The embedded ledger repositories let the
// stock ledger join the sale's transaction.
type TransactionalRepositories interface {
	appinv.LedgerRepositories
	SaleRepo() trade.SaleRepository
	ReturnRepo() trade.SaleReturnRepository
	ProductRepo() catalog.ProductRepository
	CouponRepo() pricing.CouponRepository
	CustomerRepo() partner.CustomerRepository
}
