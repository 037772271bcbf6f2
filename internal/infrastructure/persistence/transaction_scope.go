package persistence

import (
	"context"

	appinv "github.com/pos/backend/internal/application/inventory"
	apptrade "github.com/pos/backend/internal/application/trade"
	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/inventory"
	"github.com/pos/backend/internal/domain/partner"
	"github.com/pos/backend/internal/domain/pricing"
	"github.com/pos/backend/internal/domain/trade"
	"gorm.io/gorm"
)

// GormTransactionScope implements both the ledger and the sale
// TransactionScope using GORM transactions. Every repository handed to fn
// is bound to the same *gorm.DB transaction.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction. If fn returns an error,
// the transaction is rolled back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos apptrade.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// Ledger returns the scope the inventory service uses for stand-alone
// stock mutations
func (s *GormTransactionScope) Ledger() appinv.TransactionScope {
	return ledgerScope{s}
}

type ledgerScope struct {
	s *GormTransactionScope
}

func (l ledgerScope) Execute(ctx context.Context, fn func(repos appinv.LedgerRepositories) error) error {
	return l.s.Execute(ctx, func(repos apptrade.TransactionalRepositories) error {
		return fn(repos)
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) StockRepo() inventory.StockRepository {
	return NewGormStockRepository(r.tx)
}

func (r *gormTransactionalRepositories) MovementRepo() inventory.MovementRepository {
	return NewGormMovementRepository(r.tx)
}

func (r *gormTransactionalRepositories) SaleRepo() trade.SaleRepository {
	return NewGormSaleRepository(r.tx)
}

func (r *gormTransactionalRepositories) ReturnRepo() trade.SaleReturnRepository {
	return NewGormSaleReturnRepository(r.tx)
}

func (r *gormTransactionalRepositories) ProductRepo() catalog.ProductRepository {
	return NewGormProductRepository(r.tx)
}

func (r *gormTransactionalRepositories) CouponRepo() pricing.CouponRepository {
	return NewGormCouponRepository(r.tx)
}

func (r *gormTransactionalRepositories) CustomerRepo() partner.CustomerRepository {
	return NewGormCustomerRepository(r.tx)
}

var (
	_ apptrade.TransactionScope          = (*GormTransactionScope)(nil)
	_ appinv.TransactionScope            = ledgerScope{}
	_ apptrade.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)
