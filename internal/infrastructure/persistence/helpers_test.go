package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/shared/valueobject"
	"github.com/pos/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB opens an in-memory SQLite database with every model migrated.
// A single connection keeps the in-memory database alive across queries.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

// newMockDB opens a postgres-dialect GORM handle over sqlmock
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

type fixture struct {
	db      *gorm.DB
	storeID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	return &fixture{db: newTestDB(t), storeID: uuid.New()}
}

func (f *fixture) taxRate(t *testing.T, rate string) *catalog.TaxRate {
	t.Helper()
	tr, err := catalog.NewTaxRate(f.storeID, "VAT", decimal.RequireFromString(rate))
	require.NoError(t, err)
	require.NoError(t, NewGormProductRepository(f.db).SaveTaxRate(context.Background(), tr))
	return tr
}

func (f *fixture) product(t *testing.T, sku, price string, stock int64, taxRate *catalog.TaxRate) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(f.storeID, sku, "Product "+sku, valueobject.MustParseMoney(price))
	require.NoError(t, err)
	p.StockQuantity = stock
	if taxRate != nil {
		p.SetTaxRate(&taxRate.ID)
	}
	require.NoError(t, NewGormProductRepository(f.db).Save(context.Background(), p))
	return p
}

func (f *fixture) variant(t *testing.T, product *catalog.Product, sku string, stock int64) *catalog.ProductVariant {
	t.Helper()
	v, err := catalog.NewProductVariant(product, sku, "Variant "+sku)
	require.NoError(t, err)
	v.Stock = stock
	require.NoError(t, NewGormProductRepository(f.db).SaveVariant(context.Background(), v))
	return v
}

func stockOf(t *testing.T, db *gorm.DB, item catalog.ItemRef) int64 {
	t.Helper()
	level, err := NewGormStockRepository(db).Find(context.Background(), item)
	require.NoError(t, err)
	return level.Quantity
}
