//go:build integration

package persistence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	appinv "github.com/pos/backend/internal/application/inventory"
	apptrade "github.com/pos/backend/internal/application/trade"
	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/inventory"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/shared/valueobject"
	"github.com/pos/backend/internal/infrastructure/migration"
	"github.com/pos/backend/internal/infrastructure/persistence/models"
	"github.com/pos/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newPostgresDB starts a PostgreSQL container and applies the embedded migrations
func newPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("pos_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(20)

	m, err := migration.NewEmbedded(sqlDB, migrations.FS, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, m.Up())

	return db
}

func TestPostgres_ConcurrentCompletionsNeverOversell(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()
	f := &fixture{db: newPostgresDB(t), storeID: uuid.New()}
	product := f.product(t, "limited", "10.00", 5, nil)

	logger := zaptest.NewLogger(t)
	service := apptrade.NewSaleService(
		NewGormTransactionScope(f.db),
		NewGormSaleRepository(f.db),
		NewGormSaleReturnRepository(f.db),
		appinv.NewLedger(logger),
		apptrade.DefaultConfig(),
		logger,
	)

	const buyers = 12
	sales := make([]*apptrade.SaleResponse, buyers)
	for i := range sales {
		resp, err := service.CreateSale(ctx, apptrade.CreateSaleRequest{
			StoreID:   f.storeID,
			CashierID: uuid.New(),
			Items: []apptrade.CreateSaleItemRequest{
				{ItemKind: string(catalog.ItemKindProduct), ItemID: product.ID, Quantity: 1},
			},
		})
		require.NoError(t, err)
		sales[i] = resp
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		completed int
		rejected  int
	)
	for _, sale := range sales {
		wg.Add(1)
		go func(sale *apptrade.SaleResponse) {
			defer wg.Done()
			_, err := service.CompleteSale(ctx, sale.ID, apptrade.CompleteSaleRequest{
				Payments: []apptrade.PaymentRequest{{PaymentMethodID: uuid.New(), Amount: sale.Total}},
			}, apptrade.LoyaltyConfig{})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				completed++
			case errors.Is(err, shared.ErrInsufficientStock):
				rejected++
			default:
				t.Errorf("unexpected completion error: %v", err)
			}
		}(sale)
	}
	wg.Wait()

	assert.Equal(t, 5, completed)
	assert.Equal(t, buyers-5, rejected)
	assert.Equal(t, int64(0), stockOf(t, f.db, catalog.ProductRef(product.ID)))

	movements, total, err := NewGormMovementRepository(f.db).ListByItem(ctx, catalog.ProductRef(product.ID), shared.Filter{Page: 1, PageSize: 50})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	final, ok := inventory.Replay(5, movements)
	assert.True(t, ok)
	assert.Equal(t, int64(0), final)
}

func TestPostgres_ConcurrentSalesGetDistinctReferences(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()
	f := &fixture{db: newPostgresDB(t), storeID: uuid.New()}
	product := f.product(t, "gum", "1.00", 100, nil)

	logger := zaptest.NewLogger(t)
	service := apptrade.NewSaleService(
		NewGormTransactionScope(f.db),
		NewGormSaleRepository(f.db),
		NewGormSaleReturnRepository(f.db),
		appinv.NewLedger(logger),
		apptrade.DefaultConfig(),
		logger,
	)

	const tills = 10
	refs := make(chan string, tills)
	var wg sync.WaitGroup
	for i := 0; i < tills; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := service.CreateSale(ctx, apptrade.CreateSaleRequest{
				StoreID:   f.storeID,
				CashierID: uuid.New(),
				Items: []apptrade.CreateSaleItemRequest{
					{ItemKind: string(catalog.ItemKindProduct), ItemID: product.ID, Quantity: 1},
				},
			})
			if !assert.NoError(t, err) {
				return
			}
			refs <- resp.Reference
		}()
	}
	wg.Wait()
	close(refs)

	seen := make(map[string]bool)
	for ref := range refs {
		assert.False(t, seen[ref], "reference %s issued twice", ref)
		seen[ref] = true
	}
	assert.Len(t, seen, tills)
}

func TestPostgres_DoubleCompletionDeductsOnce(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()
	f := &fixture{db: newPostgresDB(t), storeID: uuid.New()}
	product := f.product(t, "cola", "2.50", 10, nil)

	logger := zaptest.NewLogger(t)
	service := apptrade.NewSaleService(
		NewGormTransactionScope(f.db),
		NewGormSaleRepository(f.db),
		NewGormSaleReturnRepository(f.db),
		appinv.NewLedger(logger),
		apptrade.DefaultConfig(),
		logger,
	)
	sale, err := service.CreateSale(ctx, apptrade.CreateSaleRequest{
		StoreID:   f.storeID,
		CashierID: uuid.New(),
		Items: []apptrade.CreateSaleItemRequest{
			{ItemKind: string(catalog.ItemKindProduct), ItemID: product.ID, Quantity: 4},
		},
	})
	require.NoError(t, err)

	payment := apptrade.CompleteSaleRequest{
		Payments: []apptrade.PaymentRequest{{PaymentMethodID: uuid.New(), Amount: valueobject.MustParseMoney("10.00")}},
	}
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := service.CompleteSale(ctx, sale.ID, payment, apptrade.LoyaltyConfig{})
			errs <- err
		}()
	}
	first, second := <-errs, <-errs

	assert.True(t, (first == nil) != (second == nil), "exactly one completion must succeed: %v / %v", first, second)
	for _, err := range []error{first, second} {
		if err != nil {
			assert.ErrorIs(t, err, shared.ErrInvalidState)
		}
	}
	assert.Equal(t, int64(6), stockOf(t, f.db, catalog.ProductRef(product.ID)))

	var payments int64
	require.NoError(t, f.db.Model(&models.SalePaymentModel{}).Where("sale_id = ?", sale.ID).Count(&payments).Error)
	assert.Equal(t, int64(1), payments)
}
