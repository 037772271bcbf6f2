package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/inventory"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormStockRepository_Find(t *testing.T) {
	ctx := context.Background()

	t.Run("loads product stock", func(t *testing.T) {
		f := newFixture(t)
		product := f.product(t, "cola", "2.50", 12, nil)
		reorder := int64(5)
		require.NoError(t, product.SetReorderPoint(&reorder))
		require.NoError(t, NewGormProductRepository(f.db).Save(ctx, product))

		level, err := NewGormStockRepository(f.db).Find(ctx, catalog.ProductRef(product.ID))

		require.NoError(t, err)
		assert.Equal(t, int64(12), level.Quantity)
		assert.Equal(t, product.ID, level.ProductID)
		assert.Equal(t, f.storeID, level.StoreID)
		assert.True(t, level.TrackStock)
		require.NotNil(t, level.ReorderPoint)
		assert.Equal(t, int64(5), *level.ReorderPoint)
	})

	t.Run("loads variant stock with the parent store", func(t *testing.T) {
		f := newFixture(t)
		product := f.product(t, "shirt", "20.00", 0, nil)
		variant := f.variant(t, product, "shirt-m", 7)

		level, err := NewGormStockRepository(f.db).FindForUpdate(ctx, catalog.VariantRef(variant.ID))

		require.NoError(t, err)
		assert.Equal(t, int64(7), level.Quantity)
		assert.Equal(t, product.ID, level.ProductID)
		assert.Equal(t, f.storeID, level.StoreID)
	})

	t.Run("untracked product keeps its flag", func(t *testing.T) {
		f := newFixture(t)
		product := f.product(t, "service", "15.00", 0, nil)
		product.SetTrackStock(false)
		require.NoError(t, NewGormProductRepository(f.db).Save(ctx, product))

		level, err := NewGormStockRepository(f.db).Find(ctx, catalog.ProductRef(product.ID))

		require.NoError(t, err)
		assert.False(t, level.TrackStock)
	})

	t.Run("missing item is not found", func(t *testing.T) {
		f := newFixture(t)

		_, err := NewGormStockRepository(f.db).Find(ctx, catalog.ProductRef(uuid.New()))

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormStockRepository_SaveQuantity(t *testing.T) {
	ctx := context.Background()

	t.Run("writes product and variant quantities", func(t *testing.T) {
		f := newFixture(t)
		product := f.product(t, "cola", "2.50", 12, nil)
		variant := f.variant(t, product, "cola-zero", 3)
		repo := NewGormStockRepository(f.db)

		productLevel, err := repo.Find(ctx, catalog.ProductRef(product.ID))
		require.NoError(t, err)
		productLevel.Quantity = 9
		require.NoError(t, repo.SaveQuantity(ctx, productLevel))

		variantLevel, err := repo.Find(ctx, catalog.VariantRef(variant.ID))
		require.NoError(t, err)
		variantLevel.Quantity = 0
		require.NoError(t, repo.SaveQuantity(ctx, variantLevel))

		assert.Equal(t, int64(9), stockOf(t, f.db, catalog.ProductRef(product.ID)))
		assert.Equal(t, int64(0), stockOf(t, f.db, catalog.VariantRef(variant.ID)))
	})

	t.Run("missing row is not found", func(t *testing.T) {
		f := newFixture(t)
		level := &inventory.StockLevel{Item: catalog.ProductRef(uuid.New()), Quantity: 1}

		err := NewGormStockRepository(f.db).SaveQuantity(ctx, level)

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormMovementRepository_ListByItem(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	product := f.product(t, "cola", "2.50", 0, nil)
	other := f.product(t, "water", "1.00", 0, nil)
	item := catalog.ProductRef(product.ID)
	repo := NewGormMovementRepository(f.db)

	base := time.Now().Add(-time.Hour)
	for i := int64(0); i < 5; i++ {
		m, err := inventory.NewStockMovement(f.storeID, item, inventory.MovementTypeIn, i*10, (i+1)*10, inventory.MovementInput{
			Reason: "delivery",
			Source: inventory.NewSource(inventory.SourceTypePurchaseOrder, uuid.New()),
		})
		require.NoError(t, err)
		m.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Create(ctx, m))
	}
	m, err := inventory.NewStockMovement(f.storeID, catalog.ProductRef(other.ID), inventory.MovementTypeIn, 0, 1, inventory.MovementInput{})
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, m))

	t.Run("pages oldest first", func(t *testing.T) {
		page, total, err := repo.ListByItem(ctx, item, shared.Filter{Page: 2, PageSize: 2})

		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		require.Len(t, page, 2)
		assert.Equal(t, int64(20), page[0].QuantityBefore)
		assert.Equal(t, int64(30), page[1].QuantityBefore)
	})

	t.Run("orders newest first on request", func(t *testing.T) {
		page, total, err := repo.ListByItem(ctx, item, shared.Filter{Page: 1, PageSize: 10, OrderDir: "desc"})

		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		require.Len(t, page, 5)
		assert.Equal(t, int64(50), page[0].QuantityAfter)
		assert.Equal(t, item, page[0].Item)
		require.NotNil(t, page[0].Source)
		assert.Equal(t, inventory.SourceTypePurchaseOrder, page[0].Source.Type)
		for _, movement := range page {
			assert.True(t, movement.IsConsistent())
		}
	})
}
