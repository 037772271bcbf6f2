package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemRef(t *testing.T) {
	id := uuid.New()

	t.Run("product reference", func(t *testing.T) {
		ref := ProductRef(id)
		assert.True(t, ref.IsProduct())
		assert.False(t, ref.IsVariant())
		assert.Equal(t, id, ref.ID())
		assert.Equal(t, "product:"+id.String(), ref.String())
	})

	t.Run("variant reference", func(t *testing.T) {
		ref := VariantRef(id)
		assert.True(t, ref.IsVariant())
		assert.Equal(t, ItemKindVariant, ref.Kind())
	})

	t.Run("zero value references nothing", func(t *testing.T) {
		var ref ItemRef
		assert.True(t, ref.IsZero())
		assert.Equal(t, "none", ref.String())
	})

	t.Run("rebuilds from persisted parts", func(t *testing.T) {
		ref, err := NewItemRef(ItemKindVariant, id)
		require.NoError(t, err)
		assert.Equal(t, VariantRef(id), ref)

		_, err = NewItemRef("bundle", id)
		assert.ErrorIs(t, err, shared.ErrValidation)

		_, err = NewItemRef(ItemKindProduct, uuid.Nil)
		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

func TestNewProduct(t *testing.T) {
	storeID := uuid.New()

	t.Run("creates tracked active product", func(t *testing.T) {
		p, err := NewProduct(storeID, "sku-1", "Coffee", valueobject.NewMoney(350))
		require.NoError(t, err)
		assert.Equal(t, "SKU-1", p.SKU)
		assert.Equal(t, storeID, p.StoreID)
		assert.True(t, p.TrackStock)
		assert.True(t, p.Active)
		assert.Equal(t, int64(0), p.StockQuantity)
	})

	t.Run("rejects negative price", func(t *testing.T) {
		_, err := NewProduct(storeID, "SKU-1", "Coffee", valueobject.NewMoney(-1))
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewProduct(storeID, "SKU-1", " ", valueobject.Zero)
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("reorder point cannot be negative", func(t *testing.T) {
		p, err := NewProduct(storeID, "SKU-1", "Coffee", valueobject.Zero)
		require.NoError(t, err)
		neg := int64(-1)
		assert.Error(t, p.SetReorderPoint(&neg))
	})
}

func TestSellable(t *testing.T) {
	p, err := NewProduct(uuid.New(), "TEE", "T-Shirt", valueobject.NewMoney(2000))
	require.NoError(t, err)
	require.NoError(t, p.SetCost(valueobject.NewMoney(800)))
	rate, err := NewTaxRate(p.StoreID, "VAT", decimal.NewFromInt(10))
	require.NoError(t, err)

	t.Run("product carries its tax rate", func(t *testing.T) {
		s := NewSellableFromProduct(p, rate)
		assert.True(t, s.Ref.IsProduct())
		assert.True(t, s.TaxRate.Equal(decimal.NewFromInt(10)))
		assert.Equal(t, valueobject.NewMoney(800), s.Cost)
	})

	t.Run("inactive tax rate counts as zero", func(t *testing.T) {
		inactive := *rate
		inactive.Active = false
		s := NewSellableFromProduct(p, &inactive)
		assert.True(t, s.TaxRate.IsZero())
	})

	t.Run("variant falls back to product price", func(t *testing.T) {
		v, err := NewProductVariant(p, "TEE-L", "Large")
		require.NoError(t, err)
		s := NewSellableFromVariant(v, p, nil)
		assert.True(t, s.Ref.IsVariant())
		assert.Equal(t, p.ID, s.ProductID)
		assert.Equal(t, valueobject.NewMoney(2000), s.Price)
		assert.Equal(t, "T-Shirt - Large", s.Name)

		v.Price = valueobject.NewMoney(2500)
		assert.Equal(t, valueobject.NewMoney(2500), NewSellableFromVariant(v, p, nil).Price)
	})
}
