package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormProductRepository implements catalog.ProductRepository using GORM.
// Soft-deleted products and variants are invisible to every finder.
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err, "product", id)
	}
	return model.ToDomain(), nil
}

// FindVariantByID finds a variant by its ID
func (r *GormProductRepository) FindVariantByID(ctx context.Context, id uuid.UUID) (*catalog.ProductVariant, error) {
	var model models.ProductVariantModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err, "product variant", id)
	}
	return model.ToDomain(), nil
}

// FindSellable resolves a reference into its priced read model with the
// product's tax rate
func (r *GormProductRepository) FindSellable(ctx context.Context, ref catalog.ItemRef) (*catalog.Sellable, error) {
	switch ref.Kind() {
	case catalog.ItemKindProduct:
		product, taxRate, err := r.findWithTaxRate(ctx, ref.ID())
		if err != nil {
			return nil, err
		}
		sellable := catalog.NewSellableFromProduct(product, taxRate)
		return &sellable, nil

	case catalog.ItemKindVariant:
		variant, err := r.FindVariantByID(ctx, ref.ID())
		if err != nil {
			return nil, err
		}
		product, taxRate, err := r.findWithTaxRate(ctx, variant.ProductID)
		if err != nil {
			return nil, err
		}
		sellable := catalog.NewSellableFromVariant(variant, product, taxRate)
		return &sellable, nil
	}
	return nil, shared.NewValidationError("item reference must be a product or variant, got %s", ref)
}

func (r *GormProductRepository) findWithTaxRate(ctx context.Context, productID uuid.UUID) (*catalog.Product, *catalog.TaxRate, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).Preload("TaxRate").First(&model, "id = ?", productID).Error; err != nil {
		return nil, nil, translateNotFound(err, "product", productID)
	}
	var taxRate *catalog.TaxRate
	if model.TaxRate != nil {
		taxRate = model.TaxRate.ToDomain()
	}
	return model.ToDomain(), taxRate, nil
}

// Save creates or updates a product
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return r.db.WithContext(ctx).Omit("TaxRate").Save(models.ProductModelFromDomain(product)).Error
}

// SaveVariant creates or updates a variant; its product must exist
func (r *GormProductRepository) SaveVariant(ctx context.Context, variant *catalog.ProductVariant) error {
	if _, err := r.FindByID(ctx, variant.ProductID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewValidationError("variant %s references unknown product %s", variant.SKU, variant.ProductID)
		}
		return err
	}
	return r.db.WithContext(ctx).Omit("Product").Save(models.ProductVariantModelFromDomain(variant)).Error
}

// SaveTaxRate creates or updates a tax rate
func (r *GormProductRepository) SaveTaxRate(ctx context.Context, rate *catalog.TaxRate) error {
	return r.db.WithContext(ctx).Save(models.TaxRateModelFromDomain(rate)).Error
}

var _ catalog.ProductRepository = (*GormProductRepository)(nil)
