package catalog

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
)

// ItemKind tells which table a stock-bearing item lives in
type ItemKind string

const (
	ItemKindProduct ItemKind = "product"
	ItemKindVariant ItemKind = "variant"
)

// IsValid checks if the kind is known
func (k ItemKind) IsValid() bool {
	return k == ItemKindProduct || k == ItemKindVariant
}

// ItemRef points at either a Product or a ProductVariant, never both.
// The zero value references nothing; construct with ProductRef or VariantRef.
type ItemRef struct {
	kind ItemKind
	id   uuid.UUID
}

// ProductRef references a product
func ProductRef(id uuid.UUID) ItemRef {
	return ItemRef{kind: ItemKindProduct, id: id}
}

// VariantRef references a product variant
func VariantRef(id uuid.UUID) ItemRef {
	return ItemRef{kind: ItemKindVariant, id: id}
}

// NewItemRef builds a reference from its persisted parts
func NewItemRef(kind ItemKind, id uuid.UUID) (ItemRef, error) {
	if !kind.IsValid() {
		return ItemRef{}, shared.NewValidationError("unknown item kind %q", kind)
	}
	if id == uuid.Nil {
		return ItemRef{}, shared.NewValidationError("item id is required")
	}
	return ItemRef{kind: kind, id: id}, nil
}

func (r ItemRef) Kind() ItemKind  { return r.kind }
func (r ItemRef) ID() uuid.UUID   { return r.id }
func (r ItemRef) IsProduct() bool { return r.kind == ItemKindProduct }
func (r ItemRef) IsVariant() bool { return r.kind == ItemKindVariant }
func (r ItemRef) IsZero() bool    { return r.kind == "" }

// String renders the reference as kind:id
func (r ItemRef) String() string {
	if r.IsZero() {
		return "none"
	}
	return fmt.Sprintf("%s:%s", r.kind, r.id)
}
