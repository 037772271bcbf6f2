package inventory

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/shared"
)

// StockLevel is the stock-bearing slice of a product or variant row.
// Every quantity change goes through Deduct, Add or AdjustTo, each of which
// returns exactly one StockMovement describing it.
type StockLevel struct {
	Item         catalog.ItemRef
	ProductID    uuid.UUID
	StoreID      uuid.UUID
	Quantity     int64
	ReorderPoint *int64
	TrackStock   bool

	events []shared.DomainEvent
}

// Deduct removes qty units. Tracked items fail with InsufficientStockError
// when fewer than qty units are on hand. Untracked items always succeed and
// record a movement whose before and after quantities are equal.
func (s *StockLevel) Deduct(qty int64, in MovementInput) (*StockMovement, error) {
	if qty <= 0 {
		return nil, shared.NewValidationError("deduct quantity must be positive, got %d", qty)
	}
	if !s.TrackStock {
		return s.move(MovementTypeOut, s.Quantity, in)
	}
	if s.Quantity < qty {
		return nil, &InsufficientStockError{
			Item:      s.Item,
			ProductID: s.ProductID,
			Requested: qty,
			Available: s.Quantity,
		}
	}

	movement, err := s.move(MovementTypeOut, s.Quantity-qty, in)
	if err != nil {
		return nil, err
	}
	s.checkLowStock()
	return movement, nil
}

// Add puts qty units back. It has no upper bound. Untracked items keep
// their quantity, as in Deduct.
func (s *StockLevel) Add(qty int64, in MovementInput) (*StockMovement, error) {
	if qty < 0 {
		return nil, shared.NewValidationError("add quantity cannot be negative, got %d", qty)
	}
	if !s.TrackStock {
		return s.move(MovementTypeIn, s.Quantity, in)
	}
	return s.move(MovementTypeIn, s.Quantity+qty, in)
}

// AdjustTo sets the stock to an absolute counted value
func (s *StockLevel) AdjustTo(newQty int64, in MovementInput) (*StockMovement, error) {
	if newQty < 0 {
		return nil, shared.NewValidationError("adjusted quantity cannot be negative, got %d", newQty)
	}
	if strings.TrimSpace(in.Reason) == "" {
		return nil, shared.NewValidationError("adjustment reason is required")
	}

	before := s.Quantity
	movement, err := s.move(MovementTypeAdjustment, newQty, in)
	if err != nil {
		return nil, err
	}
	s.events = append(s.events, NewStockAdjustedEvent(s, before, in.Reason))
	s.checkLowStock()
	return movement, nil
}

// IsLowStock reports whether a tracked item is at or below its reorder point
func (s *StockLevel) IsLowStock() bool {
	return s.TrackStock && s.ReorderPoint != nil && s.Quantity <= *s.ReorderPoint
}

// PullDomainEvents returns the events raised since the last call and clears them
func (s *StockLevel) PullDomainEvents() []shared.DomainEvent {
	events := s.events
	s.events = nil
	return events
}

func (s *StockLevel) move(movementType MovementType, after int64, in MovementInput) (*StockMovement, error) {
	movement, err := NewStockMovement(s.StoreID, s.Item, movementType, s.Quantity, after, in)
	if err != nil {
		return nil, err
	}
	s.Quantity = after
	return movement, nil
}

func (s *StockLevel) checkLowStock() {
	if s.IsLowStock() {
		s.events = append(s.events, NewLowStockDetectedEvent(s))
	}
}

// InsufficientStockError is returned when a tracked item cannot cover a deduction
type InsufficientStockError struct {
	Item      catalog.ItemRef
	ProductID uuid.UUID
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.Item, e.Requested, e.Available)
}

// Unwrap exposes the INSUFFICIENT_STOCK domain error
func (e *InsufficientStockError) Unwrap() error {
	return shared.ErrInsufficientStock
}
