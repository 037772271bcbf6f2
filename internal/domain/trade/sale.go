package trade

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/pricing"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// SaleItem is one line of a sale.
// Total always equals UnitPrice*Quantity - Discount + Tax.
type SaleItem struct {
	shared.BaseEntity
	SaleID    uuid.UUID
	Item      catalog.ItemRef
	ProductID uuid.UUID
	Name      string
	SKU       string
	Quantity  int64
	UnitPrice valueobject.Money
	UnitCost  valueobject.Money
	Discount  valueobject.Money
	TaxRate   decimal.Decimal
	Tax       valueobject.Money
	Total     valueobject.Money
}

// Subtotal returns UnitPrice*Quantity - Discount
func (i *SaleItem) Subtotal() valueobject.Money {
	return i.UnitPrice.MulInt(i.Quantity).Sub(i.Discount)
}

// SalePayment is one tender against a sale
type SalePayment struct {
	shared.BaseEntity
	SaleID          uuid.UUID
	PaymentMethodID uuid.UUID
	Amount          valueobject.Money
	Reference       string
}

// LineInput describes a line to add to a pending sale
type LineInput struct {
	Item      catalog.ItemRef
	ProductID uuid.UUID
	Name      string
	SKU       string
	Quantity  int64
	UnitPrice valueobject.Money
	UnitCost  valueobject.Money
	Discount  valueobject.Money
	TaxRate   decimal.Decimal
}

// PaymentInput describes a tender offered to complete a sale
type PaymentInput struct {
	PaymentMethodID uuid.UUID
	Amount          valueobject.Money
	Reference       string
}

// Sale is the aggregate root for one point-of-sale transaction.
// Total always equals Subtotal + Tax - Discount.
type Sale struct {
	shared.StoreAggregateRoot
	CashierID     uuid.UUID
	CustomerID    *uuid.UUID
	Reference     string
	Subtotal      valueobject.Money
	Tax           valueobject.Money
	Discount      valueobject.Money
	Total         valueobject.Money
	RefundedTotal valueobject.Money
	Status        SaleStatus
	Notes         string
	CouponID      *uuid.UUID
	CompletedAt   *time.Time
	DeletedAt     *time.Time
	Items         []SaleItem
	Payments      []SalePayment
}

// NewSale creates a pending sale with zero totals
func NewSale(storeID, cashierID uuid.UUID, customerID *uuid.UUID, reference string) (*Sale, error) {
	if storeID == uuid.Nil {
		return nil, shared.NewValidationError("store is required")
	}
	if cashierID == uuid.Nil {
		return nil, shared.NewValidationError("cashier is required")
	}
	if strings.TrimSpace(reference) == "" {
		return nil, shared.NewValidationError("sale reference is required")
	}
	if customerID != nil && *customerID == uuid.Nil {
		customerID = nil
	}

	return &Sale{
		StoreAggregateRoot: shared.NewStoreAggregateRootWithCreator(storeID, cashierID),
		CashierID:          cashierID,
		CustomerID:         customerID,
		Reference:          reference,
		Status:             SaleStatusPending,
		Items:              make([]SaleItem, 0),
		Payments:           make([]SalePayment, 0),
	}, nil
}

// AddItem prices a line, taxing its discounted subtotal, and recomputes the totals
func (s *Sale) AddItem(in LineInput) (*SaleItem, error) {
	if err := s.requireStatus(SaleStatusPending, "add items to"); err != nil {
		return nil, err
	}
	if in.Item.IsZero() {
		return nil, shared.NewValidationError("line item must reference a product or variant")
	}
	if in.Quantity <= 0 {
		return nil, shared.NewValidationError("quantity for %s must be positive, got %d", in.Item, in.Quantity)
	}
	if in.UnitPrice.IsNegative() {
		return nil, shared.NewValidationError("unit price for %s cannot be negative", in.Item)
	}
	if in.Discount.IsNegative() {
		return nil, shared.NewValidationError("discount for %s cannot be negative", in.Item)
	}
	gross, err := in.UnitPrice.MulIntChecked(in.Quantity)
	if err != nil {
		return nil, shared.NewValidationError("line amount for %s (%d x %s) is out of range", in.Item, in.Quantity, in.UnitPrice)
	}
	if in.Discount.GreaterThan(gross) {
		return nil, shared.NewValidationError("discount %s for %s exceeds line amount %s", in.Discount, in.Item, gross)
	}

	item := SaleItem{
		BaseEntity: shared.NewBaseEntity(),
		SaleID:     s.ID,
		Item:       in.Item,
		ProductID:  in.ProductID,
		Name:       in.Name,
		SKU:        in.SKU,
		Quantity:   in.Quantity,
		UnitPrice:  in.UnitPrice,
		UnitCost:   in.UnitCost,
		Discount:   in.Discount,
		TaxRate:    in.TaxRate,
	}
	tax, err := pricing.CalculateTax(item.Subtotal(), in.TaxRate)
	if err != nil {
		return nil, err
	}
	item.Tax = tax
	if item.Total, err = item.Subtotal().AddChecked(tax); err != nil {
		return nil, shared.NewValidationError("line total for %s is out of range", in.Item)
	}
	if err := s.checkTotalsFit(item); err != nil {
		return nil, err
	}

	s.Items = append(s.Items, item)
	s.recalculate()
	return &s.Items[len(s.Items)-1], nil
}

// checkTotalsFit rejects a line whose amounts would overflow the sale totals
func (s *Sale) checkTotalsFit(item SaleItem) error {
	subtotal, err := s.Subtotal.AddChecked(item.Subtotal())
	if err == nil {
		var tax valueobject.Money
		if tax, err = s.Tax.AddChecked(item.Tax); err == nil {
			_, err = subtotal.AddChecked(tax)
		}
	}
	if err != nil {
		return shared.NewValidationError("sale %s total is out of range after adding %s", s.Reference, item.Item)
	}
	return nil
}

// ApplyDiscount sets the sale-level discount, optionally recording the coupon that granted it
func (s *Sale) ApplyDiscount(amount valueobject.Money, couponID *uuid.UUID) error {
	if err := s.requireStatus(SaleStatusPending, "discount"); err != nil {
		return err
	}
	if amount.IsNegative() {
		return shared.NewValidationError("sale discount cannot be negative")
	}
	if gross := s.Subtotal.Add(s.Tax); amount.GreaterThan(gross) {
		return shared.NewValidationError("sale discount %s exceeds sale amount %s", amount, gross)
	}
	s.Discount = amount
	s.CouponID = couponID
	s.recalculate()
	return nil
}

// Submit checks the cart is complete and raises SaleCreated
func (s *Sale) Submit() error {
	if err := s.requireStatus(SaleStatusPending, "submit"); err != nil {
		return err
	}
	if len(s.Items) == 0 {
		return shared.NewValidationError("sale must have at least one item")
	}
	if err := s.VerifyTotals(); err != nil {
		return err
	}
	s.AddDomainEvent(NewSaleCreatedEvent(s))
	return nil
}

// AcceptPayments validates and attaches the tenders for completion.
// The paid sum must match Total within tolerance.
func (s *Sale) AcceptPayments(payments []PaymentInput, tolerance valueobject.Money) error {
	if err := s.requireStatus(SaleStatusPending, "pay"); err != nil {
		return err
	}
	if len(payments) == 0 {
		return shared.NewValidationError("at least one payment is required")
	}

	paid := valueobject.Zero
	rows := make([]SalePayment, 0, len(payments))
	for i, p := range payments {
		if p.PaymentMethodID == uuid.Nil {
			return shared.NewValidationError("payment %d has no payment method", i+1)
		}
		if !p.Amount.IsPositive() {
			return shared.NewValidationError("payment %d amount must be positive", i+1)
		}
		paid = paid.Add(p.Amount)
		rows = append(rows, SalePayment{
			BaseEntity:      shared.NewBaseEntity(),
			SaleID:          s.ID,
			PaymentMethodID: p.PaymentMethodID,
			Amount:          p.Amount,
			Reference:       p.Reference,
		})
	}

	if !paid.WithinTolerance(s.Total, tolerance) {
		return &PaymentMismatchError{SaleID: s.ID, Expected: s.Total, Paid: paid, Tolerance: tolerance}
	}

	s.Payments = append(s.Payments, rows...)
	return nil
}

// PaidTotal sums the attached payments
func (s *Sale) PaidTotal() valueobject.Money {
	paid := valueobject.Zero
	for _, p := range s.Payments {
		paid = paid.Add(p.Amount)
	}
	return paid
}

// Complete flips a paid pending sale to completed
func (s *Sale) Complete(now time.Time) error {
	if err := s.requireStatus(SaleStatusPending, "complete"); err != nil {
		return err
	}
	if len(s.Payments) == 0 {
		return shared.NewInvalidStateError("sale %s has no payments", s.Reference)
	}
	s.Status = SaleStatusCompleted
	s.CompletedAt = &now
	s.Touch(now)
	s.IncrementVersion()
	s.AddDomainEvent(NewSaleCompletedEvent(s))
	return nil
}

// Hold parks a pending sale
func (s *Sale) Hold(now time.Time) error {
	return s.transition(SaleStatusOnHold, now)
}

// Resume returns a held sale to pending
func (s *Sale) Resume(now time.Time) error {
	return s.transition(SaleStatusPending, now)
}

// Cancel abandons a pending or held sale
func (s *Sale) Cancel(now time.Time) error {
	return s.transition(SaleStatusCancelled, now)
}

// FindItem returns the line with the given id
func (s *Sale) FindItem(itemID uuid.UUID) (*SaleItem, bool) {
	for i := range s.Items {
		if s.Items[i].ID == itemID {
			return &s.Items[i], true
		}
	}
	return nil, false
}

// VerifyTotals checks the line and sale arithmetic invariants
func (s *Sale) VerifyTotals() error {
	subtotal, tax := valueobject.Zero, valueobject.Zero
	for i := range s.Items {
		item := &s.Items[i]
		if !item.Total.Equals(item.Subtotal().Add(item.Tax)) {
			return shared.NewInvalidStateError("line %s total %s does not match its amounts", item.ID, item.Total)
		}
		subtotal = subtotal.Add(item.Subtotal())
		tax = tax.Add(item.Tax)
	}
	if !subtotal.Equals(s.Subtotal) || !tax.Equals(s.Tax) {
		return shared.NewInvalidStateError("sale %s totals do not match its lines", s.Reference)
	}
	if !s.Total.Equals(s.Subtotal.Add(s.Tax).Sub(s.Discount)) {
		return shared.NewInvalidStateError("sale %s total does not equal subtotal + tax - discount", s.Reference)
	}
	return nil
}

func (s *Sale) recalculate() {
	subtotal, tax := valueobject.Zero, valueobject.Zero
	for i := range s.Items {
		subtotal = subtotal.Add(s.Items[i].Subtotal())
		tax = tax.Add(s.Items[i].Tax)
	}
	s.Subtotal = subtotal
	s.Tax = tax
	s.Total = subtotal.Add(tax).Sub(s.Discount)
}

func (s *Sale) transition(target SaleStatus, now time.Time) error {
	if !s.Status.CanTransitionTo(target) {
		return shared.NewInvalidStateError("sale %s cannot move from %s to %s", s.Reference, s.Status, target)
	}
	s.Status = target
	s.Touch(now)
	s.IncrementVersion()
	return nil
}

func (s *Sale) requireStatus(status SaleStatus, action string) error {
	if s.Status != status {
		return shared.NewInvalidStateError("cannot %s sale %s in status %s", action, s.Reference, s.Status)
	}
	return nil
}
