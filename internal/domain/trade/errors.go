package trade

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/shared/valueobject"
)

// PaymentMismatchError is returned when tendered payments do not cover the
// sale total within the allowed tolerance.
type PaymentMismatchError struct {
	SaleID    uuid.UUID
	Expected  valueobject.Money
	Paid      valueobject.Money
	Tolerance valueobject.Money
}

func (e *PaymentMismatchError) Error() string {
	return fmt.Sprintf("payments total %s does not match sale total %s (tolerance %s)", e.Paid, e.Expected, e.Tolerance)
}

// Unwrap exposes the PAYMENT_MISMATCH domain error
func (e *PaymentMismatchError) Unwrap() error {
	return shared.ErrPaymentMismatch
}

// RefundExceedsPurchaseError is returned when a refund asks for more units
// of a line than remain unreturned.
type RefundExceedsPurchaseError struct {
	SaleItemID uuid.UUID
	Name       string
	Requested  int64
	Remaining  int64
}

func (e *RefundExceedsPurchaseError) Error() string {
	return fmt.Sprintf("cannot refund %d of %q (item %s): only %d remaining", e.Requested, e.Name, e.SaleItemID, e.Remaining)
}

// Unwrap exposes the REFUND_EXCEEDS_PURCHASE domain error
func (e *RefundExceedsPurchaseError) Unwrap() error {
	return shared.ErrRefundExceedsPurchase
}
