package shared

import "fmt"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code, so that
// errors.Is(err, ErrInvalidState) matches any INVALID_STATE error.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes shared across bounded contexts
const (
	CodeNotFound              = "NOT_FOUND"
	CodeAlreadyExists         = "ALREADY_EXISTS"
	CodeValidation            = "VALIDATION_ERROR"
	CodeConcurrencyConflict   = "CONCURRENCY_CONFLICT"
	CodeInvalidState          = "INVALID_STATE"
	CodeInsufficientStock     = "INSUFFICIENT_STOCK"
	CodePaymentMismatch       = "PAYMENT_MISMATCH"
	CodeRefundExceedsPurchase = "REFUND_EXCEEDS_PURCHASE"
	CodeInvalidCoupon         = "INVALID_COUPON"
	CodeLocked                = "RESOURCE_LOCKED"
)

// Common domain errors
var (
	ErrNotFound              = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists         = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrValidation            = NewDomainError(CodeValidation, "Invalid input provided")
	ErrConcurrencyConflict   = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrInvalidState          = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrInsufficientStock     = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
	ErrPaymentMismatch       = NewDomainError(CodePaymentMismatch, "Payments do not match the sale total")
	ErrRefundExceedsPurchase = NewDomainError(CodeRefundExceedsPurchase, "Refund exceeds purchased quantity")
	ErrInvalidCoupon         = NewDomainError(CodeInvalidCoupon, "Coupon cannot be applied")
	ErrLocked                = NewDomainError(CodeLocked, "Resource is being modified by another request")
)

// NewValidationError returns a VALIDATION_ERROR with a formatted message
func NewValidationError(format string, args ...any) *DomainError {
	return NewDomainError(CodeValidation, fmt.Sprintf(format, args...))
}

// NewInvalidStateError returns an INVALID_STATE error with a formatted message
func NewInvalidStateError(format string, args ...any) *DomainError {
	return NewDomainError(CodeInvalidState, fmt.Sprintf(format, args...))
}

// NewNotFoundError returns a NOT_FOUND error naming the missing resource
func NewNotFoundError(resource string, id any) *DomainError {
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s %v not found", resource, id))
}
