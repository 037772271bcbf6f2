package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/shared/valueobject"
)

// AggregateTypeSale is the aggregate type of sale events
const AggregateTypeSale = "Sale"

// Event type constants
const (
	EventTypeSaleCreated   = "SaleCreated"
	EventTypeSaleCompleted = "SaleCompleted"
	EventTypeSaleRefunded  = "SaleRefunded"
)

// SaleCreatedEvent is raised when a pending sale is persisted
type SaleCreatedEvent struct {
	shared.BaseDomainEvent
	SaleID     uuid.UUID         `json:"sale_id"`
	Reference  string            `json:"reference"`
	CashierID  uuid.UUID         `json:"cashier_id"`
	CustomerID *uuid.UUID        `json:"customer_id,omitempty"`
	ItemCount  int               `json:"item_count"`
	Subtotal   valueobject.Money `json:"subtotal"`
	Tax        valueobject.Money `json:"tax"`
	Discount   valueobject.Money `json:"discount"`
	Total      valueobject.Money `json:"total"`
}

// NewSaleCreatedEvent creates a new SaleCreatedEvent
func NewSaleCreatedEvent(s *Sale) *SaleCreatedEvent {
	return &SaleCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCreated, AggregateTypeSale, s.ID, s.StoreID),
		SaleID:          s.ID,
		Reference:       s.Reference,
		CashierID:       s.CashierID,
		CustomerID:      s.CustomerID,
		ItemCount:       len(s.Items),
		Subtotal:        s.Subtotal,
		Tax:             s.Tax,
		Discount:        s.Discount,
		Total:           s.Total,
	}
}

// EventType returns the event type name
func (e *SaleCreatedEvent) EventType() string {
	return EventTypeSaleCreated
}

// SaleCompletedEvent is raised when a sale is paid and stock is deducted
type SaleCompletedEvent struct {
	shared.BaseDomainEvent
	SaleID      uuid.UUID         `json:"sale_id"`
	Reference   string            `json:"reference"`
	CustomerID  *uuid.UUID        `json:"customer_id,omitempty"`
	Total       valueobject.Money `json:"total"`
	Paid        valueobject.Money `json:"paid"`
	CompletedAt time.Time         `json:"completed_at"`
}

// NewSaleCompletedEvent creates a new SaleCompletedEvent
func NewSaleCompletedEvent(s *Sale) *SaleCompletedEvent {
	completedAt := s.UpdatedAt
	if s.CompletedAt != nil {
		completedAt = *s.CompletedAt
	}
	return &SaleCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCompleted, AggregateTypeSale, s.ID, s.StoreID),
		SaleID:          s.ID,
		Reference:       s.Reference,
		CustomerID:      s.CustomerID,
		Total:           s.Total,
		Paid:            s.PaidTotal(),
		CompletedAt:     completedAt,
	}
}

// EventType returns the event type name
func (e *SaleCompletedEvent) EventType() string {
	return EventTypeSaleCompleted
}

// SaleRefundedEvent is raised for every approved return booked on a sale
type SaleRefundedEvent struct {
	shared.BaseDomainEvent
	SaleID        uuid.UUID         `json:"sale_id"`
	ReturnID      uuid.UUID         `json:"return_id"`
	Reference     string            `json:"reference"`
	Reason        string            `json:"reason"`
	Total         valueobject.Money `json:"total"`
	RefundedTotal valueobject.Money `json:"refunded_total"`
	FullyRefunded bool              `json:"fully_refunded"`
}

// NewSaleRefundedEvent creates a new SaleRefundedEvent
func NewSaleRefundedEvent(s *Sale, ret *SaleReturn, fully bool) *SaleRefundedEvent {
	return &SaleRefundedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleRefunded, AggregateTypeSale, s.ID, s.StoreID),
		SaleID:          s.ID,
		ReturnID:        ret.ID,
		Reference:       s.Reference,
		Reason:          ret.Reason,
		Total:           ret.Total,
		RefundedTotal:   s.RefundedTotal,
		FullyRefunded:   fully,
	}
}

// EventType returns the event type name
func (e *SaleRefundedEvent) EventType() string {
	return EventTypeSaleRefunded
}
