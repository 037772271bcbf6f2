package partner

import (
	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
)

// AggregateTypeCustomer is the aggregate type of customer events
const AggregateTypeCustomer = "Customer"

// EventTypeLoyaltyPointsEarned is raised when a completed sale credits points
const EventTypeLoyaltyPointsEarned = "LoyaltyPointsEarned"

// LoyaltyPointsEarnedEvent carries the credited points and new balance
type LoyaltyPointsEarnedEvent struct {
	shared.BaseDomainEvent
	CustomerID uuid.UUID `json:"customer_id"`
	SaleID     uuid.UUID `json:"sale_id"`
	Points     int64     `json:"points"`
	Balance    int64     `json:"balance"`
}

// NewLoyaltyPointsEarnedEvent creates a new LoyaltyPointsEarnedEvent
func NewLoyaltyPointsEarnedEvent(c *Customer, points int64, saleID uuid.UUID) *LoyaltyPointsEarnedEvent {
	return &LoyaltyPointsEarnedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLoyaltyPointsEarned, AggregateTypeCustomer, c.ID, c.StoreID),
		CustomerID:      c.ID,
		SaleID:          saleID,
		Points:          points,
		Balance:         c.LoyaltyPoints,
	}
}

// EventType returns the event type name
func (e *LoyaltyPointsEarnedEvent) EventType() string {
	return EventTypeLoyaltyPointsEarned
}
