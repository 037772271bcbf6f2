package shared

import (
	"time"

	"github.com/google/uuid"
)

// Entity is anything the POS persists under its own id
type Entity interface {
	GetID() uuid.UUID
}

// BaseEntity carries the id and timestamps of sales, sale lines, payments,
// returns, stock rows and coupons.
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GetID returns the entity ID
func (e *BaseEntity) GetID() uuid.UUID {
	return e.ID
}

// Touch records a change made at now
func (e *BaseEntity) Touch(now time.Time) {
	e.UpdatedAt = now
}

// NewBaseEntity stamps a new id with the wall clock
func NewBaseEntity() BaseEntity {
	return NewBaseEntityAt(time.Now())
}

// NewBaseEntityAt stamps a new id with the caller's clock so that rows
// written in one transaction share a timestamp.
func NewBaseEntityAt(now time.Time) BaseEntity {
	return BaseEntity{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}
