package trade

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/shared/valueobject"
)

// SaleReturnItem is one returned line
type SaleReturnItem struct {
	shared.BaseEntity
	SaleReturnID uuid.UUID
	SaleItemID   uuid.UUID
	Item         catalog.ItemRef
	ProductID    uuid.UUID
	Quantity     int64
	UnitPrice    valueobject.Money
	Subtotal     valueobject.Money
	Tax          valueobject.Money
	Total        valueobject.Money
	Reason       string
}

// SaleReturn records a refund against a completed sale
type SaleReturn struct {
	shared.StoreAggregateRoot
	SaleID          uuid.UUID
	Reason          string
	Status          ReturnStatus
	RequestedBy     uuid.UUID
	ApprovedBy      *uuid.UUID
	ApprovedAt      *time.Time
	RejectionReason string
	Subtotal        valueobject.Money
	Tax             valueobject.Money
	Total           valueobject.Money
	Items           []SaleReturnItem
}

// RefundLine asks for quantity units of a sale line back
type RefundLine struct {
	SaleItemID uuid.UUID
	Quantity   int64
	Reason     string
}

// RefundRequest is the input to Sale.PrepareReturn
type RefundRequest struct {
	Reason      string
	RequestedBy uuid.UUID
	Lines       []RefundLine
}

// PrepareReturn builds a pending return for the requested lines.
// returned holds the quantities already returned per sale item id. The whole
// request is rejected if any line asks for more than remains.
// Line subtotal is UnitPrice*qty and tax is the line's tax prorated by qty.
func (s *Sale) PrepareReturn(req RefundRequest, returned map[uuid.UUID]int64) (*SaleReturn, error) {
	if s.Status != SaleStatusCompleted {
		return nil, shared.NewInvalidStateError("cannot refund sale %s in status %s", s.Reference, s.Status)
	}
	if len(req.Lines) == 0 {
		return nil, shared.NewValidationError("refund must include at least one item")
	}
	if req.RequestedBy == uuid.Nil {
		return nil, shared.NewValidationError("refund requires a requesting user")
	}

	requested := make(map[uuid.UUID]int64, len(req.Lines))
	for _, line := range req.Lines {
		if line.Quantity <= 0 {
			return nil, shared.NewValidationError("refund quantity must be positive, got %d", line.Quantity)
		}
		if _, ok := s.FindItem(line.SaleItemID); !ok {
			return nil, shared.NewValidationError("item %s does not belong to sale %s", line.SaleItemID, s.Reference)
		}
		requested[line.SaleItemID] += line.Quantity
	}
	for itemID, qty := range requested {
		item, _ := s.FindItem(itemID)
		remaining := item.Quantity - returned[itemID]
		if qty > remaining {
			return nil, &RefundExceedsPurchaseError{
				SaleItemID: itemID,
				Name:       item.Name,
				Requested:  qty,
				Remaining:  remaining,
			}
		}
	}

	ret := &SaleReturn{
		StoreAggregateRoot: shared.NewStoreAggregateRootWithCreator(s.StoreID, req.RequestedBy),
		SaleID:             s.ID,
		Reason:             strings.TrimSpace(req.Reason),
		Status:             ReturnStatusPending,
		RequestedBy:        req.RequestedBy,
		Items:              make([]SaleReturnItem, 0, len(req.Lines)),
	}
	for _, line := range req.Lines {
		item, _ := s.FindItem(line.SaleItemID)
		subtotal := item.UnitPrice.MulInt(line.Quantity)
		tax := item.Tax.MulRatio(line.Quantity, item.Quantity)
		ret.Items = append(ret.Items, SaleReturnItem{
			BaseEntity:   shared.NewBaseEntity(),
			SaleReturnID: ret.ID,
			SaleItemID:   item.ID,
			Item:         item.Item,
			ProductID:    item.ProductID,
			Quantity:     line.Quantity,
			UnitPrice:    item.UnitPrice,
			Subtotal:     subtotal,
			Tax:          tax,
			Total:        subtotal.Add(tax),
			Reason:       line.Reason,
		})
		ret.Subtotal = ret.Subtotal.Add(subtotal)
		ret.Tax = ret.Tax.Add(tax)
	}
	ret.Total = ret.Subtotal.Add(ret.Tax)
	return ret, nil
}

// Approve accepts the return
func (r *SaleReturn) Approve(approverID uuid.UUID, now time.Time) error {
	if !r.Status.CanTransitionTo(ReturnStatusApproved) {
		return shared.NewInvalidStateError("cannot approve return in status %s", r.Status)
	}
	r.Status = ReturnStatusApproved
	r.ApprovedBy = &approverID
	r.ApprovedAt = &now
	r.Touch(now)
	r.IncrementVersion()
	return nil
}

// Reject declines the return
func (r *SaleReturn) Reject(approverID uuid.UUID, reason string, now time.Time) error {
	if !r.Status.CanTransitionTo(ReturnStatusRejected) {
		return shared.NewInvalidStateError("cannot reject return in status %s", r.Status)
	}
	if strings.TrimSpace(reason) == "" {
		return shared.NewValidationError("rejection reason is required")
	}
	r.Status = ReturnStatusRejected
	r.ApprovedBy = &approverID
	r.ApprovedAt = &now
	r.RejectionReason = reason
	r.Touch(now)
	r.IncrementVersion()
	return nil
}

// ApplyReturn books an approved return on the sale: the refunded amount
// grows and, once every line is fully returned, the sale becomes refunded.
// returned must include the quantities of ret itself.
func (s *Sale) ApplyReturn(ret *SaleReturn, returned map[uuid.UUID]int64, now time.Time) error {
	if s.Status != SaleStatusCompleted {
		return shared.NewInvalidStateError("cannot refund sale %s in status %s", s.Reference, s.Status)
	}
	if ret.Status != ReturnStatusApproved {
		return shared.NewInvalidStateError("return %s is not approved", ret.ID)
	}

	s.RefundedTotal = s.RefundedTotal.Add(ret.Total)
	fully := s.isFullyReturned(returned)
	if fully {
		s.Status = SaleStatusRefunded
	}
	s.Touch(now)
	s.IncrementVersion()
	s.AddDomainEvent(NewSaleRefundedEvent(s, ret, fully))
	return nil
}

func (s *Sale) isFullyReturned(returned map[uuid.UUID]int64) bool {
	for i := range s.Items {
		if returned[s.Items[i].ID] < s.Items[i].Quantity {
			return false
		}
	}
	return len(s.Items) > 0
}
