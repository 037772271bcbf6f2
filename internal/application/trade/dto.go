package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared/valueobject"
	"github.com/pos/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// ==================== Sale DTOs ====================

// CreateSaleItemRequest is one cart line
type CreateSaleItemRequest struct {
	ItemKind string    `json:"item_kind" binding:"required,oneof=product variant"`
	ItemID   uuid.UUID `json:"item_id" binding:"required"`
	Quantity int64     `json:"quantity" binding:"required,gt=0,max=1000000"`
	// UnitPrice overrides the catalog price when set
	UnitPrice *valueobject.Money `json:"unit_price" binding:"omitempty,gte=0"`
	Discount  valueobject.Money  `json:"discount" binding:"gte=0"`
}

// CreateSaleRequest opens a pending sale from a cart
type CreateSaleRequest struct {
	StoreID    uuid.UUID               `json:"store_id" binding:"required"`
	CashierID  uuid.UUID               `json:"cashier_id" binding:"required"`
	CustomerID *uuid.UUID              `json:"customer_id"`
	Items      []CreateSaleItemRequest `json:"items" binding:"required,min=1,dive"`
	Discount   valueobject.Money       `json:"discount" binding:"gte=0"`
	CouponCode string                  `json:"coupon_code" binding:"max=50"`
	Notes      string                  `json:"notes" binding:"max=1000"`
}

// PaymentRequest is one tender
type PaymentRequest struct {
	PaymentMethodID uuid.UUID         `json:"payment_method_id" binding:"required"`
	Amount          valueobject.Money `json:"amount" binding:"gt=0"`
	Reference       string            `json:"reference" binding:"max=100"`
}

// CompleteSaleRequest pays a pending sale
type CompleteSaleRequest struct {
	Payments []PaymentRequest `json:"payments" binding:"required,min=1,dive"`
}

// RefundItemRequest returns units of one sale line
type RefundItemRequest struct {
	SaleItemID uuid.UUID `json:"sale_item_id" binding:"required"`
	Quantity   int64     `json:"quantity" binding:"required,gt=0,max=1000000"`
	Reason     string    `json:"reason" binding:"max=255"`
}

// RefundSaleRequest refunds part or all of a completed sale
type RefundSaleRequest struct {
	Reason      string              `json:"reason" binding:"required,max=500"`
	RequestedBy uuid.UUID           `json:"requested_by" binding:"required"`
	Items       []RefundItemRequest `json:"items" binding:"required,min=1,dive"`
}

// SaleItemResponse represents a sale line in API responses
type SaleItemResponse struct {
	ID        uuid.UUID         `json:"id"`
	ItemKind  string            `json:"item_kind"`
	ItemID    uuid.UUID         `json:"item_id"`
	ProductID uuid.UUID         `json:"product_id"`
	Name      string            `json:"name"`
	SKU       string            `json:"sku"`
	Quantity  int64             `json:"quantity"`
	UnitPrice valueobject.Money `json:"unit_price"`
	UnitCost  valueobject.Money `json:"unit_cost"`
	Discount  valueobject.Money `json:"discount"`
	TaxRate   decimal.Decimal   `json:"tax_rate"`
	Tax       valueobject.Money `json:"tax"`
	Total     valueobject.Money `json:"total"`
}

// SalePaymentResponse represents a payment in API responses
type SalePaymentResponse struct {
	ID              uuid.UUID         `json:"id"`
	PaymentMethodID uuid.UUID         `json:"payment_method_id"`
	Amount          valueobject.Money `json:"amount"`
	Reference       string            `json:"reference,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

// SaleResponse represents a sale in API responses
type SaleResponse struct {
	ID            uuid.UUID             `json:"id"`
	StoreID       uuid.UUID             `json:"store_id"`
	CashierID     uuid.UUID             `json:"cashier_id"`
	CustomerID    *uuid.UUID            `json:"customer_id,omitempty"`
	Reference     string                `json:"reference"`
	Status        string                `json:"status"`
	Subtotal      valueobject.Money     `json:"subtotal"`
	Tax           valueobject.Money     `json:"tax"`
	Discount      valueobject.Money     `json:"discount"`
	Total         valueobject.Money     `json:"total"`
	Paid          valueobject.Money     `json:"paid"`
	RefundedTotal valueobject.Money     `json:"refunded_total"`
	CouponID      *uuid.UUID            `json:"coupon_id,omitempty"`
	Notes         string                `json:"notes,omitempty"`
	Items         []SaleItemResponse    `json:"items"`
	Payments      []SalePaymentResponse `json:"payments"`
	Returns       []SaleReturnResponse  `json:"returns,omitempty"`
	CompletedAt   *time.Time            `json:"completed_at,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
	Version       int                   `json:"version"`
}

// SaleReturnItemResponse represents a returned line in API responses
type SaleReturnItemResponse struct {
	ID         uuid.UUID         `json:"id"`
	SaleItemID uuid.UUID         `json:"sale_item_id"`
	ItemKind   string            `json:"item_kind"`
	ItemID     uuid.UUID         `json:"item_id"`
	Quantity   int64             `json:"quantity"`
	UnitPrice  valueobject.Money `json:"unit_price"`
	Subtotal   valueobject.Money `json:"subtotal"`
	Tax        valueobject.Money `json:"tax"`
	Total      valueobject.Money `json:"total"`
	Reason     string            `json:"reason,omitempty"`
}

// SaleReturnResponse represents a return in API responses
type SaleReturnResponse struct {
	ID              uuid.UUID                `json:"id"`
	SaleID          uuid.UUID                `json:"sale_id"`
	Status          string                   `json:"status"`
	Reason          string                   `json:"reason"`
	RequestedBy     uuid.UUID                `json:"requested_by"`
	ApprovedBy      *uuid.UUID               `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time               `json:"approved_at,omitempty"`
	RejectionReason string                   `json:"rejection_reason,omitempty"`
	Subtotal        valueobject.Money        `json:"subtotal"`
	Tax             valueobject.Money        `json:"tax"`
	Total           valueobject.Money        `json:"total"`
	Items           []SaleReturnItemResponse `json:"items"`
	CreatedAt       time.Time                `json:"created_at"`
}

// ToSaleResponse converts a domain Sale to SaleResponse
func ToSaleResponse(s *trade.Sale) SaleResponse {
	items := make([]SaleItemResponse, len(s.Items))
	for i := range s.Items {
		item := &s.Items[i]
		items[i] = SaleItemResponse{
			ID:        item.ID,
			ItemKind:  string(item.Item.Kind()),
			ItemID:    item.Item.ID(),
			ProductID: item.ProductID,
			Name:      item.Name,
			SKU:       item.SKU,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			UnitCost:  item.UnitCost,
			Discount:  item.Discount,
			TaxRate:   item.TaxRate,
			Tax:       item.Tax,
			Total:     item.Total,
		}
	}

	payments := make([]SalePaymentResponse, len(s.Payments))
	for i, p := range s.Payments {
		payments[i] = SalePaymentResponse{
			ID:              p.ID,
			PaymentMethodID: p.PaymentMethodID,
			Amount:          p.Amount,
			Reference:       p.Reference,
			CreatedAt:       p.CreatedAt,
		}
	}

	return SaleResponse{
		ID:            s.ID,
		StoreID:       s.StoreID,
		CashierID:     s.CashierID,
		CustomerID:    s.CustomerID,
		Reference:     s.Reference,
		Status:        string(s.Status),
		Subtotal:      s.Subtotal,
		Tax:           s.Tax,
		Discount:      s.Discount,
		Total:         s.Total,
		Paid:          s.PaidTotal(),
		RefundedTotal: s.RefundedTotal,
		CouponID:      s.CouponID,
		Notes:         s.Notes,
		Items:         items,
		Payments:      payments,
		CompletedAt:   s.CompletedAt,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
		Version:       s.Version,
	}
}

// ToSaleReturnResponse converts a domain SaleReturn to SaleReturnResponse
func ToSaleReturnResponse(r *trade.SaleReturn) SaleReturnResponse {
	items := make([]SaleReturnItemResponse, len(r.Items))
	for i := range r.Items {
		item := &r.Items[i]
		items[i] = SaleReturnItemResponse{
			ID:         item.ID,
			SaleItemID: item.SaleItemID,
			ItemKind:   string(item.Item.Kind()),
			ItemID:     item.Item.ID(),
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			Subtotal:   item.Subtotal,
			Tax:        item.Tax,
			Total:      item.Total,
			Reason:     item.Reason,
		}
	}
	return SaleReturnResponse{
		ID:              r.ID,
		SaleID:          r.SaleID,
		Status:          string(r.Status),
		Reason:          r.Reason,
		RequestedBy:     r.RequestedBy,
		ApprovedBy:      r.ApprovedBy,
		ApprovedAt:      r.ApprovedAt,
		RejectionReason: r.RejectionReason,
		Subtotal:        r.Subtotal,
		Tax:             r.Tax,
		Total:           r.Total,
		Items:           items,
		CreatedAt:       r.CreatedAt,
	}
}
