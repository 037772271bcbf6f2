package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	tradeapp "github.com/pos/backend/internal/application/trade"
	"github.com/pos/backend/internal/interfaces/http/middleware"
)

// SaleService is the sale engine as seen by the HTTP layer
type SaleService interface {
	CreateSale(ctx context.Context, req tradeapp.CreateSaleRequest) (*tradeapp.SaleResponse, error)
	CompleteSale(ctx context.Context, saleID uuid.UUID, req tradeapp.CompleteSaleRequest, loyalty tradeapp.LoyaltyConfig) (*tradeapp.SaleResponse, error)
	RefundSale(ctx context.Context, saleID uuid.UUID, req tradeapp.RefundSaleRequest) (*tradeapp.SaleReturnResponse, error)
	GetSale(ctx context.Context, saleID uuid.UUID) (*tradeapp.SaleResponse, error)
}

// SaleHandler handles the sale endpoints
type SaleHandler struct {
	BaseHandler
	saleService SaleService
	loyalty     tradeapp.LoyaltyConfig
}

// NewSaleHandler creates a new SaleHandler. loyalty is applied to every completion.
func NewSaleHandler(saleService SaleService, loyalty tradeapp.LoyaltyConfig) *SaleHandler {
	return &SaleHandler{
		saleService: saleService,
		loyalty:     loyalty,
	}
}

// CreateSale opens a pending sale.
// POST /api/v1/sales
//
// store_id and cashier_id default to the X-Store-ID and X-User-ID headers.
func (h *SaleHandler) CreateSale(c *gin.Context) {
	// Body fields, when present, overwrite the header defaults
	req := tradeapp.CreateSaleRequest{
		StoreID:   scopedUUID(c, middleware.StoreIDKey),
		CashierID: scopedUUID(c, middleware.UserIDKey),
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationFailed(c, err)
		return
	}

	sale, err := h.saleService.CreateSale(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, sale)
}

// GetSale returns a sale with its items, payments and returns.
// GET /api/v1/sales/:id
func (h *SaleHandler) GetSale(c *gin.Context) {
	saleID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	sale, err := h.saleService.GetSale(c.Request.Context(), saleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// CompleteSale records payments, deducts stock and credits loyalty.
// POST /api/v1/sales/:id/complete
func (h *SaleHandler) CompleteSale(c *gin.Context) {
	saleID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req tradeapp.CompleteSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationFailed(c, err)
		return
	}

	sale, err := h.saleService.CompleteSale(c.Request.Context(), saleID, req, h.loyalty)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// RefundSale returns items from a completed sale and restores their stock.
// POST /api/v1/sales/:id/refunds
func (h *SaleHandler) RefundSale(c *gin.Context) {
	saleID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	req := tradeapp.RefundSaleRequest{RequestedBy: scopedUUID(c, middleware.UserIDKey)}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationFailed(c, err)
		return
	}

	ret, err := h.saleService.RefundSale(c.Request.Context(), saleID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, ret)
}
