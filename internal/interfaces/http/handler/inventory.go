package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	inventoryapp "github.com/pos/backend/internal/application/inventory"
	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/interfaces/http/middleware"
)

// InventoryService is the stock ledger as seen by the HTTP layer
type InventoryService interface {
	AdjustStock(ctx context.Context, req inventoryapp.AdjustStockRequest) (*inventoryapp.MovementResponse, error)
	ReceiveStock(ctx context.Context, req inventoryapp.ReceiveStockRequest) (*inventoryapp.MovementResponse, error)
	GetStockStatus(ctx context.Context, item catalog.ItemRef) (*inventoryapp.StockStatusResponse, error)
	ListMovements(ctx context.Context, item catalog.ItemRef, filter shared.Filter) (*shared.Paginated[inventoryapp.MovementResponse], error)
}

// InventoryHandler handles stock adjustments and ledger queries
type InventoryHandler struct {
	BaseHandler
	inventoryService InventoryService
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(inventoryService InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

// AdjustStock sets an item's stock to a counted quantity.
// POST /api/v1/inventory/adjustments
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	var req inventoryapp.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationFailed(c, err)
		return
	}
	req.UserID = actingUser(c)

	movement, err := h.inventoryService.AdjustStock(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, movement)
}

// ReceiveStock books received units.
// POST /api/v1/inventory/receipts
func (h *InventoryHandler) ReceiveStock(c *gin.Context) {
	var req inventoryapp.ReceiveStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationFailed(c, err)
		return
	}
	req.UserID = actingUser(c)

	movement, err := h.inventoryService.ReceiveStock(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, movement)
}

// GetStockStatus returns an item's quantity and low-stock flag.
// GET /api/v1/inventory/:kind/:id/stock
func (h *InventoryHandler) GetStockStatus(c *gin.Context) {
	item, ok := h.itemParam(c)
	if !ok {
		return
	}

	status, err := h.inventoryService.GetStockStatus(c.Request.Context(), item)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, status)
}

// ListMovements returns a page of an item's stock ledger, newest first by default.
// GET /api/v1/inventory/:kind/:id/movements
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	item, ok := h.itemParam(c)
	if !ok {
		return
	}
	filter, ok := h.listFilter(c)
	if !ok {
		return
	}

	page, err := h.inventoryService.ListMovements(c.Request.Context(), item, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// itemParam reads the :kind/:id item reference from the path
func (h *InventoryHandler) itemParam(c *gin.Context) (catalog.ItemRef, bool) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return catalog.ItemRef{}, false
	}
	item, err := inventoryapp.ParseItemRef(c.Param("kind"), id)
	if err != nil {
		h.HandleError(c, err)
		return catalog.ItemRef{}, false
	}
	return item, true
}

func actingUser(c *gin.Context) *uuid.UUID {
	id := scopedUUID(c, middleware.UserIDKey)
	if id == uuid.Nil {
		return nil
	}
	return &id
}
