package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	inventoryapp "github.com/pos/backend/internal/application/inventory"
	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/interfaces/http/dto"
	"github.com/pos/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newInventoryRouter(svc InventoryService) *gin.Engine {
	h := NewInventoryHandler(svc)
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.StoreScope())
	r.POST("/api/v1/inventory/adjustments", h.AdjustStock)
	r.POST("/api/v1/inventory/receipts", h.ReceiveStock)
	r.GET("/api/v1/inventory/:kind/:id/stock", h.GetStockStatus)
	r.GET("/api/v1/inventory/:kind/:id/movements", h.ListMovements)
	return r
}

func TestInventoryHandler_AdjustStock(t *testing.T) {
	itemID, userID := uuid.New(), uuid.New()

	t.Run("records the acting user", func(t *testing.T) {
		svc := new(MockInventoryService)
		svc.On("AdjustStock", mock.Anything, mock.MatchedBy(func(req inventoryapp.AdjustStockRequest) bool {
			return req.ItemID == itemID && req.NewQuantity == 4 && req.UserID != nil && *req.UserID == userID
		})).Return(&inventoryapp.MovementResponse{
			ID:             uuid.New(),
			Type:           "adjustment",
			Quantity:       -6,
			QuantityBefore: 10,
			QuantityAfter:  4,
		}, nil)

		body := `{"item_kind":"product","item_id":"` + itemID.String() + `","new_quantity":4,"reason":"shelf count"}`
		w, resp := doJSON(t, newInventoryRouter(svc), http.MethodPost, "/api/v1/inventory/adjustments", body,
			map[string]string{middleware.HeaderUserID: userID.String()})

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, string(resp.Data), `"quantity_after":4`)
		svc.AssertExpectations(t)
	})

	t.Run("reason is required", func(t *testing.T) {
		svc := new(MockInventoryService)
		body := `{"item_kind":"product","item_id":"` + itemID.String() + `","new_quantity":4}`
		w, resp := doJSON(t, newInventoryRouter(svc), http.MethodPost, "/api/v1/inventory/adjustments", body, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, resp.Error)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "reason", resp.Error.Details[0].Field)
	})

	t.Run("negative count is rejected", func(t *testing.T) {
		svc := new(MockInventoryService)
		body := `{"item_kind":"product","item_id":"` + itemID.String() + `","new_quantity":-1,"reason":"x"}`
		w, _ := doJSON(t, newInventoryRouter(svc), http.MethodPost, "/api/v1/inventory/adjustments", body, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestInventoryHandler_ReceiveStock(t *testing.T) {
	itemID, poID := uuid.New(), uuid.New()
	svc := new(MockInventoryService)
	svc.On("ReceiveStock", mock.Anything, mock.MatchedBy(func(req inventoryapp.ReceiveStockRequest) bool {
		return req.ItemKind == "variant" && req.Quantity == 6 && req.PurchaseOrderID != nil && *req.PurchaseOrderID == poID && req.UserID == nil
	})).Return(&inventoryapp.MovementResponse{Type: "in", Quantity: 6, QuantityAfter: 10}, nil)

	body := `{"item_kind":"variant","item_id":"` + itemID.String() + `","quantity":6,"purchase_order_id":"` + poID.String() + `"}`
	w, _ := doJSON(t, newInventoryRouter(svc), http.MethodPost, "/api/v1/inventory/receipts", body, nil)

	assert.Equal(t, http.StatusCreated, w.Code)
	svc.AssertExpectations(t)
}

func TestInventoryHandler_GetStockStatus(t *testing.T) {
	itemID := uuid.New()

	t.Run("variant status", func(t *testing.T) {
		svc := new(MockInventoryService)
		reorder := int64(5)
		svc.On("GetStockStatus", mock.Anything, catalog.VariantRef(itemID)).Return(&inventoryapp.StockStatusResponse{
			ItemKind:     "variant",
			ItemID:       itemID,
			Quantity:     3,
			ReorderPoint: &reorder,
			TrackStock:   true,
			LowStock:     true,
		}, nil)

		w, resp := doJSON(t, newInventoryRouter(svc), http.MethodGet, "/api/v1/inventory/variant/"+itemID.String()+"/stock", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, string(resp.Data), `"low_stock":true`)
	})

	t.Run("unknown kind", func(t *testing.T) {
		svc := new(MockInventoryService)
		w, resp := doJSON(t, newInventoryRouter(svc), http.MethodGet, "/api/v1/inventory/bundle/"+itemID.String()+"/stock", "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		svc.AssertNotCalled(t, "GetStockStatus", mock.Anything, mock.Anything)
	})

	t.Run("not found", func(t *testing.T) {
		svc := new(MockInventoryService)
		svc.On("GetStockStatus", mock.Anything, catalog.ProductRef(itemID)).Return(nil, shared.NewNotFoundError("product", itemID))
		w, _ := doJSON(t, newInventoryRouter(svc), http.MethodGet, "/api/v1/inventory/product/"+itemID.String()+"/stock", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestInventoryHandler_ListMovements(t *testing.T) {
	itemID := uuid.New()

	t.Run("paginates", func(t *testing.T) {
		svc := new(MockInventoryService)
		page := shared.NewPaginated([]inventoryapp.MovementResponse{
			{ID: uuid.New(), Type: "out", Quantity: -3, CreatedAt: time.Now()},
			{ID: uuid.New(), Type: "in", Quantity: 6, CreatedAt: time.Now()},
		}, 5, 2, 2)
		svc.On("ListMovements", mock.Anything, catalog.ProductRef(itemID), shared.Filter{Page: 2, PageSize: 2, OrderDir: "asc"}).
			Return(&page, nil)

		w, resp := doJSON(t, newInventoryRouter(svc), http.MethodGet,
			"/api/v1/inventory/product/"+itemID.String()+"/movements?page=2&page_size=2&order_dir=asc", "", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, int64(5), resp.Meta.Total)
		assert.Equal(t, 3, resp.Meta.TotalPages)
		svc.AssertExpectations(t)
	})

	t.Run("defaults", func(t *testing.T) {
		svc := new(MockInventoryService)
		page := shared.NewPaginated([]inventoryapp.MovementResponse{}, 0, 1, 20)
		svc.On("ListMovements", mock.Anything, catalog.ProductRef(itemID), shared.DefaultFilter()).Return(&page, nil)

		w, _ := doJSON(t, newInventoryRouter(svc), http.MethodGet, "/api/v1/inventory/product/"+itemID.String()+"/movements", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("page size is capped", func(t *testing.T) {
		svc := new(MockInventoryService)
		w, _ := doJSON(t, newInventoryRouter(svc), http.MethodGet, "/api/v1/inventory/product/"+itemID.String()+"/movements?page_size=500", "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
