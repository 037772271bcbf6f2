package handler

import (
	"context"

	"github.com/google/uuid"
	inventoryapp "github.com/pos/backend/internal/application/inventory"
	tradeapp "github.com/pos/backend/internal/application/trade"
	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// MockSaleService implements SaleService for testing
type MockSaleService struct {
	mock.Mock
}

func (m *MockSaleService) CreateSale(ctx context.Context, req tradeapp.CreateSaleRequest) (*tradeapp.SaleResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.SaleResponse), args.Error(1)
}

func (m *MockSaleService) CompleteSale(ctx context.Context, saleID uuid.UUID, req tradeapp.CompleteSaleRequest, loyalty tradeapp.LoyaltyConfig) (*tradeapp.SaleResponse, error) {
	args := m.Called(ctx, saleID, req, loyalty)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.SaleResponse), args.Error(1)
}

func (m *MockSaleService) RefundSale(ctx context.Context, saleID uuid.UUID, req tradeapp.RefundSaleRequest) (*tradeapp.SaleReturnResponse, error) {
	args := m.Called(ctx, saleID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.SaleReturnResponse), args.Error(1)
}

func (m *MockSaleService) GetSale(ctx context.Context, saleID uuid.UUID) (*tradeapp.SaleResponse, error) {
	args := m.Called(ctx, saleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.SaleResponse), args.Error(1)
}

// MockInventoryService implements InventoryService for testing
type MockInventoryService struct {
	mock.Mock
}

func (m *MockInventoryService) AdjustStock(ctx context.Context, req inventoryapp.AdjustStockRequest) (*inventoryapp.MovementResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventoryapp.MovementResponse), args.Error(1)
}

func (m *MockInventoryService) ReceiveStock(ctx context.Context, req inventoryapp.ReceiveStockRequest) (*inventoryapp.MovementResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventoryapp.MovementResponse), args.Error(1)
}

func (m *MockInventoryService) GetStockStatus(ctx context.Context, item catalog.ItemRef) (*inventoryapp.StockStatusResponse, error) {
	args := m.Called(ctx, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventoryapp.StockStatusResponse), args.Error(1)
}

func (m *MockInventoryService) ListMovements(ctx context.Context, item catalog.ItemRef, filter shared.Filter) (*shared.Paginated[inventoryapp.MovementResponse], error) {
	args := m.Called(ctx, item, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[inventoryapp.MovementResponse]), args.Error(1)
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }
