package inventory

import (
	"context"

	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/inventory"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

type MockStockRepository struct {
	mock.Mock
}

func (m *MockStockRepository) Find(ctx context.Context, item catalog.ItemRef) (*inventory.StockLevel, error) {
	args := m.Called(ctx, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.StockLevel), args.Error(1)
}

func (m *MockStockRepository) FindForUpdate(ctx context.Context, item catalog.ItemRef) (*inventory.StockLevel, error) {
	args := m.Called(ctx, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.StockLevel), args.Error(1)
}

func (m *MockStockRepository) SaveQuantity(ctx context.Context, level *inventory.StockLevel) error {
	args := m.Called(ctx, level)
	return args.Error(0)
}

type MockMovementRepository struct {
	mock.Mock
}

func (m *MockMovementRepository) Create(ctx context.Context, movement *inventory.StockMovement) error {
	args := m.Called(ctx, movement)
	return args.Error(0)
}

func (m *MockMovementRepository) ListByItem(ctx context.Context, item catalog.ItemRef, filter shared.Filter) ([]inventory.StockMovement, int64, error) {
	args := m.Called(ctx, item, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]inventory.StockMovement), args.Get(1).(int64), args.Error(2)
}

type mockLedgerRepos struct {
	stock    *MockStockRepository
	movement *MockMovementRepository
}

func (r *mockLedgerRepos) StockRepo() inventory.StockRepository       { return r.stock }
func (r *mockLedgerRepos) MovementRepo() inventory.MovementRepository { return r.movement }

// mockTransactionScope runs fn directly against the mock repositories
type mockTransactionScope struct {
	repos     *mockLedgerRepos
	execCalls int
}

func (s *mockTransactionScope) Execute(_ context.Context, fn func(repos LedgerRepositories) error) error {
	s.execCalls++
	return fn(s.repos)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

type MockStockAlertNotifier struct {
	mock.Mock
}

func (m *MockStockAlertNotifier) SendAlert(ctx context.Context, alert StockAlert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

func newMockLedgerRepos() *mockLedgerRepos {
	return &mockLedgerRepos{
		stock:    new(MockStockRepository),
		movement: new(MockMovementRepository),
	}
}

func int64Ptr(v int64) *int64 { return &v }
