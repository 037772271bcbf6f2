package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pos/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type MockEventHandler struct {
	mock.Mock
}

func (m *MockEventHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventHandler) EventTypes() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

func TestIdempotentHandler(t *testing.T) {
	ctx := context.Background()
	config := shared.DefaultIdempotencyConfig()

	t.Run("handles a new event and records it", func(t *testing.T) {
		event := newTestEvent("SaleCompleted")
		key := "SaleCompleted:" + event.EventID().String()
		inner := new(MockEventHandler)
		store := new(MockIdempotencyStore)
		store.On("IsProcessed", ctx, key).Return(false, nil)
		inner.On("Handle", ctx, event).Return(nil)
		store.On("MarkProcessed", ctx, key, config.TTL).Return(true, nil)

		h := NewIdempotentHandler(inner, store, config, zaptest.NewLogger(t))
		require.NoError(t, h.Handle(ctx, event))

		inner.AssertExpectations(t)
		store.AssertExpectations(t)
		assert.Equal(t, int64(1), h.Stats().Processed)
	})

	t.Run("skips an event already handled", func(t *testing.T) {
		event := newTestEvent("SaleCompleted")
		inner := new(MockEventHandler)
		store := new(MockIdempotencyStore)
		store.On("IsProcessed", ctx, mock.Anything).Return(true, nil)

		h := NewIdempotentHandler(inner, store, config, zaptest.NewLogger(t))
		require.NoError(t, h.Handle(ctx, event))

		inner.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
		assert.Equal(t, int64(1), h.Stats().Duplicate)
	})

	t.Run("failure is not recorded so a retry runs again", func(t *testing.T) {
		event := newTestEvent("SaleCompleted")
		inner := new(MockEventHandler)
		store := new(MockIdempotencyStore)
		store.On("IsProcessed", ctx, mock.Anything).Return(false, nil)
		inner.On("Handle", ctx, event).Return(errors.New("kafka down"))

		h := NewIdempotentHandler(inner, store, config, zaptest.NewLogger(t))
		assert.Error(t, h.Handle(ctx, event))

		store.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything, mock.Anything)
		assert.Equal(t, int64(1), h.Stats().Failed)
	})

	t.Run("store outage still handles the event", func(t *testing.T) {
		event := newTestEvent("SaleCompleted")
		inner := new(MockEventHandler)
		store := new(MockIdempotencyStore)
		store.On("IsProcessed", ctx, mock.Anything).Return(false, errors.New("redis down"))
		inner.On("Handle", ctx, event).Return(nil)
		store.On("MarkProcessed", ctx, mock.Anything, config.TTL).Return(false, errors.New("redis down"))

		h := NewIdempotentHandler(inner, store, config, zaptest.NewLogger(t))
		require.NoError(t, h.Handle(ctx, event))
		inner.AssertExpectations(t)
	})

	t.Run("disabled passes through", func(t *testing.T) {
		event := newTestEvent("SaleCompleted")
		inner := new(MockEventHandler)
		store := new(MockIdempotencyStore)
		inner.On("Handle", ctx, event).Return(nil)

		h := NewIdempotentHandler(inner, store, shared.IdempotencyConfig{Enabled: false}, nil)
		require.NoError(t, h.Handle(ctx, event))
		store.AssertNotCalled(t, "IsProcessed", mock.Anything, mock.Anything)
	})

	t.Run("reports inner event types", func(t *testing.T) {
		inner := new(MockEventHandler)
		inner.On("EventTypes").Return([]string{"A", "B"})
		h := NewIdempotentHandler(inner, new(MockIdempotencyStore), config, nil)
		assert.Equal(t, []string{"A", "B"}, h.EventTypes())
	})
}
