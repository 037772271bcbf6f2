package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type testEvent struct {
	shared.BaseDomainEvent
	Data string `json:"data"`
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "TestAggregate", uuid.New(), uuid.New()),
		Data:            "test data",
	}
}

// testHandler records events and fails the first failures calls
type testHandler struct {
	eventTypes []string
	mu         sync.Mutex
	handled    []shared.DomainEvent
	calls      int
	failures   int
	panics     bool
	received   chan struct{}
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{eventTypes: eventTypes, received: make(chan struct{}, 100)}
}

func (h *testHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	h.calls++
	call := h.calls
	h.mu.Unlock()

	if h.panics {
		panic("boom")
	}
	if call <= h.failures {
		return errors.New("temporary failure")
	}

	h.mu.Lock()
	h.handled = append(h.handled, event)
	h.mu.Unlock()
	h.received <- struct{}{}
	return nil
}

func (h *testHandler) EventTypes() []string { return h.eventTypes }

func (h *testHandler) getHandled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.handled...)
}

func (h *testHandler) getCalls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls
}

func (h *testHandler) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-h.received:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for event %d of %d", i+1, n)
		}
	}
}

func newTestBus(t *testing.T, config AsyncBusConfig) *AsyncEventBus {
	t.Helper()
	bus := NewAsyncEventBus(config, zaptest.NewLogger(t))
	require.NoError(t, bus.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = bus.Stop(ctx)
	})
	return bus
}

func TestAsyncEventBus_Publish(t *testing.T) {
	t.Run("delivers to subscribed handlers only", func(t *testing.T) {
		bus := newTestBus(t, AsyncBusConfig{Workers: 2})
		sales := newTestHandler("SaleCompleted")
		stock := newTestHandler("LowStockDetected")
		bus.Subscribe(sales)
		bus.Subscribe(stock)

		event := newTestEvent("SaleCompleted")
		require.NoError(t, bus.Publish(context.Background(), event))

		sales.wait(t, 1)
		assert.Equal(t, []shared.DomainEvent{event}, sales.getHandled())
		assert.Empty(t, stock.getHandled())
	})

	t.Run("wildcard handlers receive everything", func(t *testing.T) {
		bus := newTestBus(t, AsyncBusConfig{Workers: 1})
		all := newTestHandler()
		bus.Subscribe(all)

		require.NoError(t, bus.Publish(context.Background(), newTestEvent("A"), newTestEvent("B")))

		all.wait(t, 2)
		assert.Len(t, all.getHandled(), 2)
	})

	t.Run("explicit types override the handler's own", func(t *testing.T) {
		bus := newTestBus(t, AsyncBusConfig{Workers: 1})
		h := newTestHandler("Ignored")
		bus.Subscribe(h, "Wanted")

		require.NoError(t, bus.Publish(context.Background(), newTestEvent("Wanted")))
		h.wait(t, 1)
	})

	t.Run("cancelled publisher context does not cancel handlers", func(t *testing.T) {
		bus := newTestBus(t, AsyncBusConfig{Workers: 1})
		var seen context.Context
		done := make(chan struct{})
		bus.Subscribe(shared.HandleFunc(func(ctx context.Context, _ shared.DomainEvent) error {
			seen = ctx
			close(done)
			return nil
		}), "X")

		ctx, cancel := context.WithCancel(context.Background())
		require.NoError(t, bus.Publish(ctx, newTestEvent("X")))
		cancel()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("handler not called")
		}
		assert.NoError(t, seen.Err())
	})

	t.Run("unsubscribed handler stops receiving", func(t *testing.T) {
		bus := newTestBus(t, AsyncBusConfig{Workers: 1})
		h := newTestHandler("X")
		bus.Subscribe(h)
		bus.Unsubscribe(h)

		require.NoError(t, bus.Publish(context.Background(), newTestEvent("X")))
		assert.Equal(t, 0, bus.Pending())
	})

	t.Run("function handler is routed by its own event types", func(t *testing.T) {
		bus := newTestBus(t, AsyncBusConfig{Workers: 1})
		got := make(chan string, 2)
		h := shared.HandleFunc(func(_ context.Context, e shared.DomainEvent) error {
			got <- e.EventType()
			return nil
		}, "A")
		bus.Subscribe(h)

		require.NoError(t, bus.Publish(context.Background(), newTestEvent("B"), newTestEvent("A")))
		select {
		case eventType := <-got:
			assert.Equal(t, "A", eventType)
		case <-time.After(2 * time.Second):
			t.Fatal("handler not called")
		}

		bus.Unsubscribe(h)
		require.NoError(t, bus.Publish(context.Background(), newTestEvent("A")))
		assert.Equal(t, 0, bus.Pending())
	})
}

func TestAsyncEventBus_Retry(t *testing.T) {
	t.Run("retries failed handler until it succeeds", func(t *testing.T) {
		bus := newTestBus(t, AsyncBusConfig{Workers: 1, MaxRetries: 3, RetryBackoff: time.Millisecond})
		h := newTestHandler("X")
		h.failures = 2
		bus.Subscribe(h)

		require.NoError(t, bus.Publish(context.Background(), newTestEvent("X")))

		h.wait(t, 1)
		assert.Equal(t, 3, h.getCalls())
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		bus := NewAsyncEventBus(AsyncBusConfig{Workers: 1, MaxRetries: 2, RetryBackoff: time.Millisecond}, zaptest.NewLogger(t))
		require.NoError(t, bus.Start(context.Background()))
		h := newTestHandler("X")
		h.failures = 100
		bus.Subscribe(h)

		require.NoError(t, bus.Publish(context.Background(), newTestEvent("X")))
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		require.NoError(t, bus.Stop(ctx))

		assert.Equal(t, 3, h.getCalls())
		assert.Empty(t, h.getHandled())
	})

	t.Run("panicking handler is contained", func(t *testing.T) {
		bus := NewAsyncEventBus(AsyncBusConfig{Workers: 1, MaxRetries: 1, RetryBackoff: time.Millisecond}, zaptest.NewLogger(t))
		require.NoError(t, bus.Start(context.Background()))
		bad := newTestHandler("X")
		bad.panics = true
		good := newTestHandler("X")
		bus.Subscribe(bad)
		bus.Subscribe(good)

		require.NoError(t, bus.Publish(context.Background(), newTestEvent("X")))
		good.wait(t, 1)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		require.NoError(t, bus.Stop(ctx))

		assert.Equal(t, 2, bad.getCalls())
	})
}

func TestAsyncEventBus_Lifecycle(t *testing.T) {
	t.Run("stop drains queued deliveries", func(t *testing.T) {
		bus := NewAsyncEventBus(AsyncBusConfig{Workers: 1, QueueSize: 10}, zaptest.NewLogger(t))
		h := newTestHandler("X")
		bus.Subscribe(h)

		for i := 0; i < 5; i++ {
			require.NoError(t, bus.Publish(context.Background(), newTestEvent("X")))
		}
		assert.Equal(t, 5, bus.Pending())

		require.NoError(t, bus.Start(context.Background()))
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		require.NoError(t, bus.Stop(ctx))

		assert.Len(t, h.getHandled(), 5)
	})

	t.Run("publish after stop fails", func(t *testing.T) {
		bus := NewAsyncEventBus(AsyncBusConfig{}, zaptest.NewLogger(t))
		require.NoError(t, bus.Stop(context.Background()))

		err := bus.Publish(context.Background(), newTestEvent("X"))
		assert.ErrorIs(t, err, ErrBusStopped)
		assert.ErrorIs(t, bus.Start(context.Background()), ErrBusStopped)
		assert.NoError(t, bus.Stop(context.Background()))
	})

	t.Run("full queue drops and reports", func(t *testing.T) {
		bus := NewAsyncEventBus(AsyncBusConfig{Workers: 1, QueueSize: 1}, zaptest.NewLogger(t))
		bus.Subscribe(newTestHandler("X"))

		require.NoError(t, bus.Publish(context.Background(), newTestEvent("X")))
		err := bus.Publish(context.Background(), newTestEvent("X"))

		assert.ErrorIs(t, err, ErrQueueFull)
		require.NoError(t, bus.Stop(context.Background()))
	})

	t.Run("defaults fill zero config", func(t *testing.T) {
		bus := NewAsyncEventBus(AsyncBusConfig{MaxRetries: -1}, nil)
		defaults := DefaultAsyncBusConfig()
		assert.Equal(t, defaults.Workers, bus.config.Workers)
		assert.Equal(t, defaults.QueueSize, bus.config.QueueSize)
		assert.Equal(t, 0, bus.config.MaxRetries)
	})
}
