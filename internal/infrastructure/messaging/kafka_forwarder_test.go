package messaging

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/shared/valueobject"
	"github.com/pos/backend/internal/domain/trade"
	"github.com/pos/backend/internal/infrastructure/event"
	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	calls    int
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func completedEvent() *trade.SaleCompletedEvent {
	return &trade.SaleCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(trade.EventTypeSaleCompleted, trade.AggregateTypeSale, uuid.New(), uuid.New()),
		Reference:       "POS-20240315-00001",
		Total:           valueobject.MustParseMoney("110.00"),
	}
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestEventForwarder_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("writes a keyed message with headers", func(t *testing.T) {
		w := &fakeWriter{}
		f := NewEventForwarder(w, event.NewEventSerializer(), BreakerConfig{}, zaptest.NewLogger(t))
		evt := completedEvent()

		require.NoError(t, f.Handle(ctx, evt))

		require.Len(t, w.messages, 1)
		msg := w.messages[0]
		assert.Equal(t, evt.AggregateID().String(), string(msg.Key))
		assert.Equal(t, "SaleCompleted", header(msg, HeaderEventType))
		assert.Equal(t, evt.EventID().String(), header(msg, HeaderEventID))
		assert.Equal(t, "Sale", header(msg, HeaderAggregateType))
		assert.Equal(t, evt.StoreID().String(), header(msg, HeaderStoreID))
		assert.Contains(t, string(msg.Value), `"total":"110.00"`)

		decoded, err := event.NewEventSerializer().Deserialize(header(msg, HeaderEventType), msg.Value)
		require.NoError(t, err)
		assert.Equal(t, evt.EventID(), decoded.EventID())
	})

	t.Run("write failure is returned for retry", func(t *testing.T) {
		w := &fakeWriter{err: errors.New("leader not available")}
		f := NewEventForwarder(w, event.NewEventSerializer(), BreakerConfig{}, zaptest.NewLogger(t))

		err := f.Handle(ctx, completedEvent())
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrBrokerUnavailable)
	})

	t.Run("breaker opens after consecutive failures", func(t *testing.T) {
		w := &fakeWriter{err: errors.New("dial tcp: connection refused")}
		f := NewEventForwarder(w, event.NewEventSerializer(), BreakerConfig{FailureThreshold: 2, OpenTimeout: time.Hour}, zaptest.NewLogger(t))

		assert.Error(t, f.Handle(ctx, completedEvent()))
		assert.Error(t, f.Handle(ctx, completedEvent()))
		assert.Equal(t, gobreaker.StateOpen, f.State())

		err := f.Handle(ctx, completedEvent())
		assert.ErrorIs(t, err, ErrBrokerUnavailable)
		assert.Equal(t, 2, w.calls)
	})

	t.Run("breaker recovers after the open timeout", func(t *testing.T) {
		w := &fakeWriter{err: errors.New("down")}
		f := NewEventForwarder(w, event.NewEventSerializer(), BreakerConfig{FailureThreshold: 1, OpenTimeout: 20 * time.Millisecond}, zaptest.NewLogger(t))

		assert.Error(t, f.Handle(ctx, completedEvent()))
		assert.Equal(t, gobreaker.StateOpen, f.State())

		time.Sleep(40 * time.Millisecond)
		w.mu.Lock()
		w.err = nil
		w.mu.Unlock()

		require.NoError(t, f.Handle(ctx, completedEvent()))
		assert.Equal(t, gobreaker.StateClosed, f.State())
	})

	t.Run("forwarder subscribes to every event", func(t *testing.T) {
		f := NewEventForwarder(&fakeWriter{}, event.NewEventSerializer(), BreakerConfig{}, zaptest.NewLogger(t))
		assert.Nil(t, f.EventTypes())
	})

	t.Run("close closes the writer", func(t *testing.T) {
		w := &fakeWriter{}
		f := NewEventForwarder(w, event.NewEventSerializer(), BreakerConfig{}, zaptest.NewLogger(t))
		require.NoError(t, f.Close())
		assert.True(t, w.closed)
	})
}

func TestNewKafkaWriter(t *testing.T) {
	w := NewKafkaWriter(KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "pos.events", RequiredAcks: -1})
	defer w.Close()

	assert.Equal(t, "pos.events", w.Topic)
	assert.Equal(t, kafka.RequireAll, w.RequiredAcks)
	assert.Equal(t, 10*time.Millisecond, w.BatchTimeout)
}
