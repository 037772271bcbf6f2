// Package messaging forwards committed domain events to Kafka.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/infrastructure/event"
	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Message header keys
const (
	HeaderEventType     = "event_type"
	HeaderEventID       = "event_id"
	HeaderAggregateType = "aggregate_type"
	HeaderStoreID       = "store_id"
	HeaderOccurredAt    = "occurred_at"
)

// ErrBrokerUnavailable is returned while the circuit breaker rejects writes
var ErrBrokerUnavailable = errors.New("kafka unavailable: circuit breaker open")

// KafkaConfig holds producer configuration
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration
	RequiredAcks int // -1 all, 0 none, 1 leader
}

// BreakerConfig controls when Kafka writes are short-circuited
type BreakerConfig struct {
	// FailureThreshold consecutive failures open the breaker
	FailureThreshold uint32
	// OpenTimeout is how long the breaker stays open before probing again
	OpenTimeout time.Duration
	// HalfOpenRequests are let through while probing
	HalfOpenRequests uint32
}

// DefaultBreakerConfig returns 5 failures, 30s open, 1 trial request
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{FailureThreshold: 5, OpenTimeout: 30 * time.Second, HalfOpenRequests: 1}
}

// MessageWriter is the part of *kafka.Writer the forwarder uses
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafkaWriter creates a synchronous writer for cfg.Topic
func NewKafkaWriter(cfg KafkaConfig) *kafka.Writer {
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 10 * time.Millisecond
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           batchTimeout,
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		AllowAutoTopicCreation: false,
	}
}

// EventForwarder publishes every domain event it receives as a Kafka
// message keyed by aggregate id, so events of one sale stay ordered within
// a partition.
type EventForwarder struct {
	writer     MessageWriter
	serializer *event.EventSerializer
	breaker    *gobreaker.CircuitBreaker
	logger     *zap.Logger
}

// NewEventForwarder creates a forwarder guarded by a circuit breaker
func NewEventForwarder(writer MessageWriter, serializer *event.EventSerializer, breakerCfg BreakerConfig, logger *zap.Logger) *EventForwarder {
	defaults := DefaultBreakerConfig()
	if breakerCfg.FailureThreshold == 0 {
		breakerCfg.FailureThreshold = defaults.FailureThreshold
	}
	if breakerCfg.OpenTimeout <= 0 {
		breakerCfg.OpenTimeout = defaults.OpenTimeout
	}
	if breakerCfg.HalfOpenRequests == 0 {
		breakerCfg.HalfOpenRequests = defaults.HalfOpenRequests
	}

	f := &EventForwarder{writer: writer, serializer: serializer, logger: logger}
	f.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "kafka-event-forwarder",
		MaxRequests: breakerCfg.HalfOpenRequests,
		Timeout:     breakerCfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerCfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return f
}

// EventTypes returns nil; the forwarder receives every event
func (f *EventForwarder) EventTypes() []string {
	return nil
}

// Handle writes one event to Kafka
func (f *EventForwarder) Handle(ctx context.Context, evt shared.DomainEvent) error {
	payload, err := f.serializer.Serialize(evt)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(evt.AggregateID().String()),
		Value: payload,
		Time:  evt.OccurredAt(),
		Headers: []kafka.Header{
			{Key: HeaderEventType, Value: []byte(evt.EventType())},
			{Key: HeaderEventID, Value: []byte(evt.EventID().String())},
			{Key: HeaderAggregateType, Value: []byte(evt.AggregateType())},
			{Key: HeaderStoreID, Value: []byte(evt.StoreID().String())},
			{Key: HeaderOccurredAt, Value: []byte(evt.OccurredAt().UTC().Format(time.RFC3339Nano))},
		},
	}

	_, err = f.breaker.Execute(func() (any, error) {
		return nil, f.writer.WriteMessages(ctx, msg)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("forward %s: %w", evt.EventType(), ErrBrokerUnavailable)
	}
	if err != nil {
		return fmt.Errorf("forward %s to kafka: %w", evt.EventType(), err)
	}

	f.logger.Debug("event forwarded",
		zap.String("event_type", evt.EventType()),
		zap.String("event_id", evt.EventID().String()),
	)
	return nil
}

// State reports the breaker state
func (f *EventForwarder) State() gobreaker.State {
	return f.breaker.State()
}

// Close closes the underlying writer
func (f *EventForwarder) Close() error {
	return f.writer.Close()
}
