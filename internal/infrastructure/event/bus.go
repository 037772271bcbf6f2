package event

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pos/backend/internal/domain/shared"
	"go.uber.org/zap"
)

var (
	// ErrBusStopped is returned when publishing to a stopped bus
	ErrBusStopped = errors.New("event bus is stopped")
	// ErrQueueFull is returned when the delivery queue has no room
	ErrQueueFull = errors.New("event bus queue is full")
)

// AsyncBusConfig configures the asynchronous event bus
type AsyncBusConfig struct {
	// QueueSize is the capacity of the delivery channel
	QueueSize int
	// Workers is the number of goroutines draining the queue
	Workers int
	// MaxRetries is how many times a failed handler is retried
	MaxRetries int
	// RetryBackoff is the delay before the first retry, doubled on each attempt
	RetryBackoff time.Duration
}

// DefaultAsyncBusConfig returns the default bus settings
func DefaultAsyncBusConfig() AsyncBusConfig {
	return AsyncBusConfig{
		QueueSize:    1024,
		Workers:      4,
		MaxRetries:   3,
		RetryBackoff: 100 * time.Millisecond,
	}
}

// delivery is one event bound for one handler
type delivery struct {
	ctx     context.Context
	event   shared.DomainEvent
	handler shared.EventHandler
}

// AsyncEventBus delivers events to handlers on a worker pool.
// Publish only enqueues, so callers never wait on handlers and handler
// failures never reach them. Failed deliveries are retried with exponential
// backoff up to MaxRetries and then dropped with an error log.
type AsyncEventBus struct {
	registry *HandlerRegistry
	config   AsyncBusConfig
	logger   *zap.Logger

	mu      sync.RWMutex
	queue   chan delivery
	started bool
	stopped bool
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewAsyncEventBus creates a new asynchronous event bus
func NewAsyncEventBus(config AsyncBusConfig, logger *zap.Logger) *AsyncEventBus {
	defaults := DefaultAsyncBusConfig()
	if config.QueueSize <= 0 {
		config.QueueSize = defaults.QueueSize
	}
	if config.Workers <= 0 {
		config.Workers = defaults.Workers
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = defaults.RetryBackoff
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AsyncEventBus{
		registry: NewHandlerRegistry(),
		config:   config,
		logger:   logger,
		queue:    make(chan delivery, config.QueueSize),
		done:     make(chan struct{}),
	}
}

// Publish enqueues one delivery per subscribed handler and returns at once.
// Handlers run with ctx's values but not its cancellation.
func (b *AsyncEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.stopped {
		return ErrBusStopped
	}

	detached := context.WithoutCancel(ctx)
	var dropped int
	for _, event := range events {
		for _, handler := range b.registry.GetHandlers(event.EventType()) {
			select {
			case b.queue <- delivery{ctx: detached, event: event, handler: handler}:
			default:
				dropped++
				b.logger.Error("event dropped, queue full",
					zap.String("event_type", event.EventType()),
					zap.String("event_id", event.EventID().String()),
				)
			}
		}
	}
	if dropped > 0 {
		return fmt.Errorf("%d deliveries dropped: %w", dropped, ErrQueueFull)
	}
	return nil
}

// Subscribe registers a handler. Without explicit event types the
// handler's own EventTypes are used.
func (b *AsyncEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("handler subscribed", zap.Strings("event_types", eventTypes))
}

// Unsubscribe removes a handler
func (b *AsyncEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
}

// Start launches the worker pool. Calling it twice is a no-op.
func (b *AsyncEventBus) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped {
		return ErrBusStopped
	}
	if b.started {
		return nil
	}
	b.started = true
	for i := 0; i < b.config.Workers; i++ {
		b.wg.Add(1)
		go b.worker(i)
	}
	b.logger.Info("event bus started",
		zap.Int("workers", b.config.Workers),
		zap.Int("queue_size", b.config.QueueSize),
	)
	return nil
}

// Stop refuses new events, lets the workers drain the queue and waits for
// them until ctx ends.
func (b *AsyncEventBus) Stop(ctx context.Context) error {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return nil
	}
	b.stopped = true
	close(b.queue)
	started := b.started
	b.mu.Unlock()

	if !started {
		close(b.done)
		return nil
	}

	finished := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		close(b.done)
		b.logger.Info("event bus stopped")
		return nil
	case <-ctx.Done():
		close(b.done)
		b.logger.Warn("event bus stop timed out, pending deliveries abandoned")
		return ctx.Err()
	}
}

// Pending returns the number of queued deliveries
func (b *AsyncEventBus) Pending() int {
	return len(b.queue)
}

func (b *AsyncEventBus) worker(id int) {
	defer b.wg.Done()
	for d := range b.queue {
		b.deliver(d)
	}
	b.logger.Debug("event bus worker exited", zap.Int("worker", id))
}

func (b *AsyncEventBus) deliver(d delivery) {
	backoff := b.config.RetryBackoff
	for attempt := 0; ; attempt++ {
		err := b.dispatch(d)
		if err == nil {
			return
		}
		if attempt >= b.config.MaxRetries {
			b.logger.Error("event handler failed, giving up",
				zap.String("event_type", d.event.EventType()),
				zap.String("event_id", d.event.EventID().String()),
				zap.Int("attempts", attempt+1),
				zap.Error(err),
			)
			return
		}
		b.logger.Warn("event handler failed, retrying",
			zap.String("event_type", d.event.EventType()),
			zap.String("event_id", d.event.EventID().String()),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)

		timer := time.NewTimer(backoff)
		select {
		case <-timer.C:
		case <-b.done:
			timer.Stop()
			return
		}
		backoff *= 2
	}
}

// dispatch runs the handler and turns a panic into an error
func (b *AsyncEventBus) dispatch(d delivery) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return d.handler.Handle(d.ctx, d.event)
}

// Ensure AsyncEventBus implements EventBus
var _ shared.EventBus = (*AsyncEventBus)(nil)
