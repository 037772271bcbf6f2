package shared

import "context"

// EventHandler reacts to sale, return and stock events after the
// transaction that raised them has committed.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes lists the event types to deliver. Nil means all of them.
	EventTypes() []string
}

// EventPublisher is what the application services hand committed events to
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventSubscriber manages which handlers see which event types.
// Subscribing with no types falls back to the handler's own EventTypes.
type EventSubscriber interface {
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
}

// EventBus is a publisher with its own delivery loop
type EventBus interface {
	EventPublisher
	EventSubscriber
	Start(ctx context.Context) error
	// Stop drains queued events until ctx is done
	Stop(ctx context.Context) error
}

// HandlerFunc adapts a plain function to an EventHandler
type HandlerFunc struct {
	fn    func(ctx context.Context, event DomainEvent) error
	types []string
}

// HandleFunc wraps fn as a handler for eventTypes. The result is a pointer
// so it can be unsubscribed by identity.
func HandleFunc(fn func(ctx context.Context, event DomainEvent) error, eventTypes ...string) *HandlerFunc {
	return &HandlerFunc{fn: fn, types: eventTypes}
}

// Handle calls the wrapped function
func (h *HandlerFunc) Handle(ctx context.Context, event DomainEvent) error {
	return h.fn(ctx, event)
}

// EventTypes returns the types given to HandleFunc
func (h *HandlerFunc) EventTypes() []string {
	if len(h.types) == 0 {
		return nil
	}
	return h.types
}

var _ EventHandler = (*HandlerFunc)(nil)
