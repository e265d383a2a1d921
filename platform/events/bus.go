package events

import (
	"context"
	"sync"

	"buildportal/platform/logger"
)

// InMemoryBus is a process-local Bus implementation. Subscriptions happen
// during startup wiring; publishing is safe for concurrent use.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	log      *logger.Logger
}

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return &InMemoryBus{
		handlers: make(map[string][]Handler),
		log:      log,
	}
}

// Subscribe registers a handler for the given event name.
func (b *InMemoryBus) Subscribe(eventName string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventName] = append(b.handlers[eventName], handler)
}

// Publish delivers the event to every registered handler. Handler errors
// are logged and swallowed so a failing subscriber cannot block the
// workflow action that raised the event.
func (b *InMemoryBus) Publish(ctx context.Context, event Event) {
	for _, h := range b.handlersFor(event.EventName()) {
		if err := h.Handle(ctx, event); err != nil && b.log != nil {
			b.log.Error("event handler failed",
				"event", event.EventName(),
				"error", err,
			)
		}
	}
}

// PublishSync delivers the event to every registered handler and returns
// the first error encountered.
func (b *InMemoryBus) PublishSync(ctx context.Context, event Event) error {
	for _, h := range b.handlersFor(event.EventName()) {
		if err := h.Handle(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

func (b *InMemoryBus) handlersFor(eventName string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.handlers[eventName]
}

// Compile-time check that InMemoryBus implements Bus.
var _ Bus = (*InMemoryBus)(nil)
