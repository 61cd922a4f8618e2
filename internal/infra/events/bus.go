package events

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Handler receives the board events it subscribes to.
type Handler interface {
	Handles() []string
	Handle(event Event) error
}

type listener struct {
	types []string
	fn    func(Event) error
}

func (l listener) Handles() []string        { return l.types }
func (l listener) Handle(event Event) error { return l.fn(event) }

// Listener adapts fn to a Handler for eventTypes.
func Listener(fn func(Event) error, eventTypes ...string) Handler {
	return listener{types: eventTypes, fn: fn}
}

// Bus dispatches board events to registered handlers synchronously.
// Services publish only after their transaction commits, so a handler
// failure never undoes a mutation.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *zap.Logger
}

// NewBus creates a new event bus.
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
		logger:   logger.Named("events"),
	}
}

// Register subscribes handler to the event types it handles.
func (b *Bus) Register(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, eventType := range handler.Handles() {
		b.handlers[eventType] = append(b.handlers[eventType], handler)
	}
}

// Publish calls the event's handlers in registration order. Errors and
// panics are logged per handler. A nil Bus drops events.
func (b *Bus) Publish(event Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	handlers := b.handlers[event.EventType()]
	b.mu.RUnlock()

	for _, handler := range handlers {
		if err := b.dispatch(handler, event); err != nil {
			b.logger.Error("event handler failed",
				zap.String("event_type", event.EventType()),
				zap.String("event_id", event.EventID().String()),
				zap.String("world_id", event.WorldID().String()),
				zap.Error(err),
			)
		}
	}
}

func (b *Bus) dispatch(handler Handler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return handler.Handle(event)
}
