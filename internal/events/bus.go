// Package events delivers socket lifecycle notifications to registered listeners.
package events

import (
	"log/slog"
	"sync"

	"github.com/aretw0/shellbridge/internal/logging"
	"github.com/aretw0/shellbridge/pkg/domain"
	"github.com/aretw0/shellbridge/pkg/observability"
)

// Bus is a synchronous multi-subscriber notifier.
// Listeners run in registration order on the firing goroutine; a panicking listener is
// recovered and logged and the remaining listeners still run.
type Bus struct {
	mu        sync.RWMutex
	listeners map[domain.EventType][]domain.SocketListener

	logger  *slog.Logger
	metrics *observability.Metrics
}

// Option configures the Bus.
type Option func(*Bus)

// WithLogger configures a logger for recovered listener panics.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bus) {
		b.logger = logger
	}
}

// WithMetrics counts fired events.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(b *Bus) {
		b.metrics = metrics
	}
}

// NewBus creates an empty Bus.
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		listeners: make(map[domain.EventType][]domain.SocketListener),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe appends fn to the listeners of eventType. A nil fn is ignored.
func (b *Bus) Subscribe(eventType domain.EventType, fn domain.SocketListener) {
	if fn == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[eventType] = append(b.listeners[eventType], fn)
}

// Len returns the number of listeners for eventType.
func (b *Bus) Len(eventType domain.EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners[eventType])
}

// Fire invokes every listener of ev.Type and returns how many of them panicked.
// The listener list is snapshotted first, so listeners may subscribe from inside a callback.
func (b *Bus) Fire(ev domain.SocketEvent) int {
	b.mu.RLock()
	snapshot := append([]domain.SocketListener(nil), b.listeners[ev.Type]...)
	b.mu.RUnlock()

	b.metrics.SocketEvent(string(ev.Type))

	failed := 0
	for i, fn := range snapshot {
		if !b.invoke(i, fn, ev) {
			failed++
		}
	}
	return failed
}

func (b *Bus) invoke(index int, fn domain.SocketListener, ev domain.SocketEvent) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("socket listener panicked",
				"event", ev.Type,
				"listener", index,
				"generation", ev.Generation,
				"panic", r,
			)
			ok = false
		}
	}()
	fn(ev)
	return true
}
