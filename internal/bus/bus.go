// Package bus is a small in-process publish/subscribe registry used to keep
// independent views consistent after state changes.
package bus

import (
	"fmt"
	"log/slog"
	"sync"
)

// Handler receives the payload of a published event.
type Handler func(payload any)

type registration struct {
	id      uint64
	handler Handler
}

// Bus dispatches events to the handlers registered for a topic.
// Handlers run synchronously on the publishing goroutine.
type Bus struct {
	mu     sync.RWMutex
	topics map[string][]registration
	nextID uint64
	logger *slog.Logger
}

// New creates an empty bus. A nil logger falls back to slog.Default().
func New(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		topics: make(map[string][]registration),
		logger: logger,
	}
}

// Subscribe registers handler for topic and returns a function removing
// exactly this registration. The returned function is idempotent.
// Subscribing the same handler twice creates two registrations.
func (b *Bus) Subscribe(topic string, handler Handler) (unsubscribe func()) {
	if handler == nil {
		return func() {}
	}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.topics[topic] = append(b.topics[topic], registration{id: id, handler: handler})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(topic, id) })
	}
}

func (b *Bus) remove(topic string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	regs := b.topics[topic]
	for i, r := range regs {
		if r.id == id {
			// Copy so snapshots held by in-progress publishes stay intact
			next := make([]registration, 0, len(regs)-1)
			next = append(next, regs[:i]...)
			next = append(next, regs[i+1:]...)
			if len(next) == 0 {
				delete(b.topics, topic)
			} else {
				b.topics[topic] = next
			}
			return
		}
	}
}

// Publish invokes every handler registered for topic at call time exactly
// once. A panicking handler is logged and does not stop the others.
func (b *Bus) Publish(topic string, payload any) {
	b.mu.RLock()
	regs := b.topics[topic]
	b.mu.RUnlock()

	for _, r := range regs {
		b.dispatch(topic, r, payload)
	}
}

func (b *Bus) dispatch(topic string, r registration, payload any) {
	defer func() {
		if rec := recover(); rec != nil {
			b.logger.Error("event handler panicked",
				"topic", topic,
				"subscription", r.id,
				"error", fmt.Sprint(rec))
		}
	}()
	r.handler(payload)
}

// Len returns the number of live registrations for topic.
func (b *Bus) Len(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic])
}
