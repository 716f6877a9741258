package events

import (
	"context"
	"sync"
)

type memoryBus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]Handler
}

// NewMemoryBus creates an in-process bus. Delivery is asynchronous and
// best-effort, mirroring what subscribers get from a real broker.
func NewMemoryBus() Bus {
	return &memoryBus{subs: make(map[string]map[int]Handler)}
}

func (b *memoryBus) Publish(ctx context.Context, topic string, e Event) error {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[topic]))
	for _, h := range b.subs[topic] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		go h(ctx, e)
	}
	return nil
}

func (b *memoryBus) Subscribe(topic string, h Handler) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]Handler)
	}
	id := b.nextID
	b.nextID++
	b.subs[topic][id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[topic], id)
	}, nil
}
