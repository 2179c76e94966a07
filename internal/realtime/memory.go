package realtime

import (
	"context"
	"errors"
	"slices"
	"sync"
)

var ErrBrokerClosed = errors.New("broker closed")

// MemoryBroker delivers events to in-process subscribers synchronously.
type MemoryBroker struct {
	mu     sync.RWMutex
	nextID uint64
	topics map[string]map[uint64]func(Event)
	closed bool
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{topics: make(map[string]map[uint64]func(Event))}
}

func (b *MemoryBroker) Publish(_ context.Context, topic string, event Event) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrBrokerClosed
	}
	subs := b.topics[topic]
	ids := make([]uint64, 0, len(subs))
	for id := range subs {
		ids = append(ids, id)
	}
	handlers := make([]func(Event), 0, len(subs))
	slices.Sort(ids)
	for _, id := range ids {
		handlers = append(handlers, subs[id])
	}
	b.mu.RUnlock()

	// Handlers run outside the lock so they may unsubscribe themselves.
	for _, h := range handlers {
		h(event)
	}
	return nil
}

func (b *MemoryBroker) Subscribe(topic string, handler func(Event)) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBrokerClosed
	}
	b.nextID++
	id := b.nextID
	if b.topics[topic] == nil {
		b.topics[topic] = make(map[uint64]func(Event))
	}
	b.topics[topic][id] = handler

	return &memorySubscription{broker: b, topic: topic, id: id}, nil
}

func (b *MemoryBroker) remove(topic string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.topics[topic], id)
	if len(b.topics[topic]) == 0 {
		delete(b.topics, topic)
	}
}

// Subscribers reports how many handlers are attached to topic.
func (b *MemoryBroker) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic])
}

func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	b.topics = make(map[string]map[uint64]func(Event))
	return nil
}

type memorySubscription struct {
	broker *MemoryBroker
	topic  string
	id     uint64
	once   sync.Once
}

func (s *memorySubscription) Unsubscribe() {
	s.once.Do(func() { s.broker.remove(s.topic, s.id) })
}
