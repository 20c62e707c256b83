package channel

import "sync"

// Broadcast fans every published value out to all subscribers, in publish
// order. Publish blocks until each subscriber has room for the value.
type Broadcast[T any] struct {
	mu     sync.RWMutex
	subs   []Channel[T]
	size   int
	closed bool
}

// NewBroadcast creates a broadcast whose subscribers buffer up to size values.
func NewBroadcast[T any](size int) *Broadcast[T] {
	return &Broadcast[T]{size: size}
}

// Subscribe registers a new subscriber. Values published before the call are
// not delivered to it. Subscribing to a closed broadcast returns a closed stream.
func (b *Broadcast[T]) Subscribe() Receiver[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := New[T](b.size)
	if b.closed {
		ch.Close()
		return ch
	}
	b.subs = append(b.subs, ch)
	return ch
}

// Publish delivers v to every subscriber. It is a no-op after Close.
func (b *Broadcast[T]) Publish(v T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, s := range b.subs {
		s.Send(v)
	}
}

// Subscribers returns the number of registered subscribers.
func (b *Broadcast[T]) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close closes all subscriber streams.
func (b *Broadcast[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, s := range b.subs {
		s.Close()
	}
	b.subs = nil
}
