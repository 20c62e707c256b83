package channel

import "sync"

// Latest is a current-value stream. It holds at most one pending value and a
// Send replaces whatever the receiver has not consumed yet, so a reader always
// gets the most recent state and Send never blocks.
type Latest[T any] struct {
	mu sync.Mutex
	ch chan T
}

// NewLatest creates an empty current-value stream.
func NewLatest[T any]() *Latest[T] {
	return &Latest[T]{ch: make(chan T, 1)}
}

// Send replaces the pending value.
func (l *Latest[T]) Send(v T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	select {
	case <-l.ch:
	default:
	}
	l.ch <- v
}

// Receive returns the receive-only channel.
func (l *Latest[T]) Receive() <-chan T {
	return l.ch
}

// Len is 1 while a value is pending.
func (l *Latest[T]) Len() int {
	return len(l.ch)
}

// Close closes the channel.
func (l *Latest[T]) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	close(l.ch)
}
