// internal/channel/unbuffered.go
package channel

// Unbuffered is a rendezvous stream: Send blocks until a receiver takes the value
type Unbuffered[T any] struct {
	ch chan T
}

// NewUnbuffered creates a new unbuffered stream
func NewUnbuffered[T any]() *Unbuffered[T] {
	return &Unbuffered[T]{ch: make(chan T)}
}

// Send hands a value to a receiver
func (u *Unbuffered[T]) Send(v T) {
	u.ch <- v
}

// Receive returns the receive-only channel
func (u *Unbuffered[T]) Receive() <-chan T {
	return u.ch
}

// Len is always 0
func (u *Unbuffered[T]) Len() int {
	return 0
}

// Close closes the channel
func (u *Unbuffered[T]) Close() {
	close(u.ch)
}
