//go:build debug

package channel

// New creates a subscriber stream.
// Debug builds ignore size and hand values over synchronously, which makes
// slow consumers show up as publisher stalls.
func New[T any](size int) Channel[T] {
	return NewUnbuffered[T]()
}
