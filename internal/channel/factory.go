//go:build !debug

package channel

// New creates a subscriber stream with the given buffer size.
// Production builds queue up to size values per subscriber.
func New[T any](size int) Channel[T] {
	return NewBuffered[T](size)
}
