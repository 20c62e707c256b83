// Package channel provides generic channel types used as explicit, typed
// event streams between components.
package channel

// Receiver provides read access to a stream.
type Receiver[T any] interface {
	Receive() <-chan T
	Len() int
}

// Sender provides write access to a stream.
type Sender[T any] interface {
	Send(T)
}

// Channel combines read and write access.
type Channel[T any] interface {
	Receiver[T]
	Sender[T]
	Close()
}
