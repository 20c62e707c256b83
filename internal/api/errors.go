package api

import (
	"errors"
	"fmt"
)

var (
	// ErrNetworkUnavailable wraps transport failures: refused connections,
	// timeouts, DNS errors and NATS requests without responders.
	ErrNetworkUnavailable = errors.New("network unavailable")

	// ErrMalformedResponse is returned when the service reply cannot be
	// turned into a location set.
	ErrMalformedResponse = errors.New("malformed response")
)

// ServerError reports a non-success status from the location service.
type ServerError struct {
	Status int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server returned status %d", e.Status)
}

// Reason returns a short label for err, used as a metric attribute and log field.
func Reason(err error) string {
	var serverErr *ServerError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNetworkUnavailable):
		return "network"
	case errors.As(err, &serverErr):
		return "server"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	default:
		return "other"
	}
}
