package api

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/groupride/convoy/pkg/core"
)

// StatusHeader carries an HTTP-style status code on error replies.
const StatusHeader = "Convoy-Status"

// Requester is the part of *nats.Conn used by NATSClient.
type Requester interface {
	RequestWithContext(ctx context.Context, subj string, data []byte) (*nats.Msg, error)
}

// NATSClient performs the sync exchange as request/reply on "{prefix}.sync".
type NATSClient struct {
	conn    Requester
	subject string
	timeout time.Duration
}

// NewNATSClient wraps an established connection.
func NewNATSClient(conn Requester, prefix string, timeout time.Duration) *NATSClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &NATSClient{
		conn:    conn,
		subject: prefix + ".sync",
		timeout: timeout,
	}
}

// Subject returns the request subject.
func (c *NATSClient) Subject() string {
	return c.subject
}

// Sync sends the report and waits for a reply bounded by the client timeout.
func (c *NATSClient) Sync(ctx context.Context, report core.Report) (core.LocationSet, error) {
	body, err := encodeReport(report)
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	msg, err := c.conn.RequestWithContext(ctx, c.subject, body)
	if err != nil {
		if errors.Is(err, nats.ErrNoResponders) || errors.Is(err, nats.ErrTimeout) ||
			errors.Is(err, context.DeadlineExceeded) || errors.Is(err, nats.ErrConnectionClosed) {
			return nil, fmt.Errorf("sync request on %s failed: %w: %v", c.subject, ErrNetworkUnavailable, err)
		}
		return nil, fmt.Errorf("sync request on %s failed: %w", c.subject, err)
	}

	if msg.Header != nil {
		if raw := msg.Header.Get(StatusHeader); raw != "" {
			status, convErr := strconv.Atoi(raw)
			if convErr != nil {
				return nil, fmt.Errorf("%w: bad status header %q", ErrMalformedResponse, raw)
			}
			if status < 200 || status > 299 {
				return nil, fmt.Errorf("sync: %w", &ServerError{Status: status})
			}
		}
	}
	return decodeLocations(msg.Data)
}

// Connect dials NATS with reconnect handling suited for a long-running client.
func Connect(url string, opts ...nats.Option) (*nats.Conn, error) {
	base := []nats.Option{
		nats.Name("convoy"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
	}
	nc, err := nats.Connect(url, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return nc, nil
}
