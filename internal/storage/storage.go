// Package storage records published location sets to an optional ride log.
// The log is write-only from the sync path: nothing read back from it ever
// feeds the reconciler.
package storage

import (
	"context"
	"errors"

	"github.com/groupride/convoy/pkg/core"
)

// ErrUnknownType is returned by NewBackend for an unsupported storage type.
var ErrUnknownType = errors.New("unknown storage type")

// Backend is the interface all ride log implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	RecordSnapshot(ctx context.Context, s core.Snapshot) error
}

// TrailReader is implemented by backends that can replay one participant's
// recorded positions, oldest first.
type TrailReader interface {
	Trail(ctx context.Context, id string) ([]core.Coordinate, error)
}

// Nop discards every snapshot. It backs storage type "none".
type Nop struct{}

func (Nop) Init() error  { return nil }
func (Nop) Close() error { return nil }

func (Nop) RecordSnapshot(context.Context, core.Snapshot) error { return nil }
