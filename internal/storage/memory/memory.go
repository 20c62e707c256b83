// Package memory keeps the most recent ride log snapshots in process memory.
package memory

import (
	"context"

	"github.com/groupride/convoy/internal/config"
	"github.com/groupride/convoy/internal/queue"
	"github.com/groupride/convoy/pkg/core"
)

// DefaultMaxSnapshots applies when the configured limit is not positive.
const DefaultMaxSnapshots = 100

// Backend stores a bounded window of snapshots. When full, the oldest
// snapshot is evicted.
type Backend struct {
	cfg       config.MemoryConfig
	snapshots *queue.Queue[core.Snapshot]
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	if cfg.MaxSnapshots <= 0 {
		cfg.MaxSnapshots = DefaultMaxSnapshots
	}
	return &Backend{
		cfg:       cfg,
		snapshots: queue.NewBounded[core.Snapshot](cfg.MaxSnapshots),
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// RecordSnapshot stores a copy of s.
func (b *Backend) RecordSnapshot(_ context.Context, s core.Snapshot) error {
	s.Locations = s.Locations.Clone()
	b.snapshots.Push(s)
	return nil
}

// Snapshots returns the retained snapshots, oldest first.
func (b *Backend) Snapshots() []core.Snapshot {
	return b.snapshots.Snapshot()
}

// Evicted reports how many snapshots were dropped to honour the limit.
func (b *Backend) Evicted() uint64 {
	return b.snapshots.Dropped()
}

// Trail returns the positions recorded for id across the retained window.
// Consecutive identical positions are kept; callers that draw lines
// collapse them.
func (b *Backend) Trail(_ context.Context, id string) ([]core.Coordinate, error) {
	var out []core.Coordinate
	for _, s := range b.snapshots.Snapshot() {
		if loc, ok := s.Locations[id]; ok {
			out = append(out, loc.Coordinate())
		}
	}
	return out, nil
}
