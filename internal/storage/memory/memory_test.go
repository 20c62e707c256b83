package memory

import (
	"context"
	"testing"
	"time"

	"github.com/groupride/convoy/internal/config"
	"github.com/groupride/convoy/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshotAt(minute int, locs ...core.Location) core.Snapshot {
	return core.Snapshot{
		RecordedAt: time.Date(2026, 6, 1, 9, minute, 0, 0, time.UTC),
		Device:     "dev",
		Locations:  core.NewLocationSet(locs...),
	}
}

func TestNew_DefaultLimit(t *testing.T) {
	b := New(config.MemoryConfig{})
	assert.Equal(t, DefaultMaxSnapshots, b.cfg.MaxSnapshots)
	require.NoError(t, b.Init())
	require.NoError(t, b.Close())
}

func TestRecordSnapshot_KeepsOrder(t *testing.T) {
	b := New(config.MemoryConfig{MaxSnapshots: 10})
	ctx := context.Background()

	require.NoError(t, b.RecordSnapshot(ctx, snapshotAt(1, core.Location{Identifier: "a"})))
	require.NoError(t, b.RecordSnapshot(ctx, snapshotAt(2, core.Location{Identifier: "b"})))

	snaps := b.Snapshots()
	require.Len(t, snaps, 2)
	assert.Equal(t, 1, snaps[0].RecordedAt.Minute())
	assert.Equal(t, 2, snaps[1].RecordedAt.Minute())
}

func TestRecordSnapshot_EvictsOldest(t *testing.T) {
	b := New(config.MemoryConfig{MaxSnapshots: 2})
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		require.NoError(t, b.RecordSnapshot(ctx, snapshotAt(i)))
	}

	snaps := b.Snapshots()
	require.Len(t, snaps, 2)
	assert.Equal(t, 2, snaps[0].RecordedAt.Minute())
	assert.Equal(t, 3, snaps[1].RecordedAt.Minute())
	assert.Equal(t, uint64(1), b.Evicted())
}

func TestRecordSnapshot_CopiesSet(t *testing.T) {
	b := New(config.MemoryConfig{MaxSnapshots: 2})
	set := core.NewLocationSet(core.Location{Identifier: "a", Latitude: 1})

	require.NoError(t, b.RecordSnapshot(context.Background(), core.Snapshot{Locations: set}))
	delete(set, "a")

	assert.Len(t, b.Snapshots()[0].Locations, 1)
}

func TestTrail(t *testing.T) {
	b := New(config.MemoryConfig{MaxSnapshots: 10})
	ctx := context.Background()

	require.NoError(t, b.RecordSnapshot(ctx, snapshotAt(1,
		core.Location{Identifier: "a", Latitude: 1, Longitude: 1},
		core.Location{Identifier: "b", Latitude: 9, Longitude: 9},
	)))
	require.NoError(t, b.RecordSnapshot(ctx, snapshotAt(2,
		core.Location{Identifier: "b", Latitude: 8, Longitude: 8},
	)))
	require.NoError(t, b.RecordSnapshot(ctx, snapshotAt(3,
		core.Location{Identifier: "a", Latitude: 2, Longitude: 2},
	)))

	trail, err := b.Trail(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []core.Coordinate{{Latitude: 1, Longitude: 1}, {Latitude: 2, Longitude: 2}}, trail)

	none, err := b.Trail(ctx, "zz")
	require.NoError(t, err)
	assert.Empty(t, none)
}
