package gormstorage

import (
	"context"
	"testing"
	"time"

	"github.com/groupride/convoy/internal/database"
	"github.com/groupride/convoy/pkg/core"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	db, err := database.OpenSQLite("", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	// long interval so tests control flushing
	b := New(Dependencies{DB: db, FlushInterval: time.Hour, Logger: zerolog.Nop()})
	require.NoError(t, b.Init())
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func snap(minute int, locs ...core.Location) core.Snapshot {
	return core.Snapshot{
		RecordedAt: time.Date(2026, 6, 1, 9, minute, 0, 0, time.UTC),
		Device:     "dev-1",
		Locations:  core.NewLocationSet(locs...),
	}
}

func TestInit_RequiresDB(t *testing.T) {
	b := New(Dependencies{})
	assert.Error(t, b.Init())
	assert.NoError(t, b.Close())
}

func TestNew_DefaultFlushInterval(t *testing.T) {
	b := New(Dependencies{})
	assert.Equal(t, DefaultFlushInterval, b.deps.FlushInterval)
}

func TestRecordSnapshot_QueuesUntilFlush(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	require.NoError(t, b.RecordSnapshot(ctx, snap(1, core.Location{Identifier: "a", Latitude: 1, Longitude: 2})))
	assert.Equal(t, 1, b.Pending())

	var count int64
	require.NoError(t, b.DB().Model(&RideSnapshot{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	require.NoError(t, b.Flush(ctx))
	assert.Equal(t, 0, b.Pending())

	require.NoError(t, b.DB().Model(&RideSnapshot{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	require.NoError(t, b.DB().Model(&ParticipantPosition{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestFlush_StoresProjectedPosition(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	require.NoError(t, b.RecordSnapshot(ctx, snap(1, core.Location{Identifier: "a", Latitude: 0, Longitude: 0})))
	require.NoError(t, b.Flush(ctx))

	var pos ParticipantPosition
	require.NoError(t, b.DB().First(&pos).Error)
	assert.Equal(t, "a", pos.Participant)
	assert.InDelta(t, 0, pos.X, 1e-6)
	assert.InDelta(t, 0, pos.Y, 1e-6)
}

func TestSnapshots_RoundTripsLocations(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	ts := time.Date(2026, 6, 1, 8, 59, 0, 0, time.UTC)

	require.NoError(t, b.RecordSnapshot(ctx, snap(1,
		core.Location{Identifier: "a", Latitude: 47.1, Longitude: 8.2, Timestamp: &ts},
		core.Location{Identifier: "b", Latitude: 47.2, Longitude: 8.3},
	)))
	require.NoError(t, b.RecordSnapshot(ctx, snap(2)))

	got, err := b.Snapshots(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Empty(t, got[0].Locations)
	assert.Equal(t, core.DeviceIdentity("dev-1"), got[1].Device)
	require.Len(t, got[1].Locations, 2)
	assert.Equal(t, 47.1, got[1].Locations["a"].Latitude)
	require.NotNil(t, got[1].Locations["a"].Timestamp)
	assert.True(t, ts.Equal(*got[1].Locations["a"].Timestamp))
}

func TestTrail_OldestFirstAndFlushesQueue(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	require.NoError(t, b.RecordSnapshot(ctx, snap(1, core.Location{Identifier: "a", Latitude: 1, Longitude: 1})))
	require.NoError(t, b.RecordSnapshot(ctx, snap(2, core.Location{Identifier: "b", Latitude: 5, Longitude: 5})))
	require.NoError(t, b.RecordSnapshot(ctx, snap(3, core.Location{Identifier: "a", Latitude: 2, Longitude: 2})))

	trail, err := b.Trail(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []core.Coordinate{{Latitude: 1, Longitude: 1}, {Latitude: 2, Longitude: 2}}, trail)
	assert.Equal(t, 0, b.Pending())
}

func TestClose_FlushesPending(t *testing.T) {
	db, err := database.OpenSQLite("", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	b := New(Dependencies{DB: db, FlushInterval: time.Hour, Logger: zerolog.Nop()})
	require.NoError(t, b.Init())
	require.NoError(t, b.RecordSnapshot(context.Background(), snap(1, core.Location{Identifier: "a"})))
	require.NoError(t, b.Close())

	var count int64
	require.NoError(t, db.Model(&RideSnapshot{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// second close is a no-op
	assert.NoError(t, b.Close())
}

func TestWriter_FlushesOnInterval(t *testing.T) {
	db, err := database.OpenSQLite("", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	b := New(Dependencies{DB: db, FlushInterval: 10 * time.Millisecond, Logger: zerolog.Nop()})
	require.NoError(t, b.Init())
	t.Cleanup(func() { _ = b.Close() })

	require.NoError(t, b.RecordSnapshot(context.Background(), snap(1, core.Location{Identifier: "a"})))

	require.Eventually(t, func() bool {
		var count int64
		if err := db.Model(&RideSnapshot{}).Count(&count).Error; err != nil {
			return false
		}
		return count == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestFlush_RequeuesBatchOnFailure(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	require.NoError(t, b.RecordSnapshot(ctx, snap(1, core.Location{Identifier: "a", Latitude: 1, Longitude: 1})))

	require.NoError(t, b.DB().Exec("ALTER TABLE participant_positions RENAME TO participant_positions_away").Error)
	assert.Error(t, b.Flush(ctx))
	assert.Equal(t, 1, b.Pending())

	var count int64
	require.NoError(t, b.DB().Model(&RideSnapshot{}).Count(&count).Error)
	assert.Equal(t, int64(0), count, "failed batch must be rolled back")

	require.NoError(t, b.DB().Exec("ALTER TABLE participant_positions_away RENAME TO participant_positions").Error)
	require.NoError(t, b.Flush(ctx))
	assert.Equal(t, 0, b.Pending())

	require.NoError(t, b.DB().Model(&RideSnapshot{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	require.NoError(t, b.DB().Model(&ParticipantPosition{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	trail, err := b.Trail(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []core.Coordinate{{Latitude: 1, Longitude: 1}}, trail)
}
