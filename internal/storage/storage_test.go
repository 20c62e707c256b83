package storage_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/groupride/convoy/internal/channel"
	"github.com/groupride/convoy/internal/config"
	"github.com/groupride/convoy/internal/storage"
	"github.com/groupride/convoy/internal/storage/influx"
	"github.com/groupride/convoy/internal/storage/memory"
	"github.com/groupride/convoy/internal/storage/postgres"
	sqlitestorage "github.com/groupride/convoy/internal/storage/sqlite"
	"github.com/groupride/convoy/pkg/core"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time interface checks
var (
	_ storage.Backend     = storage.Nop{}
	_ storage.Backend     = (*memory.Backend)(nil)
	_ storage.Backend     = (*sqlitestorage.Backend)(nil)
	_ storage.Backend     = (*postgres.Backend)(nil)
	_ storage.Backend     = (*influx.Backend)(nil)
	_ storage.TrailReader = (*memory.Backend)(nil)
	_ storage.TrailReader = (*sqlitestorage.Backend)(nil)
	_ storage.TrailReader = (*postgres.Backend)(nil)
)

func TestNewBackend(t *testing.T) {
	tests := []struct {
		typ  string
		want any
	}{
		{"", storage.Nop{}},
		{"none", storage.Nop{}},
		{"memory", &memory.Backend{}},
		{"sqlite", &sqlitestorage.Backend{}},
		{"postgres", &postgres.Backend{}},
		{"influx", &influx.Backend{}},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			b, err := storage.NewBackend(config.StorageConfig{Type: tt.typ}, zerolog.Nop())
			require.NoError(t, err)
			assert.IsType(t, tt.want, b)
			if s, ok := b.(*sqlitestorage.Backend); ok {
				require.NoError(t, s.Close())
			}
		})
	}
}

func TestNewBackend_Unknown(t *testing.T) {
	_, err := storage.NewBackend(config.StorageConfig{Type: "mongo"}, zerolog.Nop())
	assert.ErrorIs(t, err, storage.ErrUnknownType)
}

type failingBackend struct{ storage.Nop }

func (failingBackend) RecordSnapshot(context.Context, core.Snapshot) error {
	return errors.New("disk full")
}

func TestNewRecorder_NilBackend(t *testing.T) {
	_, err := storage.NewRecorder(nil, "dev", nil, zerolog.Nop())
	assert.Error(t, err)
}

func TestRecorder_Record(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC))
	mem := memory.New(config.MemoryConfig{MaxSnapshots: 5})

	rec, err := storage.NewRecorder(mem, "dev-1", clock, zerolog.Nop())
	require.NoError(t, err)

	set := core.NewLocationSet(core.Location{Identifier: "a", Latitude: 1, Longitude: 2})
	require.NoError(t, rec.Record(context.Background(), set))

	snaps := mem.Snapshots()
	require.Len(t, snaps, 1)
	assert.Equal(t, clock.Now(), snaps[0].RecordedAt)
	assert.Equal(t, core.DeviceIdentity("dev-1"), snaps[0].Device)
	assert.Equal(t, set, snaps[0].Locations)
}

func TestRecorder_RecordError(t *testing.T) {
	rec, err := storage.NewRecorder(failingBackend{}, "dev", nil, zerolog.Nop())
	require.NoError(t, err)

	err = rec.Record(context.Background(), core.NewLocationSet())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestRecorder_RunRecordsStreamUntilClosed(t *testing.T) {
	mem := memory.New(config.MemoryConfig{MaxSnapshots: 5})
	rec, err := storage.NewRecorder(mem, "dev", clockwork.NewFakeClock(), zerolog.Nop())
	require.NoError(t, err)

	updates := channel.NewBuffered[core.LocationSet](4)
	updates.Send(core.NewLocationSet(core.Location{Identifier: "a"}))
	updates.Send(core.NewLocationSet(core.Location{Identifier: "b"}))
	updates.Close()

	require.NoError(t, rec.Run(context.Background(), updates))

	snaps := mem.Snapshots()
	require.Len(t, snaps, 2)
	assert.Contains(t, snaps[0].Locations, "a")
	assert.Contains(t, snaps[1].Locations, "b")
}

func TestRecorder_RunKeepsGoingOnFailure(t *testing.T) {
	rec, err := storage.NewRecorder(failingBackend{}, "dev", nil, zerolog.Nop())
	require.NoError(t, err)

	updates := channel.NewBuffered[core.LocationSet](2)
	updates.Send(core.NewLocationSet())
	updates.Send(core.NewLocationSet())
	updates.Close()

	assert.NoError(t, rec.Run(context.Background(), updates))
}

func TestRecorder_RunStopsOnContext(t *testing.T) {
	rec, err := storage.NewRecorder(storage.Nop{}, "dev", nil, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = rec.Run(ctx, channel.NewBuffered[core.LocationSet](1))
	assert.ErrorIs(t, err, context.Canceled)
}
