package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/groupride/convoy/internal/channel"
	"github.com/groupride/convoy/pkg/core"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// Recorder subscribes to the published LocationSet stream and writes every
// set to a Backend. Backend failures are logged and counted; they never stop
// the stream.
type Recorder struct {
	backend Backend
	device  core.DeviceIdentity
	clock   clockwork.Clock
	logger  zerolog.Logger
	metrics *metrics
}

// NewRecorder creates a recorder for backend. A nil clock means the real clock.
func NewRecorder(backend Backend, device core.DeviceIdentity, clock clockwork.Clock, logger zerolog.Logger) (*Recorder, error) {
	if backend == nil {
		return nil, errors.New("storage: nil backend")
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	m, err := newMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to create recorder metrics: %w", err)
	}

	return &Recorder{
		backend: backend,
		device:  device,
		clock:   clock,
		logger:  logger.With().Str("component", "recorder").Logger(),
		metrics: m,
	}, nil
}

// Record writes one set.
func (r *Recorder) Record(ctx context.Context, set core.LocationSet) error {
	snap := core.Snapshot{
		RecordedAt: r.clock.Now().UTC(),
		Device:     r.device,
		Locations:  set,
	}
	if err := r.backend.RecordSnapshot(ctx, snap); err != nil {
		r.metrics.failed.Add(ctx, 1)
		return fmt.Errorf("recording snapshot: %w", err)
	}
	r.metrics.recorded.Add(ctx, 1)
	return nil
}

// Run records every set received until updates closes or ctx is done.
func (r *Recorder) Run(ctx context.Context, updates channel.Receiver[core.LocationSet]) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case set, ok := <-updates.Receive():
			if !ok {
				return nil
			}
			if err := r.Record(ctx, set); err != nil {
				r.logger.Error().Err(err).Int("participants", len(set)).Msg("Ride log write failed")
			}
		}
	}
}
