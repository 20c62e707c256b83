// Package locsync drives the recurring report/fetch cycle against the
// location service and publishes every fresh LocationSet.
package locsync

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/groupride/convoy/internal/api"
	"github.com/groupride/convoy/pkg/core"
)

// ErrInvalidInterval is returned by Start for a non-positive interval.
var ErrInvalidInterval = errors.New("sync interval must be positive")

// Fetcher reports the device position and returns all participants.
type Fetcher interface {
	Sync(ctx context.Context, report core.Report) (core.LocationSet, error)
}

// PositionSource provides the device's current position, if any.
type PositionSource interface {
	Current() (core.Coordinate, bool)
}

// Publisher receives every accepted LocationSet.
type Publisher interface {
	Publish(set core.LocationSet)
}

// Config holds engine tuning.
type Config struct {
	// RequestTimeout bounds a single exchange. Zero means no engine-side bound.
	RequestTimeout time.Duration
}

// Dependencies are the collaborators of an Engine.
type Dependencies struct {
	Fetcher   Fetcher
	Position  PositionSource
	Publisher Publisher
	Identity  core.DeviceIdentity
	Clock     clockwork.Clock
	Logger    zerolog.Logger
}

// Engine owns the sync timer. Each tick is a cycle with its own sequence
// number; cycles may overlap, and a response is published only when it is
// newer than the last published one.
type Engine struct {
	cfg       Config
	fetcher   Fetcher
	position  PositionSource
	publisher Publisher
	identity  core.DeviceIdentity
	clock     clockwork.Clock
	log       zerolog.Logger
	metrics   *metrics

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	loop    sync.WaitGroup

	inflight sync.WaitGroup

	issued        atomic.Uint64
	pubMu         sync.Mutex
	lastPublished atomic.Uint64
}

// New creates an engine. Fetcher and Publisher are required.
func New(cfg Config, deps Dependencies) (*Engine, error) {
	if deps.Fetcher == nil {
		return nil, errors.New("locsync: fetcher is required")
	}
	if deps.Publisher == nil {
		return nil, errors.New("locsync: publisher is required")
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}

	m, err := newMetrics()
	if err != nil {
		return nil, err
	}

	return &Engine{
		cfg:       cfg,
		fetcher:   deps.Fetcher,
		position:  deps.Position,
		publisher: deps.Publisher,
		identity:  deps.Identity,
		clock:     deps.Clock,
		log:       deps.Logger.With().Str("component", "locsync").Logger(),
		metrics:   m,
	}, nil
}

// Start runs one cycle immediately and then one every interval. Calling Start
// on a running engine does nothing.
func (e *Engine) Start(interval time.Duration) error {
	if interval <= 0 {
		return ErrInvalidInterval
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return nil
	}

	ticker := e.clock.NewTicker(interval)
	stop := make(chan struct{})
	e.stop = stop
	e.running = true

	e.log.Info().Dur("interval", interval).Msg("sync engine started")
	e.issue()

	e.loop.Add(1)
	go func() {
		defer e.loop.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ticker.Chan():
				e.issue()
			case <-stop:
				return
			}
		}
	}()
	return nil
}

// Stop prevents future ticks. Cycles already in flight run to completion and
// may still publish. Stop on an engine that is not running is a no-op.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	close(e.stop)
	e.running = false
	e.mu.Unlock()

	e.loop.Wait()
	e.log.Info().Msg("sync engine stopped")
}

// Wait blocks until every issued cycle has finished. Call it after Stop.
func (e *Engine) Wait() {
	e.inflight.Wait()
}

// Running reports whether the timer is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// LastPublished returns the sequence number of the last published set.
func (e *Engine) LastPublished() uint64 {
	return e.lastPublished.Load()
}

func (e *Engine) issue() {
	seq := e.issued.Add(1)

	e.metrics.cycles.Add(context.Background(), 1)
	e.inflight.Add(1)
	go e.cycle(seq)
}

func (e *Engine) cycle(seq uint64) {
	defer e.inflight.Done()

	report := core.Report{Device: e.identity}
	if e.position != nil {
		if pos, ok := e.position.Current(); ok {
			report.Position = &pos
		}
	}

	ctx := context.Background()
	if e.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.RequestTimeout)
		defer cancel()
	}

	start := e.clock.Now()
	set, err := e.fetcher.Sync(ctx, report)
	e.metrics.roundTrip.Record(context.Background(), e.clock.Since(start).Seconds())

	if err != nil {
		reason := api.Reason(err)
		e.metrics.failures.Add(context.Background(), 1,
			metric.WithAttributes(attribute.String("reason", reason)))
		e.log.Warn().Err(err).Uint64("seq", seq).Str("reason", reason).Msg("sync cycle failed")
		return
	}

	if !e.publish(seq, set) {
		e.metrics.stale.Add(context.Background(), 1)
		e.log.Debug().Uint64("seq", seq).Msg("discarding stale response")
		return
	}
	e.log.Debug().
		Uint64("seq", seq).
		Int("locations", len(set)).
		Bool("position", report.Position != nil).
		Msg("locations published")
}

// publish hands set to the publisher unless a newer response already went out.
// The lock is held across Publish so subscribers see sets in sequence order.
func (e *Engine) publish(seq uint64, set core.LocationSet) bool {
	e.pubMu.Lock()
	defer e.pubMu.Unlock()
	if seq <= e.lastPublished.Load() {
		return false
	}
	e.lastPublished.Store(seq)
	e.publisher.Publish(set)
	return true
}
