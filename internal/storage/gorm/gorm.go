// Package gormstorage implements the ride log on top of GORM with an internal
// queue and a background DB writer goroutine. The sqlite and postgres
// packages wrap it with their connection handling.
package gormstorage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/groupride/convoy/internal/queue"
	"github.com/groupride/convoy/pkg/core"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// DefaultFlushInterval applies when Dependencies.FlushInterval is not positive.
const DefaultFlushInterval = 2 * time.Second

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB            *gorm.DB
	FlushInterval time.Duration
	Logger        zerolog.Logger
}

// Backend writes snapshots in batches from a queue.
type Backend struct {
	deps    Dependencies
	pending *queue.Queue[RideSnapshot]

	flushMu  sync.Mutex
	stopChan chan struct{}
	done     chan struct{}
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = DefaultFlushInterval
	}
	return &Backend{
		deps:    deps,
		pending: queue.New[RideSnapshot](),
	}
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init runs schema migration and starts the DB writer goroutine.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return errors.New("gormstorage: no database")
	}
	if err := b.deps.DB.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	b.stopChan = make(chan struct{})
	b.done = make(chan struct{})
	go b.writer()
	return nil
}

// Close stops the writer goroutine and writes anything still queued.
func (b *Backend) Close() error {
	if b.stopChan == nil {
		return nil
	}
	close(b.stopChan)
	<-b.done
	b.stopChan = nil
	return b.Flush(context.Background())
}

// RecordSnapshot converts s and pushes it to the write queue.
func (b *Backend) RecordSnapshot(_ context.Context, s core.Snapshot) error {
	b.pending.Push(toModel(s))
	return nil
}

// Pending reports how many snapshots wait for the next flush.
func (b *Backend) Pending() int {
	return b.pending.Len()
}

// Flush writes every queued snapshot in one transaction. On failure the
// transaction is rolled back and the batch goes back on the queue.
func (b *Backend) Flush(ctx context.Context) error {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	batch := b.pending.Drain()
	if len(batch) == 0 {
		return nil
	}
	err := b.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&batch).Error
	})
	if err != nil {
		resetKeys(batch)
		b.pending.Push(batch...)
		return fmt.Errorf("failed to insert %d snapshots: %w", len(batch), err)
	}
	return nil
}

// resetKeys clears keys Create assigned before the rollback so a retry
// inserts fresh rows.
func resetKeys(batch []RideSnapshot) {
	for i := range batch {
		batch[i].ID = 0
		for j := range batch[i].Positions {
			batch[i].Positions[j].ID = 0
			batch[i].Positions[j].SnapshotID = 0
		}
	}
}

func (b *Backend) writer() {
	defer close(b.done)

	ticker := time.NewTicker(b.deps.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			if err := b.Flush(context.Background()); err != nil {
				b.deps.Logger.Error().Err(err).Msg("Ride log flush failed")
			}
		}
	}
}

// Trail returns the recorded positions of id, oldest first. Queued
// snapshots are flushed first so the result includes them.
func (b *Backend) Trail(ctx context.Context, id string) ([]core.Coordinate, error) {
	if err := b.Flush(ctx); err != nil {
		return nil, err
	}

	var rows []ParticipantPosition
	err := b.deps.DB.WithContext(ctx).
		Where("participant = ?", id).
		Order("recorded_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query trail: %w", err)
	}

	out := make([]core.Coordinate, len(rows))
	for i, r := range rows {
		out[i] = core.Coordinate{Latitude: r.Latitude, Longitude: r.Longitude}
	}
	return out, nil
}

// Snapshots returns up to limit recorded snapshots, newest first.
func (b *Backend) Snapshots(ctx context.Context, limit int) ([]core.Snapshot, error) {
	if err := b.Flush(ctx); err != nil {
		return nil, err
	}

	var rows []RideSnapshot
	err := b.deps.DB.WithContext(ctx).
		Order("recorded_at desc, id desc").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}

	out := make([]core.Snapshot, len(rows))
	for i, r := range rows {
		out[i] = r.toCore()
	}
	return out, nil
}
