package reconcile

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/groupride/convoy/internal/channel"
	"github.com/groupride/convoy/internal/queue"
	"github.com/groupride/convoy/pkg/core"
)

// Poster schedules work on the UI loop.
type Poster interface {
	Post(fn func()) error
}

// Coordinator serializes reconciliation passes. A set submitted while a pass
// is running (from a surface callback) is queued and applied once the
// current pass completes.
type Coordinator struct {
	rec      *Reconciler
	pending  *queue.Queue[core.LocationSet]
	applying bool
	log      zerolog.Logger
}

// NewCoordinator wraps rec.
func NewCoordinator(rec *Reconciler, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		rec:     rec,
		pending: queue.New[core.LocationSet](),
		log:     logger.With().Str("component", "reconcile").Logger(),
	}
}

// Submit reconciles set. Call it from the UI loop only.
func (c *Coordinator) Submit(set core.LocationSet) {
	if c.applying {
		c.pending.Push(set)
		c.log.Debug().Int("pending", c.pending.Len()).Msg("pass in progress, queued location set")
		return
	}

	c.applying = true
	defer func() { c.applying = false }()

	c.apply(set)
	for {
		next, ok := c.pending.Pop()
		if !ok {
			return
		}
		c.apply(next)
	}
}

// Pending returns the number of queued sets.
func (c *Coordinator) Pending() int {
	return c.pending.Len()
}

func (c *Coordinator) apply(set core.LocationSet) {
	d := c.rec.Reconcile(set)
	c.log.Debug().
		Int("added", len(d.Added)).
		Int("updated", len(d.Updated)).
		Int("removed", len(d.Removed)).
		Int("displayed", c.rec.Len()).
		Msg("reconciled")
}

// Run posts every set received from updates onto loop until ctx ends or the
// stream closes. Sets already posted are applied even after Run returns.
func (c *Coordinator) Run(ctx context.Context, loop Poster, updates channel.Receiver[core.LocationSet]) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case set, ok := <-updates.Receive():
			if !ok {
				return nil
			}
			if err := loop.Post(func() { c.Submit(set) }); err != nil {
				return err
			}
		}
	}
}
