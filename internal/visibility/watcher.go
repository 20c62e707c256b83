package visibility

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/groupride/convoy/internal/channel"
	"github.com/groupride/convoy/pkg/core"
)

// Applier shows a visibility on the surface. It is called on the UI loop.
type Applier interface {
	SetVisibility(v core.Visibility)
}

// Poster schedules work on the UI loop.
type Poster interface {
	Post(fn func()) error
}

// Watcher keeps the last known permission and theme and re-applies the gate
// whenever either one changes.
type Watcher struct {
	applier Applier
	loop    Poster
	log     zerolog.Logger

	mu         sync.Mutex
	permission core.PermissionState
	theme      core.ThemeMode
}

// NewWatcher creates a watcher starting from the given state.
func NewWatcher(p core.PermissionState, t core.ThemeMode, applier Applier, loop Poster, logger zerolog.Logger) *Watcher {
	return &Watcher{
		applier:    applier,
		loop:       loop,
		log:        logger.With().Str("component", "visibility").Logger(),
		permission: p,
		theme:      t,
	}
}

// Current returns the last known state and the visibility derived from it.
func (w *Watcher) Current() (core.PermissionState, core.ThemeMode, core.Visibility) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.permission, w.theme, Compute(w.permission, w.theme)
}

// Run applies the initial visibility and then one per event until ctx ends or
// both streams are closed.
func (w *Watcher) Run(ctx context.Context, permissions channel.Receiver[core.PermissionState], themes channel.Receiver[core.ThemeMode]) error {
	if err := w.apply(); err != nil {
		return err
	}

	permCh := permissions.Receive()
	themeCh := themes.Receive()
	for permCh != nil || themeCh != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case p, ok := <-permCh:
			if !ok {
				permCh = nil
				continue
			}
			w.mu.Lock()
			w.permission = p
			w.mu.Unlock()
			w.log.Debug().Str("permission", p.String()).Msg("permission changed")
		case t, ok := <-themeCh:
			if !ok {
				themeCh = nil
				continue
			}
			w.mu.Lock()
			w.theme = t
			w.mu.Unlock()
			w.log.Debug().Str("theme", t.String()).Msg("theme changed")
		}
		if err := w.apply(); err != nil {
			return err
		}
	}
	return nil
}

func (w *Watcher) apply() error {
	_, _, v := w.Current()
	return w.loop.Post(func() { w.applier.SetVisibility(v) })
}
