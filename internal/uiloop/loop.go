// Package uiloop provides the single execution context that owns marker and
// visibility state. Every task posted to a Loop runs on one goroutine, in
// posting order.
package uiloop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrClosed is returned when work is submitted to a closed loop.
var ErrClosed = errors.New("ui loop closed")

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures a Loop.
type Option func(*config)

type config struct {
	bufferSize int
	name       string
	logged     bool
}

// Buffered sets the task queue size. Post blocks while the queue is full.
func Buffered(size int) Option {
	return func(c *config) {
		c.bufferSize = size
	}
}

// Named sets the loop name used in metrics and logs.
func Named(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// Logged adds debug logging around every task.
func Logged() Option {
	return func(c *config) {
		c.logged = true
	}
}

type task struct {
	fn   func()
	done chan struct{}
}

// Loop runs posted functions sequentially on a dedicated goroutine.
type Loop struct {
	logger Logger
	cfg    config
	tasks  chan task

	mu      sync.RWMutex
	closed  bool
	stopped chan struct{}

	// OTEL metrics
	queueSize metric.Int64ObservableGauge
	processed metric.Int64Counter
	panics    metric.Int64Counter
	nameAttr  attribute.KeyValue
}

// New creates and starts a loop.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(logger Logger, opts ...Option) (*Loop, error) {
	cfg := config{bufferSize: 64, name: "ui"}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.bufferSize < 1 {
		cfg.bufferSize = 1
	}

	l := &Loop{
		logger:   logger,
		cfg:      cfg,
		tasks:    make(chan task, cfg.bufferSize),
		stopped:  make(chan struct{}),
		nameAttr: attribute.String("loop", cfg.name),
	}

	m := meter()

	var err error

	l.queueSize, err = m.Int64ObservableGauge(
		"uiloop.queue.size",
		metric.WithDescription("Current number of tasks waiting in the loop"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating queue size gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			o.ObserveInt64(l.queueSize, int64(len(l.tasks)), metric.WithAttributes(l.nameAttr))
			return nil
		},
		l.queueSize,
	)
	if err != nil {
		return nil, fmt.Errorf("registering queue callback: %w", err)
	}

	l.processed, err = m.Int64Counter(
		"uiloop.tasks.processed",
		metric.WithDescription("Total tasks run by the loop"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}

	l.panics, err = m.Int64Counter(
		"uiloop.tasks.panicked",
		metric.WithDescription("Total tasks that panicked"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating panic counter: %w", err)
	}

	go l.run()
	return l, nil
}

// Post queues fn. It returns ErrClosed after Close.
func (l *Loop) Post(fn func()) error {
	return l.enqueue(task{fn: fn})
}

// Do runs fn on the loop and waits for it to finish or for ctx to end.
// It must not be called from a task running on the same loop.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	t := task{fn: fn, done: make(chan struct{})}
	if err := l.enqueue(t); err != nil {
		return err
	}
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting tasks and waits until the queued ones have run.
func (l *Loop) Close() {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		close(l.tasks)
	}
	l.mu.Unlock()
	<-l.stopped
}

func (l *Loop) enqueue(t task) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return ErrClosed
	}
	l.tasks <- t
	return nil
}

func (l *Loop) run() {
	defer close(l.stopped)
	for t := range l.tasks {
		l.exec(t)
		l.processed.Add(context.Background(), 1, metric.WithAttributes(l.nameAttr))
	}
	l.logger.Debug("ui loop drained", "loop", l.cfg.name)
}

func (l *Loop) exec(t task) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			l.panics.Add(context.Background(), 1, metric.WithAttributes(l.nameAttr))
			l.logger.Error("task panicked", "loop", l.cfg.name, "panic", r)
		}
		if t.done != nil {
			close(t.done)
		}
		if l.cfg.logged {
			l.logger.Debug("task complete", "loop", l.cfg.name, "duration", time.Since(start))
		}
	}()
	t.fn()
}
