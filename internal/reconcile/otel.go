package reconcile

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/groupride/convoy/internal/reconcile"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

type metrics struct {
	added     metric.Int64Counter
	updated   metric.Int64Counter
	removed   metric.Int64Counter
	displayed metric.Int64ObservableGauge

	// mirrored from the UI loop for the gauge callback
	count atomic.Int64
}

func newMetrics() (*metrics, error) {
	m := meter()
	out := &metrics{}

	var err error

	out.added, err = m.Int64Counter(
		"reconcile.markers.added",
		metric.WithDescription("Markers created for new participants"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating added counter: %w", err)
	}

	out.updated, err = m.Int64Counter(
		"reconcile.markers.updated",
		metric.WithDescription("Markers moved in place"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating updated counter: %w", err)
	}

	out.removed, err = m.Int64Counter(
		"reconcile.markers.removed",
		metric.WithDescription("Markers removed for departed participants"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating removed counter: %w", err)
	}

	out.displayed, err = m.Int64ObservableGauge(
		"reconcile.markers.displayed",
		metric.WithDescription("Markers currently displayed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating displayed gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			o.ObserveInt64(out.displayed, out.count.Load())
			return nil
		},
		out.displayed,
	)
	if err != nil {
		return nil, fmt.Errorf("registering displayed callback: %w", err)
	}

	return out, nil
}

func (m *metrics) record(d Delta, displayed int) {
	ctx := context.Background()
	if n := len(d.Added); n > 0 {
		m.added.Add(ctx, int64(n))
	}
	if n := len(d.Updated); n > 0 {
		m.updated.Add(ctx, int64(n))
	}
	if n := len(d.Removed); n > 0 {
		m.removed.Add(ctx, int64(n))
	}
	m.count.Store(int64(displayed))
}
