package locsync

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/groupride/convoy/internal/locsync"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

type metrics struct {
	cycles    metric.Int64Counter
	failures  metric.Int64Counter
	stale     metric.Int64Counter
	roundTrip metric.Float64Histogram
}

func newMetrics() (*metrics, error) {
	m := meter()
	var (
		out metrics
		err error
	)

	out.cycles, err = m.Int64Counter(
		"locsync.cycles",
		metric.WithDescription("Sync cycles issued"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating cycles counter: %w", err)
	}

	out.failures, err = m.Int64Counter(
		"locsync.failures",
		metric.WithDescription("Sync cycles abandoned because of an error"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failures counter: %w", err)
	}

	out.stale, err = m.Int64Counter(
		"locsync.stale_discarded",
		metric.WithDescription("Responses discarded because a newer one was already published"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stale counter: %w", err)
	}

	out.roundTrip, err = m.Float64Histogram(
		"locsync.round_trip",
		metric.WithDescription("Duration of the report/fetch exchange"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating round trip histogram: %w", err)
	}

	return &out, nil
}
