package storage

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/groupride/convoy/internal/storage"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

type metrics struct {
	recorded metric.Int64Counter
	failed   metric.Int64Counter
}

func newMetrics() (*metrics, error) {
	m := meter()

	recorded, err := m.Int64Counter(
		"storage.snapshots.recorded",
		metric.WithDescription("Location sets written to the ride log"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating recorded counter: %w", err)
	}

	failed, err := m.Int64Counter(
		"storage.snapshots.failed",
		metric.WithDescription("Location sets the ride log backend rejected"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failed counter: %w", err)
	}

	return &metrics{recorded: recorded, failed: failed}, nil
}
