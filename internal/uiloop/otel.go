package uiloop

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/groupride/convoy/internal/uiloop"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
