package redlist

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/aura-studio/redlist"

// instruments records per-command metrics:
//   - redlist.command.duration (Float64Histogram, seconds)
//   - redlist.command.errors (Int64Counter)
//
// both with the attribute "command".
type instruments struct {
	duration metric.Float64Histogram
	errors   metric.Int64Counter
}

func newInstruments(meter metric.Meter) *instruments {
	if meter == nil {
		meter = otel.Meter(meterName)
	}
	// On error the API hands back noop instruments.
	duration, _ := meter.Float64Histogram(
		"redlist.command.duration",
		metric.WithDescription("Duration of Redis commands in seconds"),
		metric.WithUnit("s"),
	)
	errs, _ := meter.Int64Counter(
		"redlist.command.errors",
		metric.WithDescription("Total number of failed Redis commands"),
		metric.WithUnit("{error}"),
	)
	return &instruments{duration: duration, errors: errs}
}

func (m *instruments) record(ctx context.Context, command string, start time.Time, err error) {
	attrs := metric.WithAttributes(attribute.String("command", command))
	m.duration.Record(ctx, time.Since(start).Seconds(), attrs)
	if err != nil {
		m.errors.Add(ctx, 1, attrs)
	}
}
