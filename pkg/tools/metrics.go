package tools

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type callMetrics struct {
	calls    metric.Int64Counter
	duration metric.Float64Histogram
}

func newCallMetrics() *callMetrics {
	meter := otel.Meter("github.com/bturcanu/pipedrive-connector/pkg/tools")
	m := &callMetrics{}
	// Instrument creation only fails on invalid names; the no-op
	// instruments returned alongside the error are still safe to use.
	m.calls, _ = meter.Int64Counter("pipedrive.tool.calls",
		metric.WithDescription("Pipedrive tool invocations by outcome"))
	m.duration, _ = meter.Float64Histogram("pipedrive.tool.duration",
		metric.WithDescription("Pipedrive tool invocation latency"),
		metric.WithUnit("s"))
	return m
}

func (m *callMetrics) record(ctx context.Context, tool, status string, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("status", status),
	)
	m.calls.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
}
