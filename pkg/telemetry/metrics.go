// pkg/telemetry/metrics.go
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Outcome labels for sync metrics.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// SyncMetrics counts sync requests and records their duration.
// A nil *SyncMetrics records nothing.
type SyncMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

// NewSyncMetrics registers the sync instruments on meter.
func NewSyncMetrics(meter metric.Meter) (*SyncMetrics, error) {
	requests, err := meter.Int64Counter("stretchsync.sync.requests",
		metric.WithDescription("Sync requests dispatched to the remote session"))
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("stretchsync.sync.duration_ms",
		metric.WithDescription("Sync request duration"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	return &SyncMetrics{requests: requests, duration: duration}, nil
}

// DefaultSyncMetrics uses the global meter provider, or returns nil when the
// instruments cannot be created.
func DefaultSyncMetrics() *SyncMetrics {
	m, err := NewSyncMetrics(otel.Meter(ServiceName))
	if err != nil {
		return nil
	}
	return m
}

// Record adds one request with its intent and outcome.
func (m *SyncMetrics) Record(ctx context.Context, intent, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("intent", intent),
		attribute.String("outcome", outcome),
	)
	m.requests.Add(ctx, 1, attrs)
	m.duration.Record(ctx, float64(elapsed.Microseconds())/1000.0, attrs)
}
