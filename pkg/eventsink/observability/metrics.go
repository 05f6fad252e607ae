package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Submission outcomes recorded on the submissions counter.
const (
	OutcomeDelivered = "delivered"
	OutcomeRetained  = "retained"
	OutcomeDropped   = "dropped"
)

// MetricsRecorder records eventsink metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordEvent records a recorded or rejected event.
	RecordEvent(ctx context.Context, eventType string, accepted bool)

	// RecordBatch records a batch cut from the queue.
	RecordBatch(ctx context.Context, eventCount int, sizeBytes int64)

	// RecordSubmission records a completed batch submission and its outcome.
	RecordSubmission(ctx context.Context, outcome string, duration time.Duration)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	eventsRecorded metric.Int64Counter
	eventsRejected metric.Int64Counter
	batchesCreated metric.Int64Counter
	batchSize      metric.Int64Histogram
	submissions    metric.Int64Counter
	submitLatency  metric.Float64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("eventsink")

	eventsRecorded, err := meter.Int64Counter("eventsink.events.recorded",
		metric.WithDescription("Number of events durably queued"),
	)
	if err != nil {
		return nil, err
	}

	eventsRejected, err := meter.Int64Counter("eventsink.events.rejected",
		metric.WithDescription("Number of events rejected by validation"),
	)
	if err != nil {
		return nil, err
	}

	batchesCreated, err := meter.Int64Counter("eventsink.batches.created",
		metric.WithDescription("Number of batches cut from the event queue"),
	)
	if err != nil {
		return nil, err
	}

	batchSize, err := meter.Int64Histogram("eventsink.batch.size_bytes",
		metric.WithDescription("Serialized batch size in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	submissions, err := meter.Int64Counter("eventsink.submissions",
		metric.WithDescription("Number of completed batch submissions by outcome"),
	)
	if err != nil {
		return nil, err
	}

	submitLatency, err := meter.Float64Histogram("eventsink.submission.latency_ms",
		metric.WithDescription("Batch submission latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		eventsRecorded: eventsRecorded,
		eventsRejected: eventsRejected,
		batchesCreated: batchesCreated,
		batchSize:      batchSize,
		submissions:    submissions,
		submitLatency:  submitLatency,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordEvent records a recorded or rejected event.
func (m *otelMetrics) RecordEvent(ctx context.Context, eventType string, accepted bool) {
	attrs := []attribute.KeyValue{
		attribute.String("event_type", eventType),
	}
	if accepted {
		m.eventsRecorded.Add(ctx, 1, metric.WithAttributes(attrs...))
	} else {
		m.eventsRejected.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordBatch records a batch cut from the queue.
func (m *otelMetrics) RecordBatch(ctx context.Context, eventCount int, sizeBytes int64) {
	m.batchesCreated.Add(ctx, 1)
	m.batchSize.Record(ctx, sizeBytes,
		metric.WithAttributes(attribute.Int("event_count", eventCount)))
}

// RecordSubmission records a completed batch submission.
func (m *otelMetrics) RecordSubmission(ctx context.Context, outcome string, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("outcome", outcome),
	}
	m.submissions.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.submitLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}
