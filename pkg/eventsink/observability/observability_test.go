package observability_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/randalmurphal/eventsink/pkg/eventsink/observability"
)

func TestLoggingHelpersNilSafe(t *testing.T) {
	// Every helper must be a no-op with a nil logger.
	assert.NotPanics(t, func() {
		observability.LogEventInvalid(nil, "t", "rule", "reason")
		observability.LogSessionTimestampError(nil, "s1", errors.New("bad"), nil)
		observability.LogEventRecorded(nil, "t", 1)
		observability.LogBatchCreated(nil, "b1", 2, 100)
		observability.LogBatchOversize(nil, 1, 600000, 512000)
		observability.LogSubmitSuccess(nil, "b1", 2, 12.5)
		observability.LogSubmitRetained(nil, "b1", errors.New("http 500"))
		observability.LogSubmitDropped(nil, "b1", errors.New("http 400"))
		observability.LogStorageError(nil, "key", "set", errors.New("disk full"))
	})
}

func TestNoopImplementations(t *testing.T) {
	ctx := context.Background()

	var m observability.MetricsRecorder = observability.NoopMetrics{}
	assert.NotPanics(t, func() {
		m.RecordEvent(ctx, "t", true)
		m.RecordBatch(ctx, 3, 1500)
		m.RecordSubmission(ctx, observability.OutcomeDelivered, time.Millisecond)
	})

	var sm observability.SpanManager = observability.NoopSpanManager{}
	spanCtx, span := sm.StartSubmitSpan(ctx, "b1", 3)
	assert.Equal(t, ctx, spanCtx)
	assert.NotPanics(t, func() {
		sm.EndSpanWithError(span, errors.New("boom"))
		sm.EndSpanWithError(span, nil)
	})
}

func TestTimedOperation(t *testing.T) {
	done := observability.TimedOperation()
	time.Sleep(5 * time.Millisecond)
	assert.GreaterOrEqual(t, done(), float64(0))
}

func TestOtelMetricsRecorder(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m := observability.NewMetricsRecorder()
	ctx := context.Background()

	m.RecordEvent(ctx, "level_complete", true)
	m.RecordEvent(ctx, "level_complete", false)
	m.RecordBatch(ctx, 5, 2048)
	m.RecordSubmission(ctx, observability.OutcomeDelivered, 20*time.Millisecond)
	m.RecordSubmission(ctx, observability.OutcomeRetained, 5*time.Millisecond)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	names := map[string]bool{}
	for _, scope := range rm.ScopeMetrics {
		for _, met := range scope.Metrics {
			names[met.Name] = true
		}
	}
	assert.True(t, names["eventsink.events.recorded"])
	assert.True(t, names["eventsink.events.rejected"])
	assert.True(t, names["eventsink.batches.created"])
	assert.True(t, names["eventsink.batch.size_bytes"])
	assert.True(t, names["eventsink.submissions"])
	assert.True(t, names["eventsink.submission.latency_ms"])
}

func TestSpanManagerWithNoProvider(t *testing.T) {
	sm := observability.NewSpanManager()
	ctx, span := sm.StartSubmitSpan(context.Background(), "b1", 2)
	require.NotNil(t, ctx)
	assert.NotPanics(t, func() { sm.EndSpanWithError(span, nil) })
	assert.NotPanics(t, func() { sm.EndSpanWithError(nil, errors.New("boom")) })
}
