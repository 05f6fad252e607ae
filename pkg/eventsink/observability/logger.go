// Package observability provides structured logging, metrics, and tracing
// helpers for eventsink.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in. Every logging helper is safe to call with a nil
// logger, and no-op implementations exist for metrics and tracing.
package observability

import (
	"log/slog"
	"time"
)

// LogEventInvalid logs a rejected event with the validation rule it violated.
func LogEventInvalid(logger *slog.Logger, eventType, rule, reason string) {
	if logger == nil {
		return
	}
	logger.Error("event rejected",
		slog.String("event_type", eventType),
		slog.String("rule", rule),
		slog.String("reason", reason),
	)
}

// LogSessionTimestampError logs a session whose timestamps could not be
// parsed; the event is still recorded, without a derived duration.
func LogSessionTimestampError(logger *slog.Logger, sessionID string, startErr, stopErr error) {
	if logger == nil {
		return
	}
	attrs := []any{slog.String("session_id", sessionID)}
	if startErr != nil {
		attrs = append(attrs, slog.String("start_error", startErr.Error()))
	}
	if stopErr != nil {
		attrs = append(attrs, slog.String("stop_error", stopErr.Error()))
	}
	logger.Warn("session duration not derived", attrs...)
}

// LogEventRecorded logs a durably queued event.
func LogEventRecorded(logger *slog.Logger, eventType string, queueDepth int) {
	if logger == nil {
		return
	}
	logger.Debug("event recorded",
		slog.String("event_type", eventType),
		slog.Int("queue_depth", queueDepth),
	)
}

// LogBatchCreated logs a batch cut from the queue head.
func LogBatchCreated(logger *slog.Logger, batchID string, eventCount, sizeBytes int) {
	if logger == nil {
		return
	}
	logger.Debug("batch created",
		slog.String("batch_id", batchID),
		slog.Int("event_count", eventCount),
		slog.Int("size_bytes", sizeBytes),
	)
}

// LogBatchOversize logs a batch candidate that exceeds the transport's hard
// payload cap. The events stay in the queue.
func LogBatchOversize(logger *slog.Logger, eventCount, sizeBytes, capBytes int) {
	if logger == nil {
		return
	}
	logger.Error("batch exceeds transport payload cap, events left in queue",
		slog.Int("event_count", eventCount),
		slog.Int("size_bytes", sizeBytes),
		slog.Int("cap_bytes", capBytes),
	)
}

// LogSubmitSuccess logs a delivered batch.
func LogSubmitSuccess(logger *slog.Logger, batchID string, eventCount int, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Info("batch delivered",
		slog.String("batch_id", batchID),
		slog.Int("event_count", eventCount),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogSubmitRetained logs a failed submission whose batch is kept for retry.
func LogSubmitRetained(logger *slog.Logger, batchID string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("batch submission failed, retained for retry",
		slog.String("batch_id", batchID),
		slog.String("error", err.Error()),
	)
}

// LogSubmitDropped logs a permanently failed batch that was cleared.
func LogSubmitDropped(logger *slog.Logger, batchID string, err error) {
	if logger == nil {
		return
	}
	logger.Error("batch submission failed permanently, batch cleared",
		slog.String("batch_id", batchID),
		slog.String("error", err.Error()),
	)
}

// LogStorageError logs a persistence failure (non-fatal).
func LogStorageError(logger *slog.Logger, key, op string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("storage operation failed",
		slog.String("key", key),
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
