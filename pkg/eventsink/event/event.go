// Package event defines the analytics event record, its validation rules,
// and the factory that builds well-formed events from caller input.
package event

import "time"

// SchemaVersion is the event schema version accepted by the ingestion service.
const SchemaVersion = "v2.0"

// TimestampFormat is the ISO-8601 layout used for event timestamps.
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// Event is a single recorded occurrence. Events are immutable once
// validated; the queue owns them until they move into a batch.
type Event struct {
	Type       string             `json:"eventType"`
	Timestamp  string             `json:"timestamp"`
	Session    Session            `json:"session"`
	Version    string             `json:"version"`
	Attributes map[string]string  `json:"attributes"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Session identifies the app session an event belongs to.
// Duration is derived in milliseconds when StopTimestamp is present.
type Session struct {
	ID             string `json:"id"`
	StartTimestamp string `json:"startTimestamp"`
	StopTimestamp  string `json:"stopTimestamp,omitempty"`
	Duration       int64  `json:"duration,omitempty"`
}

// parseTimestamp parses a session timestamp, accepting the formats callers
// commonly produce.
func parseTimestamp(s string) (time.Time, error) {
	var firstErr error
	for _, layout := range []string{TimestampFormat, time.RFC3339Nano, time.RFC3339} {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}
