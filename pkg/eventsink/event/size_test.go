package event_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/randalmurphal/eventsink/pkg/eventsink/event"
)

func TestSerializedSizeEmpty(t *testing.T) {
	assert.Zero(t, event.SerializedSize(nil))
	assert.Zero(t, event.SerializedSize([]event.Event{}))
}

func TestSerializedSizeMonotonic(t *testing.T) {
	var events []event.Event
	prev := 0
	for i := 0; i < 10; i++ {
		events = append(events, event.Event{
			Type:       fmt.Sprintf("event_%d", i),
			Timestamp:  "2026-08-31T12:00:00.000Z",
			Version:    event.SchemaVersion,
			Attributes: map[string]string{"payload": strings.Repeat("x", i*10)},
			Metrics:    map[string]float64{"i": float64(i)},
		})
		size := event.SerializedSize(events)
		assert.Greater(t, size, prev)
		prev = size
	}
}

func BenchmarkSerializedSize(b *testing.B) {
	events := make([]event.Event, 100)
	for i := range events {
		events[i] = event.Event{
			Type:       "bench_event",
			Timestamp:  "2026-08-31T12:00:00.000Z",
			Session:    event.Session{ID: "s1", StartTimestamp: "2026-08-31T11:00:00.000Z"},
			Version:    event.SchemaVersion,
			Attributes: map[string]string{"level": "3", "payload": strings.Repeat("x", 100)},
			Metrics:    map[string]float64{"score": 1200, "duration": 33.5},
		}
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		event.SerializedSize(events)
	}
}
