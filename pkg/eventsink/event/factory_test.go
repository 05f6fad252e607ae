package event_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/eventsink/pkg/eventsink/event"
)

// recordingHandler captures slog records for assertions.
type recordingHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r)
	return nil
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(string) slog.Handler      { return h }

func (h *recordingHandler) count(level slog.Level) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, r := range h.records {
		if r.Level == level {
			n++
		}
	}
	return n
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestFactoryCreateStampsVersionAndTimestamp(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 30, 45, 123_000_000, time.UTC)
	f := event.NewFactory(event.WithClock(fixedClock(now)))

	e, err := f.Create("app_start", event.Session{ID: "s1", StartTimestamp: "2026-08-31T12:00:00.000Z"}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "app_start", e.Type)
	assert.Equal(t, event.SchemaVersion, e.Version)
	assert.Equal(t, "2026-08-31T12:30:45.123Z", e.Timestamp)
	assert.Equal(t, "s1", e.Session.ID)
	assert.NotNil(t, e.Attributes)
	assert.NotNil(t, e.Metrics)
}

func TestFactoryCreateCopiesCallerMaps(t *testing.T) {
	f := event.NewFactory()
	attrs := map[string]string{"level": "3"}
	mets := map[string]float64{"score": 10}

	e, err := f.Create("level_complete", event.Session{ID: "s1"}, attrs, mets)
	require.NoError(t, err)

	attrs["level"] = "changed"
	mets["score"] = 99

	assert.Equal(t, "3", e.Attributes["level"])
	assert.Equal(t, 10.0, e.Metrics["score"])
}

func TestFactoryGlobalsMergeWithoutOverwriting(t *testing.T) {
	f := event.NewFactory(
		event.WithGlobalAttributes(map[string]string{"build": "1.2.3", "level": "global"}),
		event.WithGlobalMetrics(map[string]float64{"fps": 60, "score": -1}),
	)

	e, err := f.Create("level_complete", event.Session{ID: "s1"},
		map[string]string{"level": "3"},
		map[string]float64{"score": 10})
	require.NoError(t, err)

	// Defaults fill gaps; call-site keys win.
	assert.Equal(t, "1.2.3", e.Attributes["build"])
	assert.Equal(t, "3", e.Attributes["level"])
	assert.Equal(t, 60.0, e.Metrics["fps"])
	assert.Equal(t, 10.0, e.Metrics["score"])
}

func TestFactorySetGlobalAfterConstruction(t *testing.T) {
	f := event.NewFactory()
	f.SetGlobalAttribute("build", "2.0.0")
	f.SetGlobalMetric("fps", 30)

	e, err := f.Create("app_start", event.Session{ID: "s1"}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "2.0.0", e.Attributes["build"])
	assert.Equal(t, 30.0, e.Metrics["fps"])

	// Accessors return copies.
	attrs := f.GlobalAttributes()
	attrs["build"] = "tampered"
	assert.Equal(t, "2.0.0", f.GlobalAttributes()["build"])
}

func TestFactoryDerivesSessionDuration(t *testing.T) {
	f := event.NewFactory()

	e, err := f.Create("session_stop", event.Session{
		ID:             "s1",
		StartTimestamp: "2026-08-31T12:00:00.000Z",
		StopTimestamp:  "2026-08-31T12:00:30.500Z",
	}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(30500), e.Session.Duration)
	assert.Equal(t, "2026-08-31T12:00:30.500Z", e.Session.StopTimestamp)
}

func TestFactoryNoDurationWithoutStop(t *testing.T) {
	f := event.NewFactory()

	e, err := f.Create("app_start", event.Session{
		ID:             "s1",
		StartTimestamp: "2026-08-31T12:00:00.000Z",
	}, nil, nil)
	require.NoError(t, err)

	assert.Zero(t, e.Session.Duration)
	assert.Empty(t, e.Session.StopTimestamp)
}

func TestFactoryUnparseableSessionTimestampsLogged(t *testing.T) {
	h := &recordingHandler{}
	f := event.NewFactory(event.WithLogger(slog.New(h)))

	e, err := f.Create("session_stop", event.Session{
		ID:             "s1",
		StartTimestamp: "not a timestamp",
		StopTimestamp:  "2026-08-31T12:00:30.000Z",
	}, nil, nil)
	require.NoError(t, err)

	// Event recorded anyway, just without a derived duration.
	assert.Zero(t, e.Session.Duration)
	assert.Equal(t, 1, h.count(slog.LevelWarn))
}

func TestFactoryValidationFailureLogsExactlyOneError(t *testing.T) {
	h := &recordingHandler{}
	f := event.NewFactory(event.WithLogger(slog.New(h)))

	e, err := f.Create("", event.Session{ID: "s1"}, nil, nil)
	assert.Nil(t, e)

	var verr *event.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, event.RuleEventType, verr.Rule)
	assert.Equal(t, 1, h.count(slog.LevelError))
}
