package event

import (
	"log/slog"
	"sync"
	"time"

	"github.com/randalmurphal/eventsink/pkg/eventsink/observability"
)

// Factory builds validated events from caller-supplied fields, a session,
// and process-wide default attributes and metrics.
//
// Defaults merge into every created event without overwriting call-site
// values: a key supplied at the call site always wins.
type Factory struct {
	mu         sync.Mutex
	logger     *slog.Logger
	attributes map[string]string
	metrics    map[string]float64
	now        func() time.Time
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithLogger sets the logger used for validation failures.
// A nil logger (the default) disables logging.
func WithLogger(logger *slog.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithGlobalAttributes sets default attributes merged into every event.
func WithGlobalAttributes(attributes map[string]string) FactoryOption {
	return func(f *Factory) {
		for name, value := range attributes {
			f.attributes[name] = value
		}
	}
}

// WithGlobalMetrics sets default metrics merged into every event.
func WithGlobalMetrics(metrics map[string]float64) FactoryOption {
	return func(f *Factory) {
		for name, value := range metrics {
			f.metrics[name] = value
		}
	}
}

// WithClock overrides the time source. Useful for testing.
func WithClock(now func() time.Time) FactoryOption {
	return func(f *Factory) {
		if now != nil {
			f.now = now
		}
	}
}

// NewFactory creates an event factory.
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{
		attributes: make(map[string]string),
		metrics:    make(map[string]float64),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// SetGlobalAttribute sets a default attribute, overwriting any existing default.
func (f *Factory) SetGlobalAttribute(name, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attributes[name] = value
}

// SetGlobalMetric sets a default metric, overwriting any existing default.
func (f *Factory) SetGlobalMetric(name string, value float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.metrics[name] = value
}

// GlobalAttributes returns a copy of the current default attributes.
func (f *Factory) GlobalAttributes() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(map[string]string, len(f.attributes))
	for name, value := range f.attributes {
		out[name] = value
	}
	return out
}

// GlobalMetrics returns a copy of the current default metrics.
func (f *Factory) GlobalMetrics() map[string]float64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(map[string]float64, len(f.metrics))
	for name, value := range f.metrics {
		out[name] = value
	}
	return out
}

// Create builds and validates an event. The returned event is immutable.
//
// Missing attribute and metric maps default to empty. Default attributes
// and metrics are merged in without overwriting call-site keys. The session
// id and start are copied; when the session carries a stop timestamp the
// duration is derived from stop minus start in milliseconds.
//
// On validation failure the violated rule is logged at error level and a
// *ValidationError is returned with a nil event.
func (f *Factory) Create(eventType string, session Session, attributes map[string]string, metrics map[string]float64) (*Event, error) {
	attrs := make(map[string]string, len(attributes))
	for name, value := range attributes {
		attrs[name] = value
	}
	mets := make(map[string]float64, len(metrics))
	for name, value := range metrics {
		mets[name] = value
	}

	f.mu.Lock()
	for name, value := range f.attributes {
		if _, ok := attrs[name]; !ok {
			attrs[name] = value
		}
	}
	for name, value := range f.metrics {
		if _, ok := mets[name]; !ok {
			mets[name] = value
		}
	}
	now := f.now()
	f.mu.Unlock()

	e := &Event{
		Type:       eventType,
		Timestamp:  now.UTC().Format(TimestampFormat),
		Session:    f.buildSession(session),
		Version:    SchemaVersion,
		Attributes: attrs,
		Metrics:    mets,
	}

	if verr := Validate(e); verr != nil {
		observability.LogEventInvalid(f.logger, eventType, verr.Rule, verr.Message)
		return nil, verr
	}
	return e, nil
}

// buildSession copies the caller's session, deriving the duration when a
// stop timestamp is present.
func (f *Factory) buildSession(session Session) Session {
	out := Session{
		ID:             session.ID,
		StartTimestamp: session.StartTimestamp,
		Duration:       session.Duration,
	}
	if session.StopTimestamp == "" {
		return out
	}

	out.StopTimestamp = session.StopTimestamp
	start, startErr := parseTimestamp(session.StartTimestamp)
	stop, stopErr := parseTimestamp(session.StopTimestamp)
	if startErr != nil || stopErr != nil {
		observability.LogSessionTimestampError(f.logger, session.ID, startErr, stopErr)
		return out
	}
	out.Duration = stop.Sub(start).Milliseconds()
	return out
}
