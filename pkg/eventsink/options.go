package eventsink

import (
	"log/slog"
	"time"

	"github.com/randalmurphal/eventsink/pkg/eventsink/config"
	"github.com/randalmurphal/eventsink/pkg/eventsink/event"
	"github.com/randalmurphal/eventsink/pkg/eventsink/observability"
	"github.com/randalmurphal/eventsink/pkg/eventsink/storage"
	"github.com/randalmurphal/eventsink/pkg/eventsink/transport"
)

// Option configures a Client at construction.
type Option func(*Client)

// WithConfig sets the client configuration. Zero fields are filled with
// defaults.
func WithConfig(cfg config.Config) Option {
	return func(c *Client) {
		c.cfg = cfg
	}
}

// WithStore sets the durable store backing the queue, batches, and index.
// The caller keeps ownership and must close it; without this option the
// client creates (and owns) a store itself: a SQLite store when the
// configuration names a storage path, an in-memory store otherwise.
func WithStore(store storage.Store) Option {
	return func(c *Client) {
		if store != nil {
			c.store = store
			c.ownsStore = false
		}
	}
}

// WithTransport sets the transport used to submit batches.
// Without this option an HTTP transport is built from the configured
// endpoint.
func WithTransport(t transport.Transport) Option {
	return func(c *Client) {
		c.transport = t
	}
}

// WithClientContext sets the process-wide client context attached to every
// submission.
func WithClientContext(cc ClientContext) Option {
	return func(c *Client) {
		c.clientContext = cc
	}
}

// WithLogger sets the structured logger.
// A nil logger (the default) disables logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics sets the metrics recorder. Defaults to NoopMetrics.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(c *Client) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithTracing sets the span manager. Defaults to NoopSpanManager.
func WithTracing(sm observability.SpanManager) Option {
	return func(c *Client) {
		if sm != nil {
			c.spans = sm
		}
	}
}

// WithGlobalAttributes sets default attributes merged into every recorded
// event. Call-site attributes win over these; persisted defaults win over
// values supplied here.
func WithGlobalAttributes(attributes map[string]string) Option {
	return func(c *Client) {
		for name, value := range attributes {
			c.globalAttributes[name] = value
		}
	}
}

// WithGlobalMetrics sets default metrics merged into every recorded event.
func WithGlobalMetrics(metrics map[string]float64) Option {
	return func(c *Client) {
		for name, value := range metrics {
			c.globalMetrics[name] = value
		}
	}
}

// WithSubmitCallback sets the callback observing every batch submission
// outcome. The callback is the only way terminal outcomes surface to the
// application; submission itself never returns a transport error.
func WithSubmitCallback(cb SubmitCallback) Option {
	return func(c *Client) {
		c.callback = cb
	}
}

// WithIDGenerator overrides batch id generation. Defaults to random UUIDs.
func WithIDGenerator(fn func() string) Option {
	return func(c *Client) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// WithClock overrides the time source. Useful for testing the debounce
// window.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithSizeEstimator overrides the serialized-size estimator used for batch
// partitioning and the eager-submit trigger. Defaults to
// event.SerializedSize. Estimates must be monotonic: adding an event never
// decreases the estimate.
func WithSizeEstimator(fn func([]event.Event) int) Option {
	return func(c *Client) {
		if fn != nil {
			c.estimate = fn
		}
	}
}

// SubmitOption configures one submission cycle.
type SubmitOption func(*submitConfig)

// submitConfig holds per-cycle submission settings.
type submitConfig struct {
	contextJSON string
	callback    SubmitCallback
}

// WithSubmitContext overrides the client context for this submission cycle.
func WithSubmitContext(cc ClientContext) SubmitOption {
	return func(sc *submitConfig) {
		if s, err := cc.Marshal(); err == nil {
			sc.contextJSON = s
		}
	}
}

// WithCallback overrides the submit callback for this submission cycle.
func WithCallback(cb SubmitCallback) SubmitOption {
	return func(sc *submitConfig) {
		sc.callback = cb
	}
}
