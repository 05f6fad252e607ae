package eventsink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/randalmurphal/eventsink/pkg/eventsink/config"
	"github.com/randalmurphal/eventsink/pkg/eventsink/event"
	"github.com/randalmurphal/eventsink/pkg/eventsink/observability"
	"github.com/randalmurphal/eventsink/pkg/eventsink/storage"
	"github.com/randalmurphal/eventsink/pkg/eventsink/transport"
)

const (
	// MaxBatchBytes is the hard payload cap. A batch candidate whose
	// estimated size reaches this cap is never persisted as a batch; the
	// events stay queued and an error is logged. It is independent of the
	// configurable ceiling, which should always be set well below it.
	MaxBatchBytes = 512000

	// submitDebounce suppresses submission cycles triggered within this
	// window of the previous one. It is the sole guard against redundant
	// concurrent drains (a size-triggered call racing a timer-triggered
	// one).
	submitDebounce = time.Second
)

// Storage keys for the client's durable state.
const (
	keyEventQueue       = "eventsink.events"
	keyBatches          = "eventsink.batches"
	keyBatchIndex       = "eventsink.batchIndex"
	keyGlobalAttributes = "eventsink.globalAttributes"
	keyGlobalMetrics    = "eventsink.globalMetrics"
)

// ErrClosed is returned by operations on a closed client.
var ErrClosed = errors.New("eventsink: client closed")

// Batch is a durably stored, size-bounded group of events awaiting
// submission.
type Batch struct {
	ID     string        `json:"id"`
	Events []event.Event `json:"events"`
}

// SubmitCallback observes the terminal outcome of one batch submission.
// It is invoked exactly once per submitted batch, on success and failure
// alike; out is nil on failure.
type SubmitCallback func(err error, out *transport.PutEventsOutput, batchID string)

// Client buffers application events locally, partitions them into
// size-bounded durable batches, and submits the batches asynchronously.
//
// All state mutation is serialized on one mutex; submission network calls
// happen off the caller's goroutine and never block RecordEvent or
// SubmitEvents.
type Client struct {
	cfg           config.Config
	store         storage.Store
	ownsStore     bool
	transport     transport.Transport
	factory       *event.Factory
	clientContext ClientContext
	contextJSON   string
	logger        *slog.Logger
	metrics       observability.MetricsRecorder
	spans         observability.SpanManager
	callback      SubmitCallback
	newID         func() string
	now           func() time.Time
	estimate      func([]event.Event) int

	// Construction-time holders for the factory defaults.
	globalAttributes map[string]string
	globalMetrics    map[string]float64

	mu         sync.Mutex
	queue      []event.Event
	batches    map[string]Batch
	index      []string
	lastSubmit time.Time
	timer      *time.Timer
	closed     bool

	inflight sync.WaitGroup
}

// New creates a client, reloading any state a previous process persisted
// under the same store: pending events, batches, the batch index, and
// global attribute/metric defaults (persisted defaults win over the ones
// supplied via options).
//
// A transport must be available, either via WithTransport or an endpoint in
// the configuration.
func New(opts ...Option) (*Client, error) {
	c := &Client{
		cfg:              config.Default(),
		metrics:          observability.NoopMetrics{},
		spans:            observability.NoopSpanManager{},
		newID:            func() string { return uuid.New().String() },
		now:              time.Now,
		estimate:         event.SerializedSize,
		globalAttributes: make(map[string]string),
		globalMetrics:    make(map[string]float64),
		batches:          make(map[string]Batch),
		ownsStore:        true,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.cfg = c.cfg.Normalize()
	if err := c.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("eventsink: %w", err)
	}

	if c.transport == nil {
		if c.cfg.Endpoint == "" {
			return nil, errors.New("eventsink: a transport or an endpoint is required")
		}
		c.transport = transport.NewHTTPTransport(c.cfg.Endpoint,
			transport.WithTimeout(c.cfg.RequestTimeout.Std()))
	}

	if c.store == nil {
		if c.cfg.StoragePath != "" {
			store, err := storage.NewSQLiteStore(c.cfg.StoragePath)
			if err != nil {
				return nil, fmt.Errorf("eventsink: open store: %w", err)
			}
			c.store = store
		} else {
			c.store = storage.NewMemoryStore()
		}
	}

	c.factory = event.NewFactory(
		event.WithLogger(c.logger),
		event.WithGlobalAttributes(c.globalAttributes),
		event.WithGlobalMetrics(c.globalMetrics),
		event.WithClock(c.now),
	)

	contextJSON, err := c.clientContext.Marshal()
	if err != nil {
		return nil, fmt.Errorf("eventsink: serialize client context: %w", err)
	}
	c.contextJSON = contextJSON

	if err := c.loadState(); err != nil {
		return nil, fmt.Errorf("eventsink: load persisted state: %w", err)
	}

	if c.cfg.AutoSubmit {
		c.mu.Lock()
		c.armTimerLocked()
		c.mu.Unlock()
	}
	return c, nil
}

// RecordEvent validates and durably queues one event, returning the stored
// record. As a side effect, when the serialized size of the whole queue
// reaches the configured batch ceiling, a submission cycle is triggered
// before returning; the cycle itself never waits on network I/O.
//
// A validation failure is logged, nothing is queued, and the error is
// returned with a nil event.
func (c *Client) RecordEvent(ctx context.Context, eventType string, session event.Session, attributes map[string]string, metrics map[string]float64) (*event.Event, error) {
	ev, err := c.factory.Create(eventType, session, attributes, metrics)
	if err != nil {
		c.metrics.RecordEvent(ctx, eventType, false)
		return nil, err
	}
	return c.enqueue(ctx, ev)
}

// RecordMonetizationEvent validates and durably queues one purchase event.
// It shares RecordEvent's eager-submit side effect.
func (c *Client) RecordMonetizationEvent(ctx context.Context, session event.Session, m event.Monetization) (*event.Event, error) {
	ev, err := c.factory.CreateMonetization(session, m)
	if err != nil {
		c.metrics.RecordEvent(ctx, event.MonetizationType, false)
		return nil, err
	}
	return c.enqueue(ctx, ev)
}

// enqueue appends a validated event to the durable queue and triggers a
// submission cycle when the queue payload reaches the ceiling.
func (c *Client) enqueue(ctx context.Context, ev *event.Event) (*event.Event, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.queue = append(c.queue, *ev)
	c.persistQueueLocked()
	depth := len(c.queue)
	trigger := c.estimate(c.queue) >= c.cfg.BatchByteCeiling
	c.mu.Unlock()

	observability.LogEventRecorded(c.logger, ev.Type, depth)
	c.metrics.RecordEvent(ctx, ev.Type, true)

	if trigger {
		c.SubmitEvents(ctx)
	}
	return ev, nil
}

// AddGlobalAttribute sets a default attribute merged into every
// subsequently created event (call-site values still win) and persists it
// so later processes inherit it.
func (c *Client) AddGlobalAttribute(name, value string) {
	c.factory.SetGlobalAttribute(name, value)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.persistJSONLocked(keyGlobalAttributes, c.factory.GlobalAttributes())
}

// AddGlobalMetric sets a default metric merged into every subsequently
// created event and persists it.
func (c *Client) AddGlobalMetric(name string, value float64) {
	c.factory.SetGlobalMetric(name, value)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.persistJSONLocked(keyGlobalMetrics, c.factory.GlobalMetrics())
}

// QueueDepth returns the number of events awaiting batching.
func (c *Client) QueueDepth() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// PendingBatchIDs returns the ids of batches awaiting submission, oldest
// first.
func (c *Client) PendingBatchIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, len(c.index))
	copy(ids, c.index)
	return ids
}

// Close stops the auto-submit scheduler and waits for in-flight
// submissions to complete. The store is closed only when the client
// created it.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()

	c.inflight.Wait()
	if c.ownsStore {
		return c.store.Close()
	}
	return nil
}
