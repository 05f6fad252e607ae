package eventsink

import (
	"context"
	"slices"
	"time"

	"github.com/randalmurphal/eventsink/pkg/eventsink/observability"
	"github.com/randalmurphal/eventsink/pkg/eventsink/transport"
)

// SubmitEvents partitions the queued events into size-bounded batches and
// hands them, together with any previously retained batches, to the
// background dispatcher. It returns the ids of every batch handed off,
// retained ones included, and never blocks on network I/O.
//
// Calls arriving within one second of the previous cycle are a no-op and
// return nil; the debounce makes the size trigger, the scheduler, and
// manual calls safe to overlap.
func (c *Client) SubmitEvents(ctx context.Context, opts ...SubmitOption) []string {
	sc := submitConfig{contextJSON: c.contextJSON, callback: c.callback}
	for _, opt := range opts {
		opt(&sc)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	now := c.now()
	if now.Sub(c.lastSubmit) < submitDebounce {
		c.mu.Unlock()
		return nil
	}
	c.lastSubmit = now

	c.drainLocked()
	pending := make([]string, len(c.index))
	copy(pending, c.index)
	c.armTimerLocked()
	if len(pending) > 0 {
		c.inflight.Add(1)
	}
	c.mu.Unlock()

	if len(pending) > 0 {
		go func() {
			defer c.inflight.Done()
			for _, id := range pending {
				c.submitBatch(ctx, id, sc)
			}
		}()
	}
	return pending
}

// drainLocked moves queued events into batches whose serialized size does
// not exceed the configured ceiling, shrinking each candidate one event at
// a time from the tail. A candidate whose size reaches the hard payload cap
// stalls the queue: the cycle logs the condition and leaves everything
// queued rather than persist a batch the service will reject.
func (c *Client) drainLocked() {
	for len(c.queue) > 0 {
		n := len(c.queue)
		for n > 1 && c.estimate(c.queue[:n]) > c.cfg.BatchByteCeiling {
			n--
		}
		size := c.estimate(c.queue[:n])
		if size >= MaxBatchBytes {
			observability.LogBatchOversize(c.logger, n, size, MaxBatchBytes)
			break
		}

		batch := Batch{ID: c.newID(), Events: slices.Clone(c.queue[:n])}
		c.batches[batch.ID] = batch
		c.index = append(c.index, batch.ID)
		c.queue = c.queue[n:]

		c.persistBatchesLocked()
		c.persistIndexLocked()
		c.persistQueueLocked()

		observability.LogBatchCreated(c.logger, batch.ID, len(batch.Events), size)
		c.metrics.RecordBatch(context.Background(), len(batch.Events), int64(size))
	}
}

// submitBatch performs one network submission and settles the batch: it is
// removed from durable storage on success or permanent failure, and
// retained for a future cycle on transient failure. The callback fires
// exactly once either way.
func (c *Client) submitBatch(ctx context.Context, id string, sc submitConfig) {
	c.mu.Lock()
	batch, ok := c.batches[id]
	c.mu.Unlock()
	if !ok {
		// Cleared or already settled by an earlier overlapping cycle.
		return
	}

	ctx, span := c.spans.StartSubmitSpan(ctx, id, len(batch.Events))
	start := time.Now()

	out, err := c.transport.PutEvents(ctx, &transport.PutEventsInput{
		Events:        batch.Events,
		ClientContext: sc.contextJSON,
	})
	duration := time.Since(start)
	c.spans.EndSpanWithError(span, err)

	switch {
	case err == nil:
		c.removeBatch(id)
		observability.LogSubmitSuccess(c.logger, id, len(batch.Events), float64(duration.Milliseconds()))
		c.metrics.RecordSubmission(ctx, observability.OutcomeDelivered, duration)
	case transport.Retryable(err):
		observability.LogSubmitRetained(c.logger, id, err)
		c.metrics.RecordSubmission(ctx, observability.OutcomeRetained, duration)
	default:
		c.removeBatch(id)
		observability.LogSubmitDropped(c.logger, id, err)
		c.metrics.RecordSubmission(ctx, observability.OutcomeDropped, duration)
	}

	if sc.callback != nil {
		sc.callback(err, out, id)
	}
}

// ClearBatch discards a pending batch without submitting it. Unknown ids
// are ignored, which makes it safe to call from a submission callback after
// the batch has already settled.
func (c *Client) ClearBatch(id string) {
	c.removeBatch(id)
}

func (c *Client) removeBatch(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.batches[id]; !ok {
		return
	}
	delete(c.batches, id)
	if i := slices.Index(c.index, id); i >= 0 {
		c.index = slices.Delete(c.index, i, i+1)
	}
	c.persistBatchesLocked()
	c.persistIndexLocked()
}

// armTimerLocked schedules the next automatic submission cycle, replacing
// any previously scheduled one. Callers must hold c.mu.
func (c *Client) armTimerLocked() {
	if !c.cfg.AutoSubmit || c.closed {
		return
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.cfg.SubmitInterval.Std(), func() {
		c.SubmitEvents(context.Background())
	})
}
