package eventsink

import (
	"errors"
	"slices"

	json "github.com/goccy/go-json"

	"github.com/randalmurphal/eventsink/pkg/eventsink/observability"
	"github.com/randalmurphal/eventsink/pkg/eventsink/storage"
)

// Persistence is best-effort: a failing store degrades the client to
// in-memory buffering for the affected key rather than failing the
// recording path, and the failure is logged.

func (c *Client) persistQueueLocked() {
	c.persistJSONLocked(keyEventQueue, c.queue)
}

func (c *Client) persistBatchesLocked() {
	c.persistJSONLocked(keyBatches, c.batches)
}

func (c *Client) persistIndexLocked() {
	c.persistJSONLocked(keyBatchIndex, c.index)
}

func (c *Client) persistJSONLocked(key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		observability.LogStorageError(c.logger, key, "marshal", err)
		return
	}
	if err := c.store.Set(key, data); err != nil {
		observability.LogStorageError(c.logger, key, "set", err)
	}
}

// loadState restores the queue, batches, batch index, and global defaults
// persisted by a previous process. Missing keys are normal on first run;
// corrupt values are logged and skipped so one bad record cannot brick the
// client.
func (c *Client) loadState() error {
	if err := c.loadJSON(keyEventQueue, &c.queue); err != nil {
		return err
	}
	if err := c.loadJSON(keyBatches, &c.batches); err != nil {
		return err
	}
	if c.batches == nil {
		c.batches = make(map[string]Batch)
	}
	if err := c.loadJSON(keyBatchIndex, &c.index); err != nil {
		return err
	}
	// Drop index entries whose batch payload is gone, and re-index batches
	// the index lost; order beyond the surviving index is unspecified.
	c.index = slices.DeleteFunc(c.index, func(id string) bool {
		_, ok := c.batches[id]
		return !ok
	})
	for id := range c.batches {
		if !slices.Contains(c.index, id) {
			c.index = append(c.index, id)
		}
	}

	var attrs map[string]string
	if err := c.loadJSON(keyGlobalAttributes, &attrs); err != nil {
		return err
	}
	for name, value := range attrs {
		c.factory.SetGlobalAttribute(name, value)
	}

	var metrics map[string]float64
	if err := c.loadJSON(keyGlobalMetrics, &metrics); err != nil {
		return err
	}
	for name, value := range metrics {
		c.factory.SetGlobalMetric(name, value)
	}
	return nil
}

func (c *Client) loadJSON(key string, v any) error {
	data, err := c.store.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		observability.LogStorageError(c.logger, key, "unmarshal", err)
	}
	return nil
}
