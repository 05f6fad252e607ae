// Package eventsink is a client-side analytics pipeline: applications
// record events, the client validates and durably buffers them, partitions
// the buffer into size-bounded batches, and submits the batches
// asynchronously with transient failures retried on later cycles.
//
// Basic usage:
//
//	client, err := eventsink.New(
//		eventsink.WithConfig(config.Config{Endpoint: "https://ingest.example.com/events", AppID: "my-app"}),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.RecordEvent(ctx, "level_complete", session,
//		map[string]string{"level": "3"},
//		map[string]float64{"score": 1200})
//	client.SubmitEvents(ctx)
//
// Recording and submitting never block on network I/O; delivery outcomes
// surface through the callback installed with WithSubmitCallback.
package eventsink
