/*
Package recflow streams structured records as delimited text without ever
blocking on the destination.

Streaming (pkg/streaming):
  - csvwriter: Typed record writer with buffering, quoting and a strict lifecycle
  - record: Schemas derived from structs or declared explicitly
  - sink: Context-aware destinations (HTTP responses, gzip, Redis, buffers)
  - writer: Async adapter that turns a blocking io.Writer into a sink

Scheduling (pkg/scheduling):
  - scheduler: Cron schedules for recurring exports

Rate Limiting (pkg/ratelimit):
  - concurrency: Bounds exports in flight

The recflow command (cmd/recflow) serves the demo exports over HTTP and can
write them to files or Redis.

Example usage:

	import (
		"github.com/AdamDotNet/recflow/pkg/streaming/csvwriter"
		"github.com/AdamDotNet/recflow/pkg/streaming/sink"
	)

	w, _ := csvwriter.New[Row](csvwriter.DefaultConfig())
	if err := w.Open(sink.NewHTTP(rw), nil); err != nil {
		return err
	}
	w.WriteHeader(ctx)
	w.WriteRecords(ctx, rows)
	return w.Close(ctx)
*/
package recflow
