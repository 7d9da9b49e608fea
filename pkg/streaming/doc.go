/*
Package streaming groups the components that move records to a destination.

  - record: Schema and field formatting for structs and explicit rows
  - csvwriter: Serializes records through a buffer into a sink
  - sink: Destinations whose every operation honours a context
  - writer: Adapts a blocking io.Writer into a sink with a background goroutine

A typical export:

	w, err := csvwriter.New[Order](csvwriter.DefaultConfig())
	if err != nil {
		return err
	}
	if err := w.Open(sink.NewHTTP(rw), nil); err != nil {
		return err
	}
	if err := w.WriteHeader(ctx); err != nil {
		return err
	}
	if err := w.WriteSeq(ctx, orders); err != nil {
		w.Close(ctx)
		return err
	}
	return w.Close(ctx)

Nothing in this tree calls Write, Flush or Close on a destination from the
caller's goroutine. Destinations that only offer those are wrapped by writer.
*/
package streaming
