/*
Package writer adapts blocking io.Writer destinations into context-aware sinks.

An AsyncWriter owns one background goroutine that performs every Write on the
underlying writer. Callers hand it data through WriteContext, FlushContext and
CloseContext and wait only as long as their context allows.

# Quick Start

	w, err := writer.New(os.Stdout)
	if err != nil {
		return err
	}
	defer w.CloseContext(context.Background())

	if err := w.WriteContext(ctx, []byte("Column1,Column2\r\n")); err != nil {
		return err
	}
	return w.FlushContext(ctx)

AsyncWriter satisfies sink.Sink and sink.Closer, so it can be handed straight
to csvwriter.Writer.Open where a plain io.Writer would be rejected.

# Configuration

	config := writer.Config{
		BufferSize:      8 * 1024,
		QueueSize:       32,
		CloseUnderlying: true, // close the file on CloseContext
		OnFlush: func(n int, d time.Duration) {
			log.Printf("flushed %d bytes in %v", n, d)
		},
	}
	w, err := writer.NewWithConfig(file, config)

# Ordering

Requests are applied strictly in submission order. A request whose caller gave
up (context canceled) is still applied at most once, so the underlying stream
never sees reordered or duplicated data. There are no retries.

# Thread Safety

AsyncWriter is safe for concurrent use from multiple goroutines.
*/
package writer
