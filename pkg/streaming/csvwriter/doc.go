/*
Package csvwriter writes homogeneous records as delimited text to a context-aware sink.

A Writer never touches a blocking primitive. Bytes leave it only through
sink.Sink.WriteContext and sink.Sink.FlushContext, including the flush that
happens when its buffer fills up in the middle of WriteRecords and the final
flush in Close. Sinks that offer nothing but io.Writer are rejected by Open.

# Quick Start

	type Row struct {
		Column1 int
		Column2 string
	}

	w, err := csvwriter.New[Row](csvwriter.DefaultConfig())
	if err != nil {
		return err
	}
	if err := w.Open(sink.NewHTTP(rw), nil); err != nil {
		return err
	}
	defer w.Close(ctx)

	if err := w.WriteHeader(ctx); err != nil {
		return err
	}
	if err := w.WriteRecords(ctx, rows); err != nil {
		return err
	}
	return w.Close(ctx)

# Lifecycle

	Created -> Open -> HeaderWritten -> Writing -> Closed
	                  \_____________________/
	                     sink error -> Faulted -> Closed

WriteHeader is only valid directly after Open. Records may be written with or
without a header. Any operation after Close fails with ErrInvalidState, as does
any write after the writer faulted.

# Ownership

The sink is borrowed. Close flushes it but leaves it open unless
Config.OwnsSink is set, in which case the sink's CloseContext is called after
the writer released its own buffers.

# Quoting

A field containing the delimiter, the quote or a line break is wrapped in
quotes and embedded quotes are doubled. Output parses back with encoding/csv.

# Errors

Schema mismatches are reported before anything is buffered and leave the
writer usable. Sink errors and context errors are returned unchanged and fault
the writer. Nothing is retried.
*/
package csvwriter
