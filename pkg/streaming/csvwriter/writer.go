package csvwriter

import (
	"context"
	"errors"
	"iter"
	"os"
	"reflect"
	"time"

	rferrors "github.com/AdamDotNet/recflow/pkg/common/errors"
	"github.com/AdamDotNet/recflow/pkg/metrics"
	"github.com/AdamDotNet/recflow/pkg/streaming/record"
	"github.com/AdamDotNet/recflow/pkg/streaming/sink"
)

// State is the lifecycle position of a Writer.
type State int

const (
	// Created is the state of a writer that has not been bound to a sink.
	Created State = iota
	// Open means a sink and schema are bound and nothing has been written.
	Open
	// HeaderWritten means the header line was written and no record yet.
	HeaderWritten
	// Writing means at least one record was written.
	Writing
	// Closed is terminal; every operation except Close fails.
	Closed
	// Faulted follows a sink error or cancellation during a sink operation.
	// Only Close is allowed.
	Faulted
)

func (s State) String() string {
	switch s {
	case Created:
		return "Created"
	case Open:
		return "Open"
	case HeaderWritten:
		return "HeaderWritten"
	case Writing:
		return "Writing"
	case Closed:
		return "Closed"
	case Faulted:
		return "Faulted"
	default:
		return "Unknown"
	}
}

// Stats holds counters for one writer.
type Stats struct {
	// Records is the number of records accepted into the output.
	Records int64

	// Headers is 1 once the header line was accepted.
	Headers int64

	// Writes is the number of WriteContext calls issued to the sink.
	Writes int64

	// Flushes is the number of FlushContext calls issued to the sink.
	Flushes int64

	// BytesWritten is the number of bytes the sink accepted.
	BytesWritten int64

	// Errors is the number of failed operations, schema mismatches included.
	Errors int64
}

// Writer serializes records of type T to a sink.Sink.
//
// Every byte leaves through the sink's WriteContext and FlushContext, never
// through a blocking Write, Flush or Close. A Writer is not safe for
// concurrent use and starts no goroutines.
type Writer[T any] struct {
	config Config
	enc    encoder
	state  State

	sink   sink.Sink
	schema *record.Schema

	// serializer state, released on Close
	buf    []byte
	line   []byte
	fields []string

	stats Stats

	registry *metrics.Registry
	gauge    *metrics.Registry // registry whose open gauge was incremented
}

// New creates a Writer for records of type T.
func New[T any](config Config) (*Writer[T], error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Name == "" {
		config.Name = DefaultConfig().Name
	}

	return &Writer[T]{
		config:   config,
		enc:      newEncoder(config),
		state:    Created,
		registry: config.Metrics.Resolve(),
	}, nil
}

// Open binds the writer to s and schema. A nil schema is derived from T.
//
// s must implement sink.Sink. Values that only provide blocking primitives,
// such as a plain io.Writer, are rejected with ErrUnsupportedSink.
func (w *Writer[T]) Open(s any, schema *record.Schema) error {
	if w.state != Created {
		return rferrors.NewStateError("csvwriter", "open", w.state.String())
	}

	resolved, err := sink.Resolve(s)
	if err != nil {
		return err
	}

	if schema == nil {
		if schema, err = record.SchemaOf[T](); err != nil {
			return err
		}
	} else if schema.Type() == nil && !acceptsRows[T]() {
		var zero T
		return rferrors.NewValidationError("csvwriter", "schema", reflect.TypeOf(&zero).Elem().String(),
			"explicit schemas match record.Row values").
			WithHint("use Writer[record.Row] or pass a nil schema")
	}

	w.sink = resolved
	w.schema = schema
	w.buf = make([]byte, 0, w.config.BufferSize)
	w.fields = make([]string, 0, schema.Len())
	w.state = Open

	if w.registry != nil {
		w.gauge = w.registry
		w.gauge.WritersOpen.WithLabelValues(w.config.Name).Inc()
	}
	return nil
}

// acceptsRows reports whether a T value can hold a record.Row.
func acceptsRows[T any]() bool {
	t := reflect.TypeOf((*T)(nil)).Elem()
	return t == reflect.TypeOf(record.Row(nil)) || (t.Kind() == reflect.Interface && reflect.TypeOf(record.Row(nil)).Implements(t))
}

// WriteHeader writes the schema's field names as the first line.
// It must be called at most once and before any record.
func (w *Writer[T]) WriteHeader(ctx context.Context) error {
	if w.state != Open {
		return rferrors.NewStateError("csvwriter", "write header", w.state.String())
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	w.line = w.enc.appendLine(w.line[:0], w.schema.Names())
	if err := w.emit(ctx, w.line); err != nil {
		return err
	}

	w.state = HeaderWritten
	w.stats.Headers++
	if w.registry != nil {
		w.registry.WriterHeaders.WithLabelValues(w.config.Name).Inc()
	}
	return nil
}

// WriteRecord validates rec against the schema and appends it to the output.
//
// A schema mismatch is returned before anything is buffered and leaves the
// writer usable. A sink error or cancellation while a full buffer is handed
// to the sink faults the writer.
func (w *Writer[T]) WriteRecord(ctx context.Context, rec T) error {
	if err := w.writable("write record"); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	fields, err := w.schema.Values(w.fields, rec)
	if err != nil {
		w.countError("schema")
		return err
	}
	w.fields = fields

	w.line = w.enc.appendLine(w.line[:0], fields)
	if err := w.emit(ctx, w.line); err != nil {
		return err
	}

	w.state = Writing
	w.stats.Records++
	if w.registry != nil {
		w.registry.WriterRecords.WithLabelValues(w.config.Name).Inc()
	}
	return nil
}

// WriteRecords writes recs in order. It stops at the first error; records
// written before it stay written.
func (w *Writer[T]) WriteRecords(ctx context.Context, recs []T) error {
	for _, rec := range recs {
		if err := w.WriteRecord(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// WriteSeq writes every record produced by seq, in order, stopping at the
// first error.
func (w *Writer[T]) WriteSeq(ctx context.Context, seq iter.Seq[T]) error {
	if err := w.writable("write record"); err != nil {
		return err
	}
	for rec := range seq {
		if err := w.WriteRecord(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// Close hands any buffered bytes to the sink, flushes it and releases the
// writer's buffers. The sink is closed only when Config.OwnsSink is set.
// Calling Close again is a no-op.
//
// A faulted writer skips the final flush but still releases its resources.
func (w *Writer[T]) Close(ctx context.Context) error {
	switch w.state {
	case Closed:
		return nil
	case Created:
		w.state = Closed
		return nil
	}

	var errs []error
	if w.state != Faulted {
		if err := w.flushBuffer(ctx); err != nil {
			errs = append(errs, err)
		} else if err := w.flushSink(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	// serializer first, then the sink
	w.buf, w.line, w.fields = nil, nil, nil

	if w.config.OwnsSink {
		if c, ok := w.sink.(sink.Closer); ok {
			if err := c.CloseContext(ctx); err != nil {
				w.countError("sink")
				errs = append(errs, err)
			}
		}
	}

	w.sink = nil
	w.state = Closed
	if w.gauge != nil {
		w.gauge.WritersOpen.WithLabelValues(w.config.Name).Dec()
		w.gauge = nil
	}
	return errors.Join(errs...)
}

// State returns the current lifecycle state.
func (w *Writer[T]) State() State {
	return w.state
}

// Stats returns a snapshot of the writer's counters.
func (w *Writer[T]) Stats() Stats {
	return w.stats
}

// Schema returns the bound schema, or nil before Open.
func (w *Writer[T]) Schema() *record.Schema {
	return w.schema
}

// Buffered returns the number of bytes not yet handed to the sink.
func (w *Writer[T]) Buffered() int {
	return len(w.buf)
}

func (w *Writer[T]) writable(op string) error {
	switch w.state {
	case Open, HeaderWritten, Writing:
		return nil
	}
	return rferrors.NewStateError("csvwriter", op, w.state.String())
}

// emit appends line to the buffer, first handing the buffer to the sink when
// line does not fit. Lines larger than the buffer go to the sink directly.
func (w *Writer[T]) emit(ctx context.Context, line []byte) error {
	if len(w.buf)+len(line) <= cap(w.buf) {
		w.buf = append(w.buf, line...)
		return nil
	}

	if err := w.flushBuffer(ctx); err != nil {
		return err
	}
	if len(line) > cap(w.buf) {
		return w.write(ctx, line)
	}
	w.buf = append(w.buf, line...)
	return nil
}

func (w *Writer[T]) flushBuffer(ctx context.Context) error {
	if len(w.buf) == 0 {
		return nil
	}
	if err := w.write(ctx, w.buf); err != nil {
		return err
	}
	w.buf = w.buf[:0]
	return nil
}

func (w *Writer[T]) write(ctx context.Context, p []byte) error {
	start := time.Now()
	err := w.sink.WriteContext(ctx, p)
	w.stats.Writes++

	if err != nil {
		w.fault(err)
		return err
	}

	w.stats.BytesWritten += int64(len(p))
	if w.registry != nil {
		w.registry.WriterFlushes.WithLabelValues(w.config.Name).Inc()
		w.registry.WriterBytesWritten.WithLabelValues(w.config.Name).Add(float64(len(p)))
		w.registry.WriterFlushDuration.WithLabelValues(w.config.Name).Observe(time.Since(start).Seconds())
	}
	return nil
}

func (w *Writer[T]) flushSink(ctx context.Context) error {
	w.stats.Flushes++
	if err := w.sink.FlushContext(ctx); err != nil {
		w.fault(err)
		return err
	}
	return nil
}

func (w *Writer[T]) fault(err error) {
	w.state = Faulted
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		w.countError("canceled")
		return
	}
	w.countError("sink")
}

func (w *Writer[T]) countError(kind string) {
	w.stats.Errors++
	if w.registry != nil {
		w.registry.WriterErrors.WithLabelValues(w.config.Name, kind).Inc()
	}
}
