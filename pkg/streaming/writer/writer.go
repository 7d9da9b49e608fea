package writer

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	rferrors "github.com/AdamDotNet/recflow/pkg/common/errors"
	"github.com/AdamDotNet/recflow/pkg/common/validation"
)

// ErrWriterClosed is returned when attempting to write to a closed writer.
var ErrWriterClosed = fmt.Errorf("writer is closed: %w", rferrors.ErrClosed)

// AsyncWriter adapts a blocking io.Writer into a context-aware sink.
//
// Every call on the underlying writer happens on one dedicated goroutine.
// Callers only wait on channels together with their context, so a stalled
// destination never holds a caller past its deadline. If a call is abandoned
// because its context ended, the request may still be applied later, exactly
// once and in order.
type AsyncWriter interface {
	// WriteContext queues data. It returns once the data is buffered (or
	// written through, when larger than the buffer) or ctx is done.
	WriteContext(ctx context.Context, data []byte) error

	// FlushContext writes all buffered data to the underlying writer and
	// calls its Flush method, if any.
	FlushContext(ctx context.Context) error

	// CloseContext flushes remaining data and stops the background goroutine.
	// The underlying writer is closed only if Config.CloseUnderlying is set.
	CloseContext(ctx context.Context) error

	// Stats returns statistics about the writer's performance.
	Stats() Stats

	// IsClosed returns true if the writer is closed.
	IsClosed() bool

	// BufferSize returns the current number of buffered bytes.
	BufferSize() int

	// BufferCapacity returns the maximum buffer capacity.
	BufferCapacity() int
}

// Stats holds statistics about async writer performance.
type Stats struct {
	// BytesWritten is the total number of bytes accepted by the underlying writer.
	BytesWritten int64

	// WriteCount is the total number of write requests served.
	WriteCount int64

	// FlushCount is the total number of times the buffer was written out.
	FlushCount int64

	// ErrorCount is the total number of errors encountered.
	ErrorCount int64

	// TotalFlushTime is the total time spent in the underlying writer.
	TotalFlushTime time.Duration

	// LastWriteTime is the timestamp of the last write request.
	LastWriteTime time.Time
}

// Config holds configuration options for AsyncWriter.
type Config struct {
	// BufferSize is the size of the internal buffer in bytes.
	// Default: 64KB
	BufferSize int

	// QueueSize is the number of requests that may wait for the background goroutine.
	// Default: 16
	QueueSize int

	// CloseUnderlying closes the underlying writer on CloseContext when it
	// implements io.Closer.
	CloseUnderlying bool

	// OnError is called when write errors occur.
	OnError func(error)

	// OnFlush is called after each flush operation.
	OnFlush func(bytesWritten int, duration time.Duration)
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		BufferSize: 64 * 1024, // 64KB
		QueueSize:  16,
	}
}

type requestKind int

const (
	writeReq requestKind = iota
	flushReq
	closeReq
)

// request represents an operation handed to the background goroutine.
type request struct {
	kind requestKind
	data []byte
	done chan error
}

// asyncWriter implements AsyncWriter.
type asyncWriter struct {
	underlying io.Writer
	config     Config

	// owned by the loop goroutine
	buffer []byte

	buffered atomic.Int64
	requests chan request
	stopped  chan struct{}
	closed   atomic.Bool

	stats   Stats
	statsMu sync.RWMutex
}

// New creates a new AsyncWriter with default configuration.
func New(w io.Writer) (AsyncWriter, error) {
	return NewWithConfig(w, DefaultConfig())
}

// NewWithConfig creates a new AsyncWriter with the specified configuration.
func NewWithConfig(w io.Writer, config Config) (AsyncWriter, error) {
	if err := validation.ValidateNotNil("writer", "underlying", w); err != nil {
		return nil, err
	}
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultConfig().BufferSize
	}
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultConfig().QueueSize
	}

	aw := &asyncWriter{
		underlying: w,
		config:     config,
		buffer:     make([]byte, 0, config.BufferSize),
		requests:   make(chan request, config.QueueSize),
		stopped:    make(chan struct{}),
	}

	go aw.loop()

	return aw, nil
}

// WriteContext implements AsyncWriter.WriteContext.
func (aw *asyncWriter) WriteContext(ctx context.Context, data []byte) error {
	if len(data) == 0 {
		if aw.IsClosed() {
			return ErrWriterClosed
		}
		return ctx.Err()
	}
	// The caller may reuse data once we return.
	return aw.submit(ctx, request{kind: writeReq, data: append([]byte(nil), data...)})
}

// FlushContext implements AsyncWriter.FlushContext.
func (aw *asyncWriter) FlushContext(ctx context.Context) error {
	return aw.submit(ctx, request{kind: flushReq})
}

// CloseContext implements AsyncWriter.CloseContext.
func (aw *asyncWriter) CloseContext(ctx context.Context) error {
	if !aw.closed.CompareAndSwap(false, true) {
		return nil // Already closed
	}

	done := make(chan error, 1)
	select {
	case aw.requests <- request{kind: closeReq, done: done}:
	case <-ctx.Done():
		// Closed flag is set; the loop drains what is queued once it can.
		go func() { aw.requests <- request{kind: closeReq, done: done} }()
		return ctx.Err()
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (aw *asyncWriter) submit(ctx context.Context, req request) error {
	if aw.IsClosed() {
		return ErrWriterClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	req.done = make(chan error, 1)
	select {
	case aw.requests <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-aw.stopped:
		return ErrWriterClosed
	}

	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-aw.stopped:
		// The loop may have served req just before stopping.
		select {
		case err := <-req.done:
			return err
		default:
			return ErrWriterClosed
		}
	}
}

// Stats implements AsyncWriter.Stats.
func (aw *asyncWriter) Stats() Stats {
	aw.statsMu.RLock()
	defer aw.statsMu.RUnlock()
	return aw.stats
}

// IsClosed implements AsyncWriter.IsClosed.
func (aw *asyncWriter) IsClosed() bool {
	return aw.closed.Load()
}

// BufferSize implements AsyncWriter.BufferSize.
func (aw *asyncWriter) BufferSize() int {
	return int(aw.buffered.Load())
}

// BufferCapacity implements AsyncWriter.BufferCapacity.
func (aw *asyncWriter) BufferCapacity() int {
	return aw.config.BufferSize
}

// loop is the background goroutine that owns the buffer and the underlying writer.
func (aw *asyncWriter) loop() {
	defer close(aw.stopped)

	for req := range aw.requests {
		var err error
		switch req.kind {
		case writeReq:
			err = aw.handleWrite(req.data)
		case flushReq:
			err = aw.flushBuffer()
			if err == nil {
				err = aw.flushUnderlying()
			}
		case closeReq:
			err = aw.flushBuffer()
			if err == nil {
				err = aw.flushUnderlying()
			}
			if c, ok := aw.underlying.(io.Closer); ok && aw.config.CloseUnderlying {
				if cerr := c.Close(); err == nil {
					err = cerr
				}
			}
			req.done <- err
			return
		}
		req.done <- err
	}
}

// handleWrite buffers data, writing the buffer out first when data does not fit.
func (aw *asyncWriter) handleWrite(data []byte) error {
	aw.updateStats(func(s *Stats) {
		s.WriteCount++
		s.LastWriteTime = time.Now()
	})

	if len(aw.buffer)+len(data) > cap(aw.buffer) {
		if err := aw.flushBuffer(); err != nil {
			return err
		}
	}

	if len(data) > cap(aw.buffer) {
		return aw.writeOut(data)
	}

	aw.buffer = append(aw.buffer, data...)
	aw.buffered.Store(int64(len(aw.buffer)))
	return nil
}

// flushBuffer writes all buffered data to the underlying writer.
func (aw *asyncWriter) flushBuffer() error {
	if len(aw.buffer) == 0 {
		return nil
	}
	err := aw.writeOut(aw.buffer)
	aw.buffer = aw.buffer[:0]
	aw.buffered.Store(0)
	return err
}

func (aw *asyncWriter) writeOut(data []byte) error {
	start := time.Now()
	n, err := aw.underlying.Write(data)
	if err == nil && n < len(data) {
		err = io.ErrShortWrite
	}
	duration := time.Since(start)

	aw.updateStats(func(s *Stats) {
		s.FlushCount++
		s.BytesWritten += int64(n)
		s.TotalFlushTime += duration
		if err != nil {
			s.ErrorCount++
		}
	})

	if aw.config.OnFlush != nil {
		aw.config.OnFlush(n, duration)
	}
	if err != nil && aw.config.OnError != nil {
		aw.config.OnError(err)
	}
	return err
}

func (aw *asyncWriter) flushUnderlying() error {
	f, ok := aw.underlying.(interface{ Flush() error })
	if !ok {
		return nil
	}
	if err := f.Flush(); err != nil {
		aw.updateStats(func(s *Stats) { s.ErrorCount++ })
		if aw.config.OnError != nil {
			aw.config.OnError(err)
		}
		return err
	}
	return nil
}

// updateStats safely updates statistics.
func (aw *asyncWriter) updateStats(updater func(*Stats)) {
	aw.statsMu.Lock()
	defer aw.statsMu.Unlock()
	updater(&aw.stats)
}
