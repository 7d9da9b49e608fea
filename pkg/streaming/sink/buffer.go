package sink

import (
	"bytes"
	"context"
	"sync"

	rfctx "github.com/AdamDotNet/recflow/pkg/common/context"
	rferrors "github.com/AdamDotNet/recflow/pkg/common/errors"
)

// Buffer is an in-memory Sink.
type Buffer struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	writes  int
	flushes int
	closed  bool
}

// NewBuffer creates an empty Buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// WriteContext appends p.
func (b *Buffer) WriteContext(ctx context.Context, p []byte) error {
	if err := rfctx.Check(ctx); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return rferrors.ErrClosed
	}
	b.writes++
	b.buf.Write(p)
	return nil
}

// FlushContext is a no-op apart from bookkeeping.
func (b *Buffer) FlushContext(ctx context.Context) error {
	if err := rfctx.Check(ctx); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return rferrors.ErrClosed
	}
	b.flushes++
	return nil
}

// CloseContext rejects further writes. The contents stay readable.
func (b *Buffer) CloseContext(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// Bytes returns a copy of the contents.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Clone(b.buf.Bytes())
}

// String returns the contents as a string.
func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Writes returns the number of successful WriteContext calls.
func (b *Buffer) Writes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writes
}

// Flushes returns the number of successful FlushContext calls.
func (b *Buffer) Flushes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.flushes
}

// Closed reports whether CloseContext has been called.
func (b *Buffer) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}
