package sink

import (
	"bytes"
	"context"

	"github.com/klauspost/compress/gzip"

	rfctx "github.com/AdamDotNet/recflow/pkg/common/context"
	rferrors "github.com/AdamDotNet/recflow/pkg/common/errors"
	"github.com/AdamDotNet/recflow/pkg/common/validation"
)

// Gzip compresses everything written to it and forwards the compressed
// stream to an inner Sink.
//
// The compressor only ever writes into an in-memory staging buffer; staged
// bytes reach the inner sink exclusively through its WriteContext. Closing a
// Gzip writes the gzip trailer and flushes the inner sink but does not close
// it.
type Gzip struct {
	inner  Sink
	zw     *gzip.Writer
	staged bytes.Buffer
	closed bool
}

// NewGzip wraps inner at the given compression level (gzip.DefaultCompression,
// gzip.BestSpeed, ...).
func NewGzip(inner Sink, level int) (*Gzip, error) {
	if err := validation.ValidateNotNil("sink", "inner", inner); err != nil {
		return nil, err
	}

	g := &Gzip{inner: inner}
	zw, err := gzip.NewWriterLevel(&g.staged, level)
	if err != nil {
		return nil, rferrors.NewValidationError("sink", "level", level, err.Error())
	}
	g.zw = zw
	return g, nil
}

// WriteContext compresses p and forwards whatever the compressor emitted.
func (g *Gzip) WriteContext(ctx context.Context, p []byte) error {
	if g.closed {
		return rferrors.ErrClosed
	}
	if err := rfctx.Check(ctx); err != nil {
		return err
	}
	if _, err := g.zw.Write(p); err != nil {
		return err
	}
	return g.forward(ctx)
}

// FlushContext emits a sync block and flushes the inner sink.
func (g *Gzip) FlushContext(ctx context.Context) error {
	if g.closed {
		return rferrors.ErrClosed
	}
	if err := rfctx.Check(ctx); err != nil {
		return err
	}
	if err := g.zw.Flush(); err != nil {
		return err
	}
	if err := g.forward(ctx); err != nil {
		return err
	}
	return g.inner.FlushContext(ctx)
}

// CloseContext writes the gzip trailer. It is idempotent.
func (g *Gzip) CloseContext(ctx context.Context) error {
	if g.closed {
		return nil
	}
	g.closed = true

	if err := g.zw.Close(); err != nil {
		return err
	}
	if err := g.forward(ctx); err != nil {
		return err
	}
	return g.inner.FlushContext(ctx)
}

func (g *Gzip) forward(ctx context.Context) error {
	if g.staged.Len() == 0 {
		return nil
	}
	err := g.inner.WriteContext(ctx, g.staged.Bytes())
	g.staged.Reset()
	return err
}
