package sink

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	rfctx "github.com/AdamDotNet/recflow/pkg/common/context"
	rferrors "github.com/AdamDotNet/recflow/pkg/common/errors"
)

// HTTP streams into an http.ResponseWriter.
//
// The deadline of the context passed to each call is applied as the
// connection write deadline, and cancelling the context moves that deadline to
// the present, so a stalled client cannot hold the handler once ctx is done.
// Writes are refused once CloseContext has been called; the response itself
// remains owned by the net/http server.
type HTTP struct {
	w        http.ResponseWriter
	rc       *http.ResponseController
	deadline time.Time
	// interrupted is set when a cancellation forced the write deadline into
	// the past; the next call must replace it.
	interrupted bool
	closed      bool
}

// NewHTTP wraps w.
func NewHTTP(w http.ResponseWriter) *HTTP {
	return &HTTP{w: w, rc: http.NewResponseController(w)}
}

// WriteContext writes p to the response body.
func (h *HTTP) WriteContext(ctx context.Context, p []byte) error {
	return h.do(ctx, func() error {
		_, err := h.w.Write(p)
		return err
	})
}

// FlushContext pushes buffered response bytes to the client.
func (h *HTTP) FlushContext(ctx context.Context) error {
	return h.do(ctx, func() error {
		if err := h.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
			return err
		}
		return nil
	})
}

// CloseContext detaches the sink from the response.
func (h *HTTP) CloseContext(context.Context) error {
	h.closed = true
	return nil
}

// do runs op with the connection write deadline tied to ctx. A write that
// fails because ctx ended reports ctx.Err(); one that hits the connection
// deadline reports context.DeadlineExceeded as well.
func (h *HTTP) do(ctx context.Context, op func() error) error {
	if err := h.prepare(ctx); err != nil {
		return err
	}

	fired := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		defer close(fired)
		_ = h.rc.SetWriteDeadline(time.Now())
	})

	err := op()
	if !stop() {
		<-fired
		h.interrupted = true
	}

	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
	}
	return err
}

func (h *HTTP) prepare(ctx context.Context) error {
	if h.closed {
		return rferrors.ErrClosed
	}
	if err := rfctx.Check(ctx); err != nil {
		return err
	}

	// zero clears a deadline left by an earlier context
	deadline, _ := ctx.Deadline()
	if !h.interrupted && deadline.Equal(h.deadline) {
		return nil
	}
	if err := h.rc.SetWriteDeadline(deadline); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	h.deadline = deadline
	h.interrupted = false
	return nil
}
