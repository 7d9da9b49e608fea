package sink

import (
	"context"
	"fmt"
	"io"

	rferrors "github.com/AdamDotNet/recflow/pkg/common/errors"
)

// Sink is a destination that is only ever driven through context-aware
// operations. Implementations must return promptly with ctx.Err() once ctx is
// done and must not retain p after WriteContext returns.
type Sink interface {
	WriteContext(ctx context.Context, p []byte) error
	FlushContext(ctx context.Context) error
}

// Closer is implemented by sinks that hold resources of their own.
type Closer interface {
	CloseContext(ctx context.Context) error
}

// Resolve returns v as a Sink. Values that only offer blocking primitives
// (io.Writer and friends) are rejected with ErrUnsupportedSink so that the
// problem surfaces when a writer is opened rather than in the middle of a flush.
func Resolve(v any) (Sink, error) {
	if s, ok := v.(Sink); ok && s != nil {
		return s, nil
	}

	op := rferrors.NewOperationError("sink", "Resolve", rferrors.ErrUnsupportedSink)
	switch v.(type) {
	case nil:
		return nil, op.WithContext("sink is nil")
	case io.Writer:
		return nil, op.WithContext(fmt.Sprintf("%T only offers blocking Write; wrap it with writer.New", v))
	default:
		return nil, op.WithContext(fmt.Sprintf("%T has no WriteContext/FlushContext", v))
	}
}
