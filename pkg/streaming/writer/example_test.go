package writer_test

import (
	"context"
	"fmt"
	"os"

	"github.com/AdamDotNet/recflow/pkg/streaming/writer"
)

func Example() {
	ctx := context.Background()

	w, err := writer.New(os.Stdout)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	_ = w.WriteContext(ctx, []byte("Column1,Column2\n"))
	_ = w.WriteContext(ctx, []byte("1,one\n"))

	if err := w.CloseContext(ctx); err != nil {
		fmt.Println("error:", err)
	}

	// Output:
	// Column1,Column2
	// 1,one
}

func Example_statistics() {
	ctx := context.Background()
	sink := &discard{}

	w, _ := writer.NewWithConfig(sink, writer.Config{BufferSize: 4})
	_ = w.WriteContext(ctx, []byte("ab"))
	_ = w.WriteContext(ctx, []byte("cd"))
	_ = w.WriteContext(ctx, []byte("ef"))
	_ = w.CloseContext(ctx)

	stats := w.Stats()
	fmt.Printf("writes=%d flushes=%d bytes=%d\n", stats.WriteCount, stats.FlushCount, stats.BytesWritten)

	// Output:
	// writes=3 flushes=2 bytes=6
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
