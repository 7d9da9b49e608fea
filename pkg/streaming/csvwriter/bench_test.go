package csvwriter

import (
	"context"
	"fmt"
	"testing"

	"github.com/AdamDotNet/recflow/pkg/streaming/sink"
)

func BenchmarkWriteRecord(b *testing.B) {
	ctx := context.Background()
	w, err := New[demoRecord](DefaultConfig())
	if err != nil {
		b.Fatal(err)
	}
	if err := w.Open(discardSink{}, nil); err != nil {
		b.Fatal(err)
	}

	rec := demoRecord{Column1: 42, Column2: "Foo_42"}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := w.WriteRecord(ctx, rec); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkWriteRecords1000(b *testing.B) {
	ctx := context.Background()
	recs := make([]demoRecord, 1000)
	for i := range recs {
		recs[i] = demoRecord{Column1: i, Column2: fmt.Sprintf("Foo_%d", i)}
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w, _ := New[demoRecord](DefaultConfig())
		_ = w.Open(sink.NewBuffer(), nil)
		_ = w.WriteHeader(ctx)
		if err := w.WriteRecords(ctx, recs); err != nil {
			b.Fatal(err)
		}
		_ = w.Close(ctx)
	}
}

func BenchmarkQuotedField(b *testing.B) {
	enc := newEncoder(DefaultConfig())
	fields := []string{"plain", `needs "quotes", and commas`}
	var buf []byte

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		buf = enc.appendLine(buf[:0], fields)
	}
}

type discardSink struct{}

func (discardSink) WriteContext(ctx context.Context, p []byte) error { return ctx.Err() }
func (discardSink) FlushContext(ctx context.Context) error          { return ctx.Err() }
