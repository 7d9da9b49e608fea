package integration

import (
	"context"
	"encoding/csv"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/AdamDotNet/recflow/internal/server"
	"github.com/AdamDotNet/recflow/internal/testutil"
	"github.com/AdamDotNet/recflow/pkg/metrics"
	"github.com/AdamDotNet/recflow/pkg/streaming/csvwriter"
	"github.com/AdamDotNet/recflow/pkg/streaming/sink"
	"github.com/AdamDotNet/recflow/pkg/streaming/writer"
)

func startServer(t *testing.T) *httptest.Server {
	t.Helper()
	reg := prometheus.NewRegistry()

	config := server.DefaultConfig()
	config.Metrics = metrics.Config{Enabled: true, Registry: metrics.NewRegistry(reg)}
	config.Gatherer = reg

	srv, err := server.New(config, zerolog.Nop())
	testutil.AssertNoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(testutil.WithTimeout(t), http.MethodGet, url, nil)
	testutil.AssertNoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	testutil.AssertNoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// TestDisposeOverHTTP checks the small export end to end over a real connection.
func TestDisposeOverHTTP(t *testing.T) {
	ts := startServer(t)
	resp := get(t, ts.URL+server.RouteDispose)

	testutil.AssertEqual(t, resp.StatusCode, http.StatusOK)
	testutil.AssertEqual(t, resp.Header.Get("Content-Type"), "text/csv")
	testutil.AssertEqual(t, resp.Header.Get("Content-Disposition"), "attachment;filename=demo.csv")

	body, err := io.ReadAll(resp.Body)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, string(body), "Column1,Column2\r\n1,one\r\n2,two\r\n3,three\r\n")
}

// TestWriteRecordsOverHTTP relies on the default transport negotiating gzip
// and decompressing transparently.
func TestWriteRecordsOverHTTP(t *testing.T) {
	ts := startServer(t)
	resp := get(t, ts.URL+server.RouteWriteRecords)

	testutil.AssertEqual(t, resp.StatusCode, http.StatusOK)
	testutil.AssertEqual(t, resp.Uncompressed, true)

	rows, err := csv.NewReader(resp.Body).ReadAll()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(rows), 1001)
	for i, row := range rows[1:] {
		if row[1] != "Foo_"+row[0] {
			t.Fatalf("row %d = %v", i, row)
		}
	}
}

// TestClientGoesAway cancels a large download midway; the server must not
// hang on the abandoned response.
func TestClientGoesAway(t *testing.T) {
	ts := startServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+server.RouteWriteRecords+"?count=1000000", nil)
	testutil.AssertNoError(t, err)
	req.Header.Set("Accept-Encoding", "identity")

	resp, err := http.DefaultClient.Do(req)
	testutil.AssertNoError(t, err)

	buf := make([]byte, 1024)
	_, err = io.ReadFull(resp.Body, buf)
	testutil.AssertNoError(t, err)
	cancel()
	_ = resp.Body.Close()

	// Close waits for in-flight handlers.
	done := make(chan struct{})
	go func() {
		ts.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("handler kept running after the client disconnected")
	}
}

// TestAdapterToCSVPipeline drives a blocking io.Writer through the async
// adapter and a gzip sink.
func TestAdapterToCSVPipeline(t *testing.T) {
	ctx := testutil.WithTimeout(t)
	underlying := testutil.NewMockWriter()

	aw, err := writer.New(underlying)
	testutil.AssertNoError(t, err)

	type row struct {
		ID   int    `csv:"id"`
		Note string `csv:"note"`
	}

	w, err := csvwriter.New[row](csvwriter.DefaultConfig())
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, w.Open(aw, nil))
	testutil.AssertNoError(t, w.WriteHeader(ctx))
	testutil.AssertNoError(t, w.WriteRecords(ctx, []row{{1, "plain"}, {2, "with, comma"}}))
	testutil.AssertNoError(t, w.Close(ctx))

	// The writer leaves the adapter open.
	testutil.AssertEqual(t, aw.IsClosed(), false)
	testutil.AssertEqual(t, underlying.String(), "id,note\r\n1,plain\r\n2,\"with, comma\"\r\n")
	testutil.AssertNoError(t, aw.CloseContext(ctx))

	var _ sink.Sink = aw
}

// TestGuardedSinkNeverBlocks is the end-to-end form of the writer's core
// promise: a full large export with a sink that fails on any blocking call.
func TestGuardedSinkNeverBlocks(t *testing.T) {
	ctx := testutil.WithTimeout(t)
	guard := testutil.NewGuardSink(t)

	type rec struct {
		Column1 int
		Column2 string
	}
	w, err := csvwriter.New[rec](csvwriter.DefaultConfig())
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, w.Open(guard, nil))
	testutil.AssertNoError(t, w.WriteHeader(ctx))
	for i := 0; i < 1000; i++ {
		testutil.AssertNoError(t, w.WriteRecord(ctx, rec{i, strings.Repeat("x", i%17)}))
	}
	testutil.AssertNoError(t, w.Close(ctx))

	testutil.AssertEqual(t, guard.BlockingCalls(), 0)
	if guard.Writes() < 2 {
		t.Fatalf("expected several sink writes, got %d", guard.Writes())
	}
}
