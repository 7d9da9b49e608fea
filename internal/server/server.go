// Package server exposes the demo record exports over HTTP.
package server

import (
	"context"
	"errors"
	"iter"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/AdamDotNet/recflow/internal/demo"
	rfctx "github.com/AdamDotNet/recflow/pkg/common/context"
	"github.com/AdamDotNet/recflow/pkg/metrics"
	"github.com/AdamDotNet/recflow/pkg/ratelimit/concurrency"
	"github.com/AdamDotNet/recflow/pkg/streaming/csvwriter"
	"github.com/AdamDotNet/recflow/pkg/streaming/sink"
)

// Routes served by the Handler.
const (
	RouteDispose      = "/Dispose"
	RouteWriteRecords = "/WriteRecords"
	RouteMetrics      = "/metrics"
	RouteHealth       = "/healthz"
)

// ContentDisposition is sent with every export.
const ContentDisposition = "attachment;filename=demo.csv"

// Config holds server configuration.
type Config struct {
	// Writer configures the record writer of each export.
	Writer csvwriter.Config

	// RecordCount is the default number of records for /WriteRecords.
	// Default: 1000
	RecordCount int

	// MaxRecordCount bounds the count query parameter.
	// Default: 1000000
	MaxRecordCount int

	// WriteTimeout bounds a single export. Zero disables the bound.
	// Default: 30s
	WriteTimeout time.Duration

	// MaxConcurrentExports bounds exports in flight across both routes.
	// Default: 8
	MaxConcurrentExports int

	// QueueTimeout is how long an export waits for a free slot before the
	// request is answered with 503. Zero waits as long as the client does.
	// Default: 5s
	QueueTimeout time.Duration

	// Metrics enables export counters and the /metrics route.
	Metrics metrics.Config

	// Gatherer backs /metrics. Default: prometheus.DefaultGatherer
	Gatherer prometheus.Gatherer
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		Writer:         csvwriter.DefaultConfig(),
		RecordCount:    demo.DefaultCount,
		MaxRecordCount: 1_000_000,
		WriteTimeout:   30 * time.Second,

		MaxConcurrentExports: 8,
		QueueTimeout:         5 * time.Second,
		Metrics:              metrics.DefaultConfig(),
	}
}

// Server serves the demo exports.
type Server struct {
	config   Config
	registry *metrics.Registry
	slots    concurrency.Limiter
	handler  http.Handler
}

// New creates a Server.
func New(config Config, logger zerolog.Logger) (*Server, error) {
	if err := config.Writer.Validate(); err != nil {
		return nil, err
	}
	if config.RecordCount <= 0 {
		config.RecordCount = DefaultConfig().RecordCount
	}
	if config.MaxRecordCount <= 0 {
		config.MaxRecordCount = DefaultConfig().MaxRecordCount
	}
	if config.MaxConcurrentExports <= 0 {
		config.MaxConcurrentExports = DefaultConfig().MaxConcurrentExports
	}
	if config.Gatherer == nil {
		config.Gatherer = prometheus.DefaultGatherer
	}

	slots, err := concurrency.NewWithConfig(concurrency.Config{
		Capacity: config.MaxConcurrentExports,
		Name:     "http_exports",
		Metrics:  config.Metrics,
	})
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:   config,
		registry: config.Metrics.Resolve(),
		slots:    slots,
	}

	mux := http.NewServeMux()
	mux.Handle("GET "+RouteDispose, s.export("dispose", func(*http.Request) (iter.Seq[demo.Record], error) {
		return slices.Values(demo.Small()), nil
	}))
	mux.Handle("GET "+RouteWriteRecords, s.export("write_records", s.countedRecords))
	mux.HandleFunc("GET "+RouteHealth, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	if s.registry != nil {
		mux.Handle("GET "+RouteMetrics, promhttp.HandlerFor(config.Gatherer, promhttp.HandlerOpts{}))
	}

	s.handler = hlog.NewHandler(logger)(
		requestID(
			hlog.AccessHandler(accessLog)(mux),
		),
	)
	return s, nil
}

// Handler returns the root handler with request logging attached.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// countedRecords honours ?count= on /WriteRecords.
func (s *Server) countedRecords(r *http.Request) (iter.Seq[demo.Record], error) {
	count := s.config.RecordCount
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, errBadCount
		}
		if n > s.config.MaxRecordCount {
			return nil, errBadCount
		}
		count = n
	}
	return demo.Seq(count), nil
}

var errBadCount = errors.New("count must be a non-negative integer within the configured maximum")

// export streams the records selected by records as a CSV attachment.
func (s *Server) export(name string, records func(*http.Request) (iter.Seq[demo.Record], error)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := hlog.FromRequest(r)

		seq, err := records(r)
		if err != nil {
			s.countExport(r.URL.Path, "rejected")
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if err := s.admit(r.Context()); err != nil {
			if r.Context().Err() != nil {
				// client is gone, nobody reads a 503
				s.countExport(r.URL.Path, "error")
				log.Error().Err(err).Str("export", name).Msg("export aborted")
				return
			}
			s.countExport(r.URL.Path, "busy")
			log.Warn().Err(err).Str("export", name).Msg("no export slot")
			w.Header().Set("Retry-After", "1")
			http.Error(w, "too many exports in progress", http.StatusServiceUnavailable)
			return
		}
		defer s.slots.Release()

		ctx, cancel := rfctx.WithTimeoutOrCancel(r.Context(), s.config.WriteTimeout)
		defer cancel()

		h := w.Header()
		h.Set("Content-Type", "text/csv")
		h.Set("Content-Disposition", ContentDisposition)

		var out sink.Sink = sink.NewHTTP(w)
		if acceptsGzip(r) {
			gz, err := sink.NewGzip(out, gzip.DefaultCompression)
			if err != nil {
				s.countExport(r.URL.Path, "error")
				http.Error(w, "compression unavailable", http.StatusInternalServerError)
				return
			}
			h.Set("Content-Encoding", "gzip")
			h.Add("Vary", "Accept-Encoding")
			out = gz
		}
		w.WriteHeader(http.StatusOK)

		stats, err := s.write(ctx, name, out, seq)
		if err != nil {
			s.countExport(r.URL.Path, "error")
			log.Error().Err(err).Str("export", name).Int64("records", stats.Records).Msg("export aborted")
			return
		}

		s.countExport(r.URL.Path, "ok")
		log.Debug().
			Str("export", name).
			Int64("records", stats.Records).
			Int64("bytes", stats.BytesWritten).
			Int64("sink_writes", stats.Writes).
			Msg("export finished")
	})
}

// admit waits up to QueueTimeout for an export slot.
func (s *Server) admit(ctx context.Context) error {
	ctx, cancel := rfctx.WithTimeoutOrCancel(ctx, s.config.QueueTimeout)
	defer cancel()
	return s.slots.Acquire(ctx)
}

// write runs one record writer over out. The writer owns out so that a gzip
// stream gets its trailer; the HTTP sink underneath stays with net/http.
func (s *Server) write(ctx context.Context, name string, out sink.Sink, seq iter.Seq[demo.Record]) (csvwriter.Stats, error) {
	config := s.config.Writer
	config.Name = name
	config.OwnsSink = true
	config.Metrics = s.config.Metrics

	w, err := csvwriter.New[demo.Record](config)
	if err != nil {
		return csvwriter.Stats{}, err
	}
	if err := w.Open(out, nil); err != nil {
		return csvwriter.Stats{}, err
	}

	err = w.WriteHeader(ctx)
	if err == nil {
		err = w.WriteSeq(ctx, seq)
	}
	err = errors.Join(err, w.Close(ctx))
	return w.Stats(), err
}

func (s *Server) countExport(route, outcome string) {
	if s.registry != nil {
		s.registry.HTTPExports.WithLabelValues(route, outcome).Inc()
	}
}

func acceptsGzip(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		coding, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if !strings.EqualFold(strings.TrimSpace(coding), "gzip") {
			continue
		}
		return strings.ReplaceAll(strings.TrimSpace(params), " ", "") != "q=0"
	}
	return false
}
