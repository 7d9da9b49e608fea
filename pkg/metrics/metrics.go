// Package metrics provides Prometheus instrumentation for recflow components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for recflow components.
type Registry struct {
	// Record writer metrics
	WriterRecords       *prometheus.CounterVec
	WriterHeaders       *prometheus.CounterVec
	WriterFlushes       *prometheus.CounterVec
	WriterBytesWritten  *prometheus.CounterVec
	WriterErrors        *prometheus.CounterVec
	WriterFlushDuration *prometheus.HistogramVec
	WritersOpen         *prometheus.GaugeVec

	// Scheduled export metrics
	ExportRuns     *prometheus.CounterVec
	ExportFailures *prometheus.CounterVec
	ExportDuration *prometheus.HistogramVec

	// HTTP export metrics
	HTTPExports *prometheus.CounterVec

	// Concurrency limiter metrics
	SlotsInUse *prometheus.GaugeVec
}

// DefaultRegistry is the default metrics registry used by recflow components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
// Each registerer may back at most one Registry.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		WriterRecords: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "writer",
				Name:      "records_written_total",
				Help:      "Total number of records serialized",
			},
			[]string{"writer_name"},
		),

		WriterHeaders: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "writer",
				Name:      "headers_written_total",
				Help:      "Total number of header rows serialized",
			},
			[]string{"writer_name"},
		),

		WriterFlushes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "writer",
				Name:      "flushes_total",
				Help:      "Total number of buffer flushes issued to the sink",
			},
			[]string{"writer_name"},
		),

		WriterBytesWritten: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "writer",
				Name:      "bytes_written_total",
				Help:      "Total bytes handed to the sink",
			},
			[]string{"writer_name"},
		),

		WriterErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "writer",
				Name:      "errors_total",
				Help:      "Total number of writer errors by kind",
			},
			[]string{"writer_name", "kind"},
		),

		WriterFlushDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "writer",
				Name:      "flush_duration_seconds",
				Help:      "Time spent handing a buffer to the sink",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"writer_name"},
		),

		WritersOpen: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Subsystem: "writer",
				Name:      "open",
				Help:      "Number of writers bound to a sink and not yet closed",
			},
			[]string{"writer_name"},
		),

		ExportRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "export",
				Name:      "runs_total",
				Help:      "Total number of scheduled export runs",
			},
			[]string{"job"},
		),

		ExportFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "export",
				Name:      "failures_total",
				Help:      "Total number of scheduled export runs that failed",
			},
			[]string{"job"},
		),

		ExportDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "export",
				Name:      "duration_seconds",
				Help:      "Time spent running a scheduled export",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"job"},
		),

		HTTPExports: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "http",
				Name:      "exports_total",
				Help:      "Total number of CSV exports served over HTTP",
			},
			[]string{"route", "outcome"},
		),

		SlotsInUse: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Subsystem: "concurrency",
				Name:      "slots_in_use",
				Help:      "Number of limiter slots currently held",
			},
			[]string{"limiter_name"},
		),
	}
}
