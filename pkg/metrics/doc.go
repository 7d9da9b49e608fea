// Package metrics provides Prometheus instrumentation for recflow components.
//
// # Quick Start
//
// Create a registry backed by your own Prometheus registerer and hand it to
// the components that should report into it:
//
//	reg := prometheus.NewRegistry()
//	m := metrics.NewRegistry(reg)
//
//	cfg := csvwriter.DefaultConfig()
//	cfg.Name = "orders_export"
//	cfg.Metrics = metrics.Config{Enabled: true, Registry: m}
//
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
//
// A Config with a nil Registry falls back to DefaultRegistry, which is
// registered with prometheus.DefaultRegisterer at init time.
//
// # Available Metrics
//
//   - recflow_writer_records_written_total: records serialized
//   - recflow_writer_headers_written_total: header rows serialized
//   - recflow_writer_flushes_total: buffer flushes issued to the sink
//   - recflow_writer_bytes_written_total: bytes handed to the sink
//   - recflow_writer_errors_total: errors by kind (schema, state, sink, canceled)
//   - recflow_writer_flush_duration_seconds: time spent in sink writes
//   - recflow_writer_open: writers bound to a sink and not yet closed
//   - recflow_export_runs_total, recflow_export_failures_total,
//     recflow_export_duration_seconds: scheduled export jobs
//   - recflow_http_exports_total: CSV downloads by route and outcome
//   - recflow_concurrency_slots_in_use: limiter slots currently held
//
// # Runtime Control
//
// Components implementing Instrumentable support runtime control:
//
//	w.DisableMetrics()
//	_ = w.EnableMetrics(cfg)
//	enabled := w.MetricsEnabled()
package metrics
