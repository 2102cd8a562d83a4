// Package metrics defines the observability hooks of the search engine.
// A MetricsSink receives one GenerationStats per generation; sinks may also
// implement RunRecorder and ImprovementRecorder. Concrete sinks (Prometheus,
// InfluxDB) live in infra/metrics and register themselves in the sink
// registry so NewMetricsSink can build them from configuration. Several
// configured sinks are combined in a MultiSink.
package metrics
