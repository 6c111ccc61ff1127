// Package metrics exposes Prometheus instrumentation for scan runs.
//
// Metrics cover probe lifecycle (runs and durations by probe name and
// terminal status), scan totals, and the latest composite privacy score.
// The CLI optionally serves them on a configurable address; nothing in
// the engine depends on a metrics server being present.
//
// Design decision: Metric values never include addresses, hostnames, or
// other scan payloads. Label cardinality is fixed to probe names and
// terminal statuses so the exposition can be scraped safely.
package metrics
