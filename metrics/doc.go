// Package metrics defines the Prometheus metrics exported by search and ingestion.
//
// Metrics are created per component and registered with a caller-supplied
// prometheus.Registerer, so tests can use a private registry.
package metrics
