// Package metrics exposes prometheus counters for a markup run.
//
// A Collector owns its own registry so several runs (or tests) never collide
// on the default registerer. All methods are safe on a nil *Collector, which
// lets callers treat metrics as optional.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Chunk outcomes.
const (
	OutcomeFlagged  = "flagged"
	OutcomeNegative = "negative"
	OutcomeFailed   = "failed"
)

// Document outcomes.
const (
	DocumentPersisted     = "persisted"
	DocumentTooShort      = "too_short"
	DocumentSkipped       = "skipped_persisted"
	DocumentPersistFailed = "persist_failed"
	DocumentCanceled      = "canceled"
)

// Collector holds the run metrics.
type Collector struct {
	registry *prometheus.Registry

	Attempts     *prometheus.CounterVec
	Retries      *prometheus.CounterVec
	Chunks       *prometheus.CounterVec
	ChunkLatency *prometheus.HistogramVec
	Documents    *prometheus.CounterVec
	InFlight     *prometheus.GaugeVec
}

// NewCollector creates a collector with a private registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),

		Attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "patentmark_classifier_attempts_total",
			Help: "Total number of classifier calls",
		}, []string{"task"}),

		Retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "patentmark_classifier_retries_total",
			Help: "Total number of retries after transient classifier errors",
		}, []string{"task"}),

		Chunks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "patentmark_chunks_total",
			Help: "Total number of resolved chunks",
		}, []string{"task", "outcome"}),

		ChunkLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "patentmark_chunk_latency_seconds",
			Help:    "Time to resolve a chunk including retries",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"task"}),

		Documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "patentmark_documents_total",
			Help: "Total number of documents by final outcome",
		}, []string{"outcome"}),

		InFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "patentmark_pool_running",
			Help: "Tasks currently running in each worker pool",
		}, []string{"pool"}),
	}

	c.registry.MustRegister(c.Attempts, c.Retries, c.Chunks, c.ChunkLatency, c.Documents, c.InFlight)
	return c
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// RecordAttempt counts one classifier call.
func (c *Collector) RecordAttempt(task string) {
	if c == nil {
		return
	}
	c.Attempts.WithLabelValues(task).Inc()
}

// RecordRetry counts one scheduled retry.
func (c *Collector) RecordRetry(task string) {
	if c == nil {
		return
	}
	c.Retries.WithLabelValues(task).Inc()
}

// RecordChunk counts a resolved chunk and observes its latency.
func (c *Collector) RecordChunk(task, outcome string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.Chunks.WithLabelValues(task, outcome).Inc()
	c.ChunkLatency.WithLabelValues(task).Observe(elapsed.Seconds())
}

// RecordDocument counts a document outcome.
func (c *Collector) RecordDocument(outcome string) {
	if c == nil {
		return
	}
	c.Documents.WithLabelValues(outcome).Inc()
}

// SetInFlight records the number of running tasks in a pool.
func (c *Collector) SetInFlight(pool string, running int) {
	if c == nil {
		return
	}
	c.InFlight.WithLabelValues(pool).Set(float64(running))
}

// WriteTextfile writes the registry in the node_exporter textfile format.
func (c *Collector) WriteTextfile(path string) error {
	if c == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, c.registry)
}
