package profiling

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "voxel"

var (
	registry = prometheus.NewRegistry()

	sectionSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "section_seconds",
		Help:      "Time spent in tracked sections.",
		Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 8),
	}, []string{"section"})

	// StageTransitions counts chunk state changes.
	StageTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stage_transitions_total",
		Help:      "Chunk state transitions by source and target state.",
	}, []string{"from", "to"})

	// StaleCompletions counts background results dropped because their chunk
	// was recycled while the job ran.
	StaleCompletions = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stale_completions_total",
		Help:      "Background results discarded for recycled chunks.",
	})

	// BatchUploads counts vertex array uploads per layer.
	BatchUploads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "batch_uploads_total",
		Help:      "Render batch vertex uploads.",
	}, []string{"layer"})

	// Batches is the number of live render batches per layer.
	Batches = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "batches",
		Help:      "Live render batches.",
	}, []string{"layer"})

	ActiveChunks = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "chunks_active",
		Help:      "Chunks in the active set.",
	})

	PooledChunks = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "chunks_pooled",
		Help:      "Idle chunk slots waiting for reuse.",
	})

	JobsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "jobs_in_flight",
		Help:      "Background stage jobs submitted and not yet applied.",
	})
)

func init() {
	registry.MustRegister(
		sectionSeconds,
		StageTransitions,
		StaleCompletions,
		BatchUploads,
		Batches,
		ActiveChunks,
		PooledChunks,
		JobsInFlight,
	)
}

// Registry exposes the collectors for scraping or inspection.
func Registry() *prometheus.Registry { return registry }

// Handler serves the metrics in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
