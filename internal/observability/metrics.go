package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "deeper_cleaner"

// Metrics holds the Prometheus counters and histograms for cleaning and
// metadata stripping runs.
type Metrics struct {
	RowsRead     prometheus.Counter
	RowsWritten  prometheus.Counter
	RowsRejected *prometheus.CounterVec // labels: reason
	Runs         *prometheus.CounterVec // labels: outcome={completed,failed}
	RunDuration  prometheus.Histogram

	ImagesProcessed prometheus.Counter

	registry *prometheus.Registry
}

// NewMetrics creates all metrics and registers them on a private registry, so
// every call (and every test) gets an independent set. The tool never serves
// metrics over HTTP; they are exported with WriteTextfile.
func NewMetrics() *Metrics {
	m := &Metrics{
		RowsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_read_total",
			Help:      "Total CSV rows read from the input file.",
		}),
		RowsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_written_total",
			Help:      "Total data rows written to the output file.",
		}),
		RowsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_rejected_total",
			Help:      "Rows skipped by validation or enrichment, by reason.",
		}, []string{"reason"}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Cleaning runs by outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a complete cleaning run.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		ImagesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "images_processed_total",
			Help:      "Images re-encoded without metadata.",
		}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.RowsRead,
		m.RowsWritten,
		m.RowsRejected,
		m.Runs,
		m.RunDuration,
		m.ImagesProcessed,
	)

	return m
}

// Registry exposes the private registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the current metric values to path in the Prometheus
// text exposition format, suitable for the node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
