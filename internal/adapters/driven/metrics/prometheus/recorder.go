// Package prometheus records run metrics in a Prometheus registry and exports
// them as a node_exporter textfile when the run ends.
package prometheus

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/custodia-labs/litreview/internal/core/ports/driven"
)

// Ensure Recorder implements the interface.
var _ driven.MetricsRecorder = (*Recorder)(nil)

// DefaultFileName is the textfile written under the metrics directory.
const DefaultFileName = "litreview.prom"

const namespace = "litreview"

// Recorder holds the run's collectors in a private registry.
type Recorder struct {
	path     string
	registry *prometheus.Registry

	documents     *prometheus.CounterVec
	chunks        *prometheus.CounterVec
	facts         *prometheus.CounterVec
	factFailures  prometheus.Counter
	factLatency   prometheus.Histogram
	judgeAttempts prometheus.Histogram
	lastFlush     prometheus.Gauge
}

// NewRecorder creates a recorder that writes to path on Flush.
// An empty path keeps metrics in memory only.
func NewRecorder(path string) *Recorder {
	r := &Recorder{
		path:     path,
		registry: prometheus.NewRegistry(),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_extracted_total",
			Help:      "Extraction attempts by resulting document status.",
		}, []string{"status"}),
		chunks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_embedded_total",
			Help:      "Chunks given an embedding, split by whether a zero vector was substituted.",
		}, []string{"result"}),
		facts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "facts_assessed_total",
			Help:      "Facts assessed by outcome.",
		}, []string{"outcome"}),
		factFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "facts_failed_total",
			Help:      "Facts whose assessment returned an error.",
		}),
		factLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fact_assessment_seconds",
			Help:      "Wall time to assess one fact.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		judgeAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "judge_attempts",
			Help:      "Judge invocations needed per fact.",
			Buckets:   prometheus.LinearBuckets(1, 1, 5),
		}),
		lastFlush: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_flush_timestamp_seconds",
			Help:      "Unix time of the last metrics export.",
		}),
	}
	r.registry.MustRegister(
		r.documents,
		r.chunks,
		r.facts,
		r.factFailures,
		r.factLatency,
		r.judgeAttempts,
		r.lastFlush,
	)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Path returns the textfile path, empty when exporting is disabled.
func (r *Recorder) Path() string {
	return r.path
}

// DocumentExtracted counts an extraction attempt.
func (r *Recorder) DocumentExtracted(status string) {
	r.documents.WithLabelValues(status).Inc()
}

// ChunksEmbedded counts embedded chunks.
func (r *Recorder) ChunksEmbedded(ok, degraded int) {
	if ok > 0 {
		r.chunks.WithLabelValues("ok").Add(float64(ok))
	}
	if degraded > 0 {
		r.chunks.WithLabelValues("degraded").Add(float64(degraded))
	}
}

// FactAssessed records one completed fact.
func (r *Recorder) FactAssessed(outcome string, latency time.Duration) {
	r.facts.WithLabelValues(outcome).Inc()
	r.factLatency.Observe(latency.Seconds())
}

// FactFailed counts a fact that errored.
func (r *Recorder) FactFailed() {
	r.factFailures.Inc()
}

// JudgeAttempts records the judge calls one fact needed.
func (r *Recorder) JudgeAttempts(n int) {
	if n > 0 {
		r.judgeAttempts.Observe(float64(n))
	}
}

// Flush writes every collector to the textfile.
func (r *Recorder) Flush() error {
	if r.path == "" {
		return nil
	}
	r.lastFlush.SetToCurrentTime()
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(r.path, r.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
