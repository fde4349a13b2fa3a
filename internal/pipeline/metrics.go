package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the pipeline's Prometheus collectors. A nil *Metrics records
// nothing.
type Metrics struct {
	runs          *prometheus.CounterVec
	failures      prometheus.Counter
	fallbacks     *prometheus.CounterVec
	audits        *prometheus.CounterVec
	retrieved     prometheus.Histogram
	stageDuration *prometheus.HistogramVec
}

// NewMetrics registers the pipeline collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		// runs counts completed runs by generation mode
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "interlingua_pipeline_runs_total",
			Help: "Completed pipeline runs by generation mode",
		}, []string{"mode"}),

		failures: f.NewCounter(prometheus.CounterOpts{
			Name: "interlingua_pipeline_failures_total",
			Help: "Runs where both primary and legacy generation failed",
		}),

		// fallbacks counts stages that degraded instead of failing
		fallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "interlingua_pipeline_fallbacks_total",
			Help: "Stage fallbacks by stage",
		}, []string{"stage"}),

		audits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "interlingua_pipeline_audits_total",
			Help: "Audit outcomes",
		}, []string{"outcome"}),

		retrieved: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "interlingua_pipeline_retrieved_documents",
			Help:    "Documents retrieved per run",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
		}),

		stageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "interlingua_pipeline_stage_duration_seconds",
			Help:    "Stage duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms to ~4min
		}, []string{"stage"}),
	}
}

func (m *Metrics) run(mode Mode) {
	if m != nil {
		m.runs.WithLabelValues(string(mode)).Inc()
	}
}

func (m *Metrics) failure() {
	if m != nil {
		m.failures.Inc()
	}
}

func (m *Metrics) fallback(stage string) {
	if m != nil {
		m.fallbacks.WithLabelValues(stage).Inc()
	}
}

func (m *Metrics) audit(outcome string) {
	if m != nil {
		m.audits.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) retrievedDocs(n int) {
	if m != nil {
		m.retrieved.Observe(float64(n))
	}
}

func (m *Metrics) stage(name string, start time.Time) {
	if m != nil {
		m.stageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}
}
