// Package metrics exposes Prometheus collectors for generation runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeDegraded = "degraded"
	OutcomeFailed   = "failed"
	OutcomeCanceled = "canceled"
)

// Pipeline stages.
const (
	StageSynthesize = "synthesize"
	StageNormalize  = "normalize"
	StageEncode     = "encode"
)

// Metrics groups the collectors of one registry. A nil *Metrics is a valid
// no-op recorder.
type Metrics struct {
	FrequenciesProcessed prometheus.Counter
	FrequenciesRejected  *prometheus.CounterVec
	Runs                 *prometheus.CounterVec
	StageDuration        *prometheus.HistogramVec
	EncodedBytes         prometheus.Gauge
	OutputPeak           prometheus.Gauge
}

// New registers the collectors on reg. A nil reg uses a private registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Metrics{
		// Counters
		FrequenciesProcessed: f.NewCounter(prometheus.CounterOpts{
			Name: "neuroaudio_frequencies_processed_total",
			Help: "Frequencies synthesized into a composite",
		}),
		FrequenciesRejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "neuroaudio_frequencies_rejected_total",
			Help: "Input readings skipped, by reason",
		}, []string{"reason"}),
		Runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "neuroaudio_runs_total",
			Help: "Pipeline runs by outcome",
		}, []string{"outcome"}),

		// Histograms
		StageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "neuroaudio_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"stage"}),

		// Gauges
		EncodedBytes: f.NewGauge(prometheus.GaugeOpts{
			Name: "neuroaudio_encoded_bytes",
			Help: "Size of the last encoded output",
		}),
		OutputPeak: f.NewGauge(prometheus.GaugeOpts{
			Name: "neuroaudio_output_peak",
			Help: "Composite peak before normalization, int16 units",
		}),
	}
}

func (m *Metrics) Processed(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.FrequenciesProcessed.Add(float64(n))
}

func (m *Metrics) Rejected(reason string) {
	if m == nil {
		return
	}
	m.FrequenciesRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) Run(outcome string) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(outcome).Inc()
}

// ObserveStage records the time elapsed since start for stage.
func (m *Metrics) ObserveStage(stage string, start time.Time) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

func (m *Metrics) Encoded(bytes int, peak float64) {
	if m == nil {
		return
	}
	m.EncodedBytes.Set(float64(bytes))
	m.OutputPeak.Set(peak)
}

// WriteTextfile dumps every metric in g to path in the text exposition
// format, for node_exporter's textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
