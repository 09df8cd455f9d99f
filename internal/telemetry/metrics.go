// Package telemetry exposes run metrics through a private Prometheus registry
// that the CLI writes out in the node-exporter textfile format.
package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"yashubustudio/tracelink/tracelink"
)

const namespace = "tracelink"

// Outcome category label values.
const (
	CategoryIndicatedPredicted       = "indicated_predicted"
	CategoryIndicatedNotPredicted    = "indicated_not_predicted"
	CategoryNotIndicatedPredicted    = "not_indicated_predicted"
	CategoryNotIndicatedNotPredicted = "not_indicated_not_predicted"
)

// Metrics implements tracelink.Recorder.
type Metrics struct {
	reg *prometheus.Registry

	runs         prometheus.Counter
	stageSeconds *prometheus.HistogramVec
	requirements *prometheus.GaugeVec
	vocabulary   prometheus.Gauge
	links        *prometheus.GaugeVec
	outcomes     *prometheus.GaugeVec
}

var _ tracelink.Recorder = (*Metrics)(nil)

// New registers every collector on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed linking runs.",
		}),
		stageSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time of each pipeline stage.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}, []string{"stage"}),
		requirements: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "requirements",
			Help:      "Requirements in the last run by level.",
		}, []string{"level"}),
		vocabulary: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "vocabulary_terms",
			Help:      "Distinct terms in the last run.",
		}),
		links: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "links",
			Help:      "Predicted links in the last run by match type.",
		}, []string{"match_type"}),
		outcomes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "evaluation_pairs",
			Help:      "Evaluated (high, low) pairs of the last run by outcome category.",
		}, []string{"category"}),
	}
	m.reg.MustRegister(m.runs, m.stageSeconds, m.requirements, m.vocabulary, m.links, m.outcomes)
	return m
}

// Registry exposes the registry, for tests and custom exporters.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// ObserveStage records the duration of a pipeline stage.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	m.stageSeconds.WithLabelValues(stage).Observe(d.Seconds())
}

// ObserveRun records the sizes and outcome counts of a finished run.
func (m *Metrics) ObserveRun(s tracelink.RunSummary) {
	m.runs.Inc()
	m.requirements.WithLabelValues("high").Set(float64(s.High))
	m.requirements.WithLabelValues("low").Set(float64(s.Low))
	m.vocabulary.Set(float64(s.Vocabulary))
	m.links.WithLabelValues(strconv.Itoa(int(s.MatchType))).Set(float64(s.Links))
	if s.Counts == nil {
		return
	}
	m.outcomes.WithLabelValues(CategoryIndicatedPredicted).Set(float64(s.Counts.IndicatedPredicted))
	m.outcomes.WithLabelValues(CategoryIndicatedNotPredicted).Set(float64(s.Counts.IndicatedNotPredicted))
	m.outcomes.WithLabelValues(CategoryNotIndicatedPredicted).Set(float64(s.Counts.NotIndicatedPredicted))
	m.outcomes.WithLabelValues(CategoryNotIndicatedNotPredicted).Set(float64(s.Counts.NotIndicatedNotPredicted))
}

// WriteTextfile writes the current metrics to path atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.reg); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
