package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/otherjamesbrown/brandlens/pkg/visibility"
)

// Namespace prefixes every brandlens metric.
const Namespace = "brandlens"

// Metrics holds the Prometheus collectors for evaluation runs.
type Metrics struct {
	// Unit metrics
	UnitsTotal   *prometheus.CounterVec
	UnitScore     prometheus.Histogram
	MentionsTotal *prometheus.CounterVec
	StageSeconds  *prometheus.HistogramVec

	// External calls
	FetchesTotal         *prometheus.CounterVec
	CorroborationsTotal  *prometheus.CounterVec
	CorroborationSeconds *prometheus.HistogramVec

	// Run metrics
	RunsTotal        *prometheus.CounterVec
	RunMentionRate   *prometheus.GaugeVec
	RunAverageScore  *prometheus.GaugeVec
	RunDurationHisto prometheus.Histogram
}

// NewMetrics registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		UnitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "units_total",
				Help:      "Evaluation units processed, by outcome",
			},
			[]string{"status", "mentioned", "error_code"},
		),
		UnitScore: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "unit_visibility_score",
				Help:      "Visibility score of successfully evaluated units",
				Buckets:   prometheus.LinearBuckets(10, 10, 10),
			},
		),
		MentionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "mentions_total",
				Help:      "Mentioned units, by rank bucket and sentiment",
			},
			[]string{"rank", "sentiment"},
		),
		StageSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "stage_seconds",
				Help:      "Time spent per unit in each pipeline stage",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30},
			},
			[]string{"stage"},
		),
		FetchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "fetches_total",
				Help:      "Page fetches, by status",
			},
			[]string{"status"},
		),
		CorroborationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "corroborations_total",
				Help:      "External corroboration calls, by provider and status",
			},
			[]string{"provider", "status"},
		),
		CorroborationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "corroboration_seconds",
				Help:      "Latency of external corroboration calls",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"provider"},
		),
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "runs_total",
				Help:      "Completed runs, by recommendation tier",
			},
			[]string{"recommendation"},
		),
		RunMentionRate: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "run_mention_rate_percent",
				Help:      "Mention rate of the latest run per target",
			},
			[]string{"target"},
		),
		RunAverageScore: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "run_average_score",
				Help:      "Average visibility score of the latest run per target",
			},
			[]string{"target"},
		),
		RunDurationHisto: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "run_duration_seconds",
				Help:      "Wall time of a full run",
				Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
			},
		),
	}
}

// RecordUnit counts one evaluated unit and observes its score.
func (m *Metrics) RecordUnit(r visibility.MentionResult) {
	if m == nil {
		return
	}
	if r.Failed() {
		m.UnitsTotal.WithLabelValues("failed", "false", r.ErrorCode).Inc()
		return
	}
	m.UnitsTotal.WithLabelValues("ok", strconv.FormatBool(r.Mentioned), "").Inc()
	m.UnitScore.Observe(float64(r.VisibilityScore))
	if r.Mentioned {
		m.MentionsTotal.WithLabelValues(string(r.Rank), string(r.Sentiment)).Inc()
	}
}

// RecordStage observes the time a unit spent in stage.
func (m *Metrics) RecordStage(stage string, seconds float64) {
	if m == nil {
		return
	}
	m.StageSeconds.WithLabelValues(stage).Observe(seconds)
}

// RecordFetch counts a page fetch.
func (m *Metrics) RecordFetch(status string) {
	if m == nil {
		return
	}
	m.FetchesTotal.WithLabelValues(status).Inc()
}

// RecordCorroboration counts an external call and observes its latency.
func (m *Metrics) RecordCorroboration(provider, status string, seconds float64) {
	if m == nil {
		return
	}
	m.CorroborationsTotal.WithLabelValues(provider, status).Inc()
	m.CorroborationSeconds.WithLabelValues(provider).Observe(seconds)
}

// RecordRun records the summary of a finished run.
func (m *Metrics) RecordRun(target string, s visibility.RunSummary, seconds float64) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(string(s.Recommendation)).Inc()
	m.RunMentionRate.WithLabelValues(target).Set(s.MentionRate)
	m.RunAverageScore.WithLabelValues(target).Set(s.AverageScore)
	m.RunDurationHisto.Observe(seconds)
}

// WriteTextfile writes everything g gathers to path in the text exposition
// format, for pickup by a node_exporter textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
