package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
	"sync"
)

var (
	ErrorsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "job_digest_errors_total",
			Help: "Total number of logged errors and typed warnings.",
		},
		[]string{"type", "level"},
	)
	RunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "job_digest_run_duration_seconds",
			Help:    "Duration of each pipeline run in seconds.",
			Buckets: []float64{10, 60, 300, 900, 1800, 3600},
		},
	)
	StageDuration = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "job_digest_stage_duration_seconds",
			Help:       "Duration of each stage of the pipeline run.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"stage"},
	)
	RunStage = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "job_digest_run_stage",
			Help: "Index of the stage the current run is in, -1 when failed.",
		},
	)
	RunsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "job_digest_runs_total",
			Help: "Total number of finished runs by final state.",
		},
		[]string{"state"},
	)
	PostingsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "job_digest_postings_total",
			Help: "Total number of postings by outcome: fetched, malformed, deduped, scored, failed, deferred, reported.",
		},
		[]string{"outcome"},
	)
	ScoreAnomaliesCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "job_digest_score_anomalies_total",
			Help: "Total number of scoring responses that had to be clamped or coerced.",
		},
	)
	BudgetSpent = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "job_digest_budget_spent",
			Help: "Scoring calls spent today.",
		},
	)
)

var registerOnce sync.Once

func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(ErrorsCounter)
		prometheus.MustRegister(RunDuration)
		prometheus.MustRegister(StageDuration)
		prometheus.MustRegister(RunStage)
		prometheus.MustRegister(RunsCounter)
		prometheus.MustRegister(PostingsCounter)
		prometheus.MustRegister(ScoreAnomaliesCounter)
		prometheus.MustRegister(BudgetSpent)
	})
}

// Handler registers the collectors and returns the scrape handler.
func Handler() http.Handler {
	Register()
	return promhttp.Handler()
}
