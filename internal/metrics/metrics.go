package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

var (
	RefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imo_refresh_total",
			Help: "Listing fetches by outcome",
		},
		[]string{"result"},
	)

	RefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "imo_refresh_duration_seconds",
			Help:    "Duration of listing fetches in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)

	MarksPushTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imo_marks_push_total",
			Help: "Background mark pushes to the remote by outcome",
		},
		[]string{"result"},
	)

	MarksLoadTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imo_marks_load_total",
			Help: "Mark reconciliations by outcome (ok, error for remote failure)",
		},
		[]string{"result"},
	)

	PipelineRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "imo_pipeline_runs_total",
			Help: "Derived view recomputations",
		},
	)

	VisibleListings = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "imo_visible_listings",
			Help: "Listings in the last derived view",
		},
	)
)

// Result maps an error to a result label.
func Result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
