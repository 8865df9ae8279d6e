package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Wall time of one full pipeline run, fetch through publish
	RunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "curation_run_duration_seconds",
		Help:    "Duration of a full curation run",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
	})

	// Total pipeline runs by outcome
	RunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "curation_runs_total",
		Help: "Total curation runs by outcome",
	}, []string{"outcome"})

	ConversionSyncsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "conversion_syncs_total",
		Help: "Total conversion report syncs",
	})
)

func Init() {
	prometheus.MustRegister(
		RunDuration,
		RunsTotal,
		ConversionSyncsTotal,
	)
}
