package curation

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	OffersPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curation_offers_published_total",
			Help: "Count of offers published, by pass (strict, backfill, rescue).",
		},
		[]string{"pass"},
	)

	PublishFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "curation_publish_failures_total",
			Help: "Publish attempts that failed and were skipped.",
		},
	)

	ShortfallRunsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "curation_shortfall_runs_total",
			Help: "Runs that ended below the target publish count after all passes.",
		},
	)
)

func init() {
	prometheus.MustRegister(OffersPublishedTotal, PublishFailuresTotal, ShortfallRunsTotal)
}
