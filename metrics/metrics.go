package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arkive_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "arkive_http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// VerdictsTotal counts classifier verdicts.
	VerdictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arkive_verdicts_total",
			Help: "Total number of classified URLs by verdict.",
		},
		[]string{"verdict"},
	)

	// SubmissionsTotal counts submissions by result: success, rate_limited, failure, in_flight.
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arkive_submissions_total",
			Help: "Total number of archive submissions by result.",
		},
		[]string{"result"},
	)

	ProviderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "arkive_provider_request_duration_seconds",
			Help:    "Duration of calls to the archive provider.",
			Buckets: []float64{0.5, 1, 5, 10, 30, 60, 120},
		},
	)
)
