package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RidesCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_marketplace", Name: "rides_created_total", Help: "Total rides created"})
	RideJoinsTotal    = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_marketplace", Name: "ride_joins_total", Help: "Total successful rider joins"})
	DriverAssignments = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_marketplace", Name: "driver_assignments_total", Help: "Total successful driver assignments"})
	SettlementsTotal  = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_marketplace", Name: "settlements_total", Help: "Total successful ride settlements"})
	TokensCredited    = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_marketplace", Name: "tokens_credited_total", Help: "Total tokens credited"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ride_marketplace", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ride_marketplace",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
