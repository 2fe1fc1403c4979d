package datasource

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	gatewayRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "maptoposter",
		Subsystem: "gateway",
		Name:      "requests_total",
		Help:      "Overpass requests by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})

	gatewayRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "maptoposter",
		Subsystem: "gateway",
		Name:      "request_duration_seconds",
		Help:      "Overpass request latency.",
		Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 25, 60},
	}, []string{"endpoint"})

	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "maptoposter",
		Subsystem: "gateway",
		Name:      "cache_lookups_total",
		Help:      "Stage cache lookups by result.",
	}, []string{"result"})

	endpointFailures = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "maptoposter",
		Subsystem: "gateway",
		Name:      "endpoint_failures",
		Help:      "Current consecutive failure count per endpoint.",
	}, []string{"endpoint"})
)
