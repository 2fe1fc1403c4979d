package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var sessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "maptoposter",
	Subsystem: "pipeline",
	Name:      "sessions_total",
	Help:      "Fetch sessions by terminal status.",
}, []string{"status"})
