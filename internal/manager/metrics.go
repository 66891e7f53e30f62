package manager

import "github.com/prometheus/client_golang/prometheus"

var (
	loadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "modelhub",
			Subsystem: "manager",
			Name:      "loads_total",
			Help:      "Model load attempts by result",
		},
		[]string{"model", "result"},
	)

	loadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "modelhub",
			Subsystem: "manager",
			Name:      "load_duration_seconds",
			Help:      "Duration of successful loads, including downloads",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"model"},
	)

	evictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "modelhub",
			Subsystem: "manager",
			Name:      "unloads_total",
			Help:      "Instances removed from the cache by reason (evict, idle, explicit, shutdown)",
		},
		[]string{"reason"},
	)

	loadedModels = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "modelhub",
			Subsystem: "manager",
			Name:      "loaded_models",
			Help:      "Number of cached ready instances",
		},
	)

	generateTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "modelhub",
			Subsystem: "manager",
			Name:      "generate_total",
			Help:      "Generate and translate calls by kind and result",
		},
		[]string{"kind", "result"},
	)
)

func init() {
	prometheus.MustRegister(loadsTotal, loadDuration, evictionsTotal, loadedModels, generateTotal)
}
