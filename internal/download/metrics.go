package download

import "github.com/prometheus/client_golang/prometheus"

var (
	downloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "modelhub",
			Subsystem: "download",
			Name:      "requests_total",
			Help:      "Download calls by outcome (downloaded, already_present, failed, checksum_mismatch)",
		},
		[]string{"outcome"},
	)

	downloadBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "modelhub",
			Subsystem: "download",
			Name:      "bytes_total",
			Help:      "Bytes written to temporary download files",
		},
	)

	downloadRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "modelhub",
			Subsystem: "download",
			Name:      "retries_total",
			Help:      "Failed transfer attempts that were retried",
		},
	)

	resumeFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "modelhub",
			Subsystem: "download",
			Name:      "resume_restarts_total",
			Help:      "Ranged requests not honored by the server, restarted from zero",
		},
	)
)

func init() {
	prometheus.MustRegister(downloadsTotal, downloadBytes, downloadRetries, resumeFallbacks)
}
