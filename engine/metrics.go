package engine

import "github.com/prometheus/client_golang/prometheus"

var (
	transfersTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "transferd",
		Subsystem: "engine",
		Name:      "transfers_total",
		Help:      "Finished transfers by outcome status.",
	}, []string{"status"})

	transferRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "transferd",
		Subsystem: "engine",
		Name:      "transfer_retries_total",
		Help:      "Transfer attempts retried after a commit conflict.",
	})

	transferDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "transferd",
		Subsystem: "engine",
		Name:      "transfer_duration_seconds",
		Help:      "Wall time of one Transfer call, lock wait included.",
		Buckets:   prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(transfersTotal, transferRetries, transferDuration)
}
