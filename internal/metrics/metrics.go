package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ScansProcessed *prometheus.CounterVec
	LookupErrors   prometheus.Counter
	RequestSeconds *prometheus.HistogramVec
	ActiveWorkers  prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		ScansProcessed: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "gridrank_scans_processed_total",
			Help: "Total number of processed grid scans.",
		}, []string{"status"}),
		LookupErrors: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "gridrank_provider_lookup_errors_total",
			Help: "Total number of errors received from the ranking provider API.",
		}),
		RequestSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gridrank_scan_duration_seconds",
			Help:    "Duration of full grid scan estimations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		ActiveWorkers: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "gridrank_active_workers",
			Help: "Current number of active workers processing scans.",
		}),
	}
}
