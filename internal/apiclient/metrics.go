// metrics.go — Prometheus метрики обращений к backend.
package apiclient

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// backendRequestDuration — длительность запросов к backend по операции и исходу.
var backendRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "zp_backend_request_duration_seconds",
		Help:    "Длительность запросов к backend в секундах",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"operation", "outcome"},
)

