// metrics.go — Prometheus-метрики дашбордов.
package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Имена каталогов в метриках.
const (
	catalogDocuments = "documents"
	catalogClients   = "clients"
)

var (
	catalogFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zp_catalog_fetch_total",
		Help: "Количество загрузок каталогов (по каталогу и исходу).",
	}, []string{"catalog", "outcome"})

	staleResponsesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zp_stale_responses_discarded_total",
		Help: "Количество отброшенных устаревших ответов backend.",
	}, []string{"catalog"})

	activeViews = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "zp_views_active",
		Help: "Количество смонтированных дашбордов.",
	})
)
