// metrics.go — Prometheus HTTP метрики портала.
// Регистрирует метрики: zp_http_requests_total, zp_http_request_duration_seconds.
// Лейбл path — шаблон маршрута chi, а не фактический путь: идентификаторы
// дашбордов и документов не попадают в метки.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики портала
var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zp_http_requests_total",
			Help: "Общее количество HTTP-запросов к порталу",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "zp_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к порталу в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
// Записывает количество запросов и длительность для каждого маршрута.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := newResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			// Шаблон маршрута известен только после роутинга
			path := routePattern(r)
			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.statusCode)

			httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
		})
	}
}

// routePattern возвращает шаблон маршрута chi или нормализованный путь,
// если маршрут не найден.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return normalizePath(r.URL.Path)
}

// normalizePath схлопывает неизвестные пути, чтобы не раздувать кардинальность.
// /api/v1/views/3f1c.../documents → /api/v1/views/{view_id}/documents
func normalizePath(path string) string {
	switch path {
	case "/health/live", "/health/ready", "/metrics",
		"/api/v1/session", "/api/v1/views":
		return path
	}

	const viewsPrefix = "/api/v1/views/"
	if strings.HasPrefix(path, viewsPrefix) {
		rest := strings.TrimPrefix(path, viewsPrefix)
		if _, tail, found := strings.Cut(rest, "/"); found {
			section, _, _ := strings.Cut(tail, "/")
			return viewsPrefix + "{view_id}/" + section
		}
		return viewsPrefix + "{view_id}"
	}

	return "unmatched"
}
