// Package metrics exposes Prometheus collectors for the resolver service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	resolverResolutionsTotal          *prometheus.CounterVec
	resolverStrategyAttemptsTotal     *prometheus.CounterVec
	resolverStrategyDurationSeconds   *prometheus.HistogramVec
	resolverImageSelectionTotal       *prometheus.CounterVec
	resolverRedirectResolutionsTotal  *prometheus.CounterVec
	httpRequestsTotal                 *prometheus.CounterVec
	httpRequestDurationSeconds        *prometheus.HistogramVec
	resolverCatalogPublishFailedTotal prometheus.Counter

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		resolverResolutionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resolver_resolutions_total",
				Help: "Total number of resolutions, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		resolverStrategyAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resolver_strategy_attempts_total",
				Help: "Total number of strategy attempts, labeled by strategy and outcome.",
			},
			[]string{"strategy", "outcome"},
		)

		resolverStrategyDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "resolver_strategy_duration_seconds",
				Help:    "Histogram of strategy latencies, labeled by strategy.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
			},
			[]string{"strategy"},
		)

		resolverImageSelectionTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resolver_image_selection_total",
				Help: "Total number of image selections, labeled by source.",
			},
			[]string{"source"},
		)

		resolverRedirectResolutionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resolver_redirect_resolutions_total",
				Help: "Total number of short-link redirect resolutions, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"method", "route"},
		)

		resolverCatalogPublishFailedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "resolver_catalog_publish_failed_total",
				Help: "Total number of listing events that could not be published.",
			},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveResolution increments the resolution counter for the given outcome.
func ObserveResolution(outcome string) {
	resolverResolutionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveStrategy records one strategy attempt.
func ObserveStrategy(strategy, outcome string, duration time.Duration) {
	resolverStrategyAttemptsTotal.WithLabelValues(strategy, outcome).Inc()
	resolverStrategyDurationSeconds.WithLabelValues(strategy).Observe(duration.Seconds())
}

// ObserveImageSelection records where the final image came from.
func ObserveImageSelection(source string) {
	resolverImageSelectionTotal.WithLabelValues(source).Inc()
}

// ObserveRedirect records a short-link resolution outcome.
func ObserveRedirect(outcome string) {
	resolverRedirectResolutionsTotal.WithLabelValues(outcome).Inc()
}

// ObservePublishFailure increments the failed publish counter.
func ObservePublishFailure() {
	resolverCatalogPublishFailedTotal.Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
