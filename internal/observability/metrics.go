package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "identity_service",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Count of HTTP requests by method, route pattern and status code.",
	}, []string{"method", "route", "status"})

	httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "identity_service",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route pattern.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	accountsCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "identity_service",
		Subsystem: "accounts",
		Name:      "created_total",
		Help:      "Count of account creation requests by outcome (fresh or replayed).",
	}, []string{"outcome"})

	tokensIssuedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "identity_service",
		Subsystem: "tokens",
		Name:      "issued_total",
		Help:      "Count of credential bundles issued.",
	})

	tokensRefreshedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "identity_service",
		Subsystem: "tokens",
		Name:      "refreshed_total",
		Help:      "Count of refresh rotations completed.",
	})

	tokensRevokedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "identity_service",
		Subsystem: "tokens",
		Name:      "revoked_total",
		Help:      "Count of refresh tokens revoked ahead of expiry.",
	})

	rateLimitRejectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "identity_service",
		Subsystem: "ratelimit",
		Name:      "rejections_total",
		Help:      "Count of requests rejected by the sliding window quota, by operation.",
	}, []string{"operation"})
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		accountsCreatedTotal,
		tokensIssuedTotal,
		tokensRefreshedTotal,
		tokensRevokedTotal,
		rateLimitRejectionsTotal,
	)
}

// RecordHTTPRequest counts one completed request and observes its latency.
func RecordHTTPRequest(method, route, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordAccountCreated counts an account creation by outcome.
func RecordAccountCreated(replayed bool) {
	outcome := "fresh"
	if replayed {
		outcome = "replayed"
	}
	accountsCreatedTotal.WithLabelValues(outcome).Inc()
}

// RecordTokenIssued counts a freshly issued credential bundle.
func RecordTokenIssued() {
	tokensIssuedTotal.Inc()
}

// RecordTokenRefreshed counts a completed rotation.
func RecordTokenRefreshed() {
	tokensRefreshedTotal.Inc()
}

// RecordTokenRevoked counts an explicit revocation.
func RecordTokenRevoked() {
	tokensRevokedTotal.Inc()
}

// RecordRateLimitRejection counts a quota rejection for the operation.
func RecordRateLimitRejection(operation string) {
	rateLimitRejectionsTotal.WithLabelValues(operation).Inc()
}
