package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests by tenant and status class",
		},
		[]string{"tenant", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"tenant"},
	)

	RateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limited_total",
			Help: "Requests rejected by the rate limiter, by window",
		},
		[]string{"window"},
	)

	BetsSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bets_submitted_total",
			Help: "Bets accepted per tenant",
		},
		[]string{"tenant"},
	)

	DeploysTriggered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deploys_triggered_total",
			Help: "Site deployments triggered per tenant and outcome",
		},
		[]string{"tenant", "status"},
	)
)

// Init registers metrics with Prometheus
func Init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(RateLimited)
	prometheus.MustRegister(BetsSubmitted)
	prometheus.MustRegister(DeploysTriggered)
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
