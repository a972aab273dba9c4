package providers

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	providerRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "weathervue",
		Subsystem: "provider",
		Name:      "requests_total",
		Help:      "Outbound weather provider requests by endpoint and outcome.",
	}, []string{"provider", "endpoint", "outcome"})

	providerLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "weathervue",
		Subsystem: "provider",
		Name:      "request_duration_seconds",
		Help:      "Latency of outbound weather provider requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"provider", "endpoint"})
)

func observeRequest(provider, endpoint string, started time.Time, err error) {
	providerRequests.WithLabelValues(provider, endpoint, outcomeOf(err)).Inc()
	providerLatency.WithLabelValues(provider, endpoint).Observe(time.Since(started).Seconds())
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case callerGaveUp(err):
		return "canceled"
	case errors.Is(err, errRateLimited):
		return "rate_limited"
	case errors.Is(err, errCircuitOpen):
		return "circuit_open"
	case errors.Is(err, errServerError):
		return "server_error"
	default:
		return "error"
	}
}
