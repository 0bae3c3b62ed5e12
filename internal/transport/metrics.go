package transport

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ampairs_requests_in_flight",
		Help: "Number of tracked requests currently in flight",
	})
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ampairs_http_requests_total",
		Help: "Outbound requests by terminal outcome",
	}, []string{"outcome"})
	authRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ampairs_auth_retries_total",
		Help: "Requests replayed after a successful token refresh",
	})
	refreshTriggersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ampairs_refresh_triggers_total",
		Help: "401 responses that triggered (or joined) a token refresh",
	})
)
