package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	refreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ampairs_session_refresh_total",
		Help: "Token refresh attempts by outcome.",
	}, []string{"outcome"})

	logoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ampairs_session_logouts_total",
		Help: "Session terminations by reason.",
	}, []string{"reason"})

	verifyFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ampairs_session_verify_failures_total",
		Help: "Failed OTP or Firebase verification attempts.",
	})
)
