package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeOK        = "ok"
	outcomeNetwork   = "network_error"
	outcomeMalformed = "malformed"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hscide_client",
			Name:      "requests_total",
			Help:      "Backend round trips by endpoint and outcome.",
		},
		[]string{"endpoint", "outcome"},
	)

	derivedStatusTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hscide_client",
			Name:      "derived_status_total",
			Help:      "DeriveStatus results by running state.",
		},
		[]string{"running"},
	)
)
