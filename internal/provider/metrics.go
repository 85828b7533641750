package provider

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hedisam/rscanner/internal/custompromauto"
)

var requests = custompromauto.Auto().NewCounterVec(prometheus.CounterOpts{
	Namespace: custompromauto.Namespace,
	Subsystem: "provider",
	Name:      "requests_total",
	Help:      "Number of provider http requests by response status",
}, []string{"provider", "status"})

var retries = custompromauto.Auto().NewCounterVec(prometheus.CounterOpts{
	Namespace: custompromauto.Namespace,
	Subsystem: "provider",
	Name:      "retries_total",
	Help:      "Number of retried provider requests",
}, []string{"provider"})

var inFlightRequests = custompromauto.Auto().NewGaugeVec(prometheus.GaugeOpts{
	Namespace: custompromauto.Namespace,
	Subsystem: "provider",
	Name:      "in_flight_requests",
	Help:      "Number of provider http requests currently in flight",
}, []string{"provider"})

var unavailable = custompromauto.Auto().NewCounterVec(prometheus.CounterOpts{
	Namespace: custompromauto.Namespace,
	Subsystem: "provider",
	Name:      "unavailable_total",
	Help:      "Number of calls for which no provider returned a result",
}, []string{"operation"})
