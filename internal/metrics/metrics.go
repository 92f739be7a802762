// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DispatchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memberdesk_dispatch_requests_total",
			Help: "Total number of dispatched requests by operation, request mode and outcome",
		},
		[]string{"operation", "mode", "status"},
	)

	DispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "memberdesk_dispatch_duration_seconds",
			Help:    "Duration of request dispatch in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	ParseFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memberdesk_parse_failures_total",
			Help: "Total number of parser failures by guesser rule",
		},
		[]string{"rule"},
	)

	StoreCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "memberdesk_store_call_duration_seconds",
			Help:    "Duration of record store calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "category"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memberdesk_cache_lookups_total",
			Help: "Record cache lookups by result",
		},
		[]string{"result"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memberdesk_http_requests_total",
			Help: "Total number of HTTP requests by route and status code",
		},
		[]string{"route", "code"},
	)
)
