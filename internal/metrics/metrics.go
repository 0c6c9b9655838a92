// Package metrics registers the gateway's Prometheus collectors.
package metrics

import (
	"time"

	"github.com/Harshitk-cp/crmgate/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "crmgate"

var (
	RemoteCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "remote_calls_total",
		Help:      "Remote REST calls by method and outcome.",
	}, []string{"method", "outcome"})

	RemoteCallDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "remote_call_duration_seconds",
		Help:      "Latency of remote REST calls.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})

	TokenRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_requests_total",
		Help:      "Token endpoint requests by grant type and outcome.",
	}, []string{"grant_type", "outcome"})

	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Inbound HTTP requests by method and status.",
	}, []string{"method", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Latency of inbound HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})
)

func init() {
	prometheus.MustRegister(RemoteCalls, RemoteCallDuration, TokenRequests, HTTPRequests, HTTPRequestDuration)
}

// ObserveRemoteCall records one remote call outcome.
func ObserveRemoteCall(method string, start time.Time, err error) {
	RemoteCalls.WithLabelValues(method, domain.KindName(domain.KindOf(err))).Inc()
	RemoteCallDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
}

// ObserveTokenRequest records one token endpoint outcome.
func ObserveTokenRequest(grantType string, err error) {
	TokenRequests.WithLabelValues(grantType, domain.KindName(domain.KindOf(err))).Inc()
}
