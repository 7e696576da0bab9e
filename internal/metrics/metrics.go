// Package metrics holds Prometheus instruments used across hemo.  All
// collectors are registered with the global registry, so importing this
// package is enough to expose them on the web shell's /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ClientRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hemo_client_requests_total",
			Help: "Outbound REST calls by session scope and HTTP status class.",
		}, []string{"scope", "class"})

	ClientUnauthorizedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hemo_client_unauthorized_total",
			Help: "401 responses that cleared a session namespace.",
		}, []string{"scope"})

	TenantChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hemo_tenant_checks_total",
			Help: "check-subdomain calls by outcome.",
		}, []string{"outcome"})

	GuardDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hemo_guard_decisions_total",
			Help: "Route guard decisions by zone and outcome.",
		}, []string{"zone", "outcome"})

	CachedTenants = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hemo_cached_tenants",
			Help: "Subdomain validation results currently cached.",
		})
)

func init() {
	prometheus.MustRegister(
		ClientRequestsTotal,
		ClientUnauthorizedTotal,
		TenantChecksTotal,
		GuardDecisionsTotal,
		CachedTenants,
	)
}
