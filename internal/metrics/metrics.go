// Package metrics holds Prometheus instruments that are used across the
// service.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoconfig_resolutions_total",
			Help: "Resolutions by outcome (ok, not_found, unresolved, cyclic, error).",
		}, []string{"outcome"})

	ResolveSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "autoconfig_resolve_seconds",
			Help:    "Time spent merging, importing, and resolving one identity.",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 12),
		})

	ConfigReloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoconfig_config_reloads_total",
			Help: "Configuration reloads by result.",
		}, []string{"result"})

	ConfigGeneration = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "autoconfig_config_generation",
			Help: "Generation number of the configuration currently served.",
		})

	RenderCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoconfig_render_cache_total",
			Help: "Rendered-document cache lookups by result (hit, miss).",
		}, []string{"result"})

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoconfig_requests_total",
			Help: "Autoconfig requests by client family.",
		}, []string{"client"})
)

func init() {
	prometheus.MustRegister(
		ResolutionsTotal,
		ResolveSeconds,
		ConfigReloadsTotal,
		ConfigGeneration,
		RenderCacheTotal,
		RequestsTotal,
	)
}
