// Package metrics instruments a tiered cache engine with Prometheus metrics,
// tracked per tier (probationary/main/ghost) rather than per key.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// NewCollector creates a metric collector for a named cache instance, or a
// no-op collector if enabled is false. Keeping both implementations behind
// one constructor lets callers wire metrics without a conditional at every
// call site.
func NewCollector(enabled bool, name string, capacity uint64, cacheName string) Collector {
	if !enabled {
		return &NoOpCollector{}
	}
	return NewPrometheusCollector(name, capacity, cacheName)
}

// Collector defines the interface for metric collection operations,
// allowing the engine to hold either a real Prometheus collector or a
// no-op implementation behind the same field.
type Collector interface {
	prometheus.Collector

	IncInsertion(tier Tier)
	IncEviction(tier Tier, reason EvictionReason)
	IncHit(tier Tier)
	IncMiss()
	IncGhostHit()
	SetOccupiedBytes(tier Tier, bytes uint64)
	SetObjects(tier Tier, n uint64)
}
