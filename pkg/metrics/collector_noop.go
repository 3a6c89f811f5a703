package metrics

import "github.com/prometheus/client_golang/prometheus"

var _ Collector = (*NoOpCollector)(nil)

// NoOpCollector discards every event. Used when a cache is built without
// metrics enabled, so the engine never needs a nil check at the call site.
type NoOpCollector struct{}

func (n *NoOpCollector) IncInsertion(tier Tier)                       {}
func (n *NoOpCollector) IncEviction(tier Tier, reason EvictionReason) {}
func (n *NoOpCollector) IncHit(tier Tier)                             {}
func (n *NoOpCollector) IncMiss()                                     {}
func (n *NoOpCollector) IncGhostHit()                                 {}
func (n *NoOpCollector) SetOccupiedBytes(tier Tier, bytes uint64)     {}
func (n *NoOpCollector) SetObjects(tier Tier, nObjects uint64)        {}
func (n *NoOpCollector) Describe(ch chan<- *prometheus.Desc)          {}
func (n *NoOpCollector) Collect(ch chan<- prometheus.Metric)          {}
