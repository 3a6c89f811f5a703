package metrics

import "github.com/samber/tiered-cache/pkg/subcache"

// Tier identifies which sub-cache an event happened in, so a single
// Collector can report per-tier breakdowns under one Prometheus metric
// family.
type Tier string

const (
	TierProbationary Tier = "probationary"
	TierMain         Tier = "main"
	TierGhost        Tier = "ghost"
)

// EvictionReason re-exports subcache.EvictionReason so callers only ever
// need to import this package for metrics wiring.
type EvictionReason = subcache.EvictionReason
