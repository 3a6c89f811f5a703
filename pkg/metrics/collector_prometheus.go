package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

var _ Collector = (*PrometheusCollector)(nil)

type tierCounters struct {
	insertions int64
	hits       int64
	evictions  map[EvictionReason]*int64
	occupied   int64
	objects    int64
}

// PrometheusCollector implements Collector using lock-free atomic counters,
// exposed through the prometheus.Collector interface so callers register it
// directly with a registry instead of polling it.
type PrometheusCollector struct {
	name   string
	labels prometheus.Labels

	tiers     map[Tier]*tierCounters
	missCount int64
	ghostHits int64

	settingsCapacity prometheus.Gauge

	insertionDesc *prometheus.Desc
	evictionDesc  *prometheus.Desc
	hitDesc       *prometheus.Desc
	missDesc      *prometheus.Desc
	ghostHitDesc  *prometheus.Desc
	sizeDesc      *prometheus.Desc
	objectsDesc   *prometheus.Desc
}

// NewPrometheusCollector creates a Prometheus-backed collector for a cache
// instance identified by name, with cacheName recorded as a constant label
// (the TLFU/TFIFO configuration string, e.g. "TLFU-lfu-1-0.1000-1").
func NewPrometheusCollector(name string, capacity uint64, cacheName string) *PrometheusCollector {
	labels := prometheus.Labels{
		"name":  name,
		"cache": cacheName,
	}

	c := &PrometheusCollector{
		name:   name,
		labels: labels,
		tiers:  make(map[Tier]*tierCounters),

		insertionDesc: prometheus.NewDesc("tieredcache_insertion_total", "Total number of objects inserted", []string{"tier"}, labels),
		evictionDesc:  prometheus.NewDesc("tieredcache_eviction_total", "Total number of objects evicted", []string{"tier", "reason"}, labels),
		hitDesc:       prometheus.NewDesc("tieredcache_hit_total", "Total number of cache hits", []string{"tier"}, labels),
		missDesc:      prometheus.NewDesc("tieredcache_miss_total", "Total number of cache misses", nil, labels),
		ghostHitDesc:  prometheus.NewDesc("tieredcache_ghost_hit_total", "Total number of hits against the ghost directory", nil, labels),
		sizeDesc:      prometheus.NewDesc("tieredcache_occupied_bytes", "Current occupied bytes", []string{"tier"}, labels),
		objectsDesc:   prometheus.NewDesc("tieredcache_objects", "Current number of resident objects", []string{"tier"}, labels),
	}

	for _, tier := range []Tier{TierProbationary, TierMain, TierGhost} {
		c.tiers[tier] = &tierCounters{evictions: make(map[EvictionReason]*int64)}
	}

	c.settingsCapacity = prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "tieredcache_settings_capacity_bytes",
		Help:        "Configured total byte capacity",
		ConstLabels: labels,
	})
	c.settingsCapacity.Set(float64(capacity))

	return c
}

func (c *PrometheusCollector) tier(t Tier) *tierCounters {
	tc, ok := c.tiers[t]
	if !ok {
		tc = &tierCounters{evictions: make(map[EvictionReason]*int64)}
		c.tiers[t] = tc
	}
	return tc
}

func (c *PrometheusCollector) IncInsertion(tier Tier) {
	atomic.AddInt64(&c.tier(tier).insertions, 1)
}

func (c *PrometheusCollector) IncEviction(tier Tier, reason EvictionReason) {
	tc := c.tier(tier)
	counter, ok := tc.evictions[reason]
	if !ok {
		var zero int64
		counter = &zero
		tc.evictions[reason] = counter
	}
	atomic.AddInt64(counter, 1)
}

func (c *PrometheusCollector) IncHit(tier Tier) {
	atomic.AddInt64(&c.tier(tier).hits, 1)
}

func (c *PrometheusCollector) IncMiss() {
	atomic.AddInt64(&c.missCount, 1)
}

func (c *PrometheusCollector) IncGhostHit() {
	atomic.AddInt64(&c.ghostHits, 1)
}

func (c *PrometheusCollector) SetOccupiedBytes(tier Tier, bytes uint64) {
	atomic.StoreInt64(&c.tier(tier).occupied, int64(bytes))
}

func (c *PrometheusCollector) SetObjects(tier Tier, nObjects uint64) {
	atomic.StoreInt64(&c.tier(tier).objects, int64(nObjects))
}

// Describe implements prometheus.Collector.
func (c *PrometheusCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.insertionDesc
	ch <- c.evictionDesc
	ch <- c.hitDesc
	ch <- c.missDesc
	ch <- c.ghostHitDesc
	ch <- c.sizeDesc
	ch <- c.objectsDesc
	ch <- c.settingsCapacity.Desc()
}

// Collect implements prometheus.Collector.
func (c *PrometheusCollector) Collect(ch chan<- prometheus.Metric) {
	for tier, tc := range c.tiers {
		ch <- prometheus.MustNewConstMetric(c.insertionDesc, prometheus.CounterValue, float64(atomic.LoadInt64(&tc.insertions)), string(tier))
		ch <- prometheus.MustNewConstMetric(c.hitDesc, prometheus.CounterValue, float64(atomic.LoadInt64(&tc.hits)), string(tier))
		ch <- prometheus.MustNewConstMetric(c.sizeDesc, prometheus.GaugeValue, float64(atomic.LoadInt64(&tc.occupied)), string(tier))
		ch <- prometheus.MustNewConstMetric(c.objectsDesc, prometheus.GaugeValue, float64(atomic.LoadInt64(&tc.objects)), string(tier))
		for reason, counter := range tc.evictions {
			ch <- prometheus.MustNewConstMetric(c.evictionDesc, prometheus.CounterValue, float64(atomic.LoadInt64(counter)), string(tier), string(reason))
		}
	}

	ch <- prometheus.MustNewConstMetric(c.missDesc, prometheus.CounterValue, float64(atomic.LoadInt64(&c.missCount)))
	ch <- prometheus.MustNewConstMetric(c.ghostHitDesc, prometheus.CounterValue, float64(atomic.LoadInt64(&c.ghostHits)))
	c.settingsCapacity.Collect(ch)
}
