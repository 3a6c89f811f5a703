// Package tieredcache implements two tiered admission-and-promotion cache
// eviction engines, TLFU (tiered-LFU) and TFIFO (tiered-FIFO). Each composes
// a small probationary sub-cache, a larger main sub-cache, and an optional
// ghost directory that remembers recently evicted probationary identifiers,
// approximating the hit-rate of S3-FIFO/SLRU-family caches while keeping
// metadata overhead bounded and every operation amortized O(1).
package tieredcache

import (
	"fmt"
	"log"
	"sync"

	"github.com/DmitriyVTitov/size"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/samber/tiered-cache/internal"
	"github.com/samber/tiered-cache/pkg/clock"
	"github.com/samber/tiered-cache/pkg/fifo"
	"github.com/samber/tiered-cache/pkg/ghost"
	"github.com/samber/tiered-cache/pkg/lfu"
	"github.com/samber/tiered-cache/pkg/metrics"
	"github.com/samber/tiered-cache/pkg/s3fifo"
	"github.com/samber/tiered-cache/pkg/subcache"
)

// EngineKind distinguishes the two outer-cache families this package builds.
type EngineKind int

const (
	KindTLFU EngineKind = iota
	KindTFIFO
)

func (k EngineKind) String() string {
	switch k {
	case KindTLFU:
		return "TLFU"
	case KindTFIFO:
		return "TFIFO"
	default:
		return "unknown"
	}
}

var _ prometheus.Collector = (*Engine)(nil)

// Engine is the outer cache facade described by the package doc: it routes
// admissions, drives promotion/demotion between its probationary and main
// sub-caches, and consults an optional ghost directory to detect "second
// chance" admissions. An Engine is not safe for concurrent use; the design
// is single-reader, single-writer per instance.
type Engine struct {
	noCopy internal.NoCopy

	kind     EngineKind
	capacity uint64
	params   Params
	name     string

	probationary subcache.Cache
	main         subcache.Cache
	ghost        subcache.Cache // nil when ghost-size-ratio == 0

	hitOnGhost bool

	// evictBuf is the single preallocated request buffer reused by the
	// eviction cascade, so a victim's identifying fields survive removal
	// from its sub-cache without a fresh heap allocation per eviction.
	evictBuf subcache.Request

	metrics      metrics.Collector
	instrumented bool

	warnedOversizedOnce sync.Once
}

// NewTLFU builds a tiered-LFU engine: probationary is plain LFU, main is
// LFU / 1-bit Clock / 2-bit Clock depending on main-cache-type.
func NewTLFU(capacity uint64, paramString string, opts ...Option) *Engine {
	params := ParseParams(KindTLFU, paramString)
	return newEngine(KindTLFU, capacity, params, opts...)
}

// NewTFIFO builds a tiered-FIFO engine: probationary is plain FIFO, main is
// a nested S3FIFO.
func NewTFIFO(capacity uint64, paramString string, opts ...Option) *Engine {
	params := ParseParams(KindTFIFO, paramString)
	return newEngine(KindTFIFO, capacity, params, opts...)
}

// Option configures optional, non-algorithmic engine behavior.
type Option func(*Engine)

// WithMetrics enables Prometheus instrumentation for this engine instance,
// labelled with name. It registers nothing itself: the Engine satisfies
// prometheus.Collector, and callers register the Engine.
func WithMetrics(name string) Option {
	return func(e *Engine) {
		e.metrics = metrics.NewCollector(true, name, e.capacity, e.name)
	}
}

// WithInstrumentation records CreateTime on every Request the engine hands
// to a sub-cache. Never read by eviction logic; purely observational.
func WithInstrumentation() Option {
	return func(e *Engine) { e.instrumented = true }
}

func newEngine(kind EngineKind, capacity uint64, params Params, opts ...Option) *Engine {
	internal.Assertf(capacity > 0, "%s: capacity must be positive", kind)

	probationaryCapacity := uint64(params.ProbationarySizeRatio * float64(capacity))
	mainCapacity := capacity - probationaryCapacity
	ghostCapacity := uint64(params.GhostSizeRatio * float64(capacity))

	e := &Engine{
		kind:     kind,
		capacity: capacity,
		params:   params,
		name:     cacheName(kind, params),
		metrics:  metrics.NewCollector(false, "", capacity, ""),
	}

	// Probationary is never drained through its own Evict(): the cascade
	// always drives it via ToEvict+Remove so the engine can decide between
	// promotion and true eviction, so probationary metrics are recorded
	// explicitly at each call site below (promoteFromProbationary,
	// evictProbationaryCascade, Remove) instead of through a callback that
	// cannot distinguish why Remove was called.
	switch kind {
	case KindTLFU:
		e.probationary = lfu.New(probationaryCapacity)
		e.main = composeTLFUMain(params.MainCacheType, mainCapacity, e.onMainEviction)
	case KindTFIFO:
		e.probationary = fifo.New(probationaryCapacity)
		e.main = s3fifo.NewWithEvictionCallback(mainCapacity, e.onMainEviction)
	default:
		panic(fmt.Sprintf("tieredcache: unknown engine kind %v", kind))
	}

	if ghostCapacity > 0 {
		e.ghost = ghost.New(ghostCapacity)
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

func composeTLFUMain(mainType MainCacheType, capacity uint64, onEviction subcache.EvictionCallback) subcache.Cache {
	switch mainType {
	case MainCacheLFU:
		return lfu.NewWithEvictionCallback(capacity, onEviction)
	case MainCacheClock:
		return clock.NewWithEvictionCallback(capacity, 1, onEviction)
	case MainCacheClock2:
		return clock.NewWithEvictionCallback(capacity, 2, onEviction)
	default:
		panic(fmt.Sprintf("tieredcache: unknown main-cache-type %q", mainType))
	}
}

// cacheName formats the observable configuration string (spec §6).
func cacheName(kind EngineKind, p Params) string {
	switch kind {
	case KindTLFU:
		promote := 0
		if p.PromoteOnHit {
			promote = 1
		}
		return fmt.Sprintf("TLFU-%s-%d-%.4f-%d", p.MainCacheType, promote, p.ProbationarySizeRatio, p.MoveToMainThreshold)
	case KindTFIFO:
		return fmt.Sprintf("TFIFO-%.4f-%d", p.ProbationarySizeRatio, p.MoveToMainThreshold)
	default:
		return "unknown"
	}
}

// onMainEviction feeds main-tier eviction counts to metrics. It fires
// whenever main performs a removal internally, whether through its own
// Evict() (the §4.5.2 cascade dispatch) or a forced Remove (the last resort
// in Engine.Remove); main never needs the finer promote/capacity
// distinction probationary does, because nothing re-inserts out of main.
func (e *Engine) onMainEviction(reason subcache.EvictionReason, obj *subcache.Request) {
	e.metrics.IncEviction(metrics.TierMain, reason)
}

// Name returns the cache-name configuration string (spec §6).
func (e *Engine) Name() string { return e.name }

// Get looks up req, admitting it on a miss. Returns true on hit.
func (e *Engine) Get(req *subcache.Request) bool {
	if e.instrumented {
		req.CreateTime = internal.NowMicro()
	}

	_, hit := e.Find(req, true)
	if hit {
		return true
	}

	if !e.CanInsert(req) {
		e.warnOversizedOnce(req)
		e.metrics.IncMiss()
		return false
	}

	// The admission target was already decided by Find (hitOnGhost routes to
	// main; otherwise probationary). Evicting against that tier's own budget,
	// not the outer total, is what keeps probationary near its configured
	// ratio share instead of ballooning until the whole cache is full — the
	// property the scan-resistance scenario (spec §8) depends on. The second
	// condition covers main sitting above its own share after a promotion,
	// which would otherwise let this admission take the total past capacity.
	target := e.probationary
	if e.hitOnGhost {
		target = e.main
	}
	for target.OccupiedBytes()+req.ObjSize > target.Capacity() || e.OccupiedBytes()+req.ObjSize > e.capacity {
		if e.probationary.NObjects()+e.main.NObjects() == 0 {
			break
		}
		e.Evict()
	}

	e.Insert(req)
	e.metrics.IncMiss()

	internal.Assertf(e.OccupiedBytes() <= e.capacity, "%s: post-insert occupancy %d exceeds capacity %d", e.kind, e.OccupiedBytes(), e.capacity)

	return false
}

// Find probes the engine without admitting on miss. When update is false
// this is a pure, side-effect-free probe of both tiers (spec P8). When
// update is true, a probationary hit may promote (TLFU, promote-on-hit),
// and a probationary miss checks the ghost to arm hit_on_ghost for the very
// next Insert within this request cycle (spec §4.3).
func (e *Engine) Find(req *subcache.Request, update bool) (*subcache.Request, bool) {
	if !update {
		if handle, ok := e.probationary.Find(req, false); ok {
			return handle, true
		}
		return e.main.Find(req, false)
	}

	e.hitOnGhost = false

	if handle, ok := e.probationary.Find(req, true); ok {
		e.metrics.IncHit(metrics.TierProbationary)

		if e.kind == KindTLFU && e.params.PromoteOnHit && handle.Freq >= e.params.MoveToMainThreshold {
			return e.promoteFromProbationary(req.ObjID, handle), true
		}
		return handle, true
	}

	if e.ghost != nil && e.ghost.Remove(req.ObjID) {
		e.hitOnGhost = true
		e.metrics.IncGhostHit()
	}

	handle, ok := e.main.Find(req, true)
	if ok {
		e.metrics.IncHit(metrics.TierMain)
		return handle, true
	}

	return nil, false
}

// promoteFromProbationary removes id from probationary and inserts a copy
// into main. Per spec, a promote-on-hit copy starts with main's own fresh
// metadata (unlike cascade promotion, which carries freq across), so Freq
// is reset to 0 before handing it to main's Insert. The probationary copy
// is destroyed by promotion, not eviction (subcache.EvictionReasonPromote).
func (e *Engine) promoteFromProbationary(id uint64, handle *subcache.Request) *subcache.Request {
	promoted := handle.Clone()
	promoted.Freq = 0
	e.probationary.Remove(id)
	mainHandle, ok := e.main.Insert(promoted)
	internal.Assertf(ok, "%s: promotion insert into main failed for obj %d", e.kind, id)
	e.metrics.IncInsertion(metrics.TierMain)
	e.metrics.IncEviction(metrics.TierProbationary, subcache.EvictionReasonPromote)
	return mainHandle
}

// Insert places req following the precondition that the caller (Get) has
// already ensured residual capacity. A ghost hit recorded by the immediately
// preceding Find routes this insert straight to main (spec §4.4).
func (e *Engine) Insert(req *subcache.Request) (*subcache.Request, bool) {
	req.Freq = 0
	if e.instrumented && req.CreateTime == 0 {
		req.CreateTime = internal.NowMicro()
	}

	if e.hitOnGhost {
		e.hitOnGhost = false
		handle, ok := e.main.Insert(req)
		if ok {
			e.metrics.IncInsertion(metrics.TierMain)
		}
		return handle, ok
	}

	if !e.CanInsert(req) {
		e.warnOversizedOnce(req)
		return nil, false
	}

	handle, ok := e.probationary.Insert(req)
	if ok {
		e.metrics.IncInsertion(metrics.TierProbationary)
	}
	return handle, ok
}

// Evict runs one step of the eviction cascade (spec §4.5): drains main
// directly when main is over-full or probationary is empty, otherwise runs
// the probationary cascade, which may re-insert promotable candidates into
// main instead of dropping them.
func (e *Engine) Evict() {
	if e.main.OccupiedBytes() > e.main.Capacity() || e.probationary.OccupiedBytes() == 0 {
		e.main.Evict()
		return
	}
	e.evictProbationaryCascade()
}

// evictProbationaryCascade implements §4.5.1: loop until one object has
// been truly evicted or probationary is empty, promoting candidates that
// meet the threshold instead of dropping them.
func (e *Engine) evictProbationaryCascade() {
	for {
		victim, ok := e.probationary.ToEvict()
		if !ok {
			return
		}

		e.evictBuf = *victim

		promote := false
		switch {
		case e.kind == KindTLFU && !e.params.PromoteOnHit:
			promote = e.evictBuf.Freq >= e.params.MoveToMainThreshold
		case e.kind == KindTLFU && e.params.PromoteOnHit:
			promote = false
		case e.kind == KindTFIFO:
			promote = e.evictBuf.Freq >= e.params.MoveToMainThreshold
		}

		removed := e.probationary.Remove(e.evictBuf.ObjID)
		internal.Assertf(removed, "%s: probationary.Remove failed on its own to_evict candidate %d", e.kind, e.evictBuf.ObjID)

		if promote {
			mainReq := e.evictBuf
			_, ok := e.main.Insert(&mainReq)
			internal.Assertf(ok, "%s: cascade promotion insert into main failed for obj %d", e.kind, mainReq.ObjID)
			e.metrics.IncInsertion(metrics.TierMain)
			e.metrics.IncEviction(metrics.TierProbationary, subcache.EvictionReasonPromote)
			continue
		}

		if e.ghost != nil {
			ghostReq := e.evictBuf
			e.ghost.Get(&ghostReq)
		}
		e.metrics.IncEviction(metrics.TierProbationary, subcache.EvictionReasonCapacity)
		return
	}
}

// Remove force-ejects objID against probationary, ghost, then main, in that
// order, with no eviction cascade (spec §4.6).
func (e *Engine) Remove(objID uint64) bool {
	if e.probationary.Remove(objID) {
		e.metrics.IncEviction(metrics.TierProbationary, subcache.EvictionReasonRemove)
		return true
	}
	if e.ghost != nil && e.ghost.Remove(objID) {
		return true
	}
	return e.main.Remove(objID)
}

// OccupiedBytes excludes the ghost (spec invariant 3, P3).
func (e *Engine) OccupiedBytes() uint64 {
	return e.probationary.OccupiedBytes() + e.main.OccupiedBytes()
}

// NObjects excludes the ghost.
func (e *Engine) NObjects() uint64 {
	return e.probationary.NObjects() + e.main.NObjects()
}

// CanInsert reports whether req could ever be admitted (spec §4.7, §9: we
// standardize on <= for both engines).
func (e *Engine) CanInsert(req *subcache.Request) bool {
	return req.ObjSize <= e.probationary.Capacity()
}

// ToEvict is unsupported: the eviction candidate cannot be determined
// without committing the cascade, because promotion mutates main along the
// way (spec §4.7, §9). Calling it is a fatal assertion, not a recoverable
// error.
func (e *Engine) ToEvict(*subcache.Request) (*subcache.Request, bool) {
	panic(fmt.Sprintf("%s: to_evict is unsupported: the eviction candidate is unknowable without committing the cascade", e.kind))
}

func (e *Engine) warnOversizedOnce(req *subcache.Request) {
	e.warnedOversizedOnce.Do(func() {
		log.Printf("%s: rejecting oversized object %d (%d bytes > probationary capacity %d bytes); further occurrences are not logged", e.name, req.ObjID, req.ObjSize, e.probationary.Capacity())
	})
}

// DebugMemoryFootprint estimates the engine's in-memory footprint in bytes
// using runtime reflection. Diagnostic only; never called on the hot path.
func (e *Engine) DebugMemoryFootprint() int {
	return size.Of(e)
}

// Describe implements prometheus.Collector by delegating to the wrapped
// metrics.Collector.
func (e *Engine) Describe(ch chan<- *prometheus.Desc) {
	e.metrics.Describe(ch)
}

// Collect implements prometheus.Collector by delegating to the wrapped
// metrics.Collector, after refreshing the occupancy/object-count gauges.
func (e *Engine) Collect(ch chan<- prometheus.Metric) {
	e.metrics.SetOccupiedBytes(metrics.TierProbationary, e.probationary.OccupiedBytes())
	e.metrics.SetObjects(metrics.TierProbationary, e.probationary.NObjects())
	e.metrics.SetOccupiedBytes(metrics.TierMain, e.main.OccupiedBytes())
	e.metrics.SetObjects(metrics.TierMain, e.main.NObjects())
	if e.ghost != nil {
		e.metrics.SetOccupiedBytes(metrics.TierGhost, e.ghost.OccupiedBytes())
		e.metrics.SetObjects(metrics.TierGhost, e.ghost.NObjects())
	}
	e.metrics.Collect(ch)
}
