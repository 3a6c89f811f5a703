// Package subcache defines the contract the outer TLFU/TFIFO engines expect
// from every inner cache they compose: probationary, main, and ghost.
//
// Every sub-cache instance exposes exactly this capability set; the outer
// engine never reaches into a sub-cache's internals.
package subcache

// EvictionReason explains why Cache called its eviction callback.
type EvictionReason string

const (
	EvictionReasonCapacity EvictionReason = "capacity" // normal cascade/evict() call
	EvictionReasonRemove   EvictionReason = "remove"   // forced ejection via Remove
	EvictionReasonPromote  EvictionReason = "promote"  // left this sub-cache via promotion, not eviction
)

// EvictionCallback is invoked when an object leaves a sub-cache.
type EvictionCallback func(reason EvictionReason, obj *Request)

// Request is the immutable-from-the-outer-cache's-perspective tuple handed
// to a sub-cache, and doubles as the object handle the sub-cache hands back
// on a hit: the returned *Request carries the resident entry's current freq.
type Request struct {
	ObjID       uint64
	ObjSize     uint64
	ArrivalTime int64 // caller-supplied logical or wall-clock timestamp
	Freq        int64 // outer-cache-namespace hit counter; sub-cache copies its own onto this

	// CreateTime is set only when an engine is built with instrumentation
	// enabled (see Engine.instrumented). Never read by eviction logic.
	CreateTime int64
}

// Clone returns a copy of req, used by the eviction cascade to keep a
// victim's identifying fields alive after the sub-cache has forgotten it.
func (r *Request) Clone() *Request {
	c := *r
	return &c
}

// Cache is the capability set an outer cache requires of a composed
// sub-cache. Internal representation (list, tree, clock ring, ...) is
// opaque to the caller.
type Cache interface {
	// Find looks up req.ObjID. When update is true the sub-cache may mutate
	// its own recency/frequency bookkeeping; when false this is a pure,
	// side-effect-free probe (used to implement idempotent peeking).
	Find(req *Request, update bool) (*Request, bool)

	// Insert places req into the sub-cache. Precondition: req.ObjSize fits
	// within remaining capacity — the caller is responsible for evicting
	// first. Returns the stored handle, or ok=false if the object could not
	// be represented (oversized).
	Insert(req *Request) (*Request, bool)

	// Remove force-ejects objID without invoking the sub-cache's own
	// eviction policy. Returns true if the object was resident.
	Remove(objID uint64) bool

	// Evict selects and removes exactly one victim per the sub-cache's own
	// policy. A no-op if the sub-cache is empty.
	Evict()

	// ToEvict returns the next eviction candidate without mutating state.
	// The outer cache uses this to inspect Freq before deciding whether to
	// drop or promote the candidate.
	ToEvict() (*Request, bool)

	// Get is a treat-as-miss insert, used against ghost sub-caches: it
	// records objID's presence, evicting internally if the ghost is full.
	Get(req *Request) bool

	OccupiedBytes() uint64
	NObjects() uint64
	Capacity() uint64
}
