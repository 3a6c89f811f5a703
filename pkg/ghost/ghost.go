// Package ghost implements the identifier-only ghost directory: a bounded,
// byte-accounted FIFO of recently evicted object identifiers with a hash
// index for O(1) membership tests and O(1) arbitrary removal (a ghost hit
// removes an interior entry, not just the oldest one).
//
// The ghost is sized in bytes, exactly like a real sub-cache (spec §2: "sized
// to g·C"; the original source backs its ghost directory with a full
// byte-accounted LFU cache sized to cache_size*ghost_size_ratio). What makes
// it "identifier-only" is invariant 3: its occupancy never counts toward the
// outer engine's OccupiedBytes, and it never stores a payload — only the
// obj_id/obj_size pair needed to reconstruct FIFO order and free its budget.
// This is the leaner redesign spec §9 calls out in place of reusing a full
// cache implementation just to track bare identifiers.
package ghost

import (
	"container/list"

	"github.com/samber/tiered-cache/internal"
	"github.com/samber/tiered-cache/pkg/subcache"
)

type entry struct {
	objID   uint64
	objSize uint64
}

// Cache is a bounded, byte-accounted, identifier-only FIFO.
type Cache struct {
	noCopy internal.NoCopy

	capacity uint64
	occupied uint64

	ll    *list.List // oldest at front
	index map[uint64]*list.Element
}

var _ subcache.Cache = (*Cache)(nil)

// New creates a ghost directory with the given byte budget. A capacity of 0
// is valid and yields a ghost that never retains anything (equivalent to "no
// ghost" from the outer cache's perspective).
func New(capacity uint64) *Cache {
	return &Cache{
		capacity: capacity,
		ll:       list.New(),
		index:    make(map[uint64]*list.Element),
	}
}

// Find reports whether objID is currently tracked. The ghost has no
// recency/frequency bookkeeping to update, so update is accepted but
// ignored.
func (g *Cache) Find(req *subcache.Request, _ bool) (*subcache.Request, bool) {
	e, ok := g.index[req.ObjID]
	if !ok {
		return nil, false
	}
	en := e.Value.(*entry)
	return &subcache.Request{ObjID: en.objID, ObjSize: en.objSize}, true
}

// Insert records objID/objSize directly, evicting the oldest tracked
// identifiers first to make room if the ghost is full.
func (g *Cache) Insert(req *subcache.Request) (*subcache.Request, bool) {
	if req.ObjSize > g.capacity {
		return nil, false
	}
	if e, ok := g.index[req.ObjID]; ok {
		return &subcache.Request{ObjID: req.ObjID, ObjSize: e.Value.(*entry).objSize}, true
	}

	for g.occupied+req.ObjSize > g.capacity && g.ll.Len() > 0 {
		g.Evict()
	}

	en := &entry{objID: req.ObjID, objSize: req.ObjSize}
	e := g.ll.PushBack(en)
	g.index[req.ObjID] = e
	g.occupied += req.ObjSize

	return &subcache.Request{ObjID: req.ObjID, ObjSize: req.ObjSize}, true
}

// Remove consumes a ghost entry: used by the outer engine's Find to detect
// (and clear) a "second chance" admission. Returns true if objID was
// tracked.
func (g *Cache) Remove(objID uint64) bool {
	e, ok := g.index[objID]
	if !ok {
		return false
	}
	g.deleteElement(e)
	return true
}

// Evict drops the oldest tracked identifier.
func (g *Cache) Evict() {
	e := g.ll.Front()
	if e == nil {
		return
	}
	g.deleteElement(e)
}

// ToEvict returns the oldest tracked identifier without removing it.
func (g *Cache) ToEvict() (*subcache.Request, bool) {
	e := g.ll.Front()
	if e == nil {
		return nil, false
	}
	en := e.Value.(*entry)
	return &subcache.Request{ObjID: en.objID, ObjSize: en.objSize}, true
}

// Get records req (inserting it, evicting the oldest entries first if
// needed to fit) and reports whether it was already tracked. This is the
// ghost's normal mode of use from the outer cascade: "treat as miss,
// insert".
func (g *Cache) Get(req *subcache.Request) bool {
	if _, ok := g.index[req.ObjID]; ok {
		return true
	}
	g.Insert(req)
	return false
}

// OccupiedBytes reports the byte budget in use by tracked identifiers, not
// resident payloads — the ghost never holds a payload (spec invariant 3),
// so callers must not fold this into the outer engine's OccupiedBytes.
func (g *Cache) OccupiedBytes() uint64 { return g.occupied }
func (g *Cache) NObjects() uint64      { return uint64(g.ll.Len()) }
func (g *Cache) Capacity() uint64      { return g.capacity }

func (g *Cache) deleteElement(e *list.Element) {
	g.ll.Remove(e)
	en := e.Value.(*entry)
	delete(g.index, en.objID)
	g.occupied -= en.objSize
}
