// Package lfu implements a byte-accounted, least-frequently-used sub-cache
// used as TLFU's probationary tier, and optionally as its main tier
// (main-cache-type=lfu).
package lfu

import (
	"container/list"

	"github.com/samber/tiered-cache/internal"
	"github.com/samber/tiered-cache/pkg/subcache"
)

// entry represents one resident object, kept as a list element so frequency
// order can be maintained by moving elements rather than re-sorting.
type entry struct {
	objID   uint64
	objSize uint64
	freq    int64
	arrival int64
	created int64
}

// Cache is a Least Frequently Used sub-cache. Capacity is tracked in bytes,
// not object count, per the outer engine's accounting model. It is not safe
// for concurrent access — the outer engine is single-writer by design.
type Cache struct {
	noCopy internal.NoCopy

	capacity uint64
	occupied uint64

	ll    *list.List // sorted from least to most frequent; front = next victim
	cache map[uint64]*list.Element

	onEviction subcache.EvictionCallback
}

var _ subcache.Cache = (*Cache)(nil)

// New creates an LFU sub-cache with the given byte capacity.
func New(capacity uint64) *Cache {
	return NewWithEvictionCallback(capacity, nil)
}

// NewWithEvictionCallback creates an LFU sub-cache that invokes onEviction
// whenever an object leaves via Evict or Remove.
func NewWithEvictionCallback(capacity uint64, onEviction subcache.EvictionCallback) *Cache {
	return &Cache{
		capacity:   capacity,
		ll:         list.New(),
		cache:      make(map[uint64]*list.Element),
		onEviction: onEviction,
	}
}

// Find looks up objID. When update is true, a hit bumps the entry's
// frequency and moves it past its immediate successor in the ordering list
// (the same incremental re-sort the teacher's LFU uses instead of a full
// sort on every access).
func (c *Cache) Find(req *subcache.Request, update bool) (*subcache.Request, bool) {
	e, hit := c.cache[req.ObjID]
	if !hit {
		return nil, false
	}

	en := e.Value.(*entry)
	if update {
		en.freq++
		if e.Next() != nil {
			c.ll.MoveAfter(e, e.Next())
		}
	}

	return c.toRequest(en), true
}

// Insert places req before the first entry, counting from the front, whose
// frequency is higher than req.Freq, so entries of equal frequency are
// evicted oldest first. freq starts at req.Freq: the outer engine passes 0
// for a fresh or ghost-driven admission and a carried count when
// re-inserting a cascade-promoted object.
func (c *Cache) Insert(req *subcache.Request) (*subcache.Request, bool) {
	if req.ObjSize > c.capacity {
		return nil, false
	}

	en := &entry{
		objID:   req.ObjID,
		objSize: req.ObjSize,
		freq:    req.Freq,
		arrival: req.ArrivalTime,
		created: req.CreateTime,
	}
	mark := c.ll.Front()
	for mark != nil && mark.Value.(*entry).freq <= en.freq {
		mark = mark.Next()
	}
	var e *list.Element
	if mark == nil {
		e = c.ll.PushBack(en)
	} else {
		e = c.ll.InsertBefore(en, mark)
	}
	c.cache[req.ObjID] = e
	c.occupied += req.ObjSize

	return c.toRequest(en), true
}

// Remove force-ejects objID without running the LFU eviction policy.
func (c *Cache) Remove(objID uint64) bool {
	e, hit := c.cache[objID]
	if !hit {
		return false
	}
	en := e.Value.(*entry)
	c.deleteElement(e)
	if c.onEviction != nil {
		c.onEviction(subcache.EvictionReasonRemove, c.toRequest(en))
	}
	return true
}

// Evict removes the single least-frequently-used object.
func (c *Cache) Evict() {
	e := c.ll.Front()
	if e == nil {
		return
	}
	en := e.Value.(*entry)
	c.deleteElement(e)
	if c.onEviction != nil {
		c.onEviction(subcache.EvictionReasonCapacity, c.toRequest(en))
	}
}

// ToEvict returns the next eviction candidate without removing it.
func (c *Cache) ToEvict() (*subcache.Request, bool) {
	e := c.ll.Front()
	if e == nil {
		return nil, false
	}
	return c.toRequest(e.Value.(*entry)), true
}

// Get is a treat-as-miss insert: used when this Cache instance backs a
// ghost directory. It reports whether objID was already resident, then
// ensures it becomes (or stays) resident, evicting the least-frequent
// object first if the cache is full.
func (c *Cache) Get(req *subcache.Request) bool {
	if _, hit := c.Find(req, false); hit {
		return true
	}
	for c.occupied+req.ObjSize > c.capacity && c.ll.Len() > 0 {
		c.Evict()
	}
	if req.ObjSize <= c.capacity {
		c.Insert(req)
	}
	return false
}

func (c *Cache) OccupiedBytes() uint64 { return c.occupied }
func (c *Cache) NObjects() uint64      { return uint64(c.ll.Len()) }
func (c *Cache) Capacity() uint64      { return c.capacity }

func (c *Cache) toRequest(en *entry) *subcache.Request {
	return &subcache.Request{
		ObjID:       en.objID,
		ObjSize:     en.objSize,
		ArrivalTime: en.arrival,
		Freq:        en.freq,
		CreateTime:  en.created,
	}
}

func (c *Cache) deleteElement(e *list.Element) {
	c.ll.Remove(e)
	en := e.Value.(*entry)
	delete(c.cache, en.objID)
	c.occupied -= en.objSize
}
