// Package fifo implements a byte-accounted First-In-First-Out sub-cache,
// used as TFIFO's probationary tier.
package fifo

import (
	"container/list"

	"github.com/samber/tiered-cache/internal"
	"github.com/samber/tiered-cache/pkg/subcache"
)

type entry struct {
	objID   uint64
	objSize uint64
	freq    int64
	arrival int64
	created int64
}

// Cache is a First-In-First-Out sub-cache, tracked in bytes rather than
// object count. It is not safe for concurrent access.
type Cache struct {
	noCopy internal.NoCopy

	capacity uint64
	occupied uint64

	ll    *list.List // oldest at front
	cache map[uint64]*list.Element

	onEviction subcache.EvictionCallback
}

var _ subcache.Cache = (*Cache)(nil)

// New creates a FIFO sub-cache with the given byte capacity.
func New(capacity uint64) *Cache {
	return NewWithEvictionCallback(capacity, nil)
}

// NewWithEvictionCallback creates a FIFO sub-cache that invokes onEviction
// whenever an object leaves via Evict or Remove.
func NewWithEvictionCallback(capacity uint64, onEviction subcache.EvictionCallback) *Cache {
	return &Cache{
		capacity:   capacity,
		ll:         list.New(),
		cache:      make(map[uint64]*list.Element),
		onEviction: onEviction,
	}
}

// Find looks up objID. FIFO order never changes on a hit; update only
// controls whether the freq counter increments.
func (c *Cache) Find(req *subcache.Request, update bool) (*subcache.Request, bool) {
	e, hit := c.cache[req.ObjID]
	if !hit {
		return nil, false
	}

	en := e.Value.(*entry)
	if update {
		en.freq++
	}

	return c.toRequest(en), true
}

// Insert adds req at the back of the queue. freq starts at req.Freq; the
// outer engine uses this cache only as TFIFO's probationary tier and always
// passes 0 there.
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
	e := c.ll.PushBack(en)
	c.cache[req.ObjID] = e
	c.occupied += req.ObjSize

	return c.toRequest(en), true
}

// Remove force-ejects objID without running the FIFO eviction policy.
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

// Evict removes the oldest object in insertion order.
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

// ToEvict returns the oldest object without removing it.
func (c *Cache) ToEvict() (*subcache.Request, bool) {
	e := c.ll.Front()
	if e == nil {
		return nil, false
	}
	return c.toRequest(e.Value.(*entry)), true
}

// Get is a treat-as-miss insert, used when this Cache instance backs a
// ghost directory: reports whether objID was already resident, then ensures
// it is (or remains) resident, evicting the oldest entry first if full.
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
