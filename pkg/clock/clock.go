// Package clock implements an n-bit reference-counter Clock sub-cache
// (main-cache-type "clock" = 1 bit, "clock2" = 2 bits), one of TLFU's main
// tier options alongside LFU.
//
// Entries sit in a circular scan order; a hand sweeps forward on eviction,
// decrementing each entry's saturating counter and giving it a second
// chance until it finds one whose counter has decayed to zero.
package clock

import (
	"container/list"

	"github.com/samber/tiered-cache/internal"
	"github.com/samber/tiered-cache/pkg/subcache"
)

type entry struct {
	objID   uint64
	objSize uint64
	ref     int64 // saturating counter in [0, maxRef]
	arrival int64
	created int64
}

// Cache is an n-bit Clock sub-cache, tracked in bytes. It is not safe for
// concurrent access.
type Cache struct {
	noCopy internal.NoCopy

	nBits    int
	maxRef   int64
	capacity uint64
	occupied uint64

	ll    *list.List // circular scan order; Front()/Back() wrap via hand
	cache map[uint64]*list.Element
	hand  *list.Element

	onEviction subcache.EvictionCallback
}

var _ subcache.Cache = (*Cache)(nil)

// New creates a Clock sub-cache with the given byte capacity and counter
// width. nBits must be 1 or 2, matching "clock"/"clock2" in the parameter
// grammar; any other value panics.
func New(capacity uint64, nBits int) *Cache {
	return NewWithEvictionCallback(capacity, nBits, nil)
}

// NewWithEvictionCallback creates a Clock sub-cache that invokes onEviction
// whenever an object leaves via Evict or Remove.
func NewWithEvictionCallback(capacity uint64, nBits int, onEviction subcache.EvictionCallback) *Cache {
	internal.Assertf(nBits == 1 || nBits == 2, "clock: n-bit-counter must be 1 or 2, got %d", nBits)

	return &Cache{
		nBits:      nBits,
		maxRef:     int64(1<<uint(nBits)) - 1,
		capacity:   capacity,
		ll:         list.New(),
		cache:      make(map[uint64]*list.Element),
		onEviction: onEviction,
	}
}

// Find looks up objID. A hit with update=true bumps the saturating
// reference counter, giving the entry another full second-chance cycle.
func (c *Cache) Find(req *subcache.Request, update bool) (*subcache.Request, bool) {
	e, hit := c.cache[req.ObjID]
	if !hit {
		return nil, false
	}

	en := e.Value.(*entry)
	if update && en.ref < c.maxRef {
		en.ref++
	}

	return c.toRequest(en), true
}

// Insert adds req to the scan order. Its reference counter starts at
// req.Freq clamped into [0, maxRef]: the outer engine passes 0 for a fresh
// admission and a carried count (from a wider-range counter such as LFU's)
// when re-inserting a cascade-promoted object.
func (c *Cache) Insert(req *subcache.Request) (*subcache.Request, bool) {
	if req.ObjSize > c.capacity {
		return nil, false
	}

	ref := req.Freq
	if ref < 0 {
		ref = 0
	} else if ref > c.maxRef {
		ref = c.maxRef
	}

	en := &entry{
		objID:   req.ObjID,
		objSize: req.ObjSize,
		ref:     ref,
		arrival: req.ArrivalTime,
		created: req.CreateTime,
	}
	e := c.ll.PushBack(en)
	c.cache[req.ObjID] = e
	c.occupied += req.ObjSize
	if c.hand == nil {
		c.hand = e
	}

	return c.toRequest(en), true
}

// Remove force-ejects objID without sweeping the clock hand.
func (c *Cache) Remove(objID uint64) bool {
	e, hit := c.cache[objID]
	if !hit {
		return false
	}
	en := e.Value.(*entry)
	c.removeElement(e)
	if c.onEviction != nil {
		c.onEviction(subcache.EvictionReasonRemove, c.toRequest(en))
	}
	return true
}

// Evict sweeps the hand forward, giving every entry with a nonzero counter
// a second chance (decrementing it by one), until it finds an entry whose
// counter has decayed to zero, which it evicts.
func (c *Cache) Evict() {
	if c.ll.Len() == 0 {
		return
	}

	for {
		if c.hand == nil {
			c.hand = c.ll.Front()
		}
		en := c.hand.Value.(*entry)
		if en.ref > 0 {
			en.ref--
			c.advanceHand()
			continue
		}

		victim := c.hand
		c.advanceHand()
		c.removeElement(victim)
		if c.onEviction != nil {
			c.onEviction(subcache.EvictionReasonCapacity, c.toRequest(en))
		}
		return
	}
}

// ToEvict returns the entry currently under the hand, without sweeping.
// This is a best-effort peek: the Clock policy's actual victim selection is
// inherently stateful (it decays counters as it scans), so the true victim
// is only known once Evict runs. Only the probationary sub-cache's ToEvict
// return value is inspected by the outer cascade (spec §4.5.1); Clock is
// never used as a probationary tier, so this approximation is never on that
// path in practice.
func (c *Cache) ToEvict() (*subcache.Request, bool) {
	if c.hand == nil {
		return nil, false
	}
	return c.toRequest(c.hand.Value.(*entry)), true
}

// Get is a treat-as-miss insert, used when this Cache instance backs a
// ghost directory.
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

func (c *Cache) advanceHand() {
	next := c.hand.Next()
	if next == nil {
		next = c.ll.Front()
	}
	if next == c.hand {
		next = nil
	}
	c.hand = next
}

func (c *Cache) removeElement(e *list.Element) {
	if c.hand == e {
		c.advanceHand()
	}
	en := e.Value.(*entry)
	c.ll.Remove(e)
	delete(c.cache, en.objID)
	c.occupied -= en.objSize
}

func (c *Cache) toRequest(en *entry) *subcache.Request {
	return &subcache.Request{
		ObjID:       en.objID,
		ObjSize:     en.objSize,
		ArrivalTime: en.arrival,
		Freq:        en.ref,
		CreateTime:  en.created,
	}
}
