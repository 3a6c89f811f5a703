// Package s3fifo implements a byte-accounted Simple, Scalable S3-FIFO cache
// (https://s3fifo.com/): a small FIFO for newly admitted objects, a main
// FIFO for objects that have proven themselves, and an identifier-only
// ghost recording what was recently evicted from small. It is used as
// TFIFO's main tier (always; TFIFO has no main-cache-type option), nested one level below the
// outer engine's own probationary/main/ghost composition.
package s3fifo

import (
	"container/list"

	"github.com/samber/tiered-cache/internal"
	"github.com/samber/tiered-cache/pkg/ghost"
	"github.com/samber/tiered-cache/pkg/subcache"
)

const maxFrequency = 3

const (
	queueSmall = 0
	queueMain  = 1
)

type entry struct {
	objID   uint64
	objSize uint64
	freq    int64
	queue   int
	arrival int64
	created int64
}

// Cache is a nested small/main/ghost S3-FIFO sub-cache, tracked in bytes.
// It is not safe for concurrent access.
type Cache struct {
	noCopy internal.NoCopy

	capacity uint64

	small         *list.List
	smallOccupied uint64
	smallLimit    uint64

	main         *list.List
	mainOccupied uint64
	mainLimit    uint64

	cache map[uint64]*list.Element

	ghost     *ghost.Cache
	ghostFreq map[uint64]int64 // preserved across ghost eviction for reinsertion carryover

	onEviction subcache.EvictionCallback
}

var _ subcache.Cache = (*Cache)(nil)

// New creates an S3-FIFO sub-cache with the given total byte capacity. The
// small queue gets 10% of capacity (at least one byte's worth if capacity
// allows it at all), the main queue the rest; the ghost directory is
// byte-accounted like every other sub-cache (pkg/ghost) and sized to match
// main's own byte budget, the paper's "ghost matches main" rule applied
// directly in bytes instead of a guessed entry count.
func New(capacity uint64) *Cache {
	return NewWithEvictionCallback(capacity, nil)
}

// NewWithEvictionCallback creates an S3-FIFO sub-cache that invokes
// onEviction whenever an object leaves the small or main queue via Evict or
// Remove (ghost admission/eviction never calls back: the ghost holds no
// payload to report).
func NewWithEvictionCallback(capacity uint64, onEviction subcache.EvictionCallback) *Cache {
	smallLimit := capacity / 10
	if smallLimit == 0 && capacity > 0 {
		smallLimit = 1
	}
	mainLimit := capacity - smallLimit

	return &Cache{
		capacity:   capacity,
		small:      list.New(),
		smallLimit: smallLimit,
		main:       list.New(),
		mainLimit:  mainLimit,
		cache:      make(map[uint64]*list.Element),
		ghost:      ghost.New(mainLimit),
		ghostFreq:  make(map[uint64]int64),
		onEviction: onEviction,
	}
}

// Find looks up objID. A hit with update=true bumps its saturating
// frequency counter and, once an object in the small queue has been
// accessed at least twice, promotes it to the main queue. A miss with
// update=true against an object still tracked in the ghost bumps its
// carried-over frequency so a later reinsertion starts warmer; with
// update=false nothing changes.
func (c *Cache) Find(req *subcache.Request, update bool) (*subcache.Request, bool) {
	e, hit := c.cache[req.ObjID]
	if !hit {
		if update {
			if _, inGhost := c.ghost.Find(&subcache.Request{ObjID: req.ObjID}, false); inGhost {
				c.ghostFreq[req.ObjID] = min64(c.ghostFreq[req.ObjID]+1, maxFrequency)
			}
		}
		return nil, false
	}

	en := e.Value.(*entry)
	if update {
		en.freq = min64(en.freq+1, maxFrequency)
		if en.queue == queueSmall && en.freq >= 2 {
			c.promoteToMain(e, en)
		}
	}

	return c.toRequest(en), true
}

// Insert admits req into the small queue. Its starting frequency is the
// greatest of: req.Freq (a count the caller carries over, e.g. from an
// outer engine's cascade promotion), and one more than whatever this
// cache's own ghost remembers for objID, if it was recently evicted from
// small into the ghost.
func (c *Cache) Insert(req *subcache.Request) (*subcache.Request, bool) {
	if req.ObjSize > c.capacity {
		return nil, false
	}

	freq := req.Freq
	if freq < 0 {
		freq = 0
	}
	if c.ghost.Remove(req.ObjID) {
		freq = min64(max64(freq, c.ghostFreq[req.ObjID]+1), maxFrequency)
		delete(c.ghostFreq, req.ObjID)
	} else if freq > maxFrequency {
		freq = maxFrequency
	}

	en := &entry{
		objID:   req.ObjID,
		objSize: req.ObjSize,
		freq:    freq,
		queue:   queueSmall,
		arrival: req.ArrivalTime,
		created: req.CreateTime,
	}
	e := c.small.PushBack(en)
	c.cache[req.ObjID] = e
	c.smallOccupied += req.ObjSize

	return c.toRequest(en), true
}

// Remove force-ejects objID from whichever queue holds it.
func (c *Cache) Remove(objID uint64) bool {
	e, hit := c.cache[objID]
	if !hit {
		return false
	}
	en := e.Value.(*entry)
	c.deleteElement(e, en)
	if c.onEviction != nil {
		c.onEviction(subcache.EvictionReasonRemove, c.toRequest(en))
	}
	return true
}

// Evict runs one step of the S3-FIFO eviction policy: the small queue is
// drained into the ghost first whenever it is over its share, then the
// main queue if it is over its share; otherwise the oldest main entry goes
// (the oldest small entry when main is empty). A non-empty cache always
// loses exactly one object.
func (c *Cache) Evict() {
	switch {
	case c.smallOccupied > c.smallLimit:
		c.evictFromSmallToGhost()
	case c.mainOccupied > c.mainLimit:
		c.evictFromMain()
	default:
		if c.main.Len() > 0 {
			c.evictFromMain()
		} else {
			c.evictFromSmallToGhost()
		}
	}
}

// ToEvict reports, without mutating state, which object the next Evict call
// would remove.
func (c *Cache) ToEvict() (*subcache.Request, bool) {
	var e *list.Element
	switch {
	case c.smallOccupied > c.smallLimit:
		e = c.small.Front()
	case c.mainOccupied > c.mainLimit:
		e = c.main.Front()
	default:
		if c.main.Len() > 0 {
			e = c.main.Front()
		} else {
			e = c.small.Front()
		}
	}
	if e == nil {
		return nil, false
	}
	return c.toRequest(e.Value.(*entry)), true
}

// Get is a treat-as-miss insert, used when this Cache instance backs a
// ghost directory.
func (c *Cache) Get(req *subcache.Request) bool {
	if _, hit := c.Find(req, false); hit {
		return true
	}
	for c.smallOccupied+c.mainOccupied+req.ObjSize > c.capacity && c.NObjects() > 0 {
		c.Evict()
	}
	if req.ObjSize <= c.capacity {
		c.Insert(req)
	}
	return false
}

func (c *Cache) OccupiedBytes() uint64 { return c.smallOccupied + c.mainOccupied }
func (c *Cache) NObjects() uint64      { return uint64(c.small.Len() + c.main.Len()) }
func (c *Cache) Capacity() uint64      { return c.capacity }

func (c *Cache) promoteToMain(e *list.Element, en *entry) {
	c.small.Remove(e)
	c.smallOccupied -= en.objSize
	en.queue = queueMain
	c.cache[en.objID] = c.main.PushBack(en)
	c.mainOccupied += en.objSize
}

func (c *Cache) evictFromSmallToGhost() {
	e := c.small.Front()
	if e == nil {
		return
	}
	en := e.Value.(*entry)
	c.small.Remove(e)
	delete(c.cache, en.objID)
	c.smallOccupied -= en.objSize

	// Evict the ghost's own oldest entries first, purging their carried-over
	// frequency from ghostFreq in lockstep, so that map stays bounded by the
	// same byte budget the ghost itself enforces instead of growing forever.
	for c.ghost.OccupiedBytes()+en.objSize > c.ghost.Capacity() {
		victim, ok := c.ghost.ToEvict()
		if !ok {
			break
		}
		delete(c.ghostFreq, victim.ObjID)
		c.ghost.Evict()
	}

	c.ghostFreq[en.objID] = en.freq
	c.ghost.Insert(&subcache.Request{ObjID: en.objID, ObjSize: en.objSize})

	if c.onEviction != nil {
		c.onEviction(subcache.EvictionReasonCapacity, c.toRequest(en))
	}
}

func (c *Cache) evictFromMain() {
	e := c.main.Front()
	if e == nil {
		return
	}
	en := e.Value.(*entry)
	c.main.Remove(e)
	delete(c.cache, en.objID)
	c.mainOccupied -= en.objSize

	if c.onEviction != nil {
		c.onEviction(subcache.EvictionReasonCapacity, c.toRequest(en))
	}
}

func (c *Cache) deleteElement(e *list.Element, en *entry) {
	if en.queue == queueSmall {
		c.small.Remove(e)
		c.smallOccupied -= en.objSize
	} else {
		c.main.Remove(e)
		c.mainOccupied -= en.objSize
	}
	delete(c.cache, en.objID)
}

func (c *Cache) toRequest(en *entry) *subcache.Request {
	return &subcache.Request{
		ObjID:       en.objID,
		ObjSize:     en.objSize,
		ArrivalTime: en.arrival,
		Freq:        en.freq,
		CreateTime:  en.created,
	}
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
