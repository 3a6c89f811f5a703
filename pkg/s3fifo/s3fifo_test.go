package s3fifo

import (
	"testing"

	"github.com/samber/tiered-cache/pkg/subcache"
	"github.com/stretchr/testify/assert"
)

func TestS3FIFONew(t *testing.T) {
	is := assert.New(t)

	cache := New(1000)
	is.EqualValues(1000, cache.Capacity())
	is.EqualValues(0, cache.OccupiedBytes())
}

func TestS3FIFOInsertAndFind(t *testing.T) {
	is := assert.New(t)

	cache := New(1000)
	cache.Insert(&subcache.Request{ObjID: 1, ObjSize: 10})

	found, hit := cache.Find(&subcache.Request{ObjID: 1}, true)
	is.True(hit)
	is.EqualValues(1, found.Freq)

	_, hit = cache.Find(&subcache.Request{ObjID: 2}, true)
	is.False(hit)
}

func TestS3FIFOPromotesToMainOnSecondHit(t *testing.T) {
	is := assert.New(t)

	cache := New(1000)
	cache.Insert(&subcache.Request{ObjID: 1, ObjSize: 10})

	cache.Find(&subcache.Request{ObjID: 1}, true) // freq=1, still small
	is.EqualValues(1, cache.small.Len())
	is.EqualValues(0, cache.main.Len())

	cache.Find(&subcache.Request{ObjID: 1}, true) // freq=2, promoted
	is.EqualValues(0, cache.small.Len())
	is.EqualValues(1, cache.main.Len())
}

func TestS3FIFOEvictsSmallBeforeMain(t *testing.T) {
	is := assert.New(t)

	var evicted []uint64
	cache := NewWithEvictionCallback(20, func(reason subcache.EvictionReason, obj *subcache.Request) {
		evicted = append(evicted, obj.ObjID)
	})
	// smallLimit = 2 (20/10), mainLimit = 18

	cache.Insert(&subcache.Request{ObjID: 1, ObjSize: 5})
	cache.Insert(&subcache.Request{ObjID: 2, ObjSize: 5})
	cache.Insert(&subcache.Request{ObjID: 3, ObjSize: 5})
	// smallOccupied=15 > smallLimit=2, evict oldest from small into ghost

	cache.Evict()
	is.Equal([]uint64{1}, evicted)
}

func TestS3FIFOGhostCarriesFrequencyOnReinsertion(t *testing.T) {
	is := assert.New(t)

	cache := NewWithEvictionCallback(20, nil)

	cache.Insert(&subcache.Request{ObjID: 1, ObjSize: 5})
	cache.Find(&subcache.Request{ObjID: 1}, true) // freq=1, still in small (freq<2)
	cache.Insert(&subcache.Request{ObjID: 2, ObjSize: 5})
	cache.Insert(&subcache.Request{ObjID: 3, ObjSize: 5})
	// small is over its 2-byte-derived limit, evict object 1 into ghost with freq=1
	cache.Evict()

	found, ok := cache.Insert(&subcache.Request{ObjID: 1, ObjSize: 5})
	is.True(ok)
	is.EqualValues(2, found.Freq, "reinsertion after a ghost hit starts at ghost freq + 1")
}

func TestS3FIFOGhostIsBoundedInBytes(t *testing.T) {
	is := assert.New(t)

	cache := NewWithEvictionCallback(20, nil)
	// smallLimit=2, mainLimit=18, so the nested ghost is sized to 18 bytes.
	for i := uint64(1); i <= 100; i++ {
		cache.Insert(&subcache.Request{ObjID: i, ObjSize: 5})
		cache.Evict()
	}

	is.LessOrEqual(cache.ghost.OccupiedBytes(), cache.ghost.Capacity())
	is.LessOrEqual(len(cache.ghostFreq), int(cache.ghost.NObjects())+1,
		"ghostFreq must not accumulate entries the ghost itself has already evicted")
}

func TestS3FIFORemove(t *testing.T) {
	is := assert.New(t)

	cache := New(1000)
	cache.Insert(&subcache.Request{ObjID: 1, ObjSize: 10})
	is.True(cache.Remove(1))
	is.False(cache.Remove(1))
	is.EqualValues(0, cache.OccupiedBytes())
}

func TestS3FIFOOversizedRejected(t *testing.T) {
	is := assert.New(t)

	cache := New(10)
	_, ok := cache.Insert(&subcache.Request{ObjID: 1, ObjSize: 50})
	is.False(ok)
}

func TestS3FIFOToEvictIsReadOnly(t *testing.T) {
	is := assert.New(t)

	cache := New(20)
	cache.Insert(&subcache.Request{ObjID: 1, ObjSize: 10})
	cache.Insert(&subcache.Request{ObjID: 2, ObjSize: 10})
	// smallOccupied=20 > smallLimit=2, so ToEvict has a victim to report

	before := cache.NObjects()
	v1, ok := cache.ToEvict()
	is.True(ok)
	is.EqualValues(1, v1.ObjID)
	is.Equal(before, cache.NObjects())

	v2, _ := cache.ToEvict()
	is.Equal(v1.ObjID, v2.ObjID)
}
