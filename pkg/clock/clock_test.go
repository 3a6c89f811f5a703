package clock

import (
	"testing"

	"github.com/samber/tiered-cache/pkg/subcache"
	"github.com/stretchr/testify/assert"
)

func TestClockNew(t *testing.T) {
	is := assert.New(t)

	cache := New(100, 1)
	is.EqualValues(100, cache.Capacity())
	is.EqualValues(0, cache.OccupiedBytes())
}

func TestClockInvalidWidthPanics(t *testing.T) {
	is := assert.New(t)

	is.Panics(func() { New(100, 3) })
	is.Panics(func() { New(100, 0) })
}

func TestClockInsertAndFind(t *testing.T) {
	is := assert.New(t)

	cache := New(100, 1)
	cache.Insert(&subcache.Request{ObjID: 1, ObjSize: 10})

	found, hit := cache.Find(&subcache.Request{ObjID: 1}, true)
	is.True(hit)
	is.EqualValues(1, found.Freq)

	_, hit = cache.Find(&subcache.Request{ObjID: 2}, true)
	is.False(hit)
}

func TestClock1BitSaturates(t *testing.T) {
	is := assert.New(t)

	cache := New(100, 1)
	cache.Insert(&subcache.Request{ObjID: 1, ObjSize: 10})
	cache.Find(&subcache.Request{ObjID: 1}, true)
	cache.Find(&subcache.Request{ObjID: 1}, true)
	cache.Find(&subcache.Request{ObjID: 1}, true)

	found, _ := cache.Find(&subcache.Request{ObjID: 1}, false)
	is.EqualValues(1, found.Freq, "1-bit counter must saturate at 1")
}

func TestClock2BitSaturates(t *testing.T) {
	is := assert.New(t)

	cache := New(100, 2)
	cache.Insert(&subcache.Request{ObjID: 1, ObjSize: 10})
	for i := 0; i < 5; i++ {
		cache.Find(&subcache.Request{ObjID: 1}, true)
	}

	found, _ := cache.Find(&subcache.Request{ObjID: 1}, false)
	is.EqualValues(3, found.Freq, "2-bit counter must saturate at 3")
}

func TestClockGivesSecondChanceBeforeEviction(t *testing.T) {
	is := assert.New(t)

	var evicted []uint64
	cache := NewWithEvictionCallback(20, 1, func(reason subcache.EvictionReason, obj *subcache.Request) {
		evicted = append(evicted, obj.ObjID)
	})

	cache.Insert(&subcache.Request{ObjID: 1, ObjSize: 10})
	cache.Insert(&subcache.Request{ObjID: 2, ObjSize: 10})

	// give object 1 a reference bit so it survives one sweep
	cache.Find(&subcache.Request{ObjID: 1}, true)

	cache.Evict()
	is.Equal([]uint64{2}, evicted, "referenced entry must get a second chance before the unreferenced one")

	cache.Evict()
	is.Equal([]uint64{2, 1}, evicted, "after its reference bit decays, the entry is evicted next sweep")
}

func TestClockRemove(t *testing.T) {
	is := assert.New(t)

	cache := New(100, 1)
	cache.Insert(&subcache.Request{ObjID: 1, ObjSize: 10})
	is.True(cache.Remove(1))
	is.False(cache.Remove(1))
	is.EqualValues(0, cache.OccupiedBytes())
}

func TestClockOversizedRejected(t *testing.T) {
	is := assert.New(t)

	cache := New(10, 1)
	_, ok := cache.Insert(&subcache.Request{ObjID: 1, ObjSize: 50})
	is.False(ok)
}

func TestClockToEvictDoesNotPanicWhenEmpty(t *testing.T) {
	is := assert.New(t)

	cache := New(10, 1)
	_, ok := cache.ToEvict()
	is.False(ok)
}

func TestClockHandSurvivesInteriorRemoval(t *testing.T) {
	is := assert.New(t)

	cache := New(100, 1)
	cache.Insert(&subcache.Request{ObjID: 1, ObjSize: 10})
	cache.Insert(&subcache.Request{ObjID: 2, ObjSize: 10})
	cache.Insert(&subcache.Request{ObjID: 3, ObjSize: 10})

	is.True(cache.Remove(1))
	is.EqualValues(2, cache.NObjects())

	cache.Evict()
	cache.Evict()
	is.EqualValues(0, cache.NObjects())
}
