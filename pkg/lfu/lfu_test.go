package lfu

import (
	"testing"

	"github.com/samber/tiered-cache/pkg/subcache"
	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	is := assert.New(t)

	cache := New(100)
	is.EqualValues(100, cache.Capacity())
	is.EqualValues(0, cache.OccupiedBytes())
	is.EqualValues(0, cache.NObjects())
}

func TestInsertAndFind(t *testing.T) {
	is := assert.New(t)

	cache := New(100)
	got, ok := cache.Insert(&subcache.Request{ObjID: 1, ObjSize: 10})
	is.True(ok)
	is.EqualValues(0, got.Freq)
	is.EqualValues(10, cache.OccupiedBytes())
	is.EqualValues(1, cache.NObjects())

	found, hit := cache.Find(&subcache.Request{ObjID: 1}, true)
	is.True(hit)
	is.EqualValues(1, found.Freq)

	_, hit = cache.Find(&subcache.Request{ObjID: 2}, true)
	is.False(hit)
}

func TestInsertOversized(t *testing.T) {
	is := assert.New(t)

	cache := New(10)
	_, ok := cache.Insert(&subcache.Request{ObjID: 1, ObjSize: 20})
	is.False(ok)
	is.EqualValues(0, cache.OccupiedBytes())
}

func TestFindReadOnlyIsIdempotent(t *testing.T) {
	is := assert.New(t)

	cache := New(100)
	cache.Insert(&subcache.Request{ObjID: 1, ObjSize: 10})

	first, hit1 := cache.Find(&subcache.Request{ObjID: 1}, false)
	second, hit2 := cache.Find(&subcache.Request{ObjID: 1}, false)
	is.True(hit1)
	is.True(hit2)
	is.Equal(first, second)
	is.EqualValues(0, first.Freq) // peeking never increments freq
}

func TestEvictsLeastFrequent(t *testing.T) {
	is := assert.New(t)

	var evicted []uint64
	cache := NewWithEvictionCallback(30, func(reason subcache.EvictionReason, obj *subcache.Request) {
		is.Equal(subcache.EvictionReasonCapacity, reason)
		evicted = append(evicted, obj.ObjID)
	})

	cache.Insert(&subcache.Request{ObjID: 1, ObjSize: 10})
	cache.Insert(&subcache.Request{ObjID: 2, ObjSize: 10})
	cache.Insert(&subcache.Request{ObjID: 3, ObjSize: 10})

	// bump 2 and 3's frequency so 1 remains least-frequent
	cache.Find(&subcache.Request{ObjID: 2}, true)
	cache.Find(&subcache.Request{ObjID: 3}, true)

	cache.Evict()
	is.Equal([]uint64{1}, evicted)
	is.EqualValues(20, cache.OccupiedBytes())
}

func TestToEvictDoesNotMutate(t *testing.T) {
	is := assert.New(t)

	cache := New(100)
	cache.Insert(&subcache.Request{ObjID: 1, ObjSize: 10})
	cache.Insert(&subcache.Request{ObjID: 2, ObjSize: 10})

	victim, ok := cache.ToEvict()
	is.True(ok)
	is.EqualValues(1, victim.ObjID)

	// calling ToEvict again must return the same candidate
	victim2, _ := cache.ToEvict()
	is.Equal(victim.ObjID, victim2.ObjID)
	is.EqualValues(2, cache.NObjects())
}

func TestRemove(t *testing.T) {
	is := assert.New(t)

	cache := New(100)
	cache.Insert(&subcache.Request{ObjID: 1, ObjSize: 10})

	is.True(cache.Remove(1))
	is.False(cache.Remove(1))
	is.EqualValues(0, cache.OccupiedBytes())
	is.EqualValues(0, cache.NObjects())

	_, hit := cache.Find(&subcache.Request{ObjID: 1}, false)
	is.False(hit)
}

func TestGetAsGhost(t *testing.T) {
	is := assert.New(t)

	cache := New(20)
	hit := cache.Get(&subcache.Request{ObjID: 1, ObjSize: 10})
	is.False(hit)
	hit = cache.Get(&subcache.Request{ObjID: 1, ObjSize: 10})
	is.True(hit)

	// filling past capacity evicts the oldest/least-frequent ghost entry
	cache.Get(&subcache.Request{ObjID: 2, ObjSize: 10})
	cache.Get(&subcache.Request{ObjID: 3, ObjSize: 10})
	is.LessOrEqual(cache.OccupiedBytes(), uint64(20))
}
