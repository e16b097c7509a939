package shard

import (
	"sync/atomic"

	"github.com/krisalay/page-cache/types"
)

/*
This file defines how entries are stored inside a shard. This is NOT a
normal map.
- Lookups happen on every Get and must not take a lock
- Writes only happen when a producer succeeds, so they can afford extra work

To get there we use "Copy-On-Write" (COW).
*/

// EntryStore is the interface used by a shard to store and retrieve cache entries.
type EntryStore interface {

	// Get retrieves an entry by key.
	Get(string) (*types.CacheEntry, bool)

	// Put inserts or replaces an entry. Callers must serialize Put calls.
	Put(*types.CacheEntry)

	// Size returns how many entries are stored.
	Size() int64
}

/*
cowStore is a Copy-On-Write implementation of EntryStore.

- Readers always see an immutable snapshot of the map
- Writers build a NEW map and swap it in atomically

Entries themselves are never mutated, only replaced, which is what makes
handing out the *CacheEntry from a snapshot safe.
*/
type cowStore struct {
	data atomic.Value // map[string]*types.CacheEntry
	size atomic.Int64
}

func NewCOWStore() *cowStore {
	s := &cowStore{}
	s.data.Store(make(map[string]*types.CacheEntry))
	return s
}

func (s *cowStore) Get(key string) (*types.CacheEntry, bool) {
	m := s.data.Load().(map[string]*types.CacheEntry)
	ent, ok := m[key]
	return ent, ok
}

/*
Put copies the current snapshot, adds or replaces ent.Key and publishes the
copy. The old snapshot stays valid for readers that already loaded it.
*/
func (s *cowStore) Put(ent *types.CacheEntry) {
	old := s.data.Load().(map[string]*types.CacheEntry)

	n := make(map[string]*types.CacheEntry, len(old)+1)
	for k, v := range old {
		n[k] = v
	}
	n[ent.Key] = ent

	s.data.Store(n)
	s.size.Store(int64(len(n)))
}

func (s *cowStore) Size() int64 {
	return s.size.Load()
}
