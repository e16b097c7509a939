package shard

import (
	"sync"

	"github.com/krisalay/page-cache/types"
)

/*
A Shard is a small, independent piece of the cache.
Instead of one big map and one big lock, keys are spread over many shards.
Each shard:
- Holds the entries for its keys (lock-free reads)
- Holds the access stats for its keys
- Has its own lock for entry writes
*/
type Shard struct {
	Entries EntryStore
	Stats   *StatTable

	// writeMu serializes entry writes. Reads never take it.
	writeMu sync.Mutex
}

func NewShard() *Shard {
	return &Shard{
		Entries: NewCOWStore(),
		Stats:   NewStatTable(),
	}
}

// Store publishes ent, replacing any previous entry for the same key.
func (s *Shard) Store(ent *types.CacheEntry) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.Entries.Put(ent)
}

// Lookup returns the current entry for key, fresh or not.
func (s *Shard) Lookup(key string) (*types.CacheEntry, bool) {
	return s.Entries.Get(key)
}
