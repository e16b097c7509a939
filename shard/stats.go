package shard

import (
	"sync"
	"time"

	"github.com/krisalay/page-cache/types"
)

/*
StatTable keeps the access accounting for the keys of one shard.

Unlike entries, stats change on every single lookup, so copy-on-write would
copy the whole map per Get. A plain map behind a mutex is the better fit.
Counts only ever go up; a recorded key is never removed.
*/
type StatTable struct {
	mu    sync.Mutex
	stats map[string]*types.AccessStat
}

func NewStatTable() *StatTable {
	return &StatTable{stats: make(map[string]*types.AccessStat)}
}

// Record counts one access to key at now and returns the updated stat.
func (t *StatTable) Record(key string, now time.Time) types.AccessStat {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.stats[key]
	if !ok {
		st = &types.AccessStat{Key: key}
		t.stats[key] = st
	}
	st.Count++
	st.LastAccess = now
	return *st
}

// Lookup returns a copy of the stat for key.
func (t *StatTable) Lookup(key string) (types.AccessStat, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.stats[key]
	if !ok {
		return types.AccessStat{}, false
	}
	return *st, true
}

// Keys returns every key with a recorded stat, in no particular order.
func (t *StatTable) Keys() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	keys := make([]string, 0, len(t.stats))
	for k := range t.stats {
		keys = append(keys, k)
	}
	return keys
}
