package types

import "time"

/*
CacheEntry is one stored value.

Entries are immutable once written. A refresh builds a NEW entry and swaps
it into the store, so a reader holding an old pointer never sees a
half-updated value.
*/
type CacheEntry struct {
	Key      string
	Value    string
	StoredAt time.Time
}

// Age reports how old the entry is at the given instant.
func (e *CacheEntry) Age(now time.Time) time.Duration {
	return now.Sub(e.StoredAt)
}

/*
AccessStat counts lookups for one key.

It is recorded on EVERY Get, whether the lookup was a hit, a miss, an
expiry or a failed production. A key can therefore have an AccessStat
without ever having had a CacheEntry.
*/
type AccessStat struct {
	Key        string
	Count      uint64 // always >= 1 once recorded
	LastAccess time.Time
}
