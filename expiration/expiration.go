// This file defines when a cache entry stops being servable.

package expiration

import (
	"time"

	"github.com/krisalay/page-cache/types"
)

/*
Strategy is the interface that all expiration rules must follow. Instead of
hard-coding the freshness check into the cache, we define a strategy so the
rule can be swapped (or faked in tests).
*/
type Strategy interface {

	// IsExpired reports whether the entry is stale at the given instant.
	IsExpired(*types.CacheEntry, time.Time) bool
}

/*
ExpireAfterWrite is a fixed window measured from the moment the entry was
stored. Reads do NOT extend it.

	fresh: now - StoredAt <  TTL
	stale: now - StoredAt >= TTL

A TTL of zero or less makes every entry stale immediately, so every lookup
goes to the producer.
*/
type ExpireAfterWrite struct {
	TTL time.Duration
}

// IsExpired checks whether the entry is stale at this moment.
func (e *ExpireAfterWrite) IsExpired(ent *types.CacheEntry, now time.Time) bool {
	return ent.Age(now) >= e.TTL
}

// Never keeps entries fresh forever.
type Never struct{}

func (Never) IsExpired(*types.CacheEntry, time.Time) bool { return false }
