package cache

import (
	"context"

	"github.com/krisalay/page-cache/types"
)

/*
Cache defines the PUBLIC API of the expiring cache.
This is a contract that guarantees certain behaviors, without exposing
internals. Sharding, expiration, single-flight and metrics are all hidden
behind it.
*/
type Cache interface {

	/*
		Get returns the value for key, producing it if needed.

		BEHAVIOR:
		-------------------
		1. If the key has an entry younger than the expiration window:
		   - Return the stored value (cache hit)
		   - The producer is NOT called

		2. If the key has no entry, or its entry is at least as old as the window:
		   - Call the producer
		   - On success, store the result stamped with the lookup time and return it
		   - On failure, return the error and keep whatever entry was there

		3. In every case, count the access and remember its time.

		CONCURRENCY:
		------------
		Concurrent misses for the same key share ONE producer call. The
		call does not inherit any caller's cancellation. A caller whose ctx
		ends while waiting gets ctx.Err() back; the others keep waiting.
	*/
	Get(ctx context.Context, key string, producer types.Producer) (string, error)

	/*
		Stats returns the access accounting for key.
		The second value is false if key was never looked up.
	*/
	Stats(key string) (types.AccessStat, bool)

	/*
		Entry returns the stored entry for key, fresh or stale.
		The second value is false if nothing was ever stored for key.
	*/
	Entry(key string) (types.CacheEntry, bool)

	// Keys returns every key that was ever looked up, sorted.
	Keys() []string

	// Close releases resources. It is safe to call more than once.
	Close()
}
