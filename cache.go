package cache

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	api "github.com/krisalay/page-cache/api"
	"github.com/krisalay/page-cache/engine"
	"github.com/krisalay/page-cache/expiration"
	"github.com/krisalay/page-cache/shard"
	"github.com/krisalay/page-cache/types"
	"golang.org/x/sync/singleflight"
)

var _ api.Cache = (*ExpiringCache)(nil)

// ErrProducer marks every error that came out of a producer.
var ErrProducer = errors.New("producer failed")

/*
ExpiringCache is the main cache implementation.
This struct is the orchestrator that connects:
- shards (entries and access stats)
- the engine (clock, expiration, metrics, logging)
- single-flight production
*/
type ExpiringCache struct {
	// shards are the actual storage units. Each shard is an independent mini-cache.
	shards []*shard.Shard

	// engine contains the "rules" of the cache.
	engine *engine.CacheEngine

	// selector decides which shard a key should go to.
	selector shard.Selector

	// sf makes sure only ONE producer runs per key at a time.
	sf singleflight.Group
}

/*
NewExpiringCache creates a cache spread over the given number of shards.
A shard count below one is treated as one.
*/
func NewExpiringCache(shards int, engine *engine.CacheEngine) *ExpiringCache {
	if shards < 1 {
		shards = 1
	}

	s := make([]*shard.Shard, shards)
	for i := range s {
		s[i] = shard.NewShard()
	}

	return &ExpiringCache{
		shards:   s,
		engine:   engine,
		selector: shard.HashSelector{},
	}
}

// New returns a single-shard cache whose entries stay fresh for ttl.
func New(ttl time.Duration) *ExpiringCache {
	return NewExpiringCache(1, engine.NewCacheEngine(
		&expiration.ExpireAfterWrite{TTL: ttl},
		nil,
		nil,
		nil,
	))
}

/*
Get returns the value for key, calling producer when the key has no fresh
entry. Every call is counted in the key's AccessStat, whatever the outcome.
*/
func (c *ExpiringCache) Get(ctx context.Context, key string, producer types.Producer) (string, error) {
	now := c.engine.Now()
	sh := c.selector.Select(key, c.shards)

	ent, ok := sh.Lookup(key)
	if ok && !c.engine.IsExpired(ent, now) {
		c.engine.OnHit(ent, now)
		c.record(sh, key, now)
		return ent.Value, nil
	}

	/*
		If 100 goroutines miss the same key at once, only ONE of them runs
		the producer. The others wait and share its result (or its error).

		The flight outlives any single caller: it runs without the leader's
		cancellation, and each caller stops waiting when its own ctx is done.
	*/
	flightCtx := context.WithoutCancel(ctx)
	ch := c.sf.DoChan(key, func() (any, error) {
		// A flight that finished just before we got here may already have
		// stored a fresh value.
		check := c.engine.Now()
		cur, ok := sh.Lookup(key)
		if ok && !c.engine.IsExpired(cur, check) {
			c.engine.OnHit(cur, check)
			return cur.Value, nil
		}
		c.engine.OnMiss(key, cur, check)

		v, err := c.engine.Produce(flightCtx, key, producer)
		if err != nil {
			return nil, err
		}

		sh.Store(&types.CacheEntry{
			Key:      key,
			Value:    v,
			StoredAt: now,
		})
		return v, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		c.record(sh, key, now)
		return "", ctx.Err()
	}

	c.record(sh, key, now)

	if res.Err != nil {
		return "", fmt.Errorf("%w for %q: %w", ErrProducer, key, res.Err)
	}
	return res.Val.(string), nil
}

func (c *ExpiringCache) record(sh *shard.Shard, key string, now time.Time) {
	c.engine.OnAccess(sh.Stats.Record(key, now))
}

// Stats returns the access accounting for key.
func (c *ExpiringCache) Stats(key string) (types.AccessStat, bool) {
	return c.selector.Select(key, c.shards).Stats.Lookup(key)
}

// Entry returns a copy of the stored entry for key, fresh or stale.
func (c *ExpiringCache) Entry(key string) (types.CacheEntry, bool) {
	ent, ok := c.selector.Select(key, c.shards).Lookup(key)
	if !ok {
		return types.CacheEntry{}, false
	}
	return *ent, true
}

// Keys returns every key that was ever looked up, sorted.
func (c *ExpiringCache) Keys() []string {
	var keys []string
	for _, sh := range c.shards {
		keys = append(keys, sh.Stats.Keys()...)
	}
	slices.Sort(keys)
	return keys
}

/*
Close is a no-op today. Nothing runs in the background: expiration is
checked lazily on every Get.
*/
func (c *ExpiringCache) Close() {}
