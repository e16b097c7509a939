package engine

import (
	"context"
	"time"

	"github.com/apex/log"

	"github.com/krisalay/page-cache/expiration"
	"github.com/krisalay/page-cache/types"
)

/*
CacheEngine is the "brain" of the cache system.
It is responsible for the behavior of the cache, NOT storage.

It decides:
- What time it is
- When an entry is too old to serve
- How the producer is invoked on a miss
- How metrics are recorded
- What gets logged

It does NOT:
- Store entries or stats
- Handle sharding
- Handle locking or single-flight
*/
type CacheEngine struct {

	// Expiration decides when an entry is stale.
	// If this is nil, entries never expire.
	Expiration expiration.Strategy

	// Metrics receives hit, miss, expire and produce events.
	Metrics types.Metrics

	// Logger receives the human-readable diagnostic lines.
	Logger log.Interface

	// Now is the clock. Tests replace it to travel in time.
	Now func() time.Time
}

/*
NewCacheEngine creates a CacheEngine.

nil metrics, logger and clock are replaced with working defaults so the
rest of the code never has to check.
*/
func NewCacheEngine(
	exp expiration.Strategy,
	metrics types.Metrics,
	logger log.Interface,
	now func() time.Time,
) *CacheEngine {
	if exp == nil {
		exp = expiration.Never{}
	}
	if metrics == nil {
		metrics = types.NoopMetrics{}
	}
	if logger == nil {
		logger = log.Log
	}
	if now == nil {
		now = time.Now
	}

	return &CacheEngine{
		Expiration: exp,
		Metrics:    metrics,
		Logger:     logger,
		Now:        now,
	}
}

// IsExpired checks whether a cache entry is stale at now.
func (e *CacheEngine) IsExpired(ent *types.CacheEntry, now time.Time) bool {
	return e.Expiration.IsExpired(ent, now)
}

/*
OnHit is called every time a fresh entry is served.
*/
func (e *CacheEngine) OnHit(ent *types.CacheEntry, now time.Time) {
	e.Metrics.Hit()
	e.Logger.WithFields(log.Fields{
		"key": ent.Key,
		"age": ent.Age(now).String(),
	}).Info("returning cached value")
}

/*
OnMiss is called right before the producer runs. stale is the entry that was
found but could not be served, or nil if the key had no entry at all.
*/
func (e *CacheEngine) OnMiss(key string, stale *types.CacheEntry, now time.Time) {
	if stale != nil {
		e.Metrics.Expire()
		e.Logger.WithFields(log.Fields{
			"key": key,
			"age": stale.Age(now).String(),
		}).Info("cache expired")
	}
	e.Metrics.Miss()
}

// OnAccess logs the updated access count for a key.
func (e *CacheEngine) OnAccess(st types.AccessStat) {
	e.Logger.WithFields(log.Fields{
		"key":   st.Key,
		"count": st.Count,
	}).Debug("access recorded")
}

/*
Produce runs the producer for key and reports how it went.

The error is returned exactly as the producer gave it. Wrapping it for the
caller is the cache's job, not the engine's.
*/
func (e *CacheEngine) Produce(ctx context.Context, key string, p types.Producer) (string, error) {
	e.Logger.WithField("key", key).Info("fetching from source")

	start := time.Now()
	val, err := p(ctx)
	e.Metrics.Produced(time.Since(start), err)

	if err != nil {
		e.Logger.WithField("key", key).WithError(err).Warn("producer failed")
		return "", err
	}
	return val, nil
}
