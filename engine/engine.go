package engine

import (
	"time"

	"github.com/krisalay/ttlcache/expiration"
	"github.com/krisalay/ttlcache/types"
)

/*
CacheEngine is the "brain" of the cache system.
It is responsible for the "behavior" of the cache, NOT storage.
This acts as the policy layer.

It decides:
- What time it is
- When data is expired
- How metrics are recorded

It does NOT:
- Store data
- Handle locking
- Decide eviction order
*/
type CacheEngine struct {

	// Clock is the only source of "now" for TTL decisions.
	Clock types.Clock

	// Expiration controls when a cache entry should be considered “too old”.
	Expiration expiration.Strategy

	// Metrics is how we keep track of what the cache is doing.
	Metrics types.Metrics
}

/*
NewCacheEngine creates a CacheEngine. Nil arguments fall back to the wall
clock, expire-after-write and no-op metrics.
*/
func NewCacheEngine(
	clock types.Clock,
	exp expiration.Strategy,
	metrics types.Metrics,
) *CacheEngine {
	if clock == nil {
		clock = types.SystemClock{}
	}
	if exp == nil {
		exp = expiration.ExpireAfterWrite{}
	}
	if metrics == nil {
		metrics = types.NoopMetrics{}
	}

	return &CacheEngine{
		Clock:      clock,
		Expiration: exp,
		Metrics:    metrics,
	}
}

func (e *CacheEngine) Now() time.Time {
	return e.Clock.Now()
}

// IsExpired checks whether a cache entry is expired at now.
func (e *CacheEngine) IsExpired(ent types.Entry, now time.Time) bool {
	return e.Expiration.IsExpired(ent, now)
}

// OnExpire records an expiration made outside the read path (by the sweeper).
func (e *CacheEngine) OnExpire() {
	e.Metrics.Expire()
}
