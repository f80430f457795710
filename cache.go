package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/grafana/dskit/services"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"golang.org/x/sync/singleflight"

	api "github.com/krisalay/ttlcache/api"
	"github.com/krisalay/ttlcache/engine"
	"github.com/krisalay/ttlcache/expiration"
	"github.com/krisalay/ttlcache/store"
	"github.com/krisalay/ttlcache/types"
)

var (
	// ErrInvalidArgument is returned for an empty key, a nil value or a negative TTL.
	ErrInvalidArgument = types.ErrInvalidArgument

	// ErrClosed is returned by mutations after Close.
	ErrClosed = errors.New("cache is closed")
)

var _ api.Cache = (*Cache)(nil)

/*
Cache is the main cache implementation.
This struct is the orchestrator that connects:
- the store (map + recency list)
- expiration on read and in the background
- loading
- metrics

Build one with New at startup, hand it to the components that need it,
and Close it on shutdown.
*/
type Cache struct {
	store *store.Store

	// engine contains the "rules" of the cache: clock, TTL, metrics.
	engine *engine.CacheEngine

	sweeper *expiration.Sweeper

	defaultTTL time.Duration

	// singleflight prevents multiple goroutines from loading the same key simultaneously.
	sf singleflight.Group

	logger    log.Logger
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// New builds a cache and starts its sweeper. A nil engine uses the wall
// clock and no metrics; a nil logger discards logs.
func New(cfg Config, eng *engine.CacheEngine, logger log.Logger) (*Cache, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cache config: %w", err)
	}
	if eng == nil {
		eng = engine.NewCacheEngine(nil, nil, nil)
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}

	c := &Cache{
		store:      store.New(cfg.MaxSize),
		engine:     eng,
		defaultTTL: cfg.DefaultTTL,
		logger:     logger,
	}
	c.sweeper = expiration.NewSweeper(c.store, sweepChecker{CacheEngine: eng, store: c.store}, cfg.SweepInterval, logger)

	if err := services.StartAndAwaitRunning(context.Background(), c.sweeper); err != nil {
		return nil, fmt.Errorf("failed to start sweeper: %w", err)
	}
	eng.Metrics.Size(0)

	level.Info(logger).Log("msg", "cache started", "max_size", cfg.MaxSize, "default_ttl", cfg.DefaultTTL, "sweep_interval", cfg.SweepInterval)
	return c, nil
}

/*
Get retrieves a value from the cache.

A nil value with a nil error is a miss: either the key is absent or its
TTL has elapsed. An expired entry is removed right here, whether or not
the sweeper has caught up with it.
*/
func (c *Cache) Get(key string) (any, error) {
	if err := checkKey(key); err != nil {
		return nil, errors.Wrap(err, "get")
	}

	// Misses only need the read lock.
	if !c.store.Contains(key) {
		c.engine.Metrics.Miss()
		return nil, nil
	}

	now := c.engine.Now()
	ent, res := c.store.Access(key, func(e types.Entry) bool {
		return c.engine.IsExpired(e, now)
	})

	switch res {
	case store.Hit:
		c.engine.Metrics.Hit()
		return ent.Value, nil
	case store.Expired:
		c.engine.Metrics.Expire()
		c.engine.Metrics.Size(c.store.Len())
	}
	c.engine.Metrics.Miss()
	return nil, nil
}

/*
GetOrLoad returns the cached value or, on a miss, loads it through loader
and caches it with the default TTL. Concurrent misses on the same key
share one Load call.
*/
func (c *Cache) GetOrLoad(ctx context.Context, key string, loader types.Loader) (any, error) {
	v, err := c.Get(key)
	if err != nil || v != nil {
		return v, err
	}

	v, err, _ = c.sf.Do(key, func() (any, error) {
		return loader.Load(ctx, key)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "loading %q", key)
	}
	if v == nil {
		return nil, nil
	}

	if _, err := c.Put(key, v); err != nil {
		return nil, err
	}
	return v, nil
}

// Put stores a value with the default TTL and returns the previous value, or nil.
func (c *Cache) Put(key string, value any) (any, error) {
	return c.PutWithTTL(key, value, c.defaultTTL)
}

/*
PutWithTTL stores a value with an explicit TTL and returns the previous
value, or nil. A TTL of zero stores an entry that is already expired.
*/
func (c *Cache) PutWithTTL(key string, value any, ttl time.Duration) (any, error) {
	if err := checkKey(key); err != nil {
		return nil, errors.Wrap(err, "put")
	}
	if value == nil {
		return nil, errors.Wrapf(ErrInvalidArgument, "put %q: nil value", key)
	}
	if ttl < 0 {
		return nil, errors.Wrapf(ErrInvalidArgument, "put %q: negative ttl %s", key, ttl)
	}
	if c.closed.Load() {
		return nil, ErrClosed
	}

	prev, evicted := c.store.Put(key, value, ttl, c.engine.Now())
	if evicted != nil {
		c.engine.Metrics.Eviction()
	}
	c.engine.Metrics.Size(c.store.Len())
	return prev, nil
}

// ContainsKey reports whether key is stored. It ignores TTL and does not
// count as a use.
func (c *Cache) ContainsKey(key string) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, errors.Wrap(err, "contains key")
	}
	return c.store.Contains(key), nil
}

// Remove deletes a key from the cache immediately. Removing a missing key is not an error.
func (c *Cache) Remove(key string) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, errors.Wrap(err, "remove")
	}
	if c.closed.Load() {
		return false, ErrClosed
	}

	removed := c.store.Remove(key)
	if removed {
		c.engine.Metrics.Size(c.store.Len())
	}
	return removed, nil
}

// Clear drops every entry. The sweeper keeps running and simply finds nothing to do.
func (c *Cache) Clear() {
	c.store.Clear()
	c.engine.Metrics.Size(0)
}

/*
TTL returns the remaining time-to-live of a key. The second result is
false when the key is absent or already expired.
*/
func (c *Cache) TTL(key string) (time.Duration, bool) {
	ent, ok := c.store.Get(key)
	if !ok {
		return 0, false
	}
	now := c.engine.Now()
	if c.engine.IsExpired(ent, now) {
		return 0, false
	}
	return ent.ExpiresAt().Sub(now), true
}

// Len returns the number of stored entries, including expired ones not yet removed.
func (c *Cache) Len() int {
	return c.store.Len()
}

// Keys returns keys in MRU -> LRU order.
func (c *Cache) Keys() []string {
	return c.store.Keys()
}

// Sweep forces one expiration pass and returns how many entries it removed.
func (c *Cache) Sweep(ctx context.Context) int {
	return c.sweeper.Sweep(ctx)
}

/*
Close stops the sweeper and releases the stored entries. A sweep already
running finishes first; none is started afterwards. Close is safe to call
more than once.
*/
func (c *Cache) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.closeErr = services.StopAndAwaitTerminated(context.Background(), c.sweeper)
		c.Clear()
		level.Info(c.logger).Log("msg", "cache stopped", "sweeps", c.sweeper.Sweeps(), "swept", c.sweeper.Expired())
	})
	return c.closeErr
}

func checkKey(key string) error {
	if key == "" {
		return errors.Wrap(ErrInvalidArgument, "empty key")
	}
	return nil
}

// sweepChecker keeps the size metric current when the sweeper removes entries.
type sweepChecker struct {
	*engine.CacheEngine
	store *store.Store
}

func (s sweepChecker) OnExpire() {
	s.CacheEngine.OnExpire()
	s.Metrics.Size(s.store.Len())
}
