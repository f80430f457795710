package cache

import "time"

/*
Cache defines the PUBLIC API of our in-memory cache system.
This is a contract that guarantees certain behaviors, without exposing internals.
All of the details like (recency tracking, eviction, expiration, concurrency)
are hidden behind this interface.

Keys must be non-empty and values non-nil; violations fail with an error
matching ErrInvalidArgument. Misses are never errors.
*/
type Cache interface {

	/*
		Get retrieves the value associated with the given key.

		BEHAVIOR:
		-------------------
		1. If the key exists in cache and is NOT expired:
		   - Mark it most recently used
		   - Return the value (cache hit)

		2. If the key exists but its TTL has elapsed:
		   - Remove it immediately
		   - Return nil (cache miss)

		3. If the key does NOT exist:
		   - Return nil (cache miss)
	*/
	Get(key string) (any, error)

	/*
		Put stores a key-value pair with the cache's default TTL.

		BEHAVIOR:
		---------
		- New key: stored as most recently used; if the cache is now over
		  capacity, the least recently used entry is evicted
		- Existing key: value and TTL are replaced, the write time resets,
		  and the key becomes most recently used
		- Returns the previous value, or nil for a new key
	*/
	Put(key string, value any) (any, error)

	/*
		PutWithTTL stores a key-value pair with an explicit time-to-live (TTL).

		TTL (Time-To-Live):
		-------------------
		- Measured from this write
		- Zero means the entry is already expired on the next read
		- Negative TTLs are rejected
	*/
	PutWithTTL(key string, value any, ttl time.Duration) (any, error)

	/*
		ContainsKey reports whether the key is stored.

		It does NOT evaluate TTL and does NOT change recency order,
		so an expired entry that has not been swept yet still counts.
	*/
	ContainsKey(key string) (bool, error)

	/*
		Remove deletes a key from the cache immediately.

		This operation is idempotent:
		- Removing a non-existing key is safe and reports false
	*/
	Remove(key string) (bool, error)

	/*
		Clear drops every entry. Calling it again is a no-op.
	*/
	Clear()

	/*
		TTL returns the remaining time-to-live for a key.
		The second result is false if the key does not exist or is already expired.
	*/
	TTL(key string) (time.Duration, bool)

	// Len returns the number of stored entries.
	Len() int

	/*
		Close gracefully shuts down the cache.

		BEHAVIOR:
		---------
		- Stops the background sweeper (a running sweep finishes first)
		- Releases all entries
		- Rejects later writes

		Safe to call more than once.
	*/
	Close() error
}
