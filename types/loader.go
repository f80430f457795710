package types

import "context"

// Loader is the contract between the cache and whatever produces values
// on a miss (a database, an API, a computation).
type Loader interface {

	/*
		Load is called by GetOrLoad when the key is not in memory.
		1. Cache checks memory → key not found (or expired)
		2. Cache calls Load(key), once per key even under concurrency
		3. Cache stores the result with the default TTL
		4. Cache returns the value

		Returning a nil value means "nothing to cache"; it is passed back
		to the caller as a miss.
	*/
	Load(ctx context.Context, key string) (any, error)
}

// LoaderFunc adapts an ordinary function to the Loader interface.
type LoaderFunc func(ctx context.Context, key string) (any, error)

func (f LoaderFunc) Load(ctx context.Context, key string) (any, error) {
	return f(ctx, key)
}
