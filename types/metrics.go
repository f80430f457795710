package types

// This file defines how the cache reports what it is doing.

/*
Metrics is an interface that defines what the cache wants to measure.
Each method represents an event in the cache lifecycle. The cache will call these methods whenever something happens.
*/
type Metrics interface {

	// Hit is called when Get returns a live value.
	Hit()

	// Miss is called when the key is absent or expired.
	Miss()

	// Eviction is called when a key is removed because the cache is full and needs space.
	Eviction()

	// Expire is called when a key is removed because it has passed its TTL,
	// either on read or by the sweeper.
	Expire()

	// Size reports the live entry count after every mutation.
	Size(n int)
}

/*
NoopMetrics is a "do nothing" implementation of Metrics.
It lets the cache call metrics unconditionally when the caller
did not ask for any.
*/
type NoopMetrics struct{}

func (NoopMetrics) Hit()      {}
func (NoopMetrics) Miss()     {}
func (NoopMetrics) Eviction() {}
func (NoopMetrics) Expire()   {}
func (NoopMetrics) Size(int)  {}
