// This file defines how cache entries expire over time.

package expiration

import (
	"time"

	"github.com/krisalay/ttlcache/types"
)

/*
Strategy is the interface that expiration rules follow. The engine asks
it whether an entry is still servable; both the read path and the
sweeper go through the same rule.
*/
type Strategy interface {

	// IsExpired checks if the entry is expired at now.
	IsExpired(types.Entry, time.Time) bool
}
