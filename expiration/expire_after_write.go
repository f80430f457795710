package expiration

import (
	"time"

	"github.com/krisalay/ttlcache/types"
)

/*
ExpireAfterWrite expires an entry once TTL has elapsed since it was last
written. Reads do not extend the lifetime; only another Put does.

The boundary is inclusive: an entry whose age equals its TTL is expired,
so a TTL of zero never produces a hit.
*/
type ExpireAfterWrite struct{}

func (ExpireAfterWrite) IsExpired(ent types.Entry, now time.Time) bool {
	return ent.Age(now) >= ent.TTL
}
