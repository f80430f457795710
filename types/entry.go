package types

import "time"

// Entry is one cached item.
// The store mutates it in place on update, so it must only be read
// while holding the store lock. Callers outside the store get copies.
type Entry struct {
	Key   string
	Value any

	// WriteTimestamp is when the entry was last written.
	WriteTimestamp time.Time

	// TTL is measured from WriteTimestamp. Zero means the entry is
	// already expired on the next read.
	TTL time.Duration
}

// Age returns how long ago the entry was written.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.WriteTimestamp)
}

// ExpiresAt returns the instant at which the entry stops being served.
func (e Entry) ExpiresAt() time.Time {
	return e.WriteTimestamp.Add(e.TTL)
}
