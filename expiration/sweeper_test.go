package expiration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/grafana/dskit/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/krisalay/ttlcache/types"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// mapTarget is a minimal Target for exercising the sweeper alone.
type mapTarget struct {
	mu      sync.Mutex
	entries map[string]types.Entry
	poison  string
}

func newMapTarget(entries ...types.Entry) *mapTarget {
	m := &mapTarget{entries: map[string]types.Entry{}}
	for _, e := range entries {
		m.entries[e.Key] = e
	}
	return m
}

func (m *mapTarget) Snapshot() []types.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	return out
}

func (m *mapTarget) RemoveIf(key string, pred func(types.Entry) bool) bool {
	if key == m.poison {
		panic("poisoned entry")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok || !pred(e) {
		return false
	}
	delete(m.entries, key)
	return true
}

func (m *mapTarget) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[key]
	return ok
}

type clockChecker struct {
	ExpireAfterWrite
	clock   types.Clock
	mu      sync.Mutex
	expires int
}

func (c *clockChecker) Now() time.Time { return c.clock.Now() }

func (c *clockChecker) OnExpire() {
	c.mu.Lock()
	c.expires++
	c.mu.Unlock()
}

func TestExpireAfterWrite(t *testing.T) {
	tcs := []struct {
		name    string
		ttl     time.Duration
		age     time.Duration
		expired bool
	}{
		{name: "fresh", ttl: time.Minute, age: time.Second},
		{name: "boundary is expired", ttl: time.Minute, age: time.Minute, expired: true},
		{name: "past ttl", ttl: time.Minute, age: time.Hour, expired: true},
		{name: "zero ttl", ttl: 0, age: 0, expired: true},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			ent := types.Entry{Key: "k", Value: "v", WriteTimestamp: t0, TTL: tc.ttl}
			assert.Equal(t, tc.expired, ExpireAfterWrite{}.IsExpired(ent, t0.Add(tc.age)))
		})
	}
}

func TestSweepRemovesOnlyExpired(t *testing.T) {
	clock := types.NewManualClock(t0)
	target := newMapTarget(
		types.Entry{Key: "short", Value: 1, WriteTimestamp: t0, TTL: time.Second},
		types.Entry{Key: "long", Value: 2, WriteTimestamp: t0, TTL: time.Hour},
	)
	checker := &clockChecker{clock: clock}
	s := NewSweeper(target, checker, time.Hour, nil)

	assert.Equal(t, 0, s.Sweep(context.Background()))
	assert.True(t, target.has("short"))

	clock.Advance(2 * time.Second)
	assert.Equal(t, 1, s.Sweep(context.Background()))
	assert.False(t, target.has("short"))
	assert.True(t, target.has("long"))

	assert.Equal(t, int64(2), s.Sweeps())
	assert.Equal(t, int64(1), s.Expired())
	assert.Equal(t, 1, checker.expires)
}

func TestSweepSkipsFailingEntry(t *testing.T) {
	clock := types.NewManualClock(t0)
	target := newMapTarget(
		types.Entry{Key: "bad", Value: 1, WriteTimestamp: t0, TTL: time.Second},
		types.Entry{Key: "good", Value: 2, WriteTimestamp: t0, TTL: time.Second},
	)
	target.poison = "bad"
	s := NewSweeper(target, &clockChecker{clock: clock}, time.Hour, nil)

	clock.Advance(time.Minute)
	var removed int
	require.NotPanics(t, func() { removed = s.Sweep(context.Background()) })

	assert.Equal(t, 1, removed)
	assert.False(t, target.has("good"))
	assert.True(t, target.has("bad"))
}

func TestSweeperRunsPeriodicallyUntilStopped(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	clock := types.NewManualClock(t0)
	target := newMapTarget(types.Entry{Key: "k", Value: 1, WriteTimestamp: t0, TTL: time.Second})
	clock.Advance(time.Minute)

	s := NewSweeper(target, &clockChecker{clock: clock}, 5*time.Millisecond, nil)
	assert.Equal(t, services.New, s.State())

	require.NoError(t, services.StartAndAwaitRunning(context.Background(), s))
	assert.Eventually(t, func() bool { return !target.has("k") }, time.Second, 5*time.Millisecond)

	require.NoError(t, services.StopAndAwaitTerminated(context.Background(), s))
	assert.Equal(t, services.Terminated, s.State())

	sweeps := s.Sweeps()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, sweeps, s.Sweeps(), "no sweep may run after stop")
}
