package store

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/krisalay/ttlcache/types"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestPutNewKey(t *testing.T) {
	s := New(4)

	prev, evicted := s.Put("a", "1", time.Minute, t0)
	assert.Nil(t, prev)
	assert.Nil(t, evicted)

	ent, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, types.Entry{Key: "a", Value: "1", WriteTimestamp: t0, TTL: time.Minute}, ent)
	assert.Equal(t, 1, s.Len())
	require.NoError(t, s.Verify())
}

func TestPutExistingKeyUpdatesInPlace(t *testing.T) {
	s := New(2)
	s.Put("a", "1", time.Minute, t0)
	s.Put("b", "2", time.Minute, t0)

	later := t0.Add(time.Second)
	prev, evicted := s.Put("a", "3", time.Hour, later)
	assert.Equal(t, "1", prev)
	assert.Nil(t, evicted)

	ent, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, "3", ent.Value)
	assert.Equal(t, later, ent.WriteTimestamp)
	assert.Equal(t, time.Hour, ent.TTL)

	assert.Equal(t, []string{"a", "b"}, s.Keys())
	assert.Equal(t, 2, s.Len())
	require.NoError(t, s.Verify())
}

func TestPutEvictsLeastRecentlyUsed(t *testing.T) {
	s := New(2)
	s.Put("1", "a", time.Minute, t0)
	s.Put("2", "b", time.Minute, t0)

	_, evicted := s.Put("3", "c", time.Minute, t0)
	require.NotNil(t, evicted)
	assert.Equal(t, "1", evicted.Key)
	assert.Equal(t, "a", evicted.Value)

	assert.False(t, s.Contains("1"))
	assert.True(t, s.Contains("2"))
	assert.True(t, s.Contains("3"))
	assert.Equal(t, 2, s.Len())
	require.NoError(t, s.Verify())
}

func TestAccessPromotesOnHit(t *testing.T) {
	s := New(3)
	for _, k := range []string{"A", "B", "C"} {
		s.Put(k, k, time.Minute, t0)
	}

	ent, res := s.Access("A", func(types.Entry) bool { return false })
	assert.Equal(t, Hit, res)
	assert.Equal(t, "A", ent.Value)

	// eviction order is now B, C, A
	var order []string
	for _, k := range []string{"D", "E", "F"} {
		_, evicted := s.Put(k, k, time.Minute, t0)
		require.NotNil(t, evicted)
		order = append(order, evicted.Key)
	}
	assert.Equal(t, []string{"B", "C", "A"}, order)
}

func TestAccessRemovesExpired(t *testing.T) {
	s := New(3)
	s.Put("a", "1", time.Minute, t0)

	_, res := s.Access("a", func(types.Entry) bool { return true })
	assert.Equal(t, Expired, res)
	assert.False(t, s.Contains("a"))
	require.NoError(t, s.Verify())

	_, res = s.Access("a", func(types.Entry) bool { return true })
	assert.Equal(t, Miss, res)
}

func TestGetDoesNotReorder(t *testing.T) {
	s := New(3)
	s.Put("a", "1", time.Minute, t0)
	s.Put("b", "2", time.Minute, t0)

	_, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, []string{"b", "a"}, s.Keys())
}

func TestRemove(t *testing.T) {
	s := New(3)
	s.Put("a", "1", time.Minute, t0)

	assert.True(t, s.Remove("a"))
	assert.False(t, s.Remove("a"))
	assert.Equal(t, 0, s.Len())
	require.NoError(t, s.Verify())
}

func TestRemoveIfChecksCurrentEntry(t *testing.T) {
	s := New(3)
	s.Put("a", "old", time.Minute, t0)
	snap := s.Snapshot()
	require.Len(t, snap, 1)

	// the key is rewritten after the snapshot was taken
	s.Put("a", "new", time.Minute, t0.Add(time.Minute))

	removed := s.RemoveIf("a", func(cur types.Entry) bool {
		return cur.WriteTimestamp.Equal(snap[0].WriteTimestamp)
	})
	assert.False(t, removed)
	assert.True(t, s.Contains("a"))

	assert.False(t, s.RemoveIf("missing", func(types.Entry) bool { return true }))
	assert.True(t, s.RemoveIf("a", func(types.Entry) bool { return true }))
	require.NoError(t, s.Verify())
}

func TestClear(t *testing.T) {
	s := New(3)
	for _, k := range []string{"a", "b", "c"} {
		s.Put(k, k, time.Minute, t0)
	}

	s.Clear()
	for _, k := range []string{"a", "b", "c"} {
		assert.False(t, s.Contains(k))
	}
	assert.Empty(t, s.Keys())
	require.NoError(t, s.Verify())

	s.Clear()
	assert.Equal(t, 0, s.Len())

	// the store is usable after a clear
	s.Put("d", "d", time.Minute, t0)
	assert.Equal(t, []string{"d"}, s.Keys())
	require.NoError(t, s.Verify())
}

func TestSnapshotIsACopy(t *testing.T) {
	s := New(3)
	s.Put("a", "1", time.Minute, t0)

	snap := s.Snapshot()
	s.Put("a", "2", time.Minute, t0)

	require.Len(t, snap, 1)
	assert.Equal(t, "1", snap[0].Value)
}

func TestNewRejectsNonPositiveSize(t *testing.T) {
	assert.Panics(t, func() { New(0) })
}

func TestConcurrentMutationsKeepListConsistent(t *testing.T) {
	const (
		workers = 8
		ops     = 10000
		maxSize = 64
	)
	s := New(maxSize)

	g := errgroup.Group{}
	for w := 0; w < workers; w++ {
		seed := int64(w)
		g.Go(func() error {
			r := rand.New(rand.NewSource(seed))
			for i := 0; i < ops; i++ {
				key := fmt.Sprintf("k%d", r.Intn(maxSize*2))
				switch r.Intn(5) {
				case 0, 1:
					s.Put(key, i, time.Duration(r.Intn(3))*time.Millisecond, time.Now())
				case 2:
					s.Access(key, func(e types.Entry) bool { return e.Age(time.Now()) >= e.TTL })
				case 3:
					s.Remove(key)
				default:
					for _, e := range s.Snapshot() {
						s.RemoveIf(e.Key, func(cur types.Entry) bool { return cur.Age(time.Now()) >= cur.TTL })
					}
				}
				if s.Len() > maxSize {
					return fmt.Errorf("size %d exceeds %d", s.Len(), maxSize)
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.NoError(t, s.Verify())

	keys := s.Keys()
	assert.Len(t, keys, s.Len())
	for _, k := range keys {
		assert.True(t, s.Contains(k))
	}
}
