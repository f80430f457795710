package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/krisalay/ttlcache/eviction"
	"github.com/krisalay/ttlcache/types"
)

/*
This file defines how data is actually stored. A Store is the map used for
O(1) lookup plus the recency list used for O(1) reordering and eviction.

The two structures are one logical unit. Every mutation touches both under
the same write lock, so no observer ever sees a key in the map that is not
in the list (or the other way round), or a node halfway through a splice.
*/

// AccessResult tells the caller what Access found.
type AccessResult int

const (
	Miss AccessResult = iota
	Hit
	Expired
)

type Store struct {
	// mu guards items, recency and every Entry reachable from them.
	// Pure map reads take the read lock; anything that reorders the
	// list takes the write lock, even when the mapping is unchanged.
	mu sync.RWMutex

	items   map[string]*eviction.Node
	recency *eviction.List

	maxSize int
}

// New creates an empty store holding at most maxSize entries.
func New(maxSize int) *Store {
	if maxSize <= 0 {
		panic(fmt.Sprintf("store: maxSize must be positive, got %d", maxSize))
	}
	return &Store{
		items:   make(map[string]*eviction.Node),
		recency: eviction.NewList(),
		maxSize: maxSize,
	}
}

// Get returns a copy of the entry for key. It does not touch recency order.
func (s *Store) Get(key string) (types.Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.items[key]
	if !ok {
		return types.Entry{}, false
	}
	return *n.Entry, true
}

/*
Put inserts or updates an entry.

New key:
  - create the node, insert into the map, link it at the head
  - if that pushed the count over maxSize, evict the tail

Only one key is added per call, so at most one entry is ever evicted.

Existing key:
  - update value, write timestamp and ttl in place
  - move the node to the head; the count is unchanged, so no eviction

It returns the previous value (nil for a new key) and a copy of the
evicted entry, if any.
*/
func (s *Store) Put(key string, value any, ttl time.Duration, now time.Time) (any, *types.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n, ok := s.items[key]; ok {
		prev := n.Entry.Value
		n.Entry.Value = value
		n.Entry.WriteTimestamp = now
		n.Entry.TTL = ttl
		s.recency.MoveToHead(n)
		return prev, nil
	}

	n := &eviction.Node{Entry: &types.Entry{
		Key:            key,
		Value:          value,
		WriteTimestamp: now,
		TTL:            ttl,
	}}
	s.items[key] = n
	s.recency.LinkAtHead(n)

	if s.recency.Len() <= s.maxSize {
		return nil, nil
	}

	victim, err := s.recency.EvictTail()
	if err != nil {
		// the list just grew past a positive maxSize, so it cannot be empty
		panic(fmt.Sprintf("store: evicting on overflow: %v", err))
	}
	delete(s.items, victim.Entry.Key)
	evicted := *victim.Entry
	return nil, &evicted
}

// Remove deletes key from both structures. It reports whether key was present.
func (s *Store) Remove(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.items[key]
	if !ok {
		return false
	}
	s.removeLocked(n)
	return true
}

/*
RemoveIf removes key only if its current entry satisfies pred.

The predicate runs under the write lock, so a decision made on an older
snapshot (by the sweeper or by a reader that saw an expired entry) never
removes an entry that was rewritten in the meantime.
*/
func (s *Store) RemoveIf(key string, pred func(types.Entry) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.items[key]
	if !ok || !pred(*n.Entry) {
		return false
	}
	s.removeLocked(n)
	return true
}

/*
Access is the read path that needs the write lock:
  - Miss: key absent
  - Expired: expired(entry) was true, the entry has been removed
  - Hit: the node moved to the head and a copy of the entry is returned
*/
func (s *Store) Access(key string, expired func(types.Entry) bool) (types.Entry, AccessResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.items[key]
	if !ok {
		return types.Entry{}, Miss
	}
	if expired(*n.Entry) {
		s.removeLocked(n)
		return types.Entry{}, Expired
	}
	s.recency.MoveToHead(n)
	return *n.Entry, Hit
}

// Contains reports whether key is present, expired or not.
func (s *Store) Contains(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.items[key]
	return ok
}

// Clear empties the store. The lock is held for the whole reset so a
// concurrent Put either lands before the clear (and is dropped) or after it.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recency.Reset()
	s.items = make(map[string]*eviction.Node)
}

// Len returns how many entries are stored, including expired ones not yet removed.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Snapshot copies every entry. Later mutations do not affect the result.
func (s *Store) Snapshot() []types.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Entry, 0, len(s.items))
	for _, n := range s.items {
		out = append(out, *n.Entry)
	}
	return out
}

// Keys returns keys in MRU -> LRU order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, s.recency.Len())
	s.recency.Walk(func(n *eviction.Node) bool {
		out = append(out, n.Entry.Key)
		return true
	})
	return out
}

// Verify checks that the list is well formed and holds exactly the
// entries in the map, each once.
func (s *Store) Verify() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.recency.Check(); err != nil {
		return err
	}
	if s.recency.Len() != len(s.items) {
		return fmt.Errorf("store: list has %d nodes, map has %d keys", s.recency.Len(), len(s.items))
	}
	if len(s.items) > s.maxSize {
		return fmt.Errorf("store: %d entries exceed max size %d", len(s.items), s.maxSize)
	}

	var err error
	seen := make(map[string]struct{}, len(s.items))
	s.recency.Walk(func(n *eviction.Node) bool {
		key := n.Entry.Key
		if _, dup := seen[key]; dup {
			err = fmt.Errorf("store: key %q linked twice", key)
			return false
		}
		seen[key] = struct{}{}
		if s.items[key] != n {
			err = fmt.Errorf("store: key %q in list does not match the map", key)
			return false
		}
		return true
	})
	return err
}

func (s *Store) removeLocked(n *eviction.Node) {
	s.recency.Unlink(n)
	delete(s.items, n.Entry.Key)
}
