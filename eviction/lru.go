// This file implements the LRU recency list.

package eviction

import (
	"errors"
	"fmt"

	"github.com/krisalay/ttlcache/types"
)

// ErrEmptyList is returned by EvictTail when there is nothing to evict.
var ErrEmptyList = errors.New("eviction: recency list is empty")

// Node represents ONE entry inside the LRU structure. We use a doubly-linked list to track usage order.
type Node struct {
	Entry *types.Entry

	// prev points towards the head (more recently used)
	prev *Node

	// next points towards the tail (less recently used)
	next *Node
}

/*
List is an intrusive doubly-linked list ordered from most to least
recently used. It is bounded by two sentinel nodes that never carry an
entry, so insertion and removal never special-case the ends:

	head <-> n1 <-> n2 <-> ... <-> tail

An empty list is head.next == tail and tail.prev == head.

List is not safe for concurrent use. The owner (the store) must hold
its lock across every call.
*/
type List struct {
	head *Node
	tail *Node
	len  int
}

func NewList() *List {
	l := &List{head: &Node{}, tail: &Node{}}
	l.Reset()
	return l
}

// Len returns the number of real nodes.
func (l *List) Len() int { return l.len }

// Front returns the most recently used node, or nil.
func (l *List) Front() *Node {
	if l.len == 0 {
		return nil
	}
	return l.head.next
}

// Back returns the least recently used node, or nil.
func (l *List) Back() *Node {
	if l.len == 0 {
		return nil
	}
	return l.tail.prev
}

// LinkAtHead inserts n immediately after the head sentinel.
// This marks the node as "most recently used".
func (l *List) LinkAtHead(n *Node) {
	n.prev = l.head
	n.next = l.head.next
	l.head.next.prev = n
	l.head.next = n
	l.len++
}

// Unlink splices n out using its own prev/next pointers.
func (l *List) Unlink(n *Node) {
	n.prev.next = n.next
	n.next.prev = n.prev
	n.prev = nil
	n.next = nil
	l.len--
}

// MoveToHead is used on every hit and on update of an existing key.
func (l *List) MoveToHead(n *Node) {
	if l.head.next == n {
		return
	}
	l.Unlink(n)
	l.LinkAtHead(n)
}

// EvictTail unlinks and returns the least recently used node.
func (l *List) EvictTail() (*Node, error) {
	if l.len == 0 {
		return nil, ErrEmptyList
	}
	n := l.tail.prev
	l.Unlink(n)
	return n, nil
}

// Reset drops every node by pointing the sentinels back at each other.
func (l *List) Reset() {
	l.head.prev = nil
	l.head.next = l.tail
	l.tail.prev = l.head
	l.tail.next = nil
	l.len = 0
}

// Walk visits real nodes from head to tail until fn returns false.
// fn must not mutate the list.
func (l *List) Walk(fn func(*Node) bool) {
	for n := l.head.next; n != l.tail; n = n.next {
		if !fn(n) {
			return
		}
	}
}

// Check walks the list in both directions and reports the first broken
// link it finds. It is O(n) and meant for tests and debugging.
func (l *List) Check() error {
	seen := 0
	prev := l.head
	for n := l.head.next; n != l.tail; n = n.next {
		if n == nil {
			return fmt.Errorf("eviction: nil link after %d nodes", seen)
		}
		if n.prev != prev {
			return fmt.Errorf("eviction: node %d has a stale prev link", seen)
		}
		if n.Entry == nil {
			return fmt.Errorf("eviction: node %d carries no entry", seen)
		}
		seen++
		if seen > l.len {
			return fmt.Errorf("eviction: walked past %d nodes, list is cyclic or miscounted", l.len)
		}
		prev = n
	}
	if l.tail.prev != prev {
		return fmt.Errorf("eviction: tail.prev does not point at the last node")
	}
	if seen != l.len {
		return fmt.Errorf("eviction: counted %d nodes, len is %d", seen, l.len)
	}
	return nil
}
