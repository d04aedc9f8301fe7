// Package cache provides a small fixed-capacity key/value store with
// least-recently-used eviction, used to avoid re-fetching pages within a
// single agent session. Each session owns its own instance; an LRU is not
// safe for concurrent use and is never shared between sessions.
package cache

import "container/list"

// DefaultCapacity is the capacity used when none is given.
const DefaultCapacity = 16

type entry struct {
	key   string
	value string
}

// LRU is a bounded key/value store. Both reads and writes promote the
// touched key to most-recently-used; inserting a new key beyond capacity
// evicts the key whose last access is oldest. All operations are O(1).
type LRU struct {
	capacity int
	order    *list.List // front is most-recently-used
	index    map[string]*list.Element
}

// New creates an LRU holding at most capacity entries. A capacity of zero
// or less falls back to DefaultCapacity.
func New(capacity int) *LRU {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &LRU{
		capacity: capacity,
		order:    list.New(),
		index:    make(map[string]*list.Element, capacity),
	}
}

// Get returns the value stored under key and whether it was present.
// A hit promotes the key to most-recently-used; a miss is a normal
// outcome, not an error, and never evicts anything.
func (c *LRU) Get(key string) (string, bool) {
	elem, ok := c.index[key]
	if !ok {
		return "", false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*entry).value, true
}

// Put stores value under key. An existing key has its value replaced and
// becomes most-recently-used. A new key inserted at capacity first evicts
// the least-recently-used entry.
func (c *LRU) Put(key, value string) {
	if elem, ok := c.index[key]; ok {
		elem.Value.(*entry).value = value
		c.order.MoveToFront(elem)
		return
	}
	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.index, oldest.Value.(*entry).key)
		}
	}
	c.index[key] = c.order.PushFront(&entry{key: key, value: value})
}

// Len returns the number of entries currently stored.
func (c *LRU) Len() int {
	return c.order.Len()
}

// Capacity returns the fixed capacity set at construction.
func (c *LRU) Capacity() int {
	return c.capacity
}
