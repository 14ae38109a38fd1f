package cache

import (
	"sync"
)

// Cache is a bounded least recently used cache. Each entry has a weight, and
// the least recently used entries are evicted once the total weight exceeds
// the budget.
type Cache[K comparable, V any] interface {
	// Insert adds or replaces the value for key
	Insert(key K, value V, weight int)

	// Retrieve returns the value for key and marks it as recently used
	Retrieve(key K) (V, bool)

	// Weight returns the total weight of cached entries
	Weight() int

	// Clear removes all entries
	Clear()
}

type node[K comparable, V any] struct {
	next   *node[K, V]
	prev   *node[K, V]
	key    K
	value  V
	weight int
}

type cache[K comparable, V any] struct {
	mu sync.Mutex

	head   *node[K, V]
	tail   *node[K, V]
	lookup map[K]*node[K, V]
	weight int
	budget int
}

// New returns a Cache holding at most budget total weight
func New[K comparable, V any](budget int) Cache[K, V] {
	return &cache[K, V]{
		lookup: make(map[K]*node[K, V]),
		budget: budget,
	}
}

// Insert implements Cache.Insert
func (c *cache[K, V]) Insert(key K, value V, weight int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.lookup[key]; ok {
		c.unlink(existing)
		c.weight -= existing.weight
		delete(c.lookup, key)
	}

	n := &node[K, V]{key: key, value: value, weight: weight}
	c.pushFront(n)
	c.lookup[key] = n
	c.weight += weight

	for c.weight > c.budget && c.tail != nil {
		evicted := c.tail
		c.unlink(evicted)
		c.weight -= evicted.weight
		delete(c.lookup, evicted.key)
	}
}

// Retrieve implements Cache.Retrieve
func (c *cache[K, V]) Retrieve(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.lookup[key]
	if !ok {
		var zero V
		return zero, false
	}

	if n != c.head {
		c.unlink(n)
		c.pushFront(n)
	}
	return n.value, true
}

// Weight implements Cache.Weight
func (c *cache[K, V]) Weight() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.weight
}

// Clear implements Cache.Clear
func (c *cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.head = nil
	c.tail = nil
	c.lookup = make(map[K]*node[K, V])
	c.weight = 0
}

func (c *cache[K, V]) pushFront(n *node[K, V]) {
	n.prev = nil
	n.next = c.head
	if c.head != nil {
		c.head.prev = n
	}
	c.head = n
	if c.tail == nil {
		c.tail = n
	}
}

func (c *cache[K, V]) unlink(n *node[K, V]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		c.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		c.tail = n.prev
	}
	n.next = nil
	n.prev = nil
}
