package xpath

import (
	"container/list"
	"sync"
)

// DefaultCacheSize bounds the expression cache when no explicit size
// is given.
const DefaultCacheSize = 256

// Cache is a bounded LRU of compiled expressions keyed by source
// string. It is the only shared mutable state in the engine; all
// access is serialized by an interior mutex, and the compiled forms it
// hands out are immutable.
type Cache struct {
	mu      sync.Mutex
	max     int
	order   *list.List
	entries map[string]*list.Element
}

type cacheEntry struct {
	source   string
	compiled *Compiled
}

// NewCache creates an LRU cache holding at most max compiled
// expressions. A non-positive max falls back to DefaultCacheSize.
func NewCache(max int) *Cache {
	if max <= 0 {
		max = DefaultCacheSize
	}
	return &Cache{
		max:     max,
		order:   list.New(),
		entries: make(map[string]*list.Element, max),
	}
}

// Get returns the compiled form of source, compiling and caching it on
// a miss. Concurrent misses may each compile; compilation is
// deterministic so the last writer wins.
func (c *Cache) Get(source string) (*Compiled, error) {
	c.mu.Lock()
	if elem, ok := c.entries[source]; ok {
		c.order.MoveToFront(elem)
		compiled := elem.Value.(*cacheEntry).compiled
		c.mu.Unlock()
		return compiled, nil
	}
	c.mu.Unlock()

	compiled, err := Compile(source)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.entries[source]; ok {
		c.order.MoveToFront(elem)
		elem.Value.(*cacheEntry).compiled = compiled
		return compiled, nil
	}
	elem := c.order.PushFront(&cacheEntry{source: source, compiled: compiled})
	c.entries[source] = elem
	for c.order.Len() > c.max {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).source)
	}
	return compiled, nil
}

// Len reports the number of cached expressions.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
