package filter

import (
	"container/list"
	"sync"
)

// DefaultCacheCapacity is the number of compiled filters kept by default.
const DefaultCacheCapacity = 256

// Cache provides thread-safe LRU caching for compiled filters.
type Cache struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*list.Element
	order    *list.List
}

type cacheItem struct {
	key    string
	filter *Filter
}

// NewCache creates a filter cache with the given capacity.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &Cache{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Get returns the cached filter for expression, or nil.
func (c *Cache) Get(expression string) *Filter {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[expression]; ok {
		c.order.MoveToFront(elem)
		return elem.Value.(*cacheItem).filter
	}
	return nil
}

// Put stores a compiled filter, evicting the least recently used one when
// the cache is full.
func (c *Cache) Put(f *Filter) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[f.Expression]; ok {
		c.order.MoveToFront(elem)
		elem.Value.(*cacheItem).filter = f
		return
	}

	if c.order.Len() >= c.capacity {
		c.evictOldest()
	}
	c.items[f.Expression] = c.order.PushFront(&cacheItem{key: f.Expression, filter: f})
}

// Size returns the number of entries in the cache.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.order.Len()
}

// Capacity returns the maximum capacity of the cache.
func (c *Cache) Capacity() int {
	return c.capacity
}

// evictOldest removes the least recently used entry.
// Must be called with lock held.
func (c *Cache) evictOldest() {
	if elem := c.order.Back(); elem != nil {
		delete(c.items, elem.Value.(*cacheItem).key)
		c.order.Remove(elem)
	}
}
