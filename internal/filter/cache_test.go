package filter

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCache(t *testing.T) {
	assert.Equal(t, 10, NewCache(10).Capacity())
	assert.Equal(t, DefaultCacheCapacity, NewCache(0).Capacity())
	assert.Equal(t, DefaultCacheCapacity, NewCache(-5).Capacity())
}

func TestCache_LRUEviction(t *testing.T) {
	cache := NewCache(2)

	a := &Filter{Expression: "a"}
	b := &Filter{Expression: "b"}
	c := &Filter{Expression: "c"}

	cache.Put(a)
	cache.Put(b)
	assert.Same(t, a, cache.Get("a"))

	// b is now least recently used
	cache.Put(c)
	assert.Nil(t, cache.Get("b"))
	assert.Same(t, a, cache.Get("a"))
	assert.Same(t, c, cache.Get("c"))
	assert.Equal(t, 2, cache.Size())
}

func TestCache_PutReplaces(t *testing.T) {
	cache := NewCache(2)

	old := &Filter{Expression: "x"}
	replacement := &Filter{Expression: "x"}
	cache.Put(old)
	cache.Put(replacement)

	assert.Same(t, replacement, cache.Get("x"))
	assert.Equal(t, 1, cache.Size())
}

func TestCache_Concurrent(t *testing.T) {
	cache := NewCache(16)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("expr-%d", (i*100+j)%32)
				cache.Put(&Filter{Expression: key})
				cache.Get(key)
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, cache.Size(), 16)
}
