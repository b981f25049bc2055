package cache

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	c := New[string, int](2)
	c.Add("a", 1)
	c.Add("b", 2)

	_, ok := c.Get("a") // a becomes MRU
	assert.True(t, ok)

	c.Add("c", 3) // evicts b

	_, ok = c.Get("b")
	assert.False(t, ok)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, c.Len())
}

func TestLRU_UpdateInPlace(t *testing.T) {
	t.Parallel()

	c := New[string, string](1)
	c.Add("k", "old")
	c.Add("k", "new")

	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "new", v)
	assert.Equal(t, 1, c.Len())
}

func TestLRU_Purge(t *testing.T) {
	t.Parallel()

	c := New[int, int](4)
	c.Add(1, 1)
	c.Add(2, 2)
	c.Purge()

	assert.Equal(t, 0, c.Len())
	_, ok := c.Get(1)
	assert.False(t, ok)
}

func TestLRU_PanicsOnZeroCapacity(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { New[string, int](0) })
}

func TestLRU_Concurrent(t *testing.T) {
	t.Parallel()

	c := New[string, int](16)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				k := strconv.Itoa((i * j) % 32)
				c.Add(k, j)
				c.Get(k)
			}
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 16)
}
