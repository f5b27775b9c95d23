// Package twiddle maps 2-D texel coordinates to the bit-interleaved (Morton order)
// storage offsets used by PowerVR twiddled textures.
package twiddle

import "sync"

// MaxSide is the largest texture side the mapping covers (10 bits per axis).
const MaxSide = 1024

// Mapper resolves a texel coordinate to its twiddled linear index.
type Mapper interface {
	Index(x, y int) int
}

// spread moves bit i of v to bit 2i, for the low 10 bits.
func spread(v int) int {
	out := 0
	for i := 0; i < 10; i++ {
		if v&(1<<i) != 0 {
			out |= 1 << (2 * i)
		}
	}
	return out
}

// Untwiddle interleaves y into the even bits and x into the odd bits.
func Untwiddle(x, y int) int {
	return spread(y) | spread(x)<<1
}

// Cache memoizes Untwiddle per (x, y). Safe for concurrent use.
type Cache struct {
	mu    sync.RWMutex
	items map[[2]int]int
}

// Default is shared by decoders that are not given a Mapper.
var Default = NewCache()

func NewCache() *Cache {
	return &Cache{items: make(map[[2]int]int)}
}

// Index returns Untwiddle(x, y), computing it at most once per coordinate.
func (c *Cache) Index(x, y int) int {
	key := [2]int{x, y}

	c.mu.RLock()
	if v, ok := c.items[key]; ok {
		c.mu.RUnlock()
		return v
	}
	c.mu.RUnlock()

	v := Untwiddle(x, y)

	c.mu.Lock()
	if existing, ok := c.items[key]; ok {
		c.mu.Unlock()
		return existing
	}
	c.items[key] = v
	c.mu.Unlock()

	return v
}

// Len returns the number of memoized coordinates.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Reset drops every memoized coordinate.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.items = make(map[[2]int]int)
	c.mu.Unlock()
}

// Table is a lock-free Mapper built from a per-axis spread table.
type Table struct {
	bits [MaxSide]int
}

func NewTable() *Table {
	t := &Table{}
	for i := range t.bits {
		t.bits[i] = spread(i)
	}
	return t
}

func (t *Table) Index(x, y int) int {
	return t.bits[y&(MaxSide-1)] | t.bits[x&(MaxSide-1)]<<1
}
