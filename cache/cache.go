// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package cache implements the direct-mapped cache between the IAS CPU and
// its memory.
//
// Every address maps to exactly one line, address mod size. A miss always
// replaces the resident line and never writes it back. Stores are written
// through to the backing memory only when they resolved as a miss; a store
// that hits updates the line alone, and that value is lost when the line is
// later evicted.
package cache

import (
	"fmt"
	"log"

	"github.com/ezrec/iasim/memory"
)

const (
	CACHE_SIZE = 10 // Default number of lines.
	TAG_EMPTY  = -1 // Tag of an unused line.
)

// BackingStore is the next level of the memory hierarchy.
type BackingStore interface {
	Read(address int) memory.Word
	Write(address int, value memory.Word)
}

var _ BackingStore = (*memory.Memory)(nil)

// Line is a single cache slot.
type Line struct {
	Content memory.Word
	Tag     int
}

// Empty is true if no address is resident in the line.
func (line Line) Empty() bool {
	return line.Tag == TAG_EMPTY
}

// String returns the line as text.
func (line Line) String() string {
	if line.Empty() {
		return "-"
	}
	return fmt.Sprintf("[0x%06x] %d", line.Tag, line.Content)
}

// Statistics holds cache performance counters.
type Statistics struct {
	Hits      int
	Misses    int
	Evictions int // Misses that displaced a resident line.
}

// Cache is a direct-mapped cache.
type Cache struct {
	Verbose bool

	line    []Line
	backing BackingStore
	stats   Statistics
}

// NewCache creates an empty cache of size lines in front of backing.
func NewCache(size int, backing BackingStore) (c *Cache) {
	if size <= 0 {
		panic("cache size must be positive")
	}

	c = &Cache{
		line:    make([]Line, size),
		backing: backing,
	}

	c.Reset()

	return
}

// Reset empties every line and zeros the statistics.
func (c *Cache) Reset() {
	for n := range c.line {
		c.line[n] = Line{Tag: TAG_EMPTY}
	}
	c.stats = Statistics{}
}

// Size is the number of lines.
func (c *Cache) Size() int {
	return len(c.line)
}

// Slot returns the line index for an address.
func (c *Cache) Slot(address int) int {
	return address % len(c.line)
}

// Line returns a copy of the line at slot.
func (c *Cache) Line(slot int) Line {
	return c.line[slot]
}

// Stats returns the cache statistics.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// ResetStats clears the cache statistics.
func (c *Cache) ResetStats() {
	c.stats = Statistics{}
}

// Resolve looks address up in the cache. On a miss the line for address is
// loaded from the backing store, replacing whatever was resident.
func (c *Cache) Resolve(address int) (hit bool, line *Line) {
	slot := c.Slot(address)
	line = &c.line[slot]

	if !line.Empty() && line.Tag == address {
		c.stats.Hits++
		hit = true
		if c.Verbose {
			log.Printf("cache: hit  %v slot %d", line, slot)
		}
		return
	}

	c.stats.Misses++
	if !line.Empty() {
		c.stats.Evictions++
		if c.Verbose {
			log.Printf("cache: evict %v slot %d", line, slot)
		}
	}

	*line = Line{
		Content: c.backing.Read(address),
		Tag:     address,
	}

	if c.Verbose {
		log.Printf("cache: miss %v slot %d", line, slot)
	}

	return
}

// StoreThrough writes value for address, which must be resident.
// A miss resolution writes both the backing store and the line; a hit
// resolution writes the line only.
func (c *Cache) StoreThrough(address int, hit bool, value memory.Word) {
	if !hit {
		c.backing.Write(address, value)
	}
	c.line[c.Slot(address)].Content = value
}

// Access resolves address, returning the resolved value and its write sink.
func (c *Cache) Access(address int) (access Access) {
	hit, line := c.Resolve(address)

	access = Access{
		Hit:     hit,
		Address: address,
		line:    line,
		cache:   c,
	}

	return
}

// Access is a resolved address. Loads and stores through it follow the
// write policy of the resolution that produced it.
type Access struct {
	Hit     bool // Resolution was a hit.
	Address int  // Resolved address.

	line  *Line
	cache *Cache
}

// Value is the content seen at the resolved address.
func (access Access) Value() memory.Word {
	return access.line.Content
}

// Store writes value at the resolved address.
func (access Access) Store(value memory.Word) {
	access.cache.StoreThrough(access.Address, access.Hit, value)
}
