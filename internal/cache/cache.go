// Package cache implements the render cache. Rendered diagrams are stored
// under a hash of their source so unchanged text is never laid out twice.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// EvictionStrategy defines how cache entries are removed
type EvictionStrategy int

const (
	// LRU removes least recently used entries
	LRU EvictionStrategy = iota
	// LFU removes least frequently used entries
	LFU
	// FIFO removes oldest entries first
	FIFO
)

// String returns the strategy name used in configuration
func (s EvictionStrategy) String() string {
	switch s {
	case LRU:
		return "lru"
	case LFU:
		return "lfu"
	case FIFO:
		return "fifo"
	default:
		return "unknown"
	}
}

// ParseStrategy converts a configuration name into a strategy. Unknown
// names fall back to LRU.
func ParseStrategy(name string) EvictionStrategy {
	switch name {
	case "lfu":
		return LFU
	case "fifo":
		return FIFO
	default:
		return LRU
	}
}

// Config holds cache configuration
type Config[V any] struct {
	MaxSize  int64            // Maximum total size (default: 256 entries of size 1)
	MaxAge   time.Duration    // Maximum age for entries; 0 never expires
	Strategy EvictionStrategy // Eviction strategy (default: LRU)
	SizeOf   func(V) int64    // Size of a value (default: 1)
	Now      func() time.Time // Clock (default: time.Now)
}

// DefaultConfig returns the default cache configuration
func DefaultConfig[V any]() Config[V] {
	return Config[V]{
		MaxSize:  256,
		Strategy: LRU,
	}
}

// Stats tracks cache performance metrics
type Stats struct {
	Hits       int64 `json:"hits"`
	Misses     int64 `json:"misses"`
	Evictions  int64 `json:"evictions"`
	TotalSize  int64 `json:"total_size"`
	EntryCount int   `json:"entry_count"`
}

type entry[V any] struct {
	value       V
	size        int64
	created     time.Time
	lastAccess  uint64
	insertedAt  uint64
	accessCount int
}

// Cache is a size-bounded in-memory cache
type Cache[V any] struct {
	mu      sync.Mutex
	config  Config[V]
	entries map[string]*entry[V]
	tick    uint64
	stats   Stats
}

// New creates a new cache instance
func New[V any](config Config[V]) *Cache[V] {
	if config.SizeOf == nil {
		config.SizeOf = func(V) int64 { return 1 }
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Cache[V]{
		config:  config,
		entries: make(map[string]*entry[V]),
	}
}

// Get retrieves a cached value
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		return zero, false
	}
	if c.isExpired(e) {
		c.removeLocked(key, e)
		c.stats.Misses++
		return zero, false
	}

	c.tick++
	e.lastAccess = c.tick
	e.accessCount++
	c.stats.Hits++
	return e.value, true
}

// Put stores a value, evicting entries until it fits. A value larger than
// MaxSize is not stored.
func (c *Cache[V]) Put(key string, value V) {
	size := c.config.SizeOf(value)

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[key]; ok {
		c.removeLocked(key, old)
	}
	if c.config.MaxSize > 0 && size > c.config.MaxSize {
		return
	}
	c.ensureSpace(size)

	c.tick++
	c.entries[key] = &entry[V]{
		value:      value,
		size:       size,
		created:    c.config.Now(),
		lastAccess: c.tick,
		insertedAt: c.tick,
	}
	c.stats.TotalSize += size
	c.stats.EntryCount = len(c.entries)
}

// Delete removes an entry from the cache
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		c.removeLocked(key, e)
	}
}

// Clear removes all cached entries and resets statistics
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*entry[V])
	c.stats = Stats{}
}

// Len returns the number of cached entries
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// GetStats returns cache statistics
func (c *Cache[V]) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Key generates a cache key from inputs
func Key(inputs ...string) string {
	h := sha256.New()
	for _, input := range inputs {
		h.Write([]byte(input))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (c *Cache[V]) isExpired(e *entry[V]) bool {
	if c.config.MaxAge <= 0 {
		return false
	}
	return c.config.Now().Sub(e.created) > c.config.MaxAge
}

func (c *Cache[V]) removeLocked(key string, e *entry[V]) {
	delete(c.entries, key)
	c.stats.TotalSize -= e.size
	c.stats.EntryCount = len(c.entries)
}

// ensureSpace evicts entries until needed more fits. Caller holds c.mu.
func (c *Cache[V]) ensureSpace(needed int64) {
	if c.config.MaxSize <= 0 {
		return
	}

	for c.stats.TotalSize+needed > c.config.MaxSize && len(c.entries) > 0 {
		var evictKey string
		var evict *entry[V]

		for key, e := range c.entries {
			if evict == nil || c.before(e, evict) {
				evictKey = key
				evict = e
			}
		}

		c.removeLocked(evictKey, evict)
		c.stats.Evictions++
	}
}

// before reports whether a should be evicted ahead of b
func (c *Cache[V]) before(a, b *entry[V]) bool {
	switch c.config.Strategy {
	case LFU:
		if a.accessCount != b.accessCount {
			return a.accessCount < b.accessCount
		}
		return a.lastAccess < b.lastAccess
	case FIFO:
		return a.insertedAt < b.insertedAt
	default:
		return a.lastAccess < b.lastAccess
	}
}
