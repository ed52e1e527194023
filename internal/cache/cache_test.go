package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func sizedConfig(strategy EvictionStrategy) Config[string] {
	return Config[string]{
		MaxSize:  100,
		Strategy: strategy,
		SizeOf:   func(s string) int64 { return int64(len(s)) },
	}
}

func repeat(c byte, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = c
	}
	return string(b)
}

func TestCache_GetPut(t *testing.T) {
	cache := New(DefaultConfig[string]())

	cache.Put("key", "<svg/>")

	got, found := cache.Get("key")
	if !found {
		t.Fatal("Data not found in cache")
	}
	if got != "<svg/>" {
		t.Errorf("Retrieved data doesn't match: got %s", got)
	}

	if _, found := cache.Get("non-existent"); found {
		t.Error("Found non-existent key")
	}

	stats := cache.GetStats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("Expected 1 hit and 1 miss, got %+v", stats)
	}
}

func TestCache_Delete(t *testing.T) {
	cache := New(DefaultConfig[int]())

	cache.Put("key", 1)
	cache.Delete("key")
	cache.Delete("key")

	if _, found := cache.Get("key"); found {
		t.Error("Data still exists after delete")
	}
	if cache.Len() != 0 {
		t.Errorf("Expected empty cache, got %d entries", cache.Len())
	}
}

func TestCache_Eviction(t *testing.T) {
	tests := []struct {
		name     string
		strategy EvictionStrategy
		access   func(c *Cache[string])
		evicted  string
	}{
		{
			name:     "lru",
			strategy: LRU,
			access:   func(c *Cache[string]) { c.Get("key1") },
			evicted:  "key2",
		},
		{
			name:     "lfu",
			strategy: LFU,
			access: func(c *Cache[string]) {
				c.Get("key1")
				c.Get("key1")
				c.Get("key2")
			},
			evicted: "key2",
		},
		{
			name:     "fifo",
			strategy: FIFO,
			access: func(c *Cache[string]) {
				c.Get("key1")
				c.Get("key1")
			},
			evicted: "key1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := New(sizedConfig(tt.strategy))

			cache.Put("key1", repeat('a', 40))
			cache.Put("key2", repeat('b', 40))
			tt.access(cache)
			cache.Put("key3", repeat('c', 40))

			for _, key := range []string{"key1", "key2", "key3"} {
				_, found := cache.Get(key)
				if key == tt.evicted && found {
					t.Errorf("%s was not evicted but should have been", key)
				}
				if key != tt.evicted && !found {
					t.Errorf("%s was evicted but shouldn't have been", key)
				}
			}
			if stats := cache.GetStats(); stats.Evictions != 1 {
				t.Errorf("Expected 1 eviction, got %d", stats.Evictions)
			}
		})
	}
}

func TestCache_OversizedValueNotStored(t *testing.T) {
	cache := New(sizedConfig(LRU))

	cache.Put("small", "x")
	cache.Put("huge", repeat('z', 101))

	if _, found := cache.Get("huge"); found {
		t.Error("Expected oversized value to be skipped")
	}
	if _, found := cache.Get("small"); !found {
		t.Error("Expected existing entries to survive an oversized put")
	}
}

func TestCache_Expiration(t *testing.T) {
	now := time.Unix(0, 0)
	cache := New(Config[int]{
		MaxAge: time.Minute,
		Now:    func() time.Time { return now },
	})

	cache.Put("key", 7)
	now = now.Add(30 * time.Second)
	if _, found := cache.Get("key"); !found {
		t.Fatal("Expected entry before expiry")
	}

	now = now.Add(time.Minute)
	if _, found := cache.Get("key"); found {
		t.Error("Expected entry to expire")
	}
	if cache.Len() != 0 {
		t.Errorf("Expected expired entry removed, got %d", cache.Len())
	}
}

func TestCache_ReplaceUpdatesSize(t *testing.T) {
	cache := New(sizedConfig(LRU))

	cache.Put("key", repeat('a', 60))
	cache.Put("key", repeat('b', 10))

	stats := cache.GetStats()
	if stats.TotalSize != 10 || stats.EntryCount != 1 {
		t.Errorf("Expected size 10 over 1 entry, got %+v", stats)
	}
}

func TestCache_Clear(t *testing.T) {
	cache := New(DefaultConfig[int]())
	for i := 0; i < 5; i++ {
		cache.Put(fmt.Sprintf("key%d", i), i)
	}

	cache.Clear()

	if stats := cache.GetStats(); stats.EntryCount != 0 || stats.TotalSize != 0 {
		t.Errorf("Expected empty stats after clear, got %+v", stats)
	}
}

func TestCache_Concurrent(t *testing.T) {
	cache := New(DefaultConfig[int]())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("key-%d-%d", id, j%10)
				cache.Put(key, j)
				cache.Get(key)
			}
		}(i)
	}
	wg.Wait()

	if cache.Len() > 256 {
		t.Errorf("Expected cache bounded at 256, got %d", cache.Len())
	}
}

func TestCache_KeyGeneration(t *testing.T) {
	if Key("graph LR;", "A") != Key("graph LR;", "A") {
		t.Error("Same inputs generated different keys")
	}
	if Key("ab", "c") == Key("a", "bc") {
		t.Error("Expected input boundaries to change the key")
	}
	if len(Key("x")) != 64 {
		t.Errorf("Expected 64-character hex key, got %d", len(Key("x")))
	}
}

func TestParseStrategy(t *testing.T) {
	tests := map[string]EvictionStrategy{
		"lru":   LRU,
		"lfu":   LFU,
		"fifo":  FIFO,
		"":      LRU,
		"bogus": LRU,
	}
	for input, want := range tests {
		if got := ParseStrategy(input); got != want {
			t.Errorf("ParseStrategy(%q) = %v, want %v", input, got, want)
		}
	}
}
