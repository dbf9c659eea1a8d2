// Package cache is the typed key-value store handed to every registered
// handler. It does no locking of its own: the server serializes all handler
// access behind one mutex.
package cache

import (
	"sort"
)

// Cache maps string keys to typed values. Last write wins.
type Cache struct {
	entries map[string]Value
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[string]Value)}
}

func (c *Cache) put(key string, v Value) *Cache {
	c.entries[key] = v
	return c
}

// AddInt32 stores a signed 32-bit integer.
func (c *Cache) AddInt32(key string, v int32) *Cache {
	return c.put(key, Value{Kind: KindInt32, data: v})
}

// AddInt64 stores a signed 64-bit integer.
func (c *Cache) AddInt64(key string, v int64) *Cache {
	return c.put(key, Value{Kind: KindInt64, data: v})
}

// AddFloat64 stores a 64-bit float.
func (c *Cache) AddFloat64(key string, v float64) *Cache {
	return c.put(key, Value{Kind: KindFloat64, data: v})
}

// AddString stores a string.
func (c *Cache) AddString(key string, v string) *Cache {
	return c.put(key, Value{Kind: KindString, data: v})
}

// AddStrings stores a string sequence. The slice is copied.
func (c *Cache) AddStrings(key string, v []string) *Cache {
	return c.put(key, Value{Kind: KindStrings, data: append([]string(nil), v...)})
}

// AddInt32s stores a 32-bit integer sequence. The slice is copied.
func (c *Cache) AddInt32s(key string, v []int32) *Cache {
	return c.put(key, Value{Kind: KindInt32s, data: append([]int32(nil), v...)})
}

// AddInt64s stores a 64-bit integer sequence. The slice is copied.
func (c *Cache) AddInt64s(key string, v []int64) *Cache {
	return c.put(key, Value{Kind: KindInt64s, data: append([]int64(nil), v...)})
}

// AddFloat64s stores a float sequence. The slice is copied.
func (c *Cache) AddFloat64s(key string, v []float64) *Cache {
	return c.put(key, Value{Kind: KindFloat64s, data: append([]float64(nil), v...)})
}

// Get returns the value stored under key.
func (c *Cache) Get(key string) (Value, bool) {
	v, ok := c.entries[key]
	return v, ok
}

// Len returns the number of keys.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Keys returns all keys in sorted order.
func (c *Cache) Keys() []string {
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Entry is a key and its value, used for snapshots.
type Entry struct {
	Key   string
	Value Value
}

// Entries returns every entry sorted by key.
func (c *Cache) Entries() []Entry {
	keys := c.Keys()
	out := make([]Entry, len(keys))
	for i, k := range keys {
		out[i] = Entry{Key: k, Value: c.entries[k]}
	}
	return out
}

// Restore replaces the cache contents with entries.
func (c *Cache) Restore(entries []Entry) {
	c.entries = make(map[string]Value, len(entries))
	for _, e := range entries {
		c.entries[e.Key] = e.Value
	}
}
