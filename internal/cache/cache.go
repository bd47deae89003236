// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Namespace default TTLs.
const (
	NamespaceDiscovery = "discovery"
	NamespaceGeo       = "geo"
	NamespaceSearch    = "search"
)

var defaultTTLs = map[string]time.Duration{
	NamespaceDiscovery: 7 * 24 * time.Hour,
	NamespaceGeo:       24 * time.Hour,
	NamespaceSearch:    time.Hour,
}

// DefaultTTL returns the configured default TTL for namespace, falling
// back to one hour for an unrecognized namespace.
func DefaultTTL(namespace string) time.Duration {
	if ttl, ok := defaultTTLs[namespace]; ok {
		return ttl
	}
	return time.Hour
}

// Cache is the two-layer cache: L1 memory LRU in front of the L2 SQLite
// store, both guarded by a single mutex so L1 updates stay serialized.
type Cache struct {
	mu          sync.Mutex
	l1          *memoryLRU
	l2          *store
	enableL1    bool
	stats       statCounters

	// now is overridable in tests.
	now func() time.Time
}

type statCounters struct {
	hits   int64
	misses int64
}

// Options configures a Cache.
type Options struct {
	// DBPath is the SQLite file path for the L2 layer.
	DBPath string

	// EnableMemory toggles the L1 layer. Optional; set at construction.
	EnableMemory bool

	// MemoryCapacity bounds L1 entries (default 1000).
	MemoryCapacity int
}

// Open constructs a Cache backed by a SQLite file at opts.DBPath.
func Open(opts Options) (*Cache, error) {
	l2, err := openStore(opts.DBPath)
	if err != nil {
		return nil, err
	}

	capacity := opts.MemoryCapacity
	if capacity <= 0 {
		capacity = 1000
	}

	return &Cache{
		l1:       newMemoryLRU(capacity),
		l2:       l2,
		enableL1: opts.EnableMemory,
		now:      time.Now,
	}, nil
}

// Close releases the L2 database handle.
func (c *Cache) Close() error {
	return c.l2.close()
}

// key builds the `<namespace>:<identifier>` key form.
func key(namespace, identifier string) string {
	return fmt.Sprintf("%s:%s", namespace, identifier)
}

// namespaceOf extracts the namespace portion of a composite key.
func namespaceOf(k string) string {
	if i := strings.IndexByte(k, ':'); i >= 0 {
		return k[:i]
	}
	return ""
}

// Get retrieves the payload for key, checking L1 first then L2. A fresh
// L2 hit populates L1. An expired L2 entry is deleted and reported as a
// miss.
func (c *Cache) Get(key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.enableL1 {
		if payload, ok := c.l1.get(key); ok {
			c.stats.hits++
			return payload, true, nil
		}
	}

	entry, ok, err := c.l2.get(key, c.now())
	if err != nil {
		return nil, false, err
	}
	if !ok {
		c.stats.misses++
		return nil, false, nil
	}

	c.stats.hits++
	if c.enableL1 {
		c.l1.set(key, entry.payload)
	}
	return entry.payload, true, nil
}

// Set writes the payload to L2 then L1. A zero ttl uses the namespace's
// default.
func (c *Cache) Set(key string, payload []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ttl <= 0 {
		ttl = DefaultTTL(namespaceOf(key))
	}
	if err := c.l2.set(key, namespaceOf(key), payload, ttl, c.now()); err != nil {
		return err
	}
	if c.enableL1 {
		c.l1.set(key, payload)
	}
	return nil
}

// Delete removes key from both layers.
func (c *Cache) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.enableL1 {
		c.l1.delete(key)
	}
	return c.l2.delete(key)
}

// GetBatch performs one L2 round trip for all keys, returning a dense map
// with exactly len(keys) entries in the same key set as the input. found
// reports which of those entries were actual cache hits; a key absent
// from found (or mapped to false) has a zero-value entry in the result
// and callers must treat it as a miss rather than inferring one from
// map-key presence.
func (c *Cache) GetBatch(keys []string) (result map[string][]byte, found map[string]bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	result = make(map[string][]byte, len(keys))
	found = make(map[string]bool, len(keys))
	var misses []string

	if c.enableL1 {
		for _, k := range keys {
			if payload, ok := c.l1.get(k); ok {
				result[k] = payload
				found[k] = true
				c.stats.hits++
			} else {
				result[k] = nil
				found[k] = false
				misses = append(misses, k)
			}
		}
	} else {
		for _, k := range keys {
			result[k] = nil
			found[k] = false
		}
		misses = keys
	}

	if len(misses) == 0 {
		return result, found, nil
	}

	l2Hits, err := c.l2.getBatch(misses, c.now())
	if err != nil {
		return nil, nil, err
	}
	for _, k := range misses {
		if payload, ok := l2Hits[k]; ok {
			result[k] = payload
			found[k] = true
			c.stats.hits++
			if c.enableL1 {
				c.l1.set(k, payload)
			}
		} else {
			c.stats.misses++
		}
	}
	return result, found, nil
}

// SetBatch writes every key in one L2 transaction then populates L1.
func (c *Cache) SetBatch(items map[string][]byte, ttl time.Duration) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(items) == 0 {
		return 0, nil
	}

	// All keys in a batch share a namespace convention; when ttl is unset,
	// the default TTL comes from the namespace of one key of the batch
	// (whichever map iteration yields first).
	if ttl <= 0 {
		for k := range items {
			ttl = DefaultTTL(namespaceOf(k))
			break
		}
	}

	byNamespace := make(map[string]map[string][]byte)
	for k, v := range items {
		ns := namespaceOf(k)
		if byNamespace[ns] == nil {
			byNamespace[ns] = map[string][]byte{}
		}
		byNamespace[ns][k] = v
	}

	count := 0
	for ns, group := range byNamespace {
		n, err := c.l2.setBatch(group, ns, ttl, c.now())
		if err != nil {
			return count, err
		}
		count += n
	}

	if c.enableL1 {
		for k, v := range items {
			c.l1.set(k, v)
		}
	}
	return count, nil
}

// InvalidatePrefix deletes every key beginning with prefix from both layers.
func (c *Cache) InvalidatePrefix(prefix string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.enableL1 {
		c.l1.deletePrefix(prefix)
	}
	return c.l2.invalidatePrefix(prefix)
}

// CleanupExpired purges expired L2 rows (L1 entries carry no expiry of
// their own and are bounded by capacity instead).
func (c *Cache) CleanupExpired() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.l2.cleanupExpired(c.now())
}

// Stats reports the hit/miss counters and both layers' entry counts.
func (c *Cache) Stats() (StatsResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	diskEntries, err := c.l2.count()
	if err != nil {
		return StatsResult{}, err
	}

	total := c.stats.hits + c.stats.misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(c.stats.hits) / float64(total)
	}

	return StatsResult{
		Hits:          c.stats.hits,
		Misses:        c.stats.misses,
		HitRate:       hitRate,
		MemoryEntries: c.l1.len(),
		DiskEntries:   diskEntries,
	}, nil
}

// StatsResult is the snapshot returned by Stats.
type StatsResult struct {
	Hits          int64
	Misses        int64
	HitRate       float64
	MemoryEntries int
	DiskEntries   int
}

// Key exposes the `<namespace>:<identifier>` composition for callers that
// build cache keys outside this package (discovery, URL collection).
func Key(namespace, identifier string) string {
	return key(namespace, identifier)
}
