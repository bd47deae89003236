// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	dir := t.TempDir()
	c, err := Open(Options{DBPath: filepath.Join(dir, "cache.db"), EnableMemory: true, MemoryCapacity: 3})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestSetGetRoundTrip(t *testing.T) {
	c := newTestCache(t)
	k := Key(NamespaceSearch, "dataset:GSE1")
	require.NoError(t, c.Set(k, []byte("payload"), time.Minute))

	v, ok, err := c.Get(k)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("payload"), v)
}

func TestGetExpiredEntryIsMissAndDeleted(t *testing.T) {
	c := newTestCache(t)
	c.now = func() time.Time { return time.Unix(1000, 0) }
	k := Key(NamespaceSearch, "x")
	require.NoError(t, c.Set(k, []byte("v"), time.Second))

	c.now = func() time.Time { return time.Unix(1002, 0) }
	_, ok, err := c.Get(k)
	require.NoError(t, err)
	require.False(t, ok)

	stats, err := c.Stats()
	require.NoError(t, err)
	require.Equal(t, 0, stats.DiskEntries)
}

func TestGetBatchPreservesOrderAndCompleteness(t *testing.T) {
	c := newTestCache(t)
	require.NoError(t, c.Set(Key(NamespaceSearch, "a"), []byte("1"), time.Minute))
	require.NoError(t, c.Set(Key(NamespaceSearch, "c"), []byte("3"), time.Minute))

	keys := []string{Key(NamespaceSearch, "a"), Key(NamespaceSearch, "b"), Key(NamespaceSearch, "c")}
	result, found, err := c.GetBatch(keys)
	require.NoError(t, err)
	require.Len(t, result, len(keys), "result must have one entry per input key")
	require.Len(t, found, len(keys), "found must have one entry per input key")

	require.True(t, found[keys[0]])
	require.Equal(t, []byte("1"), result[keys[0]])

	require.False(t, found[keys[1]], "key with no cached value must be marked missing, not absent")
	require.Nil(t, result[keys[1]])

	require.True(t, found[keys[2]])
	require.Equal(t, []byte("3"), result[keys[2]])
}

func TestMemoryLRUEvictsOldestOnOverflow(t *testing.T) {
	lru := newMemoryLRU(2)
	lru.set("a", []byte("1"))
	lru.set("b", []byte("2"))
	lru.set("c", []byte("3"))

	_, ok := lru.get("a")
	require.False(t, ok, "oldest entry should have been evicted")
	_, ok = lru.get("c")
	require.True(t, ok)
}

func TestInvalidatePrefix(t *testing.T) {
	c := newTestCache(t)
	require.NoError(t, c.Set(Key(NamespaceDiscovery, "GSE1:all"), []byte("x"), time.Minute))
	require.NoError(t, c.Set(Key(NamespaceDiscovery, "GSE1:strategy_a"), []byte("y"), time.Minute))
	require.NoError(t, c.Set(Key(NamespaceDiscovery, "GSE2:all"), []byte("z"), time.Minute))

	n, err := c.InvalidatePrefix("discovery:GSE1")
	require.NoError(t, err)
	require.Equal(t, 2, n)

	_, ok, _ := c.Get(Key(NamespaceDiscovery, "GSE2:all"))
	require.True(t, ok)
}
