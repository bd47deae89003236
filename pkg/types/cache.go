// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// CacheEntry is one row of the two-layer cache's persistent store.
type CacheEntry struct {
	Key       string    `json:"key"`
	Namespace string    `json:"namespace"`
	Payload   []byte    `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	HitCount  int       `json:"hit_count"`
}

// Expired reports whether the entry is no longer fresh at instant now.
func (e CacheEntry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// CacheStats summarizes hit/miss behavior across both cache layers.
type CacheStats struct {
	Hits          int64   `json:"hits"`
	Misses        int64   `json:"misses"`
	HitRate       float64 `json:"hit_rate"`
	MemoryEntries int     `json:"memory_entries"`
	DiskEntries   int     `json:"disk_entries"`
}
