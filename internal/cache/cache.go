// Package cache memoizes metrics records per (platform, stream) key for a
// short window, bounding the upstream call rate under frequent dashboard
// polling. Safe for concurrent use.
package cache

import (
	"sync"
	"time"

	"github.com/cdaniela3026/Proyecto-El-Deber-Metricas/internal/models"
	"github.com/sirupsen/logrus"
)

// Key identifies one cached stream.
type Key struct {
	Platform models.Platform
	StreamID string
}

type entry struct {
	record    *models.MetricsRecord
	expiresAt time.Time
}

// Cache is a fixed-TTL record cache. TTLs run from entry creation; lookups
// never extend them. Concurrent fetches for the same key may race; the last
// writer wins, which is acceptable because every produced record is valid.
type Cache struct {
	mu      sync.RWMutex
	entries map[Key]entry
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[Key]entry)}
}

// GetOrCompute returns the cached record for key if it has not expired.
// Otherwise it invokes producer, stores the result and returns it. Not-found
// and upstream-error records are stored with negativeTTL instead of ttl so a
// known-bad identifier is retried soon without hammering the upstream every
// poll; not-live records are real answers and keep the full TTL. The second
// return value reports whether the record came from cache.
func (c *Cache) GetOrCompute(key Key, ttl, negativeTTL time.Duration, producer func() *models.MetricsRecord) (*models.MetricsRecord, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if ok && time.Now().Before(e.expiresAt) {
		return e.record, true
	}

	record := producer()

	effective := ttl
	if record.Status == models.StatusNotFound || record.Status == models.StatusUpstreamError {
		effective = negativeTTL
	}

	c.mu.Lock()
	c.entries[key] = entry{record: record, expiresAt: time.Now().Add(effective)}
	c.mu.Unlock()

	logrus.Debugf("Cached %s/%s for %s (status=%s)", key.Platform, key.StreamID, effective, record.Status)
	return record, false
}

// Get returns the cached record for key if present and fresh.
func (c *Cache) Get(key Key) (*models.MetricsRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || !time.Now().Before(e.expiresAt) {
		return nil, false
	}
	return e.record, true
}

// Purge drops expired entries. The cache stays small in practice (one entry
// per watched stream) but the sampler runs this periodically anyway.
func (c *Cache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
