// Package cache memoizes layout fitness evaluations.
//
// The cache has two tiers. The shared tier is a mutex-guarded map owned by
// one optimization run. Every evaluation worker holds a private Local tier
// that needs no locking: computed scores land there, and a per-generation
// Flush merges all local tiers into the shared map in one locked pass.
// Workers therefore contend on the shared lock O(generations) times rather
// than once per evaluation, while still seeing every earlier generation's
// results. Two workers may briefly compute the same unseen layout within a
// generation; the flush collapses the duplicates, so no repeated work
// survives a generation boundary.
package cache

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/aurelienhbts/leoptim/internal/metrics"
)

// Entry is one memoized evaluation result.
type Entry struct {
	Coverage float64 // mean coverage percent of the layout
	Score    float64 // fitness under the run's scoring configuration
}

// FitnessCache is the shared tier, keyed by exact layout strings. Safe for
// concurrent use by multiple goroutines.
type FitnessCache struct {
	mu      sync.RWMutex
	entries map[string]Entry

	logger *slog.Logger

	// Counters (lock-free).
	sharedHits atomic.Int64
	localHits  atomic.Int64
	misses     atomic.Int64
	flushes    atomic.Int64
}

// New creates an empty cache. Each optimization run owns exactly one;
// nothing is shared across runs.
func New(logger *slog.Logger) *FitnessCache {
	return &FitnessCache{
		entries: make(map[string]Entry),
		logger:  logger,
	}
}

// Lookup consults the shared tier.
func (c *FitnessCache) Lookup(key string) (Entry, bool) {
	entry, ok := c.lookupShared(key)
	if !ok {
		c.misses.Add(1)
		metrics.IncCacheMiss()
	}
	return entry, ok
}

// lookupShared probes the shared map and counts a hit; the caller decides
// what a miss means for its tier.
func (c *FitnessCache) lookupShared(key string) (Entry, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if ok {
		c.sharedHits.Add(1)
		metrics.IncCacheHit("shared")
	}
	return entry, ok
}

// Len returns the shared tier's entry count.
func (c *FitnessCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// NewLocal returns an empty private tier bound to this cache. The Local is
// owned by a single worker goroutine.
func (c *FitnessCache) NewLocal() *Local {
	return &Local{
		shared:  c,
		entries: make(map[string]Entry),
	}
}

// Flush merges the given local tiers into the shared map and clears them.
// Call it at a generation boundary, after the evaluation workers have gone
// idle; it must not run concurrently with Lookup or Store on the locals.
func (c *FitnessCache) Flush(locals ...*Local) {
	merged := 0
	c.mu.Lock()
	for _, l := range locals {
		for key, entry := range l.entries {
			c.entries[key] = entry
		}
		merged += len(l.entries)
		l.entries = make(map[string]Entry)
	}
	total := len(c.entries)
	c.mu.Unlock()

	c.flushes.Add(1)
	metrics.IncCacheFlush()
	metrics.SetCacheEntries(total)

	if c.logger != nil {
		c.logger.Debug("fitness cache flush", "merged_entries", merged, "shared_entries", total)
	}
}

// Stats returns a snapshot of the cache counters.
func (c *FitnessCache) Stats() Stats {
	return Stats{
		Entries:    c.Len(),
		SharedHits: c.sharedHits.Load(),
		LocalHits:  c.localHits.Load(),
		Misses:     c.misses.Load(),
		Flushes:    c.flushes.Load(),
	}
}

// Stats holds cache statistics for logs and the search result.
type Stats struct {
	Entries    int   `json:"entries"`
	SharedHits int64 `json:"shared_hits"`
	LocalHits  int64 `json:"local_hits"`
	Misses     int64 `json:"misses"`
	Flushes    int64 `json:"flushes"`
}

// Local is one worker's private tier. Lookup and Store take no locks and
// must only be called by the owning worker.
type Local struct {
	shared  *FitnessCache
	entries map[string]Entry
}

// Lookup checks the private tier first, then the shared tier. A shared hit
// is copied into the private tier so repeats stay lock-free.
func (l *Local) Lookup(key string) (Entry, bool) {
	if entry, ok := l.entries[key]; ok {
		l.shared.localHits.Add(1)
		metrics.IncCacheHit("local")
		return entry, true
	}

	if entry, ok := l.shared.lookupShared(key); ok {
		l.entries[key] = entry
		return entry, true
	}

	l.shared.misses.Add(1)
	metrics.IncCacheMiss()
	return Entry{}, false
}

// Store records a computed result in the private tier only; the next Flush
// publishes it.
func (l *Local) Store(key string, entry Entry) {
	l.entries[key] = entry
}

// Pending returns how many entries await the next flush.
func (l *Local) Pending() int {
	return len(l.entries)
}
