// Copyright (C) 2026 Wayfinder AI (dev@wayfinderai.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package cache provides the TTL + single-flight cache that fronts every
// external lookup the advisor makes (search tools, graph enrichment).
//
// Two properties matter to callers:
//
//   - An entry is never served after its expiry.
//   - Concurrent requests for the same key collapse into one in-flight
//     external call; everyone shares the result.
//
// Fetch failures are not cached; the next request retries.
package cache

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/WayfinderAI/WayfinderCoach/services/advisor/datatypes"
	"golang.org/x/sync/singleflight"
)

// FetchFunc performs the underlying external call on a cache miss.
type FetchFunc func(ctx context.Context) (any, error)

// entry is one cached value with its expiry.
type entry struct {
	value     any
	expiresAt time.Time
}

// Options configures a LookupCache.
type Options struct {
	// TTLs overrides the per-category TTL. Categories without an override
	// use DefaultTTL.
	TTLs map[datatypes.ToolCategory]time.Duration

	// DefaultTTL applies to categories without an explicit TTL.
	DefaultTTL time.Duration

	// Now is the clock source; nil means time.Now. Injectable for tests.
	Now func() time.Time
}

// DefaultOptions returns the production TTL table: slow-moving sources are
// cached long, volatile ones short.
func DefaultOptions() Options {
	return Options{
		TTLs: map[datatypes.ToolCategory]time.Duration{
			datatypes.ToolNews:     5 * time.Minute,
			datatypes.ToolTrend:    30 * time.Minute,
			datatypes.ToolEvidence: 6 * time.Hour,
			datatypes.ToolDataset:  6 * time.Hour,
			datatypes.ToolGovData:  12 * time.Hour,
			datatypes.ToolPriorArt: 24 * time.Hour,
		},
		DefaultTTL: time.Hour,
	}
}

// Stats is a point-in-time view of cache counters.
type Stats struct {
	EntryCount  int   `json:"entry_count"`
	Hits        int64 `json:"hits"`
	Misses      int64 `json:"misses"`
	Expirations int64 `json:"expirations"`
	FetchCount  int64 `json:"fetch_count"`
	ErrorCount  int64 `json:"error_count"`
}

// LookupCache deduplicates and rate-limits external lookups.
//
// Thread Safety: safe for concurrent use. The entry map is guarded by an
// RWMutex; in-flight deduplication is delegated to singleflight.
type LookupCache struct {
	mu      sync.RWMutex
	entries map[string]*entry
	flight  singleflight.Group
	options Options

	hits        int64
	misses      int64
	expirations int64
	fetchCount  int64
	errorCount  int64
}

// New creates a LookupCache with the given options.
func New(options Options) *LookupCache {
	if options.Now == nil {
		options.Now = time.Now
	}
	if options.DefaultTTL <= 0 {
		options.DefaultTTL = time.Hour
	}
	return &LookupCache{
		entries: make(map[string]*entry),
		options: options,
	}
}

// Key builds the normalized cache key for a category and query.
// Normalization keeps "Urban Mobility" and " urban   mobility " on one entry.
func Key(category datatypes.ToolCategory, query string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	return string(category) + "|" + normalized
}

// GetOrFetch returns the live cached value for (category, query) or runs
// fetch to produce one.
//
// If a fetch for the same key is already in flight, the call awaits and
// shares its result instead of issuing a duplicate external call. A failed
// fetch is returned to all waiters and nothing is cached.
func (c *LookupCache) GetOrFetch(ctx context.Context, category datatypes.ToolCategory, query string, fetch FetchFunc) (any, error) {
	key := Key(category, query)

	if value, ok := c.getLive(key); ok {
		atomic.AddInt64(&c.hits, 1)
		return value, nil
	}
	atomic.AddInt64(&c.misses, 1)

	result, err, _ := c.flight.Do(key, func() (any, error) {
		// Re-check: another flight may have populated the entry between
		// our miss and acquiring the flight.
		if value, ok := c.getLive(key); ok {
			return value, nil
		}

		atomic.AddInt64(&c.fetchCount, 1)
		value, err := fetch(ctx)
		if err != nil {
			atomic.AddInt64(&c.errorCount, 1)
			return nil, err
		}

		c.mu.Lock()
		c.entries[key] = &entry{
			value:     value,
			expiresAt: c.options.Now().Add(c.ttlFor(category)),
		}
		c.mu.Unlock()
		return value, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Peek returns the live cached value without fetching. Used by the
// synchronous turn path, which must never block on external calls.
func (c *LookupCache) Peek(category datatypes.ToolCategory, query string) (any, bool) {
	value, ok := c.getLive(Key(category, query))
	if ok {
		atomic.AddInt64(&c.hits, 1)
	}
	return value, ok
}

// Invalidate drops the entry for (category, query), if present.
func (c *LookupCache) Invalidate(category datatypes.ToolCategory, query string) {
	key := Key(category, query)
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Flush drops every entry.
func (c *LookupCache) Flush() {
	c.mu.Lock()
	c.entries = make(map[string]*entry)
	c.mu.Unlock()
}

// Stats returns current cache counters.
func (c *LookupCache) Stats() Stats {
	c.mu.RLock()
	entryCount := len(c.entries)
	c.mu.RUnlock()

	return Stats{
		EntryCount:  entryCount,
		Hits:        atomic.LoadInt64(&c.hits),
		Misses:      atomic.LoadInt64(&c.misses),
		Expirations: atomic.LoadInt64(&c.expirations),
		FetchCount:  atomic.LoadInt64(&c.fetchCount),
		ErrorCount:  atomic.LoadInt64(&c.errorCount),
	}
}

// getLive returns the entry value if present and unexpired. Expired entries
// are removed on sight.
func (c *LookupCache) getLive(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.RUnlock()
		return nil, false
	}
	if !c.options.Now().Before(e.expiresAt) {
		c.mu.RUnlock()
		c.removeExpired(key, e)
		return nil, false
	}
	value := e.value
	c.mu.RUnlock()
	return value, true
}

func (c *LookupCache) removeExpired(key string, stale *entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// Only remove the entry we saw expire; a concurrent fetch may have
	// already replaced it with a fresh one.
	if current, ok := c.entries[key]; ok && current == stale {
		delete(c.entries, key)
		atomic.AddInt64(&c.expirations, 1)
	}
}

func (c *LookupCache) ttlFor(category datatypes.ToolCategory) time.Duration {
	if ttl, ok := c.options.TTLs[category]; ok && ttl > 0 {
		return ttl
	}
	return c.options.DefaultTTL
}
