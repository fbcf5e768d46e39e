// Copyright (C) 2026 Wayfinder AI (dev@wayfinderai.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/WayfinderAI/WayfinderCoach/services/advisor/datatypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is an adjustable clock for TTL tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestCache(clock *fakeClock) *LookupCache {
	opts := DefaultOptions()
	opts.Now = clock.Now
	return New(opts)
}

func TestGetOrFetchCachesWithinTTL(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := newTestCache(clock)

	var calls int64
	fetch := func(ctx context.Context) (any, error) {
		atomic.AddInt64(&calls, 1)
		return "result", nil
	}

	ctx := context.Background()
	first, err := c.GetOrFetch(ctx, datatypes.ToolNews, "urban mobility", fetch)
	require.NoError(t, err)
	second, err := c.GetOrFetch(ctx, datatypes.ToolNews, "urban mobility", fetch)
	require.NoError(t, err)

	assert.Equal(t, "result", first)
	assert.Equal(t, "result", second)
	assert.EqualValues(t, 1, atomic.LoadInt64(&calls), "second call within TTL must not refetch")
}

func TestExpiredEntryTriggersRefetch(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := newTestCache(clock)

	var calls int64
	fetch := func(ctx context.Context) (any, error) {
		atomic.AddInt64(&calls, 1)
		return atomic.LoadInt64(&calls), nil
	}

	ctx := context.Background()
	_, err := c.GetOrFetch(ctx, datatypes.ToolNews, "q", fetch)
	require.NoError(t, err)

	// News TTL is 5 minutes; step past it.
	clock.Advance(5*time.Minute + time.Second)

	value, err := c.GetOrFetch(ctx, datatypes.ToolNews, "q", fetch)
	require.NoError(t, err)
	assert.EqualValues(t, 2, value, "post-expiry call must refetch")
	assert.EqualValues(t, 2, atomic.LoadInt64(&calls))
}

func TestKeyNormalization(t *testing.T) {
	assert.Equal(t, Key(datatypes.ToolNews, "Urban Mobility"), Key(datatypes.ToolNews, "  urban   MOBILITY "))
	assert.NotEqual(t, Key(datatypes.ToolNews, "urban"), Key(datatypes.ToolTrend, "urban"),
		"the same query under different categories is a different key")
}

func TestSingleFlightCollapsesConcurrentFetches(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := newTestCache(clock)

	var calls int64
	gate := make(chan struct{})
	fetch := func(ctx context.Context) (any, error) {
		atomic.AddInt64(&calls, 1)
		<-gate // hold every caller on one in-flight fetch
		return "shared", nil
	}

	const workers = 12
	var wg sync.WaitGroup
	results := make([]any, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			results[n], errs[n] = c.GetOrFetch(context.Background(), datatypes.ToolEvidence, "same query", fetch)
		}(i)
	}

	// Give the goroutines time to pile up on the flight, then release.
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt64(&calls), "concurrent callers must share one fetch")
	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "shared", results[i])
	}
}

func TestFetchFailureIsNotCached(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := newTestCache(clock)

	var calls int64
	fetch := func(ctx context.Context) (any, error) {
		if atomic.AddInt64(&calls, 1) == 1 {
			return nil, errors.New("provider down")
		}
		return "recovered", nil
	}

	ctx := context.Background()
	_, err := c.GetOrFetch(ctx, datatypes.ToolDataset, "q", fetch)
	require.Error(t, err)

	value, err := c.GetOrFetch(ctx, datatypes.ToolDataset, "q", fetch)
	require.NoError(t, err, "failure must not be cached")
	assert.Equal(t, "recovered", value)
	assert.EqualValues(t, 2, atomic.LoadInt64(&calls))
}

func TestPeekNeverFetches(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := newTestCache(clock)

	_, ok := c.Peek(datatypes.ToolNews, "nothing here")
	assert.False(t, ok)

	_, err := c.GetOrFetch(context.Background(), datatypes.ToolNews, "present", func(ctx context.Context) (any, error) {
		return 42, nil
	})
	require.NoError(t, err)

	value, ok := c.Peek(datatypes.ToolNews, "present")
	assert.True(t, ok)
	assert.Equal(t, 42, value)
}

func TestFlushDropsEverything(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := newTestCache(clock)

	_, err := c.GetOrFetch(context.Background(), datatypes.ToolNews, "a", func(ctx context.Context) (any, error) { return 1, nil })
	require.NoError(t, err)
	_, err = c.GetOrFetch(context.Background(), datatypes.ToolTrend, "b", func(ctx context.Context) (any, error) { return 2, nil })
	require.NoError(t, err)

	require.Equal(t, 2, c.Stats().EntryCount)
	c.Flush()
	assert.Equal(t, 0, c.Stats().EntryCount)
}

func TestStatsCounters(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := newTestCache(clock)
	ctx := context.Background()

	fetch := func(ctx context.Context) (any, error) { return "v", nil }
	_, _ = c.GetOrFetch(ctx, datatypes.ToolNews, "q", fetch) // miss + fetch
	_, _ = c.GetOrFetch(ctx, datatypes.ToolNews, "q", fetch) // hit

	stats := c.Stats()
	assert.EqualValues(t, 1, stats.Hits)
	assert.EqualValues(t, 1, stats.Misses)
	assert.EqualValues(t, 1, stats.FetchCount)
}
