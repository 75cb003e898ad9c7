package cache

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// MemoryCache is an in-memory digit cache. Entries are never evicted;
// Policy.MaxDigits bounds the total memory they can hold.
type MemoryCache struct {
	generate  GenerateFunc
	policy    Policy
	onCompute func(n int, elapsed time.Duration)
	group     singleflight.Group

	mu          sync.RWMutex
	entries     map[int]string
	longest     string
	maxComputed int

	hits         atomic.Int64
	derivedHits  atomic.Int64
	misses       atomic.Int64
	computations atomic.Int64
	failures     atomic.Int64
}

// Option configures a MemoryCache.
type Option func(*MemoryCache)

// WithOnCompute registers a hook called after every successful generator run.
func WithOnCompute(fn func(n int, elapsed time.Duration)) Option {
	return func(c *MemoryCache) {
		c.onCompute = fn
	}
}

// NewMemoryCache creates a new in-memory cache around generate.
func NewMemoryCache(generate GenerateFunc, policy Policy, opts ...Option) (*MemoryCache, error) {
	if generate == nil {
		return nil, ErrNilGenerator
	}
	c := &MemoryCache{
		generate: generate,
		policy:   policy,
		entries:  make(map[int]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Fetch returns exactly n digits, computing them only when no exact entry
// exists and the policy cannot derive one from a longer string.
func (c *MemoryCache) Fetch(ctx context.Context, n int) (string, error) {
	if err := c.policy.Validate(n); err != nil {
		c.failures.Add(1)
		return "", err
	}
	if n == 0 {
		c.hits.Add(1)
		return "", nil
	}

	c.mu.RLock()
	digits, ok := c.entries[n]
	longest := c.longest
	c.mu.RUnlock()

	if ok {
		c.hits.Add(1)
		return digits, nil
	}

	if c.policy.DerivePrefixes && len(longest) >= n {
		// Substrings share the longest string's backing memory.
		prefix := longest[:n]
		c.store(n, prefix, &c.derivedHits)
		return prefix, nil
	}

	c.misses.Add(1)
	v, err, _ := c.group.Do(strconv.Itoa(n), func() (any, error) {
		return c.compute(ctx, n)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *MemoryCache) compute(ctx context.Context, n int) (string, error) {
	// Another flight may have finished this length while we queued.
	c.mu.RLock()
	digits, ok := c.entries[n]
	c.mu.RUnlock()
	if ok {
		return digits, nil
	}

	start := time.Now()
	digits, err := c.generate(ctx, n)
	elapsed := time.Since(start)
	if err != nil {
		c.failures.Add(1)
		return "", err
	}
	if len(digits) != n {
		c.failures.Add(1)
		return "", fmt.Errorf("%w: got %d digits, want %d", ErrShortResult, len(digits), n)
	}

	c.store(n, digits, &c.computations)
	if c.onCompute != nil {
		c.onCompute(n, elapsed)
	}
	return digits, nil
}

// store records digits under n and bumps counter under the same lock, so
// Stats sees entries and their counters together. An existing entry is left
// as is since every correct string for a length is identical.
func (c *MemoryCache) store(n int, digits string, counter *atomic.Int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	counter.Add(1)

	if _, exists := c.entries[n]; !exists {
		c.entries[n] = digits
	}
	if n > c.maxComputed {
		c.maxComputed = n
	}
	if len(digits) > len(c.longest) {
		c.longest = digits
	}
}

// Covers reports whether Fetch(n) would be answered without the generator.
func (c *MemoryCache) Covers(n int) bool {
	if n == 0 {
		return true
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	if _, ok := c.entries[n]; ok {
		return true
	}
	return c.policy.DerivePrefixes && len(c.longest) >= n
}

// Warm computes n digits ahead of demand and discards the result.
func (c *MemoryCache) Warm(ctx context.Context, n int) error {
	_, err := c.Fetch(ctx, n)
	return err
}

// MaxComputed returns the largest length computed so far.
func (c *MemoryCache) MaxComputed() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.maxComputed
}

// Policy returns the cache's policy.
func (c *MemoryCache) Policy() Policy {
	return c.policy
}

// Stats returns a snapshot of the cache counters. Entries, MaxComputed,
// Computations and DerivedHits are read under the lock that stores entries,
// so they agree with each other.
func (c *MemoryCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Stats{
		Hits:         c.hits.Load(),
		DerivedHits:  c.derivedHits.Load(),
		Misses:       c.misses.Load(),
		Computations: c.computations.Load(),
		Errors:       c.failures.Load(),
		Entries:      len(c.entries),
		MaxComputed:  c.maxComputed,
	}
}

// Ensure MemoryCache implements Cache.
var _ Cache = (*MemoryCache)(nil)
