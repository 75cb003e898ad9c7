package cache

import (
	"context"
	"testing"

	"github.com/jonwraymond/pidigits/spigot"
)

func newBenchCache(b *testing.B, policy Policy) *MemoryCache {
	b.Helper()
	c, err := NewMemoryCache(EngineFunc(spigot.New(spigot.Config{})), policy)
	if err != nil {
		b.Fatalf("NewMemoryCache failed: %v", err)
	}
	return c
}

// BenchmarkMemoryCache_Fetch_Hit measures exact-entry hits.
func BenchmarkMemoryCache_Fetch_Hit(b *testing.B) {
	c := newBenchCache(b, DefaultPolicy())
	ctx := context.Background()
	_, _ = c.Fetch(ctx, 1000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.Fetch(ctx, 1000)
	}
}

// BenchmarkMemoryCache_Fetch_Derived measures prefix slicing of the longest entry.
func BenchmarkMemoryCache_Fetch_Derived(b *testing.B) {
	c := newBenchCache(b, DefaultPolicy())
	ctx := context.Background()
	_, _ = c.Fetch(ctx, 1000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.Fetch(ctx, 1+i%999)
	}
}

// BenchmarkMemoryCache_Fetch_Concurrent measures parallel readers.
func BenchmarkMemoryCache_Fetch_Concurrent(b *testing.B) {
	c := newBenchCache(b, DefaultPolicy())
	ctx := context.Background()
	_, _ = c.Fetch(ctx, 1000)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			_, _ = c.Fetch(ctx, 1+i%1000)
			i++
		}
	})
}
