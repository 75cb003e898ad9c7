package health

import (
	"context"
	"fmt"

	"github.com/jonwraymond/pidigits/cache"
)

// selfTestDigits is pi's first 32 decimal digits.
const selfTestDigits = "14159265358979323846264338327950"

// EngineChecker runs a small computation through the generator and compares
// it with known digits.
type EngineChecker struct {
	generate cache.GenerateFunc
	digits   int
}

// NewEngineChecker creates a self-test checker computing digits digits,
// capped at 32. Zero or less selects 32.
func NewEngineChecker(generate cache.GenerateFunc, digits int) *EngineChecker {
	if digits <= 0 || digits > len(selfTestDigits) {
		digits = len(selfTestDigits)
	}
	return &EngineChecker{generate: generate, digits: digits}
}

// Name returns the name of this checker.
func (e *EngineChecker) Name() string {
	return "engine"
}

// Check computes the self-test digits and compares them.
func (e *EngineChecker) Check(ctx context.Context) Result {
	got, err := e.generate(ctx, e.digits)
	if err != nil {
		return Unhealthy("engine self-test failed", err)
	}

	want := selfTestDigits[:e.digits]
	if got != want {
		return Unhealthy(
			"engine self-test mismatch",
			fmt.Errorf("%w: got %q, want %q", ErrDigitMismatch, got, want),
		)
	}
	return Healthy(fmt.Sprintf("engine produced %d known digits", e.digits))
}

// CacheChecker reports cache statistics and degrades when most lookups fail.
type CacheChecker struct {
	source         interface{ Stats() cache.Stats }
	errorThreshold float64
}

// NewCacheChecker creates a checker over the cache's stats. errorThreshold
// is the fraction of failed lookups that reports degraded; zero selects 0.5.
func NewCacheChecker(c interface{ Stats() cache.Stats }, errorThreshold float64) *CacheChecker {
	if errorThreshold <= 0 || errorThreshold > 1 {
		errorThreshold = 0.5
	}
	return &CacheChecker{source: c, errorThreshold: errorThreshold}
}

// Name returns the name of this checker.
func (c *CacheChecker) Name() string {
	return "cache"
}

// Check reports stats and the error ratio.
func (c *CacheChecker) Check(context.Context) Result {
	s := c.source.Stats()
	lookups := s.Hits + s.DerivedHits + s.Misses + s.Errors

	details := map[string]any{
		"entries":      s.Entries,
		"max_computed": s.MaxComputed,
		"hits":         s.Hits,
		"derived_hits": s.DerivedHits,
		"misses":       s.Misses,
		"errors":       s.Errors,
		"hit_ratio":    s.HitRatio(),
	}

	if lookups > 0 {
		ratio := float64(s.Errors) / float64(lookups)
		if ratio >= c.errorThreshold {
			return Degraded(fmt.Sprintf("%.0f%% of lookups failed", ratio*100)).WithDetails(details)
		}
	}
	return Healthy(fmt.Sprintf("%d entries, %d digits computed", s.Entries, s.MaxComputed)).WithDetails(details)
}
