// Package resilience provides admission control for digit computation.
//
// Computing n digits costs O(n²) time, so the server bounds how much work it
// accepts instead of how many requests it accepts.
//
// # Patterns
//
//   - Rate Limiter: token bucket over incoming requests, backed by
//     golang.org/x/time/rate.
//
//   - Bulkhead: weighted semaphore over the total digits being computed at
//     once, backed by golang.org/x/sync/semaphore. A request for n digits
//     holds n units of capacity.
//
//   - Timeout: bounds how long a caller waits. The operation itself keeps
//     running after the caller gives up.
//
// # Usage
//
//	executor := resilience.NewExecutor(
//	    resilience.WithRateLimiter(resilience.NewRateLimiter(resilience.RateLimiterConfig{
//	        Rate:  50,
//	        Burst: 100,
//	    })),
//	    resilience.WithBulkhead(resilience.NewBulkhead(resilience.BulkheadConfig{
//	        MaxInflightDigits: 200000,
//	        MaxWait:           2 * time.Second,
//	    })),
//	    resilience.WithTimeout(10*time.Second),
//	)
//
//	err := executor.Execute(ctx, int64(n), func(ctx context.Context) error {
//	    digits, err = c.Fetch(ctx, n)
//	    return err
//	})
//
// A weight of zero skips the bulkhead; callers pass zero when the cache
// already covers the request.
package resilience
