package resilience

import "errors"

// Sentinel errors for admission control.
var (
	// ErrRateLimitExceeded is returned when the rate limit is exceeded.
	ErrRateLimitExceeded = errors.New("resilience: rate limit exceeded")

	// ErrBulkheadFull is returned when the bulkhead is at capacity.
	ErrBulkheadFull = errors.New("resilience: bulkhead at capacity")

	// ErrTimeout is returned when an operation times out.
	ErrTimeout = errors.New("resilience: operation timed out")
)

// IsOverload reports whether err means the caller was turned away because
// the server is busy.
func IsOverload(err error) bool {
	return errors.Is(err, ErrRateLimitExceeded) || errors.Is(err, ErrBulkheadFull)
}
