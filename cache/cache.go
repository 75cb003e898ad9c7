package cache

import (
	"context"
	"errors"

	"github.com/jonwraymond/pidigits/spigot"
)

// Sentinel errors for cache operations.
var (
	ErrNilGenerator = errors.New("cache: generator is nil")
	ErrShortResult  = errors.New("cache: generator returned wrong length")

	// ErrInvalidArgument and ErrLimitExceeded are the engine's bound errors,
	// returned unchanged so callers can match either package.
	ErrInvalidArgument = spigot.ErrInvalidArgument
	ErrLimitExceeded   = spigot.ErrLimitExceeded
)

// GenerateFunc produces exactly n digits of pi after the decimal point.
type GenerateFunc func(ctx context.Context, n int) (string, error)

// EngineFunc adapts a spigot engine to a GenerateFunc.
func EngineFunc(e *spigot.Engine) GenerateFunc {
	return func(_ context.Context, n int) (string, error) {
		return e.Generate(n)
	}
}

// Cache serves digit strings of a requested length, computing them at most
// as often as its policy requires.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: ctx is passed to the generator; a running computation is not cancelled.
// - Errors: generator errors are returned and never cached.
type Cache interface {
	// Fetch returns exactly n digits after the decimal point.
	Fetch(ctx context.Context, n int) (string, error)

	// Covers reports whether Fetch(n) can be served without running the generator.
	Covers(n int) bool

	// Stats returns a snapshot of cache counters.
	Stats() Stats
}
