package resilience

import (
	"context"
	"time"
)

// Executor composes admission control patterns.
type Executor struct {
	rateLimiter *RateLimiter
	bulkhead    *Bulkhead
	timeout     *Timeout
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor creates a new executor.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithRateLimiter adds rate limiting to the executor.
func WithRateLimiter(rl *RateLimiter) ExecutorOption {
	return func(e *Executor) {
		e.rateLimiter = rl
	}
}

// WithBulkhead adds weighted bulkhead isolation to the executor.
func WithBulkhead(b *Bulkhead) ExecutorOption {
	return func(e *Executor) {
		e.bulkhead = b
	}
}

// WithTimeout adds timeout to the executor.
func WithTimeout(timeout time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.timeout = NewTimeout(TimeoutConfig{Timeout: timeout})
	}
}

// WithTimeoutConfig adds timeout with custom config to the executor.
func WithTimeoutConfig(t *Timeout) ExecutorOption {
	return func(e *Executor) {
		e.timeout = t
	}
}

// Timeout returns the configured caller timeout, or nil.
func (e *Executor) Timeout() *Timeout {
	return e.timeout
}

// Bulkhead returns the configured bulkhead, or nil.
func (e *Executor) Bulkhead() *Bulkhead {
	return e.bulkhead
}

// Execute runs the operation through all configured patterns.
//
// The execution order is:
// 1. Rate Limiter (if configured) - limits request rate
// 2. Bulkhead (if configured and weight > 0) - limits digits in flight
// 3. Timeout (if configured) - limits how long the caller waits
//
// Bulkhead capacity is held until the operation returns, even when the
// caller has already timed out.
func (e *Executor) Execute(ctx context.Context, weight int64, op func(context.Context) error) error {
	if e.rateLimiter != nil {
		if err := e.rateLimiter.Execute(ctx, func(context.Context) error { return nil }); err != nil {
			return err
		}
	}

	execute := op

	if e.bulkhead != nil && weight > 0 {
		held, err := e.bulkhead.Acquire(ctx, weight)
		if err != nil {
			return err
		}
		inner := execute
		execute = func(ctx context.Context) error {
			defer e.bulkhead.Release(held)
			return inner(ctx)
		}
	}

	if e.timeout != nil {
		return e.timeout.Execute(ctx, execute)
	}
	return execute(ctx)
}
