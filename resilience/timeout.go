package resilience

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// DefaultWaitTimeout is how long a caller waits when no timeout is configured.
const DefaultWaitTimeout = 30 * time.Second

// TimeoutConfig configures how long callers wait.
type TimeoutConfig struct {
	// Timeout is the longest a caller waits for an operation.
	// Default: 30 seconds
	Timeout time.Duration
}

// Timeout bounds caller wait time without cancelling the work. An operation
// whose caller gave up is orphaned: it keeps running, and its result only
// matters for its side effects, such as filling a cache.
type Timeout struct {
	config TimeoutConfig

	timeouts atomic.Int64
	orphaned atomic.Int64
}

// TimeoutMetrics reports caller timeouts and orphaned operations.
type TimeoutMetrics struct {
	// Timeouts counts callers that gave up waiting.
	Timeouts int64 `json:"timeouts"`

	// Orphaned is the number of operations still running after their
	// caller timed out.
	Orphaned int64 `json:"orphaned"`
}

const (
	opRunning int32 = iota
	opFinished
	opOrphaned
)

// NewTimeout creates a caller timeout.
func NewTimeout(config TimeoutConfig) *Timeout {
	if config.Timeout <= 0 {
		config.Timeout = DefaultWaitTimeout
	}
	return &Timeout{config: config}
}

// Execute runs op and waits for it at most the configured timeout, returning
// ErrTimeout after that. op receives a context that is never cancelled.
// Cancelling ctx returns ctx.Err() early and also orphans op.
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	waitCtx, cancel := context.WithTimeout(ctx, t.config.Timeout)
	defer cancel()

	var state atomic.Int32
	done := make(chan error, 1)
	go func() {
		err := op(context.WithoutCancel(ctx))
		if !state.CompareAndSwap(opRunning, opFinished) {
			t.orphaned.Add(-1)
		}
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-waitCtx.Done():
	}

	t.orphaned.Add(1)
	if !state.CompareAndSwap(opRunning, opOrphaned) {
		// Finished while we were giving up.
		t.orphaned.Add(-1)
		return <-done
	}

	if errors.Is(waitCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		t.timeouts.Add(1)
		return ErrTimeout
	}
	return ctx.Err()
}

// Config returns the timeout configuration.
func (t *Timeout) Config() TimeoutConfig {
	return t.config
}

// Metrics returns a snapshot of the timeout counters.
func (t *Timeout) Metrics() TimeoutMetrics {
	return TimeoutMetrics{
		Timeouts: t.timeouts.Load(),
		Orphaned: t.orphaned.Load(),
	}
}

// ExecuteWithTimeout runs op under a one-off Timeout.
func ExecuteWithTimeout(ctx context.Context, timeout time.Duration, op func(context.Context) error) error {
	return NewTimeout(TimeoutConfig{Timeout: timeout}).Execute(ctx, op)
}
