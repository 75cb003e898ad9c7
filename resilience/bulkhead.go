package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// DefaultMaxInflightDigits is the bulkhead capacity when none is configured.
const DefaultMaxInflightDigits = 1_000_000

// BulkheadConfig configures the bulkhead.
type BulkheadConfig struct {
	// MaxInflightDigits is the total weight admitted at once.
	// Default: 1,000,000
	MaxInflightDigits int64

	// MaxWait is the maximum time to wait for capacity.
	// Default: 0 (no waiting, fail immediately)
	MaxWait time.Duration
}

// Bulkhead limits the total weight of concurrent operations.
type Bulkhead struct {
	config BulkheadConfig
	sem    *semaphore.Weighted

	mu        sync.Mutex
	active    int64
	maxActive int64
	rejected  int64
}

// NewBulkhead creates a new bulkhead.
func NewBulkhead(config BulkheadConfig) *Bulkhead {
	if config.MaxInflightDigits <= 0 {
		config.MaxInflightDigits = DefaultMaxInflightDigits
	}

	return &Bulkhead{
		config: config,
		sem:    semaphore.NewWeighted(config.MaxInflightDigits),
	}
}

// clamp keeps a single oversized request admissible on an idle bulkhead.
func (b *Bulkhead) clamp(weight int64) int64 {
	if weight < 1 {
		return 1
	}
	if weight > b.config.MaxInflightDigits {
		return b.config.MaxInflightDigits
	}
	return weight
}

// Acquire reserves weight units of capacity and returns the units actually
// held, which must be passed to Release.
// Returns ErrBulkheadFull if capacity does not free up within MaxWait.
func (b *Bulkhead) Acquire(ctx context.Context, weight int64) (int64, error) {
	weight = b.clamp(weight)

	if b.sem.TryAcquire(weight) {
		b.track(weight)
		return weight, nil
	}

	if b.config.MaxWait <= 0 {
		b.reject()
		return 0, ErrBulkheadFull
	}

	waitCtx, cancel := context.WithTimeout(ctx, b.config.MaxWait)
	defer cancel()

	if err := b.sem.Acquire(waitCtx, weight); err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			b.reject()
			return 0, ErrBulkheadFull
		}
		return 0, err
	}
	b.track(weight)
	return weight, nil
}

// Release returns held units to the bulkhead.
func (b *Bulkhead) Release(held int64) {
	b.mu.Lock()
	b.active -= held
	b.mu.Unlock()
	b.sem.Release(held)
}

// Execute runs the operation while holding weight units.
func (b *Bulkhead) Execute(ctx context.Context, weight int64, op func(context.Context) error) error {
	held, err := b.Acquire(ctx, weight)
	if err != nil {
		return err
	}
	defer b.Release(held)

	return op(ctx)
}

func (b *Bulkhead) track(weight int64) {
	b.mu.Lock()
	b.active += weight
	if b.active > b.maxActive {
		b.maxActive = b.active
	}
	b.mu.Unlock()
}

func (b *Bulkhead) reject() {
	b.mu.Lock()
	b.rejected++
	b.mu.Unlock()
}

// Metrics returns current bulkhead metrics.
func (b *Bulkhead) Metrics() BulkheadMetrics {
	b.mu.Lock()
	defer b.mu.Unlock()

	return BulkheadMetrics{
		Active:    b.active,
		MaxActive: b.maxActive,
		Available: b.config.MaxInflightDigits - b.active,
		Capacity:  b.config.MaxInflightDigits,
		Rejected:  b.rejected,
	}
}

// BulkheadMetrics contains bulkhead statistics in digit units.
type BulkheadMetrics struct {
	Active    int64 `json:"active"`
	MaxActive int64 `json:"max_active"`
	Available int64 `json:"available"`
	Capacity  int64 `json:"capacity"`
	Rejected  int64 `json:"rejected"`
}
