package cache

import (
	"fmt"

	"github.com/jonwraymond/pidigits/spigot"
)

// Policy configures caching behavior.
type Policy struct {
	// MaxDigits is the largest length Fetch accepts.
	// If zero, spigot.DefaultMaxDigits is used.
	MaxDigits int

	// DerivePrefixes serves a length shorter than the longest computed
	// string by slicing that string instead of running the generator again.
	DerivePrefixes bool
}

// DefaultPolicy returns the default caching policy.
// MaxDigits: 500000, DerivePrefixes: true
func DefaultPolicy() Policy {
	return Policy{
		MaxDigits:      spigot.DefaultMaxDigits,
		DerivePrefixes: true,
	}
}

// RecomputePolicy returns a policy that runs the generator for every
// length it has not cached exactly.
func RecomputePolicy() Policy {
	return Policy{
		MaxDigits:      spigot.DefaultMaxDigits,
		DerivePrefixes: false,
	}
}

// Limit returns the effective digit ceiling.
func (p Policy) Limit() int {
	if p.MaxDigits <= 0 {
		return spigot.DefaultMaxDigits
	}
	return p.MaxDigits
}

// Validate checks n against the policy's bounds.
func (p Policy) Validate(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidArgument, n)
	}
	if limit := p.Limit(); n > limit {
		return fmt.Errorf("%w: %d > %d", ErrLimitExceeded, n, limit)
	}
	return nil
}
