package spigot

import (
	"fmt"
	"strings"
)

const (
	// DefaultMaxDigits is the default ceiling on requestable precision.
	DefaultMaxDigits = 500000

	// DefaultGuard is the default number of lookahead digits computed past
	// the requested count.
	DefaultGuard = 8
)

// Config configures an Engine.
type Config struct {
	// MaxDigits is the largest digit count Generate accepts.
	// Default: DefaultMaxDigits
	MaxDigits int

	// Guard is the number of extra digits produced so that pending nines
	// at the requested boundary can be resolved. It doubles on each retry.
	// Default: DefaultGuard
	Guard int
}

// Engine produces digits of pi after the decimal point.
//
// Contract:
// - Concurrency: safe for concurrent use; calls share no state.
// - Determinism: the same n always yields the same string.
// - Errors: ErrInvalidArgument for n < 0, ErrLimitExceeded for n > MaxDigits.
type Engine struct {
	config Config
}

// New creates an engine with the given configuration.
func New(config Config) *Engine {
	if config.MaxDigits <= 0 {
		config.MaxDigits = DefaultMaxDigits
	}
	if config.Guard <= 0 {
		config.Guard = DefaultGuard
	}
	return &Engine{config: config}
}

// MaxDigits returns the configured ceiling.
func (e *Engine) MaxDigits() int {
	return e.config.MaxDigits
}

// Validate checks n against the engine's bounds without computing anything.
func (e *Engine) Validate(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidArgument, n)
	}
	if n > e.config.MaxDigits {
		return fmt.Errorf("%w: %d > %d", ErrLimitExceeded, n, e.config.MaxDigits)
	}
	return nil
}

// Generate returns the first n digits of pi after the decimal point,
// truncated rather than rounded.
func (e *Engine) Generate(n int) (string, error) {
	if err := e.Validate(n); err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}

	for guard := e.config.Guard; ; guard *= 2 {
		// final holds the integer digit 3 followed by settled digits.
		final := produce(n + guard)
		if len(final) > n {
			return format(final[1 : n+1]), nil
		}
	}
}

// produce runs m+1 production rounds over a working array sized for m
// digits and returns only the digits that are settled: the trailing pending
// digit and any run of nines after it are withheld because a later carry
// could still change them.
func produce(m int) []byte {
	size := 10*m/3 + 16
	a := make([]uint32, size)
	for i := range a {
		a[i] = 2
	}

	out := make([]byte, 0, m+1)
	var (
		pending byte
		nines   int
	)

	for round := 1; round <= m+1; round++ {
		// Cell i-1 holds the mixed-radix digit with base i/(2i-1).
		var q int64
		for i := size; i > 0; i-- {
			den := int64(2*i - 1)
			x := 10*int64(a[i-1]) + q*int64(i)
			a[i-1] = uint32(x % den)
			q = x / den
		}
		a[0] = uint32(q % 10)
		d := q / 10

		switch d {
		case 9:
			nines++
		case 10:
			out = append(out, pending+1)
			for k := 0; k < nines; k++ {
				out = append(out, 0)
			}
			pending = 0
			nines = 0
		default:
			if round > 1 {
				out = append(out, pending)
			}
			pending = byte(d)
			for k := 0; k < nines; k++ {
				out = append(out, 9)
			}
			nines = 0
		}
	}

	return out
}

func format(digits []byte) string {
	var b strings.Builder
	b.Grow(len(digits))
	for _, d := range digits {
		b.WriteByte('0' + d)
	}
	return b.String()
}
