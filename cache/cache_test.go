package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/jonwraymond/pidigits/spigot"
)

func TestPolicy_Validate(t *testing.T) {
	p := Policy{MaxDigits: 100}

	tests := []struct {
		name    string
		n       int
		wantErr error
	}{
		{"zero", 0, nil},
		{"inside", 50, nil},
		{"at limit", 100, nil},
		{"negative", -1, ErrInvalidArgument},
		{"over limit", 101, ErrLimitExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.Validate(tt.n)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate(%d) = %v, want nil", tt.n, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate(%d) = %v, want %v", tt.n, err, tt.wantErr)
			}
		})
	}
}

func TestPolicy_Defaults(t *testing.T) {
	if got := DefaultPolicy(); !got.DerivePrefixes || got.Limit() != spigot.DefaultMaxDigits {
		t.Errorf("DefaultPolicy() = %+v", got)
	}
	if got := RecomputePolicy(); got.DerivePrefixes {
		t.Error("RecomputePolicy() should not derive prefixes")
	}
	if got := (Policy{}).Limit(); got != spigot.DefaultMaxDigits {
		t.Errorf("zero Policy Limit() = %d, want %d", got, spigot.DefaultMaxDigits)
	}
}

// TestCacheInterface_CompileCheck verifies the Cache interface contract.
func TestCacheInterface_CompileCheck(t *testing.T) {
	var _ Cache = (*mockCache)(nil)
}

// mockCache is a test double that implements Cache interface.
type mockCache struct{}

func (m *mockCache) Fetch(ctx context.Context, n int) (string, error) { return "", nil }
func (m *mockCache) Covers(n int) bool                                { return false }
func (m *mockCache) Stats() Stats                                     { return Stats{} }

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"ErrNilGenerator", ErrNilGenerator, "cache: generator is nil"},
		{"ErrShortResult", ErrShortResult, "cache: generator returned wrong length"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("%s.Error() = %q, want %q", tt.name, got, tt.wantMsg)
			}
		})
	}

	if ErrInvalidArgument != spigot.ErrInvalidArgument || ErrLimitExceeded != spigot.ErrLimitExceeded {
		t.Error("bound errors should be the engine's sentinels")
	}
}

func TestStats_HitRatio(t *testing.T) {
	if got := (Stats{}).HitRatio(); got != 0 {
		t.Errorf("empty HitRatio() = %v, want 0", got)
	}
	s := Stats{Hits: 2, DerivedHits: 1, Misses: 1}
	if got := s.HitRatio(); got != 0.75 {
		t.Errorf("HitRatio() = %v, want 0.75", got)
	}
}
