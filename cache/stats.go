package cache

// Stats is a point-in-time snapshot of cache activity.
type Stats struct {
	// Hits counts lookups answered by an exact entry.
	Hits int64 `json:"hits"`

	// DerivedHits counts lookups answered by slicing a longer entry.
	DerivedHits int64 `json:"derived_hits"`

	// Misses counts lookups that had to wait on the generator.
	Misses int64 `json:"misses"`

	// Computations counts generator runs that completed successfully.
	Computations int64 `json:"computations"`

	// Errors counts rejected lengths and failed generator runs.
	Errors int64 `json:"errors"`

	// Entries is the number of distinct lengths cached.
	Entries int `json:"entries"`

	// MaxComputed is the largest length computed so far.
	MaxComputed int `json:"max_computed"`
}

// HitRatio returns the share of lookups served without the generator.
func (s Stats) HitRatio() float64 {
	served := s.Hits + s.DerivedHits
	total := served + s.Misses
	if total == 0 {
		return 0
	}
	return float64(served) / float64(total)
}
