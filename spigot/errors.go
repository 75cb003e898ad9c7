package spigot

import "errors"

// Sentinel errors for digit generation.
var (
	// ErrInvalidArgument is returned for a negative digit count.
	ErrInvalidArgument = errors.New("spigot: invalid digit count")

	// ErrLimitExceeded is returned when the digit count is above the
	// configured ceiling.
	ErrLimitExceeded = errors.New("spigot: digit count exceeds limit")
)
