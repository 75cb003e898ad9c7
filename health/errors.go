package health

import "errors"

// Sentinel errors carried by Result.Error and returned by the Aggregator.
var (
	ErrCheckFailed     = errors.New("health: check failed")
	ErrCheckTimeout    = errors.New("health: check timed out")
	ErrCheckerNotFound = errors.New("health: no checker with that name")

	// ErrDigitMismatch means the engine self-test produced wrong digits.
	ErrDigitMismatch = errors.New("health: engine produced unexpected digits")
)
