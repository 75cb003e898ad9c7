package config

import "errors"

var (
	// ErrInvalidConfig indicates a value failed validation.
	ErrInvalidConfig = errors.New("config: invalid configuration")

	// ErrRead indicates the configuration file could not be read or parsed.
	ErrRead = errors.New("config: cannot load configuration")
)
