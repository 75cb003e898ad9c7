package secret

import "errors"

var (
	// ErrMissingEnv indicates ${VAR} referenced an unset variable.
	ErrMissingEnv = errors.New("secret: missing required environment variables")

	// ErrInvalidRef indicates a malformed provider name or reference.
	ErrInvalidRef = errors.New("secret: invalid reference")

	// ErrProviderNotRegistered indicates no provider answers to the name.
	ErrProviderNotRegistered = errors.New("secret: provider not registered")

	// ErrDuplicateProvider indicates a factory name is already taken.
	ErrDuplicateProvider = errors.New("secret: provider already registered")

	// ErrSecretNotFound indicates the provider has no value for the reference.
	ErrSecretNotFound = errors.New("secret: not found")

	// ErrEmptySecret indicates a strict resolver got an empty value.
	ErrEmptySecret = errors.New("secret: empty value")
)
