package apiclient

import "errors"

// Sentinel errors for client operations.
var (
	// ErrDisposed is returned by operations on a disposed Client.
	ErrDisposed = errors.New("apiclient: client disposed")

	// ErrInvalidConfig indicates a Config that fails validation.
	ErrInvalidConfig = errors.New("apiclient: invalid config")

	// ErrMissingEnv indicates ${VAR} references to unset variables.
	ErrMissingEnv = errors.New("apiclient: missing required environment variables")
)
