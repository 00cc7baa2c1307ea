package auth

import "errors"

// Sentinel errors for token handling.
var (
	// ErrMissingKey indicates a Signer without a signing key.
	ErrMissingKey = errors.New("auth: signing key is required")

	// ErrNilSource indicates a Manager without a Source.
	ErrNilSource = errors.New("auth: token source is required")

	// ErrNilRequester indicates a SessionSource without a Requester.
	ErrNilRequester = errors.New("auth: requester is required")

	// ErrEmptyToken indicates a session response without a token.
	ErrEmptyToken = errors.New("auth: session returned no token")

	// ErrTokenMalformed indicates a token whose claims cannot be read.
	ErrTokenMalformed = errors.New("auth: token malformed")
)
