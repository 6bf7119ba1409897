package auth

import "errors"

// Common authentication service errors.
var (
	// ErrInvalidToken indicates the token format is invalid or the signature
	// doesn't match.
	ErrInvalidToken = errors.New("invalid authentication token")

	// ErrExpiredToken indicates the token has expired.
	ErrExpiredToken = errors.New("authentication token has expired")

	// ErrMissingToken indicates a token was expected but not provided.
	ErrMissingToken = errors.New("authentication token is missing")

	// ErrSigning indicates the claim payload could not be serialized or signed.
	ErrSigning = errors.New("failed to sign claims")
)
