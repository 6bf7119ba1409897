// Package auth provides the token codec used to seal and unseal signed
// identity claims.
package auth

import (
	"context"
	"encoding/json"
	"time"
)

// TokenCodec seals opaque claim payloads into signed, expiring tokens and
// unseals them again. The round-trip law holds until expiry: for any claim
// payload p, Unseal(Seal(p)) returns the same claim contents.
type TokenCodec interface {
	// Seal produces a signed token embedding the claim payload with an
	// expiry derived from ttl. A zero ttl uses the codec's configured
	// default lifetime.
	// Returns ErrSigning if the payload cannot be serialized or signed.
	Seal(ctx context.Context, claims json.RawMessage, ttl time.Duration) (string, error)

	// Unseal verifies the token's signature and expiry and returns exactly
	// the claim payload that was sealed.
	// Returns ErrExpiredToken on expiry and ErrInvalidToken on any other
	// verification failure.
	Unseal(ctx context.Context, token string) (json.RawMessage, error)
}
