package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/phrazzld/taskhub-api/internal/config"
	"github.com/phrazzld/taskhub-api/internal/platform/logger"
)

// hmacTokenCodec is an implementation of TokenCodec using HMAC-SHA signing.
type hmacTokenCodec struct {
	signingKey []byte
	defaultTTL time.Duration
	timeFunc   func() time.Time // Injectable for testing
	clockSkew  time.Duration    // Allowed time difference to handle clock drift
}

// sealedClaims is the JWT claims structure on the wire. The caller's claim
// payload travels untouched under the "claim" key, which is what makes the
// seal/unseal round trip exact.
type sealedClaims struct {
	Claim json.RawMessage `json:"claim"`
	jwt.RegisteredClaims
}

// Ensure hmacTokenCodec implements TokenCodec interface.
var _ TokenCodec = (*hmacTokenCodec)(nil)

// NewTokenCodec creates a new token codec using HMAC-SHA256 signing.
func NewTokenCodec(cfg config.AuthConfig) (TokenCodec, error) {
	if len(cfg.Secret) < 32 {
		return nil, fmt.Errorf("signing secret must be at least 32 characters")
	}

	return &hmacTokenCodec{
		signingKey: []byte(cfg.Secret),
		defaultTTL: time.Duration(cfg.TokenTTLSeconds) * time.Second,
		timeFunc:   time.Now,
		clockSkew:  2 * time.Minute,
	}, nil
}

// Seal creates a signed token embedding the claim payload.
func (c *hmacTokenCodec) Seal(ctx context.Context, claims json.RawMessage, ttl time.Duration) (string, error) {
	log := logger.FromContextOrDefault(ctx, nil)

	if len(claims) > 0 && !json.Valid(claims) {
		return "", fmt.Errorf("%w: claim payload is not valid JSON", ErrSigning)
	}

	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	now := c.timeFunc()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sealedClaims{
		Claim: claims,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})

	signed, err := token.SignedString(c.signingKey)
	if err != nil {
		log.Error("failed to sign token",
			"error", err,
			"signing_method", jwt.SigningMethodHS256.Name)
		return "", fmt.Errorf("%w: %v", ErrSigning, err)
	}

	return signed, nil
}

// Unseal verifies the token and returns the embedded claim payload.
func (c *hmacTokenCodec) Unseal(ctx context.Context, tokenString string) (json.RawMessage, error) {
	log := logger.FromContextOrDefault(ctx, nil)

	if tokenString == "" {
		return nil, ErrMissingToken
	}

	now := c.timeFunc()
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithLeeway(c.clockSkew),
		jwt.WithTimeFunc(func() time.Time { return now }),
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&sealedClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return c.signingKey, nil
		},
		parserOpts...)

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			log.Debug("token validation failed: token expired", "error", err)
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenMalformed):
			log.Debug("token validation failed: malformed token", "error", err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			log.Debug("token validation failed: invalid signature", "error", err)
		default:
			log.Debug("token validation failed: other validation error",
				"error", err,
				"error_type", fmt.Sprintf("%T", err))
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*sealedClaims)
	if !ok || !token.Valid {
		log.Debug("token validation failed: invalid claims")
		return nil, ErrInvalidToken
	}

	return claims.Claim, nil
}
