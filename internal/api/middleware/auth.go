// Package middleware provides the HTTP middleware chain: request tracing,
// authentication, and metrics collection.
package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/taskhub-api/internal/api/shared"
	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/redact"
	"github.com/phrazzld/taskhub-api/internal/service/auth"
	"github.com/phrazzld/taskhub-api/internal/service/users"
)

// unauthorizedMessage is the single message returned for every
// authentication failure. Clients never learn whether the token was missing,
// malformed, expired, or referenced an unknown user.
const unauthorizedMessage = "Unauthorized"

// tokenClaim is the identity payload carried inside a sealed token.
type tokenClaim struct {
	ID uuid.UUID `json:"id"`
}

// AuthMiddleware authenticates requests by unsealing the bearer token and
// verifying the identity it names against the user directory.
type AuthMiddleware struct {
	codec    auth.TokenCodec
	resolver users.Resolver
	logger   *slog.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware with the given dependencies.
func NewAuthMiddleware(codec auth.TokenCodec, resolver users.Resolver, logger *slog.Logger) *AuthMiddleware {
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthMiddleware{
		codec:    codec,
		resolver: resolver,
		logger:   logger.With(slog.String("component", "auth_middleware")),
	}
}

// Authenticate validates bearer tokens from the Authorization header and
// adds the resolved identity to the request context for authorized requests.
// Every failure along the chain yields the same 401.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			m.reject(w, r, "missing or malformed authorization header", nil)
			return
		}

		claim, err := m.codec.Unseal(r.Context(), token)
		if err != nil {
			m.reject(w, r, "token rejected", err)
			return
		}

		var identity tokenClaim
		if err := json.Unmarshal(claim, &identity); err != nil || identity.ID == uuid.Nil {
			m.reject(w, r, "token claim carries no usable identity", err)
			return
		}

		// The token alone is not enough: the user must still exist upstream.
		if _, err := m.resolver.Resolve(r.Context(), identity.ID); err != nil {
			m.reject(w, r, "identity could not be verified", err)
			return
		}

		ctx := shared.WithIdentity(r.Context(), domain.Identity{
			ID:     identity.ID,
			Claims: claim,
		})

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// reject logs the real reason and answers with the opaque 401.
func (m *AuthMiddleware) reject(w http.ResponseWriter, r *http.Request, reason string, err error) {
	attrs := []any{
		slog.String("reason", reason),
		slog.String("path", r.URL.Path),
		slog.String("trace_id", shared.GetTraceID(r.Context())),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", redact.Error(err)))
	}
	m.logger.Debug("authentication failed", attrs...)

	shared.RespondWithError(w, r, http.StatusUnauthorized, unauthorizedMessage)
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header.
func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}

	return parts[1], true
}

// GetIdentity extracts the authenticated identity from the request context.
// Returns the identity and a boolean indicating if it was found.
func GetIdentity(r *http.Request) (domain.Identity, bool) {
	return shared.IdentityFromContext(r.Context())
}
