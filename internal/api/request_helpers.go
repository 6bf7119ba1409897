package api

import (
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/taskhub-api/internal/api/shared"
	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/platform/logger"
)

// getIdentityFromContext extracts the authenticated identity from the request
// context. The identity is placed in the context by the auth middleware.
func getIdentityFromContext(r *http.Request) (domain.Identity, bool) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok || identity.ID == uuid.Nil {
		return domain.Identity{}, false
	}
	return identity, true
}

// getPathUUID extracts a UUID from the URL path parameters.
// It parses and validates the UUID, handling common error cases.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, domain.NewValidationError(paramName, "is required", domain.ErrValidation)
	}

	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(paramName, "has invalid format", domain.ErrInvalidID)
	}

	return id, nil
}

// handleIdentityAndPathUUID is a composite helper that extracts both the
// identity from context and a UUID from the path parameters. It writes an
// error response and returns false if either extraction fails.
func handleIdentityAndPathUUID(
	w http.ResponseWriter,
	r *http.Request,
	paramName string,
	log *slog.Logger,
) (domain.Identity, uuid.UUID, bool) {
	if log == nil {
		log = logger.FromContextOrDefault(r.Context(), slog.Default())
	}

	identity, ok := getIdentityFromContext(r)
	if !ok {
		log.Warn("identity not found or invalid in request context")
		HandleAPIError(w, r, domain.ErrUnauthenticated, "")
		return domain.Identity{}, uuid.Nil, false
	}

	pathID, err := getPathUUID(r, paramName)
	if err != nil {
		log.Warn("invalid "+paramName,
			slog.String("param_name", paramName),
			slog.String("value", chi.URLParam(r, paramName)))
		HandleAPIError(w, r, err, "")
		return domain.Identity{}, uuid.Nil, false
	}

	return identity, pathID, true
}

// clientIP returns the caller's address for audit records, preferring the
// address established by the RealIP middleware.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
