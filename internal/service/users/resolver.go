// Package users resolves authenticated identities against the external user
// service. The user service is a black-box collaborator: any failure on its
// side is surfaced as a uniform upstream error so transport details never
// reach clients.
package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskhub-api/internal/config"
	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/redact"
)

// lookupTimeout bounds the remote user lookup.
const lookupTimeout = 30 * time.Second

// ErrUserNotFound indicates the user service answered definitively that the
// user does not exist. The auth middleware converts it to an authentication
// failure so callers cannot probe which IDs exist.
var ErrUserNotFound = errors.New("user not found")

// User is the subset of the user service's record this service needs.
type User struct {
	ID uuid.UUID `json:"id"`
}

// Resolver confirms that the user referenced by a token claim still exists.
type Resolver interface {
	// Resolve returns the user with the given ID.
	// Returns ErrUserNotFound if the user does not exist, or
	// domain.ErrUpstream for any transport-level failure.
	Resolve(ctx context.Context, id uuid.UUID) (*User, error)
}

// Cache is a read-through cache in front of the remote lookup. Implementations
// must be safe for concurrent use. Errors degrade to the remote call; they
// never fail a request.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
}

// httpResolver resolves users with GET {base}/user/{id} against the external
// user service, optionally fronted by a cache.
type httpResolver struct {
	baseURL string
	client  *http.Client
	cache   Cache
	logger  *slog.Logger
}

// Ensure httpResolver implements Resolver interface.
var _ Resolver = (*httpResolver)(nil)

// NewResolver creates a resolver for the configured user service.
// cache may be nil to disable caching. If logger is nil, a default logger
// will be used.
func NewResolver(cfg config.UsersConfig, cache Cache, logger *slog.Logger) Resolver {
	if logger == nil {
		logger = slog.Default()
	}

	return &httpResolver{
		baseURL: cfg.URL,
		client:  &http.Client{Timeout: lookupTimeout},
		cache:   cache,
		logger:  logger.With(slog.String("component", "user_resolver")),
	}
}

// Resolve implements Resolver.Resolve.
func (r *httpResolver) Resolve(ctx context.Context, id uuid.UUID) (*User, error) {
	key := "user:" + id.String()

	if r.cache != nil {
		if raw, ok := r.cache.Get(ctx, key); ok {
			var u User
			if err := json.Unmarshal(raw, &u); err == nil {
				return &u, nil
			}
			// A corrupt cache entry falls through to the remote call.
		}
	}

	u, err := r.fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if raw, err := json.Marshal(u); err == nil {
			r.cache.Set(ctx, key, raw)
		}
	}

	return u, nil
}

func (r *httpResolver) fetch(ctx context.Context, id uuid.UUID) (*User, error) {
	url := fmt.Sprintf("%s/user/%s", r.baseURL, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Error("user lookup failed",
			slog.String("user_id", id.String()),
			slog.String("error", redact.Error(err)))
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrUserNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		r.logger.Error("user service returned unexpected status",
			slog.String("user_id", id.String()),
			slog.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: user service returned %d", domain.ErrUpstream, resp.StatusCode)
	}

	var u User
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("%w: decoding user response: %v", domain.ErrUpstream, err)
	}

	return &u, nil
}
