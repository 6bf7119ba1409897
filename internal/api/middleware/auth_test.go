package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskhub-api/internal/api/shared"
	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/service/auth"
	"github.com/phrazzld/taskhub-api/internal/service/users"
)

// fakeCodec unseals a fixed claim for one known token.
type fakeCodec struct {
	token string
	claim json.RawMessage
	err   error
}

func (f *fakeCodec) Seal(ctx context.Context, claims json.RawMessage, ttl time.Duration) (string, error) {
	return f.token, nil
}

func (f *fakeCodec) Unseal(ctx context.Context, token string) (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	if token != f.token {
		return nil, auth.ErrInvalidToken
	}
	return f.claim, nil
}

// fakeResolver recognizes a single user id.
type fakeResolver struct {
	known uuid.UUID
	err   error
}

func (f *fakeResolver) Resolve(ctx context.Context, id uuid.UUID) (*users.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if id != f.known {
		return nil, users.ErrUserNotFound
	}
	return &users.User{ID: id}, nil
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	claim := json.RawMessage(`{"id":"` + userID.String() + `"}`)
	codec := &fakeCodec{token: "good-token", claim: claim}
	resolver := &fakeResolver{known: userID}

	newRequest := func(authorization string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
		if authorization != "" {
			req.Header.Set("Authorization", authorization)
		}
		return req
	}

	serve := func(mw *AuthMiddleware, req *http.Request) (*httptest.ResponseRecorder, *domain.Identity) {
		var seen *domain.Identity
		handler := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if identity, ok := GetIdentity(r); ok {
				seen = &identity
			}
			w.WriteHeader(http.StatusOK)
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec, seen
	}

	t.Run("valid token reaches the handler with identity", func(t *testing.T) {
		t.Parallel()

		mw := NewAuthMiddleware(codec, resolver, nil)
		rec, seen := serve(mw, newRequest("Bearer good-token"))

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, seen)
		assert.Equal(t, userID, seen.ID)
		assert.JSONEq(t, string(claim), string(seen.Claims))
	})

	unauthorizedCases := []struct {
		name     string
		codec    auth.TokenCodec
		resolver users.Resolver
		header   string
	}{
		{
			name:     "missing header",
			codec:    codec,
			resolver: resolver,
			header:   "",
		},
		{
			name:     "malformed header",
			codec:    codec,
			resolver: resolver,
			header:   "good-token",
		},
		{
			name:     "wrong scheme",
			codec:    codec,
			resolver: resolver,
			header:   "Basic good-token",
		},
		{
			name:     "invalid token",
			codec:    codec,
			resolver: resolver,
			header:   "Bearer forged-token",
		},
		{
			name:     "expired token",
			codec:    &fakeCodec{err: auth.ErrExpiredToken},
			resolver: resolver,
			header:   "Bearer good-token",
		},
		{
			name:     "claim without id",
			codec:    &fakeCodec{token: "good-token", claim: json.RawMessage(`{"role":"member"}`)},
			resolver: resolver,
			header:   "Bearer good-token",
		},
		{
			name:     "unknown user",
			codec:    codec,
			resolver: &fakeResolver{known: uuid.New()},
			header:   "Bearer good-token",
		},
		{
			name:     "user service unavailable",
			codec:    codec,
			resolver: &fakeResolver{err: domain.ErrUpstream},
			header:   "Bearer good-token",
		},
	}

	// Every failure mode must be indistinguishable on the wire.
	for _, tc := range unauthorizedCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			mw := NewAuthMiddleware(tc.codec, tc.resolver, nil)
			rec, seen := serve(mw, newRequest(tc.header))

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Nil(t, seen)

			var body shared.Envelope
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, shared.StatusError, body.Status)
			assert.Equal(t, "Unauthorized", body.Error)
		})
	}
}
