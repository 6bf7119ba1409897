package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskhub-api/internal/api/shared"
	"github.com/phrazzld/taskhub-api/internal/config"
	"github.com/phrazzld/taskhub-api/internal/service/auth"
	"github.com/phrazzld/taskhub-api/internal/service/users"
)

// newTestApplication wires just enough of the application to exercise the
// router. No request in these tests carries a valid token, so the task
// service behind the auth middleware is never reached.
func newTestApplication(t *testing.T) *application {
	t.Helper()

	logger := slog.Default()

	codec, err := auth.NewTokenCodec(config.AuthConfig{
		Secret:          "0123456789abcdef0123456789abcdef",
		TokenTTLSeconds: 3600,
	})
	require.NoError(t, err)

	return &application{
		config: &config.Config{
			Server: config.ServerConfig{
				ServiceName: "taskhub-api",
				APIVersion:  "/api/v1",
			},
		},
		logger:     logger,
		tokenCodec: codec,
		resolver:   users.NewResolver(config.UsersConfig{URL: "http://127.0.0.1:0"}, nil, logger),
	}
}

func routerErrorEnvelope(t *testing.T, rec *httptest.ResponseRecorder) shared.Envelope {
	t.Helper()
	var envelope shared.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func TestRouterTrailingSlashTolerance(t *testing.T) {
	router := newTestApplication(t).setupRouter()

	// Each route must match with and without the trailing slash. An
	// unauthenticated 401 proves the route was matched and handed to the
	// auth middleware instead of falling through to the 404 handler.
	tests := []struct {
		name   string
		method string
		path   string
	}{
		{"list without slash", http.MethodGet, "/api/v1/tasks"},
		{"list with slash", http.MethodGet, "/api/v1/tasks/"},
		{"create without slash", http.MethodPost, "/api/v1/tasks"},
		{"create with slash", http.MethodPost, "/api/v1/tasks/"},
		{"get with slash", http.MethodGet, "/api/v1/tasks/3f5a8c1e-9f10-4c62-8a43-0d6a1c2b9e77/"},
		{"done with slash", http.MethodPatch, "/api/v1/tasks/3f5a8c1e-9f10-4c62-8a43-0d6a1c2b9e77/done/"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(tc.method, tc.path, nil)
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			envelope := routerErrorEnvelope(t, rec)
			assert.Equal(t, shared.StatusError, envelope.Status)
			assert.Equal(t, "Unauthorized", envelope.Error)
		})
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	router := newTestApplication(t).setupRouter()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	envelope := routerErrorEnvelope(t, rec)
	assert.Equal(t, "Not Found", envelope.Error)
}
