package shared

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondWithJSON(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)

	RespondWithJSON(rec, req, http.StatusOK, map[string]string{"message": "hello"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var envelope Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, StatusSuccess, envelope.Status)
	assert.Empty(t, envelope.Error)

	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "hello", data["message"])
}

func TestRespondWithError(t *testing.T) {
	t.Parallel()

	t.Run("writes the error envelope", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/tasks", nil)

		RespondWithError(rec, req, http.StatusNotFound, "Task not found")

		assert.Equal(t, http.StatusNotFound, rec.Code)

		var envelope Envelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
		assert.Equal(t, StatusError, envelope.Status)
		assert.Equal(t, "Task not found", envelope.Error)
		assert.Nil(t, envelope.Data)
	})

	t.Run("includes the trace id from the context", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
		ctx := SetTraceID(req.Context())
		req = req.WithContext(ctx)

		rec := httptest.NewRecorder()
		RespondWithError(rec, req, http.StatusBadRequest, "Invalid request")

		var envelope Envelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
		assert.Equal(t, GetTraceID(ctx), envelope.TraceID)
		assert.NotEmpty(t, envelope.TraceID)
	})

	t.Run("attaches field errors when provided", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/tasks", nil)

		RespondWithError(rec, req, http.StatusBadRequest, "Validation error",
			WithFields(map[string]string{"description": "cannot be empty"}))

		var envelope Envelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
		assert.Equal(t, "cannot be empty", envelope.Fields["description"])
	})
}

func TestRespondWithErrorAndLog(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)

	internal := errors.New("pq: connection refused to postgres://app:hunter2@db:5432")
	RespondWithErrorAndLog(rec, req, http.StatusInternalServerError, "An unexpected error occurred", internal)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	// The raw error never reaches the response body.
	body := rec.Body.String()
	assert.NotContains(t, body, "hunter2")
	assert.NotContains(t, body, "connection refused")

	var envelope Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, StatusError, envelope.Status)
	assert.Equal(t, "An unexpected error occurred", envelope.Error)
}
