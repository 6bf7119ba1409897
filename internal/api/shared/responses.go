package shared

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/taskhub-api/internal/redact"
)

// Response statuses used in the envelope.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope is the uniform response body: every success carries its payload
// under data, every failure carries a message under error.
type Envelope struct {
	Status  string            `json:"status"`
	Data    interface{}       `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
	TraceID string            `json:"trace_id,omitempty"`
}

// ResponseOption defines a function to customize response behavior.
type ResponseOption func(*responseOptions)

// responseOptions holds configurable options for error responses.
type responseOptions struct {
	elevateLogLevel bool
	fields          map[string]string
}

// WithElevatedLogLevel returns a ResponseOption that raises 4xx errors to WARN
// level instead of the default DEBUG level. Use for important operational
// issues like repeated auth failures.
func WithElevatedLogLevel() ResponseOption {
	return func(opts *responseOptions) {
		opts.elevateLogLevel = true
	}
}

// WithFields returns a ResponseOption attaching a per-field error map to the
// response, used for validation failures.
func WithFields(fields map[string]string) ResponseOption {
	return func(opts *responseOptions) {
		opts.fields = fields
	}
}

// RespondWithJSON writes a JSON response with the given status code and data
// wrapped in the success envelope.
func RespondWithJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	writeJSON(w, status, Envelope{Status: StatusSuccess, Data: data})
}

// RespondWithError writes a JSON error response with the given status code
// and message. It also sets the TraceID from the request context if available.
func RespondWithError(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	message string,
	opts ...ResponseOption,
) {
	responseOpts := applyOptions(opts)
	traceID := GetTraceID(r.Context())

	slog.Debug("sending error response",
		"status_code", status,
		"message", message,
		"trace_id", traceID,
		"path", r.URL.Path,
		"method", r.Method)

	writeJSON(w, status, Envelope{
		Status:  StatusError,
		Error:   message,
		Fields:  responseOpts.fields,
		TraceID: traceID,
	})
}

// RespondWithErrorAndLog writes a JSON error response and also logs the
// detailed error. The client only ever sees userMessage; the underlying error
// is redacted and kept in the logs.
//
// Log level strategy:
// - 5xx errors: Always logged at ERROR level
// - 4xx errors: By default logged at DEBUG level
// - 429 Too Many Requests: Logged at WARN level (operational concern)
//
// For 4xx errors that need higher visibility (e.g., repeated auth failures),
// use the WithElevatedLogLevel() option to elevate to WARN level.
func RespondWithErrorAndLog(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	userMessage string,
	err error,
	opts ...ResponseOption,
) {
	responseOpts := applyOptions(opts)
	traceID := GetTraceID(r.Context())

	logAttrs := []slog.Attr{
		slog.String("trace_id", traceID),
		slog.String("path", r.URL.Path),
		slog.String("method", r.Method),
		slog.Int("status_code", status),
		slog.String("user_message", userMessage),
	}

	if err != nil {
		logAttrs = append(logAttrs,
			slog.String("error", redact.Error(err)),
			slog.String("error_type", fmt.Sprintf("%T", err)))
	}

	logLevel := slog.LevelDebug
	if status >= http.StatusInternalServerError {
		logLevel = slog.LevelError
	} else if status == http.StatusTooManyRequests {
		logLevel = slog.LevelWarn
	} else if responseOpts.elevateLogLevel && status >= http.StatusBadRequest {
		logLevel = slog.LevelWarn
	}

	slog.LogAttrs(r.Context(), logLevel, "API error response", logAttrs...)

	writeJSON(w, status, Envelope{
		Status:  StatusError,
		Error:   userMessage,
		Fields:  responseOpts.fields,
		TraceID: traceID,
	})
}

func applyOptions(opts []ResponseOption) responseOptions {
	responseOpts := responseOptions{}
	for _, opt := range opts {
		opt(&responseOpts)
	}
	return responseOpts
}

func writeJSON(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}
