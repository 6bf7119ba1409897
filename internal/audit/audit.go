// Package audit records user-visible actions for traceability.
package audit

import (
	"context"
	"log/slog"
)

// Record describes a single audited action.
type Record struct {
	// Activity names the action, e.g. "create.task".
	Activity string

	// Message is a human-readable description of what happened.
	Message string

	// ObjectID identifies the entity the action touched.
	ObjectID string

	// IPAddress is the caller's address as seen at the edge.
	IPAddress string
}

// Logger writes audit records. The current implementation emits them as
// structured log entries; swapping in a persisted trail only requires a new
// implementation of this interface.
type Logger interface {
	Log(ctx context.Context, rec Record)
}

// slogAuditLogger emits audit records through the structured logger.
type slogAuditLogger struct {
	logger *slog.Logger
}

// NewLogger creates an audit logger writing through the given slog logger.
func NewLogger(logger *slog.Logger) Logger {
	if logger == nil {
		logger = slog.Default()
	}

	return &slogAuditLogger{
		logger: logger.With(slog.String("component", "audit")),
	}
}

// Log implements Logger.Log.
func (l *slogAuditLogger) Log(ctx context.Context, rec Record) {
	l.logger.LogAttrs(ctx, slog.LevelInfo, "audit",
		slog.String("activity", rec.Activity),
		slog.String("message", rec.Message),
		slog.String("object_id", rec.ObjectID),
		slog.String("ip_address", rec.IPAddress),
	)
}
