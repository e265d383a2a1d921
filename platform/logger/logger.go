// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// Context key types for storing values in context
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// UserIDKey is the context key for user ID
	UserIDKey contextKey = "user_id"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	var handler slog.Handler
	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithContext returns a logger with request_id and user_id extracted
// from the context, when present.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	out := l

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		out = out.WithRequestID(requestID)
	}

	if userID, ok := ctx.Value(UserIDKey).(string); ok && userID != "" {
		out = out.WithUserID(userID)
	}

	return out
}

// WithRequestID returns a logger with request ID
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("request_id", requestID)),
	}
}

// WithUserID returns a logger with user ID
func (l *Logger) WithUserID(userID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("user_id", userID)),
	}
}

// HTTPRequest logs an HTTP request
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// StorageError logs document store errors
func (l *Logger) StorageError(operation string, err error) {
	l.Error("storage_error",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// WorkflowEvent logs the outcome of processing a system event.
func (l *Logger) WorkflowEvent(eventType, action, entityID string, delivered bool, reason string) {
	if delivered {
		l.Info("workflow_event",
			slog.String("event_type", eventType),
			slog.String("action", action),
			slog.String("entity_id", entityID),
			slog.Bool("delivered", delivered),
		)
		return
	}
	l.Warn("workflow_event",
		slog.String("event_type", eventType),
		slog.String("action", action),
		slog.String("entity_id", entityID),
		slog.Bool("delivered", delivered),
		slog.String("reason", reason),
	)
}

// RateLimitExceeded logs message rate-limit rejections.
func (l *Logger) RateLimitExceeded(senderID, window string) {
	l.Warn("rate_limit_exceeded",
		slog.String("sender_id", senderID),
		slog.String("window", window),
	)
}
