// Package logger builds the application loggers and records security events.
package logger

import (
	"log/slog"
	"os"
	"time"
)

// SecurityLogger provides methods for logging security-related events.
// It ensures sensitive data is never logged.
type SecurityLogger struct {
	logger *slog.Logger
}

// NewSecurityLogger creates a new SecurityLogger with JSON output.
func NewSecurityLogger() *SecurityLogger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return &SecurityLogger{
		logger: slog.New(handler),
	}
}

// NewSecurityLoggerWithHandler creates a SecurityLogger with a custom handler.
func NewSecurityLoggerWithHandler(handler slog.Handler) *SecurityLogger {
	return &SecurityLogger{
		logger: slog.New(handler),
	}
}

// AuthFailure logs a failed authentication attempt.
// Never logs the actual credentials.
func (s *SecurityLogger) AuthFailure(ip, path, reason string) {
	s.logger.Warn("authentication_failure",
		slog.String("event_type", "auth_failure"),
		slog.String("ip", ip),
		slog.String("path", path),
		slog.String("reason", reason),
		slog.Time("timestamp", time.Now().UTC()),
	)
}

// RateLimitExceeded logs when a client exceeds rate limits.
func (s *SecurityLogger) RateLimitExceeded(ip, path string) {
	s.logger.Warn("rate_limit_exceeded",
		slog.String("event_type", "rate_limit"),
		slog.String("ip", ip),
		slog.String("path", path),
		slog.Time("timestamp", time.Now().UTC()),
	)
}

// InvalidOrigin logs a rejected WebSocket connection due to invalid origin.
func (s *SecurityLogger) InvalidOrigin(ip, origin string) {
	s.logger.Warn("invalid_origin",
		slog.String("event_type", "invalid_origin"),
		slog.String("ip", ip),
		slog.String("origin", origin),
		slog.Time("timestamp", time.Now().UTC()),
	)
}

// BlockedFileUpload logs a blocked file upload attempt.
func (s *SecurityLogger) BlockedFileUpload(ip, filename, reason string) {
	s.logger.Warn("blocked_file_upload",
		slog.String("event_type", "blocked_upload"),
		slog.String("ip", ip),
		slog.String("filename", filename),
		slog.String("reason", reason),
		slog.Time("timestamp", time.Now().UTC()),
	)
}

// AccountStateChanged logs activation or deactivation of a company account.
func (s *SecurityLogger) AccountStateChanged(ip string, userID uint, active bool) {
	s.logger.Info("account_state_changed",
		slog.String("event_type", "account_state"),
		slog.String("ip", ip),
		slog.Uint64("user_id", uint64(userID)),
		slog.Bool("active", active),
		slog.Time("timestamp", time.Now().UTC()),
	)
}

// DispatchTriggered logs a manual dispatch request for a sending.
func (s *SecurityLogger) DispatchTriggered(ip string, sendingID uint) {
	s.logger.Info("dispatch_triggered",
		slog.String("event_type", "dispatch"),
		slog.String("ip", ip),
		slog.Uint64("sending_id", uint64(sendingID)),
		slog.Time("timestamp", time.Now().UTC()),
	)
}

// Info logs an informational message.
func (s *SecurityLogger) Info(msg string, args ...any) {
	s.logger.Info(msg, args...)
}

// Error logs an error message.
func (s *SecurityLogger) Error(msg string, args ...any) {
	s.logger.Error(msg, args...)
}

// GetLogger returns the underlying slog.Logger for use with middleware.
func (s *SecurityLogger) GetLogger() *slog.Logger {
	return s.logger
}
