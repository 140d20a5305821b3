package logger

import (
	"context"
	"log/slog"
	"time"
)

// AuditEvent represents a security audit event
type AuditEvent struct {
	EventType     string
	Subject       string // sanitized email or admin name
	IPAddress     string
	UserAgent     string
	Success       bool
	FailureReason string
}

// EntitlementEvent records a change to an account's access state
type EntitlementEvent struct {
	Action       string // grant, extend, revoke, reset_trial, unlock
	Email        string
	Actor        string // "admin" or the account itself
	Via          string
	Days         int
	PremiumUntil *time.Time
	IPAddress    string
}

// AuditLogger provides audit logging functionality
type AuditLogger struct {
	logger *slog.Logger
}

// NewAuditLogger creates a new audit logger
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{
		logger: logger,
	}
}

// LogAuthAttempt logs signin, signup and admin login attempts
func (al *AuditLogger) LogAuthAttempt(event AuditEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "auth"),
		slog.String("event_type", event.EventType),
		slog.Bool("success", event.Success),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if event.Subject != "" {
		attrs = append(attrs, slog.String("subject", event.Subject))
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.UserAgent != "" {
		attrs = append(attrs, slog.String("user_agent", event.UserAgent))
	}
	if event.FailureReason != "" {
		attrs = append(attrs, slog.String("failure_reason", event.FailureReason))
	}

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}
	al.logger.LogAttrs(context.Background(), level, "audit", attrs...)
}

// LogEntitlementChange logs a premium grant, revocation or trial reset
func (al *AuditLogger) LogEntitlementChange(event EntitlementEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "entitlement"),
		slog.String("event_type", event.Action),
		slog.String("email", SanitizedEmail(event.Email)),
		slog.String("actor", event.Actor),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if event.Via != "" {
		attrs = append(attrs, slog.String("via", event.Via))
	}
	if event.Days > 0 {
		attrs = append(attrs, slog.Int("days", event.Days))
	}
	if event.PremiumUntil != nil {
		attrs = append(attrs, slog.String("premium_until", event.PremiumUntil.UTC().Format(time.RFC3339)))
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}

	al.logger.LogAttrs(context.Background(), slog.LevelInfo, "audit", attrs...)
}

// LogAdminAction logs admin console reads such as listing users
func (al *AuditLogger) LogAdminAction(eventType, ipAddress string, metadata map[string]string) {
	attrs := []slog.Attr{
		slog.String("audit_type", "admin"),
		slog.String("event_type", eventType),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if ipAddress != "" {
		attrs = append(attrs, slog.String("ip_address", ipAddress))
	}

	for key, val := range metadata {
		attrs = append(attrs, slog.String(key, val))
	}

	al.logger.LogAttrs(context.Background(), slog.LevelInfo, "audit", attrs...)
}
