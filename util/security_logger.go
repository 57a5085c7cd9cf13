package util

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ariebrainware/crm-backend/model"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SecurityEventType represents different types of security events
type SecurityEventType string

const (
	EventLoginSuccess       SecurityEventType = "LOGIN_SUCCESS"
	EventLoginFailure       SecurityEventType = "LOGIN_FAILURE"
	EventUserRegistered     SecurityEventType = "USER_REGISTERED"
	EventUserUpdated        SecurityEventType = "USER_UPDATED"
	EventPasswordChanged    SecurityEventType = "PASSWORD_CHANGED"
	EventUnauthorizedAccess SecurityEventType = "UNAUTHORIZED_ACCESS"
	EventForbiddenAccess    SecurityEventType = "FORBIDDEN_ACCESS"
	EventEndpointCall       SecurityEventType = "ENDPOINT_CALL"
)

const securitySource = "crm-backend.auth"

// SecurityEvent represents a security event to be logged
type SecurityEvent struct {
	EventType SecurityEventType
	UserID    uint
	Username  string
	IP        string
	UserAgent string
	RequestID string
	Message   string
	Details   map[string]interface{}
}

// SecurityLogger writes security events to the process log and, when a
// database is configured, to the system_logs table.
type SecurityLogger struct {
	logger *logrus.Logger
	db     *gorm.DB
}

func NewSecurityLogger(logger *logrus.Logger, db *gorm.DB) *SecurityLogger {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &SecurityLogger{logger: logger, db: db}
}

// sanitizeLogValue removes newlines and other characters that could break log parsing
func sanitizeLogValue(value string) string {
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.ReplaceAll(value, "\t", " ")
	// Truncate very long values to prevent log flooding
	if len(value) > 200 {
		value = value[:200] + "..."
	}
	return value
}

func levelFor(t SecurityEventType) logrus.Level {
	switch t {
	case EventLoginFailure, EventUnauthorizedAccess, EventForbiddenAccess:
		return logrus.WarnLevel
	default:
		return logrus.InfoLevel
	}
}

// Log records event. Persistence is best-effort: failures are logged and
// never returned to the caller.
func (s *SecurityLogger) Log(ctx context.Context, event SecurityEvent) {
	if s == nil {
		return
	}

	fields := logrus.Fields{
		"event":      string(event.EventType),
		"username":   sanitizeLogValue(event.Username),
		"ip":         sanitizeLogValue(event.IP),
		"user_agent": sanitizeLogValue(event.UserAgent),
	}
	if event.UserID != 0 {
		fields["user_id"] = event.UserID
	}
	if event.RequestID != "" {
		fields["request_id"] = event.RequestID
	}
	if len(event.Details) > 0 {
		// Details are persisted but only counted in the process log.
		fields["details_count"] = len(event.Details)
	}

	level := levelFor(event.EventType)
	s.logger.WithFields(fields).Log(level, sanitizeLogValue(event.Message))

	if s.db == nil {
		return
	}

	var details datatypes.JSON
	if event.Details != nil {
		if b, err := json.Marshal(event.Details); err == nil {
			details = datatypes.JSON(b)
		}
	}

	entry := model.SystemLog{
		Level:     level.String(),
		EventType: string(event.EventType),
		Source:    securitySource,
		Username:  sanitizeLogValue(event.Username),
		IP:        sanitizeLogValue(event.IP),
		UserAgent: sanitizeLogValue(event.UserAgent),
		Message:   sanitizeLogValue(event.Message),
		Details:   details,
	}
	if event.UserID != 0 {
		uid := event.UserID
		entry.UserID = &uid
	}

	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		s.logger.WithError(err).Error("failed to persist security event")
	}
}

// LoginParams groups the client details of an authentication attempt.
type LoginParams struct {
	UserID    uint
	Username  string
	IP        string
	UserAgent string
	RequestID string
	Reason    string
}

// LogLoginSuccess logs a successful login event
func (s *SecurityLogger) LogLoginSuccess(ctx context.Context, p LoginParams) {
	s.Log(ctx, SecurityEvent{
		EventType: EventLoginSuccess,
		UserID:    p.UserID,
		Username:  p.Username,
		IP:        p.IP,
		UserAgent: p.UserAgent,
		RequestID: p.RequestID,
		Message:   fmt.Sprintf("Użytkownik %s zalogował się", p.Username),
	})
}

// LogLoginFailure logs a failed login attempt
func (s *SecurityLogger) LogLoginFailure(ctx context.Context, p LoginParams) {
	s.Log(ctx, SecurityEvent{
		EventType: EventLoginFailure,
		UserID:    p.UserID,
		Username:  p.Username,
		IP:        p.IP,
		UserAgent: p.UserAgent,
		RequestID: p.RequestID,
		Message:   fmt.Sprintf("Login failed: %s", p.Reason),
	})
}

// UnauthorizedAccessParams describes a rejected request.
type UnauthorizedAccessParams struct {
	EventType SecurityEventType
	UserID    uint
	Username  string
	IP        string
	RequestID string
	Resource  string
	Reason    string
}

// LogUnauthorizedAccess logs rejected access to a protected resource.
func (s *SecurityLogger) LogUnauthorizedAccess(ctx context.Context, p UnauthorizedAccessParams) {
	eventType := p.EventType
	if eventType == "" {
		eventType = EventUnauthorizedAccess
	}
	s.Log(ctx, SecurityEvent{
		EventType: eventType,
		UserID:    p.UserID,
		Username:  p.Username,
		IP:        p.IP,
		RequestID: p.RequestID,
		Message:   fmt.Sprintf("Unauthorized access to %s: %s", p.Resource, p.Reason),
	})
}
