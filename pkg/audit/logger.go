// Package audit records security-relevant events: logins, denied
// operations, viewing-tenant override changes, and tenant administration.
package audit

import (
	"context"
	"time"
)

// Logger is the interface for audit logging
type Logger interface {
	// Log records a single audit event
	Log(ctx context.Context, event *Event) error

	// LogAuthentication records a login, logout, or failed login
	LogAuthentication(ctx context.Context, eventType EventType, userID, email string, status EventStatus, message string) error

	// LogAccessDenied records a rejected operation against a collection
	LogAccessDenied(ctx context.Context, userID, collection, resourceID, message string) error

	// LogOverrideChange records a viewing-tenant override being set or cleared
	LogOverrideChange(ctx context.Context, eventType EventType, userID, viewingTenant string) error

	// LogDataMutation records a create, update, or delete on a record
	LogDataMutation(ctx context.Context, eventType EventType, userID, tenantID, collection, resourceID, message string) error

	// LogAdminAction records tenant or user administration
	LogAdminAction(ctx context.Context, eventType EventType, userID, resourceID, message string) error

	// Close flushes any buffered events
	Close() error
}

// NoOpLogger discards every event. Used when auditing is disabled.
type NoOpLogger struct{}

func (NoOpLogger) Log(context.Context, *Event) error { return nil }
func (NoOpLogger) LogAuthentication(context.Context, EventType, string, string, EventStatus, string) error {
	return nil
}
func (NoOpLogger) LogAccessDenied(context.Context, string, string, string, string) error { return nil }
func (NoOpLogger) LogOverrideChange(context.Context, EventType, string, string) error    { return nil }
func (NoOpLogger) LogDataMutation(context.Context, EventType, string, string, string, string, string) error {
	return nil
}
func (NoOpLogger) LogAdminAction(context.Context, EventType, string, string, string) error {
	return nil
}
func (NoOpLogger) Close() error { return nil }

func newEvent(eventType EventType, status EventStatus) *Event {
	return &Event{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Status:    status,
	}
}
