package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DBLogger implements audit logging to a SQL database. The audit_events
// schema is owned by the migration set; the logger only reads and writes.
type DBLogger struct {
	db *sql.DB
}

// NewDBLogger creates a new database-backed audit logger
func NewDBLogger(db *sql.DB) (*DBLogger, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	return &DBLogger{db: db}, nil
}

// Log writes an audit event to the database
func (l *DBLogger) Log(ctx context.Context, event *Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	var metadataJSON []byte
	if event.Metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(event.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
	}

	query := `
		INSERT INTO audit_events (
			id, event_type, status,
			user_id, email, tenant_id, viewing_tenant,
			collection, resource_id,
			ip_address, request_id,
			message, error_message, metadata, created_at
		) VALUES (
			$1, $2, $3,
			$4, $5, $6, $7,
			$8, $9,
			$10, $11,
			$12, $13, $14, $15
		)
	`

	_, err := l.db.ExecContext(ctx, query,
		event.ID, event.EventType, event.Status,
		event.UserID, event.Email, event.TenantID, event.ViewingTenant,
		event.Collection, event.ResourceID,
		event.IPAddress, event.RequestID,
		event.Message, event.ErrorMessage, nullableString(metadataJSON), event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to write audit event: %w", err)
	}
	return nil
}

// LogAuthentication records a login, logout, or failed login
func (l *DBLogger) LogAuthentication(ctx context.Context, eventType EventType, userID, email string, status EventStatus, message string) error {
	event := newEvent(eventType, status)
	event.UserID = userID
	event.Email = email
	event.Message = message
	return l.Log(ctx, event)
}

// LogAccessDenied records a rejected operation against a collection
func (l *DBLogger) LogAccessDenied(ctx context.Context, userID, collection, resourceID, message string) error {
	event := newEvent(EventTypeAuthzAccessDenied, EventStatusDenied)
	event.UserID = userID
	event.Collection = collection
	event.ResourceID = resourceID
	event.Message = message
	return l.Log(ctx, event)
}

// LogOverrideChange records a viewing-tenant override being set or cleared
func (l *DBLogger) LogOverrideChange(ctx context.Context, eventType EventType, userID, viewingTenant string) error {
	event := newEvent(eventType, EventStatusSuccess)
	event.UserID = userID
	event.ViewingTenant = viewingTenant
	return l.Log(ctx, event)
}

// LogDataMutation records a create, update, or delete on a record
func (l *DBLogger) LogDataMutation(ctx context.Context, eventType EventType, userID, tenantID, collection, resourceID, message string) error {
	event := newEvent(eventType, EventStatusSuccess)
	event.UserID = userID
	event.TenantID = tenantID
	event.Collection = collection
	event.ResourceID = resourceID
	event.Message = message
	return l.Log(ctx, event)
}

// LogAdminAction records tenant or user administration
func (l *DBLogger) LogAdminAction(ctx context.Context, eventType EventType, userID, resourceID, message string) error {
	event := newEvent(eventType, EventStatusSuccess)
	event.UserID = userID
	event.ResourceID = resourceID
	event.Message = message
	return l.Log(ctx, event)
}

// Close is a no-op; the logger does not own the database handle
func (l *DBLogger) Close() error { return nil }

// List returns events matching the query, newest first
func (l *DBLogger) List(ctx context.Context, q Query) ([]*Event, error) {
	var conditions []string
	var args []interface{}
	idx := 1

	add := func(column string, value interface{}) {
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, idx))
		args = append(args, value)
		idx++
	}

	if q.EventType != "" {
		add("event_type", string(q.EventType))
	}
	if q.Status != "" {
		add("status", string(q.Status))
	}
	if q.UserID != "" {
		add("user_id", q.UserID)
	}
	if q.TenantID != "" {
		add("tenant_id", q.TenantID)
	}
	if q.Collection != "" {
		add("collection", q.Collection)
	}
	if !q.Since.IsZero() {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", idx))
		args = append(args, q.Since)
		idx++
	}
	if !q.Until.IsZero() {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", idx))
		args = append(args, q.Until)
		idx++
	}

	query := `
		SELECT id, event_type, status,
			user_id, email, tenant_id, viewing_tenant,
			collection, resource_id,
			ip_address, request_id,
			message, error_message, metadata, created_at
		FROM audit_events
	`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	limit := q.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	query += fmt.Sprintf(" LIMIT $%d", idx)
	args = append(args, limit)
	idx++
	if q.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", idx)
		args = append(args, q.Offset)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func scanEvent(rows *sql.Rows) (*Event, error) {
	var event Event
	var userID, email, tenantID, viewingTenant sql.NullString
	var collection, resourceID, ipAddress, requestID sql.NullString
	var message, errorMessage, metadataJSON sql.NullString

	err := rows.Scan(
		&event.ID, &event.EventType, &event.Status,
		&userID, &email, &tenantID, &viewingTenant,
		&collection, &resourceID,
		&ipAddress, &requestID,
		&message, &errorMessage, &metadataJSON, &event.Timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan audit event: %w", err)
	}

	event.UserID = userID.String
	event.Email = email.String
	event.TenantID = tenantID.String
	event.ViewingTenant = viewingTenant.String
	event.Collection = collection.String
	event.ResourceID = resourceID.String
	event.IPAddress = ipAddress.String
	event.RequestID = requestID.String
	event.Message = message.String
	event.ErrorMessage = errorMessage.String

	if metadataJSON.Valid && metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &event.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return &event, nil
}

func nullableString(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
