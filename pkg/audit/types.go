package audit

import "time"

// EventType represents the category of audit event
type EventType string

const (
	// Authentication events
	EventTypeAuthLogin       EventType = "auth.login"
	EventTypeAuthLoginFailed EventType = "auth.login_failed"
	EventTypeAuthLogout      EventType = "auth.logout"

	// Authorization events
	EventTypeAuthzAccessDenied EventType = "authz.access_denied"

	// Tenancy events
	EventTypeTenancyOverrideSet     EventType = "tenancy.override_set"
	EventTypeTenancyOverrideCleared EventType = "tenancy.override_cleared"

	// Data mutation events
	EventTypeDataRecordCreate EventType = "data.record_create"
	EventTypeDataRecordUpdate EventType = "data.record_update"
	EventTypeDataRecordDelete EventType = "data.record_delete"

	// Admin events
	EventTypeAdminTenantCreate    EventType = "admin.tenant_create"
	EventTypeAdminTenantUpdate    EventType = "admin.tenant_update"
	EventTypeAdminTenantDelete    EventType = "admin.tenant_delete"
	EventTypeAdminTenantProvision EventType = "admin.tenant_provision"
	EventTypeAdminUserCreate      EventType = "admin.user_create"
	EventTypeAdminUserDelete      EventType = "admin.user_delete"
	EventTypeAdminUserPromote     EventType = "admin.user_promote"
)

// EventStatus represents the outcome of an event
type EventStatus string

const (
	EventStatusSuccess EventStatus = "success"
	EventStatusFailure EventStatus = "failure"
	EventStatusDenied  EventStatus = "denied"
)

// Event represents a single audit log entry
type Event struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	EventType EventType   `json:"event_type"`
	Status    EventStatus `json:"status"`

	// Actor information
	UserID   string `json:"user_id,omitempty"`
	Email    string `json:"email,omitempty"`
	TenantID string `json:"tenant_id,omitempty"`
	// ViewingTenant records an active override at the time of the event.
	ViewingTenant string `json:"viewing_tenant,omitempty"`

	// Resource information
	Collection string `json:"collection,omitempty"`
	ResourceID string `json:"resource_id,omitempty"`

	// Request context
	IPAddress string `json:"ip_address,omitempty"`
	RequestID string `json:"request_id,omitempty"`

	Message      string                 `json:"message,omitempty"`
	ErrorMessage string                 `json:"error_message,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// Query filters audit events when listing
type Query struct {
	EventType  EventType
	Status     EventStatus
	UserID     string
	TenantID   string
	Collection string
	Since      time.Time
	Until      time.Time
	Limit      int
	Offset     int
}
