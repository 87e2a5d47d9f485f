package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/sitehaven/sitehaven/pkg/access"
	"github.com/sitehaven/sitehaven/pkg/audit"
	"github.com/sitehaven/sitehaven/pkg/auth"
	"github.com/sitehaven/sitehaven/pkg/contextkeys"
	"github.com/sitehaven/sitehaven/pkg/httputil"
	"github.com/sitehaven/sitehaven/pkg/middleware"
	"github.com/sitehaven/sitehaven/pkg/observability"
	"github.com/sitehaven/sitehaven/pkg/resources"
)

// ResourceHandlers serves generic collection CRUD. Every operation runs
// through the collection's policy; the resulting verdict travels with
// the storage call so scoping happens in one place.
type ResourceHandlers struct {
	registry resources.Registry
	store    resources.Store
	names    *resources.NameResolver
	audit    audit.Logger
	metrics  *observability.Metrics
}

// NewResourceHandlers creates collection CRUD handlers
func NewResourceHandlers(registry resources.Registry, store resources.Store, names *resources.NameResolver, auditLogger audit.Logger, metrics *observability.Metrics) *ResourceHandlers {
	if auditLogger == nil {
		auditLogger = audit.NoOpLogger{}
	}
	return &ResourceHandlers{
		registry: registry,
		store:    store,
		names:    names,
		audit:    auditLogger,
		metrics:  metrics,
	}
}

// RegisterRoutes registers collection routes
func (h *ResourceHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/{collection}", h.listRecords).Methods("GET")
	router.HandleFunc("/api/{collection}", h.createRecord).Methods("POST")
	router.HandleFunc("/api/{collection}/{id}", h.getRecord).Methods("GET")
	router.HandleFunc("/api/{collection}/{id}", h.updateRecord).Methods("PATCH")
	router.HandleFunc("/api/{collection}/{id}", h.deleteRecord).Methods("DELETE")
}

// resolve looks up the collection and evaluates its policy, writing the
// rejection response when the operation is not permitted.
func (h *ResourceHandlers) resolve(w http.ResponseWriter, r *http.Request, op access.Operation) (resources.Collection, access.Verdict, bool) {
	slug, err := httputil.PathParam(r, "collection")
	if err != nil {
		httputil.WriteBadRequest(w, "collection is required")
		return resources.Collection{}, access.Deny(), false
	}

	col, known := h.registry.Get(slug)
	if !known {
		httputil.WriteNotFound(w, "unknown collection")
		return resources.Collection{}, access.Deny(), false
	}

	caller := middleware.CallerFrom(r)
	verdict := col.Policy.Decide(op, caller, contextkeys.ViewingTenant(r.Context()))
	if h.metrics != nil {
		h.metrics.RecordDecision(slug, string(op), verdict.String())
	}
	if !verdict.Permits() {
		if caller == nil {
			httputil.WriteUnauthenticated(w)
		} else {
			_ = h.audit.LogAccessDenied(r.Context(), caller.ID, slug, "", string(op)+" rejected")
			httputil.WriteDenied(w)
		}
		return col, verdict, false
	}
	return col, verdict, true
}

func (h *ResourceHandlers) listRecords(w http.ResponseWriter, r *http.Request) {
	col, verdict, ok := h.resolve(w, r, access.OperationRead)
	if !ok {
		return
	}

	records, err := h.store.List(r.Context(), col.Slug, verdict)
	if err != nil {
		httputil.WriteInternalError(w)
		return
	}
	if records == nil {
		records = []*resources.Record{}
	}
	_ = httputil.WriteSuccess(w, records)
}

func (h *ResourceHandlers) getRecord(w http.ResponseWriter, r *http.Request) {
	col, verdict, ok := h.resolve(w, r, access.OperationRead)
	if !ok {
		return
	}

	id, err := httputil.PathParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "record id is required")
		return
	}

	record, err := h.store.Get(r.Context(), col.Slug, id, verdict)
	if err != nil {
		if errors.Is(err, resources.ErrRecordNotFound) {
			httputil.WriteNotFound(w, "record not found")
			return
		}
		httputil.WriteInternalError(w)
		return
	}
	_ = httputil.WriteSuccess(w, record)
}

type recordRequest struct {
	Name     string                 `json:"name,omitempty"`
	TenantID string                 `json:"tenant_id,omitempty"`
	Data     map[string]interface{} `json:"data,omitempty"`
}

func (h *ResourceHandlers) createRecord(w http.ResponseWriter, r *http.Request) {
	col, verdict, ok := h.resolve(w, r, access.OperationCreate)
	if !ok {
		return
	}
	caller := middleware.CallerFrom(r)

	var req recordRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	tenantID := access.AssignTenant(caller, access.OperationCreate, req.TenantID)
	// Only global-privileged callers may pick the owner tenant; everyone
	// else stays inside their home tenant.
	if caller != nil && !caller.IsSuperAdmin && tenantID != caller.HomeTenant() {
		_ = h.audit.LogAccessDenied(r.Context(), callerID(caller), col.Slug, "", "create outside home tenant")
		httputil.WriteDenied(w)
		return
	}
	// A scoped create verdict means a super-admin is working inside a
	// selected tenant; the selection supplies the owner and pins the
	// write surface to that one tenant.
	if filter := verdict.Filter(); filter != nil {
		if tenantID == "" {
			tenantID = filter.Equals
		} else if tenantID != filter.Equals {
			_ = h.audit.LogAccessDenied(r.Context(), callerID(caller), col.Slug, "", "create outside selected tenant")
			httputil.WriteDenied(w)
			return
		}
	}
	if tenantID == "" {
		httputil.WriteBadRequest(w, "tenant_id is required")
		return
	}

	if col.Singleton {
		existingID, exists, err := h.store.SingletonExists(r.Context(), col.Slug, tenantID)
		if err != nil {
			httputil.WriteInternalError(w)
			return
		}
		if exists {
			httputil.WriteConflict(w, singletonConflictMessage(col.Slug, existingID))
			return
		}
	}

	now := time.Now().UTC()
	record := &resources.Record{
		ID:         uuid.NewString(),
		Collection: col.Slug,
		TenantID:   tenantID,
		Name:       req.Name,
		Data:       req.Data,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if h.names != nil {
		if err := h.names.ApplyDerivedName(r.Context(), col, record); err != nil {
			httputil.WriteInternalError(w)
			return
		}
	}

	if err := h.store.Create(r.Context(), record); err != nil {
		// The partial unique index is authoritative; the pre-check
		// above only improves the error message.
		var dup *access.DuplicateSingletonError
		if errors.As(err, &dup) {
			httputil.WriteConflict(w, singletonConflictMessage(dup.Collection, dup.ExistingID))
			return
		}
		httputil.WriteInternalError(w)
		return
	}

	_ = h.audit.LogDataMutation(r.Context(), audit.EventTypeDataRecordCreate, callerID(caller), tenantID, col.Slug, record.ID, "record created")
	_ = httputil.WriteCreated(w, record)
}

func (h *ResourceHandlers) updateRecord(w http.ResponseWriter, r *http.Request) {
	col, verdict, ok := h.resolve(w, r, access.OperationUpdate)
	if !ok {
		return
	}
	caller := middleware.CallerFrom(r)

	id, err := httputil.PathParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "record id is required")
		return
	}

	var req recordRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	record := &resources.Record{
		ID:         id,
		Collection: col.Slug,
		Name:       req.Name,
		Data:       req.Data,
		UpdatedAt:  time.Now().UTC(),
	}

	if err := h.store.Update(r.Context(), record, verdict); err != nil {
		if errors.Is(err, resources.ErrRecordNotFound) {
			httputil.WriteNotFound(w, "record not found")
			return
		}
		httputil.WriteInternalError(w)
		return
	}

	updated, err := h.store.Get(r.Context(), col.Slug, id, verdict)
	if err != nil {
		httputil.WriteInternalError(w)
		return
	}

	_ = h.audit.LogDataMutation(r.Context(), audit.EventTypeDataRecordUpdate, callerID(caller), updated.TenantID, col.Slug, id, "record updated")
	_ = httputil.WriteSuccess(w, updated)
}

func (h *ResourceHandlers) deleteRecord(w http.ResponseWriter, r *http.Request) {
	col, verdict, ok := h.resolve(w, r, access.OperationDelete)
	if !ok {
		return
	}
	caller := middleware.CallerFrom(r)

	id, err := httputil.PathParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "record id is required")
		return
	}

	if err := h.store.Delete(r.Context(), col.Slug, id, verdict); err != nil {
		if errors.Is(err, resources.ErrRecordNotFound) {
			httputil.WriteNotFound(w, "record not found")
			return
		}
		httputil.WriteInternalError(w)
		return
	}

	_ = h.audit.LogDataMutation(r.Context(), audit.EventTypeDataRecordDelete, callerID(caller), "", col.Slug, id, "record deleted")
	httputil.WriteNoContent(w)
}

func singletonConflictMessage(collection, existingID string) string {
	return fmt.Sprintf("%s already exists for this tenant; edit record %s instead", collection, existingID)
}

func callerID(u *auth.User) string {
	if u == nil {
		return ""
	}
	return u.ID
}
