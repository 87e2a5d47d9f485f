package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/sitehaven/sitehaven/pkg/access"
	"github.com/sitehaven/sitehaven/pkg/audit"
	"github.com/sitehaven/sitehaven/pkg/contextkeys"
	"github.com/sitehaven/sitehaven/pkg/httputil"
	"github.com/sitehaven/sitehaven/pkg/middleware"
	"github.com/sitehaven/sitehaven/pkg/observability"
	"github.com/sitehaven/sitehaven/pkg/provision"
	"github.com/sitehaven/sitehaven/pkg/resources"
	"github.com/sitehaven/sitehaven/pkg/tenants"
)

// TenantHandlers serves tenant administration. Writes are restricted to
// super-admin callers; tenant members can read their own tenant.
type TenantHandlers struct {
	service     tenants.Service
	provisioner *provision.Provisioner
	names       *resources.NameResolver
	policy      access.CollectionPolicy
	audit       audit.Logger
	metrics     *observability.Metrics
}

// NewTenantHandlers creates tenant administration handlers
func NewTenantHandlers(service tenants.Service, provisioner *provision.Provisioner, names *resources.NameResolver, auditLogger audit.Logger, metrics *observability.Metrics) *TenantHandlers {
	if auditLogger == nil {
		auditLogger = audit.NoOpLogger{}
	}
	return &TenantHandlers{
		service:     service,
		provisioner: provisioner,
		names:       names,
		policy:      access.TenantsPolicy(),
		audit:       auditLogger,
		metrics:     metrics,
	}
}

// RegisterRoutes registers tenant routes
func (h *TenantHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/tenants", h.listTenants).Methods("GET")
	router.HandleFunc("/api/tenants", h.createTenant).Methods("POST")
	router.Handle("/api/tenants/provision", middleware.RequireSuperAdmin(http.HandlerFunc(h.provisionTenant))).Methods("POST")
	router.HandleFunc("/api/tenants/{id}", h.getTenant).Methods("GET")
	router.HandleFunc("/api/tenants/{id}", h.updateTenant).Methods("PATCH")
	router.HandleFunc("/api/tenants/{id}", h.deleteTenant).Methods("DELETE")
}

// decide evaluates the tenants policy and writes the rejection when the
// operation is not permitted.
func (h *TenantHandlers) decide(w http.ResponseWriter, r *http.Request, op access.Operation) (access.Verdict, bool) {
	caller := middleware.CallerFrom(r)
	verdict := h.policy.Decide(op, caller, contextkeys.ViewingTenant(r.Context()))
	if h.metrics != nil {
		h.metrics.RecordDecision("tenants", string(op), verdict.String())
	}
	if !verdict.Permits() {
		if caller == nil {
			httputil.WriteUnauthenticated(w)
		} else {
			_ = h.audit.LogAccessDenied(r.Context(), caller.ID, "tenants", "", string(op)+" rejected")
			httputil.WriteDenied(w)
		}
		return verdict, false
	}
	return verdict, true
}

func (h *TenantHandlers) listTenants(w http.ResponseWriter, r *http.Request) {
	verdict, ok := h.decide(w, r, access.OperationRead)
	if !ok {
		return
	}

	// A scoped verdict limits a member to their own tenant record.
	if filter := verdict.Filter(); filter != nil {
		tenant, err := h.service.GetTenant(r.Context(), filter.Equals)
		if err != nil {
			if errors.Is(err, tenants.ErrTenantNotFound) {
				_ = httputil.WriteSuccess(w, []*tenants.Tenant{})
				return
			}
			httputil.WriteInternalError(w)
			return
		}
		_ = httputil.WriteSuccess(w, []*tenants.Tenant{tenant})
		return
	}

	list, err := h.service.ListTenants(r.Context())
	if err != nil {
		httputil.WriteInternalError(w)
		return
	}
	if list == nil {
		list = []*tenants.Tenant{}
	}
	_ = httputil.WriteSuccess(w, list)
}

func (h *TenantHandlers) getTenant(w http.ResponseWriter, r *http.Request) {
	verdict, ok := h.decide(w, r, access.OperationRead)
	if !ok {
		return
	}

	id, err := httputil.PathParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "tenant id is required")
		return
	}

	// Out-of-scope reads are indistinguishable from missing records.
	if filter := verdict.Filter(); filter != nil && !filter.Matches(id) {
		httputil.WriteNotFound(w, "tenant not found")
		return
	}

	tenant, err := h.service.GetTenant(r.Context(), id)
	if err != nil {
		if errors.Is(err, tenants.ErrTenantNotFound) {
			httputil.WriteNotFound(w, "tenant not found")
			return
		}
		httputil.WriteInternalError(w)
		return
	}
	_ = httputil.WriteSuccess(w, tenant)
}

func (h *TenantHandlers) createTenant(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.decide(w, r, access.OperationCreate); !ok {
		return
	}
	caller := middleware.CallerFrom(r)

	var req tenants.CreateTenantRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Name == "" {
		httputil.WriteBadRequest(w, "name is required")
		return
	}
	if err := tenants.ValidateDomain(req.Domain); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	status := req.Status
	if status == "" {
		status = tenants.TenantStatusActive
	}
	now := time.Now().UTC()
	tenant := &tenants.Tenant{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Domain:    req.Domain,
		Status:    status,
		Settings:  req.Settings,
		Metadata:  req.Metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.service.CreateTenant(r.Context(), tenant); err != nil {
		if errors.Is(err, tenants.ErrDomainTaken) {
			httputil.WriteConflict(w, "domain is already in use")
			return
		}
		httputil.WriteInternalError(w)
		return
	}

	_ = h.audit.LogAdminAction(r.Context(), audit.EventTypeAdminTenantCreate, caller.ID, tenant.ID, "tenant created")
	_ = httputil.WriteCreated(w, tenant)
}

func (h *TenantHandlers) updateTenant(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.decide(w, r, access.OperationUpdate); !ok {
		return
	}
	caller := middleware.CallerFrom(r)

	id, err := httputil.PathParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "tenant id is required")
		return
	}

	var req tenants.UpdateTenantRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	tenant, err := h.service.GetTenant(r.Context(), id)
	if err != nil {
		if errors.Is(err, tenants.ErrTenantNotFound) {
			httputil.WriteNotFound(w, "tenant not found")
			return
		}
		httputil.WriteInternalError(w)
		return
	}

	if req.Name != nil {
		tenant.Name = *req.Name
	}
	if req.Domain != nil {
		if err := tenants.ValidateDomain(*req.Domain); err != nil {
			httputil.WriteBadRequest(w, err.Error())
			return
		}
		tenant.Domain = *req.Domain
	}
	if req.Status != nil {
		tenant.Status = *req.Status
	}
	if req.Settings != nil {
		tenant.Settings = *req.Settings
	}
	if req.Metadata != nil {
		tenant.Metadata = *req.Metadata
	}

	if err := h.service.UpdateTenant(r.Context(), tenant); err != nil {
		if errors.Is(err, tenants.ErrDomainTaken) {
			httputil.WriteConflict(w, "domain is already in use")
			return
		}
		httputil.WriteInternalError(w)
		return
	}

	// Renames invalidate the cached display name used for derived
	// record titles.
	if h.names != nil && req.Name != nil {
		h.names.Invalidate(tenant.ID)
	}

	_ = h.audit.LogAdminAction(r.Context(), audit.EventTypeAdminTenantUpdate, caller.ID, tenant.ID, "tenant updated")
	_ = httputil.WriteSuccess(w, tenant)
}

func (h *TenantHandlers) deleteTenant(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.decide(w, r, access.OperationDelete); !ok {
		return
	}
	caller := middleware.CallerFrom(r)

	id, err := httputil.PathParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "tenant id is required")
		return
	}

	if err := h.service.DeleteTenant(r.Context(), id); err != nil {
		if errors.Is(err, tenants.ErrTenantNotFound) {
			httputil.WriteNotFound(w, "tenant not found")
			return
		}
		httputil.WriteInternalError(w)
		return
	}

	if h.names != nil {
		h.names.Invalidate(id)
	}

	_ = h.audit.LogAdminAction(r.Context(), audit.EventTypeAdminTenantDelete, caller.ID, id, "tenant deleted")
	httputil.WriteNoContent(w)
}

func (h *TenantHandlers) provisionTenant(w http.ResponseWriter, r *http.Request) {
	if h.provisioner == nil {
		httputil.WriteErrorMessage(w, http.StatusNotImplemented, "provisioning is not configured")
		return
	}
	caller := middleware.CallerFrom(r)

	var req provision.Request
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	result, err := h.provisioner.Provision(r.Context(), &req)
	if err != nil {
		if errors.Is(err, tenants.ErrDomainTaken) {
			httputil.WriteConflict(w, "domain is already in use")
			return
		}
		if validationErr := req.Validate(); validationErr != nil {
			httputil.WriteBadRequest(w, validationErr.Error())
			return
		}
		httputil.WriteInternalError(w)
		return
	}

	_ = h.audit.LogAdminAction(r.Context(), audit.EventTypeAdminTenantProvision, caller.ID, result.Tenant.ID, "tenant provisioned")
	_ = httputil.WriteCreated(w, result)
}
