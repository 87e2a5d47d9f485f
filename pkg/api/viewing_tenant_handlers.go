package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/sitehaven/sitehaven/pkg/audit"
	"github.com/sitehaven/sitehaven/pkg/contextkeys"
	"github.com/sitehaven/sitehaven/pkg/httputil"
	"github.com/sitehaven/sitehaven/pkg/middleware"
	"github.com/sitehaven/sitehaven/pkg/observability"
	"github.com/sitehaven/sitehaven/pkg/tenantctx"
)

// DefaultCookieMaxAge is how long a viewing-tenant selection persists.
const DefaultCookieMaxAge = 7 * 24 * time.Hour

// CookieConfig controls the viewing-tenant cookie attributes
type CookieConfig struct {
	Secure bool
	Domain string
	MaxAge time.Duration
}

// ViewingTenantHandlers serves the override channel. Setting the
// override is restricted to super-admin callers; everyone else's
// requests never reach the handler.
type ViewingTenantHandlers struct {
	cookies CookieConfig
	audit   audit.Logger
	metrics *observability.Metrics
}

// NewViewingTenantHandlers creates override-channel handlers
func NewViewingTenantHandlers(cookies CookieConfig, auditLogger audit.Logger, metrics *observability.Metrics) *ViewingTenantHandlers {
	if cookies.MaxAge <= 0 {
		cookies.MaxAge = DefaultCookieMaxAge
	}
	if auditLogger == nil {
		auditLogger = audit.NoOpLogger{}
	}
	return &ViewingTenantHandlers{
		cookies: cookies,
		audit:   auditLogger,
		metrics: metrics,
	}
}

// RegisterRoutes registers the override-channel routes. Both verbs live
// on /api/set-viewing-tenant; /api/viewing-tenant is a read alias.
func (h *ViewingTenantHandlers) RegisterRoutes(router *mux.Router) {
	router.Handle("/api/set-viewing-tenant", middleware.RequireSuperAdmin(http.HandlerFunc(h.set))).Methods("POST")
	router.HandleFunc("/api/set-viewing-tenant", h.get).Methods("GET")
	router.HandleFunc("/api/viewing-tenant", h.get).Methods("GET")
}

type setViewingTenantRequest struct {
	TenantID string `json:"tenant_id"`
}

type viewingTenantResponse struct {
	Success       bool    `json:"success"`
	ViewingTenant *string `json:"viewingTenant"`
}

// set persists or clears the caller's viewing-tenant selection. The
// values "" and "all" both clear it, restoring the all-tenants view.
func (h *ViewingTenantHandlers) set(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFrom(r)

	var req setViewingTenantRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	clearing := req.TenantID == "" || req.TenantID == "all"

	cookie := &http.Cookie{
		Name:     tenantctx.ViewingTenantCookie,
		Path:     "/",
		Domain:   h.cookies.Domain,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if clearing {
		cookie.Value = ""
		cookie.MaxAge = -1
	} else {
		cookie.Value = req.TenantID
		cookie.MaxAge = int(h.cookies.MaxAge.Seconds())
	}
	http.SetCookie(w, cookie)

	resp := viewingTenantResponse{Success: true}
	if clearing {
		if h.metrics != nil {
			h.metrics.RecordOverrideChange("cleared")
		}
		_ = h.audit.LogOverrideChange(r.Context(), audit.EventTypeTenancyOverrideCleared, caller.ID, "")
	} else {
		resp.ViewingTenant = &req.TenantID
		if h.metrics != nil {
			h.metrics.RecordOverrideChange("set")
		}
		_ = h.audit.LogOverrideChange(r.Context(), audit.EventTypeTenancyOverrideSet, caller.ID, req.TenantID)
	}
	_ = httputil.WriteSuccess(w, resp)
}

// get reports the caller's current selection. For non-super-admins it
// always reports none, matching the override's lack of effect.
func (h *ViewingTenantHandlers) get(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFrom(r)
	if caller == nil {
		httputil.WriteUnauthenticated(w)
		return
	}

	resp := viewingTenantResponse{Success: true}
	if caller.IsSuperAdmin {
		if viewing := contextkeys.ViewingTenant(r.Context()); viewing != "" {
			resp.ViewingTenant = &viewing
		}
	}
	_ = httputil.WriteSuccess(w, resp)
}
