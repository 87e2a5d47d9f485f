package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/sitehaven/sitehaven/pkg/audit"
	"github.com/sitehaven/sitehaven/pkg/auth"
	"github.com/sitehaven/sitehaven/pkg/httputil"
	"github.com/sitehaven/sitehaven/pkg/middleware"
)

// UserHandlers serves user administration. Creation and deletion are
// super-admin operations; reads are scoped to the caller's tenant and
// updates to the caller's own account.
type UserHandlers struct {
	users auth.UserStore
	audit audit.Logger
}

// NewUserHandlers creates user administration handlers
func NewUserHandlers(users auth.UserStore, auditLogger audit.Logger) *UserHandlers {
	if auditLogger == nil {
		auditLogger = audit.NoOpLogger{}
	}
	return &UserHandlers{users: users, audit: auditLogger}
}

// RegisterRoutes registers user routes
func (h *UserHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/users", h.listUsers).Methods("GET")
	router.Handle("/api/users", middleware.RequireSuperAdmin(http.HandlerFunc(h.createUser))).Methods("POST")
	router.HandleFunc("/api/users/{id}", h.getUser).Methods("GET")
	router.HandleFunc("/api/users/{id}", h.updateUser).Methods("PATCH")
	router.Handle("/api/users/{id}", middleware.RequireSuperAdmin(http.HandlerFunc(h.deleteUser))).Methods("DELETE")
}

func (h *UserHandlers) listUsers(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFrom(r)
	if caller == nil {
		httputil.WriteUnauthenticated(w)
		return
	}

	// Super-admins pick the tenant explicitly; members always see
	// their own tenant's users.
	tenantID := caller.HomeTenant()
	if caller.IsSuperAdmin {
		tenantID = r.URL.Query().Get("tenant")
		if tenantID == "" {
			httputil.WriteBadRequest(w, "tenant query parameter is required")
			return
		}
	} else if tenantID == "" {
		httputil.WriteDenied(w)
		return
	}

	users, err := h.users.ListUsersByTenant(r.Context(), tenantID)
	if err != nil {
		httputil.WriteInternalError(w)
		return
	}
	if users == nil {
		users = []*auth.User{}
	}
	_ = httputil.WriteSuccess(w, users)
}

func (h *UserHandlers) getUser(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFrom(r)
	if caller == nil {
		httputil.WriteUnauthenticated(w)
		return
	}

	id, err := httputil.PathParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "user id is required")
		return
	}

	user, err := h.users.GetUser(r.Context(), id)
	if err != nil {
		httputil.WriteNotFound(w, "user not found")
		return
	}

	// Cross-tenant reads look like missing records.
	if !caller.IsSuperAdmin && user.HomeTenant() != caller.HomeTenant() {
		httputil.WriteNotFound(w, "user not found")
		return
	}
	_ = httputil.WriteSuccess(w, user)
}

type createUserRequest struct {
	Email    string    `json:"email"`
	Password string    `json:"password"`
	FullName string    `json:"full_name,omitempty"`
	TenantID string    `json:"tenant_id"`
	Role     auth.Role `json:"role"`
}

func (h *UserHandlers) createUser(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFrom(r)

	var req createUserRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !strings.Contains(req.Email, "@") {
		httputil.WriteBadRequest(w, "valid email is required")
		return
	}
	if len(req.Password) < 8 {
		httputil.WriteBadRequest(w, "password must be at least 8 characters")
		return
	}
	if req.TenantID == "" {
		httputil.WriteBadRequest(w, "tenant_id is required")
		return
	}
	if !auth.ValidRole(req.Role) {
		httputil.WriteBadRequest(w, "invalid role")
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		httputil.WriteInternalError(w)
		return
	}

	now := time.Now().UTC()
	tenantID := req.TenantID
	user := &auth.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		FullName:     req.FullName,
		TenantID:     &tenantID,
		Role:         req.Role,
		IsActive:     true,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.users.CreateUser(r.Context(), user); err != nil {
		httputil.WriteInternalError(w)
		return
	}

	_ = h.audit.LogAdminAction(r.Context(), audit.EventTypeAdminUserCreate, caller.ID, user.ID, "user created")
	_ = httputil.WriteCreated(w, user)
}

type updateUserRequest struct {
	FullName *string `json:"full_name,omitempty"`
	Password *string `json:"password,omitempty"`
	// Role changes are super-admin only and ignored for self-updates.
	Role *auth.Role `json:"role,omitempty"`
}

func (h *UserHandlers) updateUser(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFrom(r)
	if caller == nil {
		httputil.WriteUnauthenticated(w)
		return
	}

	id, err := httputil.PathParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "user id is required")
		return
	}

	if !caller.IsSuperAdmin && caller.ID != id {
		httputil.WriteDenied(w)
		return
	}

	var req updateUserRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	user, err := h.users.GetUser(r.Context(), id)
	if err != nil {
		httputil.WriteNotFound(w, "user not found")
		return
	}

	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Password != nil {
		if len(*req.Password) < 8 {
			httputil.WriteBadRequest(w, "password must be at least 8 characters")
			return
		}
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			httputil.WriteInternalError(w)
			return
		}
		user.PasswordHash = hash
	}
	if req.Role != nil && caller.IsSuperAdmin {
		if !auth.ValidRole(*req.Role) {
			httputil.WriteBadRequest(w, "invalid role")
			return
		}
		user.Role = *req.Role
	}
	user.UpdatedAt = time.Now().UTC()

	if err := h.users.UpdateUser(r.Context(), user); err != nil {
		httputil.WriteInternalError(w)
		return
	}
	_ = httputil.WriteSuccess(w, user)
}

func (h *UserHandlers) deleteUser(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFrom(r)

	id, err := httputil.PathParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "user id is required")
		return
	}

	if err := h.users.DeleteUser(r.Context(), id); err != nil {
		httputil.WriteNotFound(w, "user not found")
		return
	}

	_ = h.audit.LogAdminAction(r.Context(), audit.EventTypeAdminUserDelete, caller.ID, id, "user deleted")
	httputil.WriteNoContent(w)
}
