package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/sitehaven/sitehaven/pkg/audit"
	"github.com/sitehaven/sitehaven/pkg/auth"
	"github.com/sitehaven/sitehaven/pkg/contextkeys"
	"github.com/sitehaven/sitehaven/pkg/httputil"
	"github.com/sitehaven/sitehaven/pkg/middleware"
	"github.com/sitehaven/sitehaven/pkg/observability"
)

// SessionService is the session lifecycle the API needs
type SessionService interface {
	Login(ctx context.Context, email, password string) (*auth.Session, string, error)
	Validate(ctx context.Context, token string) (*auth.User, *auth.Session, error)
	Logout(ctx context.Context, token string) error
}

// AuthHandlers serves login, logout, and the current-user endpoint
type AuthHandlers struct {
	sessions SessionService
	audit    audit.Logger
	logger   *observability.Logger
}

// NewAuthHandlers creates auth handlers
func NewAuthHandlers(sessions SessionService, auditLogger audit.Logger, logger *observability.Logger) *AuthHandlers {
	if auditLogger == nil {
		auditLogger = audit.NoOpLogger{}
	}
	return &AuthHandlers{
		sessions: sessions,
		audit:    auditLogger,
		logger:   logger,
	}
}

// RegisterRoutes registers authentication routes
func (h *AuthHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/users/login", h.login).Methods("POST")
	router.HandleFunc("/api/users/logout", h.logout).Methods("POST")
	router.HandleFunc("/api/users/me", h.me).Methods("GET")
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string     `json:"token"`
	User  *auth.User `json:"user"`
}

func (h *AuthHandlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		httputil.WriteBadRequest(w, "email and password are required")
		return
	}

	session, token, err := h.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		_ = h.audit.LogAuthentication(r.Context(), audit.EventTypeAuthLoginFailed, "", req.Email, audit.EventStatusFailure, "login rejected")
		// One message for every failure mode so callers cannot probe
		// which accounts exist.
		httputil.WriteErrorMessage(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	user, _, err := h.sessions.Validate(r.Context(), token)
	if err != nil {
		httputil.WriteInternalError(w)
		return
	}

	_ = h.audit.LogAuthentication(r.Context(), audit.EventTypeAuthLogin, session.UserID, req.Email, audit.EventStatusSuccess, "logged in")
	_ = httputil.WriteSuccess(w, loginResponse{Token: token, User: user})
}

func (h *AuthHandlers) logout(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFrom(r)
	if caller == nil {
		httputil.WriteUnauthenticated(w)
		return
	}

	token := bearerToken(r)
	if err := h.sessions.Logout(r.Context(), token); err != nil {
		httputil.WriteInternalError(w)
		return
	}

	_ = h.audit.LogAuthentication(r.Context(), audit.EventTypeAuthLogout, caller.ID, caller.Email, audit.EventStatusSuccess, "logged out")
	httputil.WriteNoContent(w)
}

type meResponse struct {
	User          *auth.User `json:"user"`
	ViewingTenant string     `json:"viewing_tenant,omitempty"`
}

func (h *AuthHandlers) me(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFrom(r)
	if caller == nil {
		httputil.WriteUnauthenticated(w)
		return
	}

	resp := meResponse{User: caller}
	if caller.IsSuperAdmin {
		resp.ViewingTenant = contextkeys.ViewingTenant(r.Context())
	}
	_ = httputil.WriteSuccess(w, resp)
}

func bearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
