// Package api exposes the HTTP surface: authentication, tenant
// administration, the viewing-tenant override channel, and the generic
// collection CRUD endpoints.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sitehaven/sitehaven/pkg/audit"
	"github.com/sitehaven/sitehaven/pkg/auth"
	"github.com/sitehaven/sitehaven/pkg/middleware"
	"github.com/sitehaven/sitehaven/pkg/observability"
	"github.com/sitehaven/sitehaven/pkg/provision"
	"github.com/sitehaven/sitehaven/pkg/resources"
	"github.com/sitehaven/sitehaven/pkg/tenants"
)

// Dependencies holds everything the server needs. Audit, Metrics,
// RateLimiter, and Tracing are optional.
type Dependencies struct {
	Logger      *observability.Logger
	Sessions    SessionService
	Users       auth.UserStore
	Tenants     tenants.Service
	Store       resources.Store
	Names       *resources.NameResolver
	Registry    resources.Registry
	Provisioner *provision.Provisioner

	Audit       audit.Logger
	Metrics     *observability.Metrics
	RateLimiter *middleware.DistributedRateLimiter

	Cookies CookieConfig

	// TracingEnabled wraps the router with OpenTelemetry HTTP spans.
	TracingEnabled bool
}

// Server represents the API server
type Server struct {
	router  *mux.Router
	handler http.Handler
	logger  *observability.Logger
	metrics *observability.Metrics

	authHandlers     *AuthHandlers
	userHandlers     *UserHandlers
	viewingHandlers  *ViewingTenantHandlers
	tenantHandlers   *TenantHandlers
	resourceHandlers *ResourceHandlers
}

// NewServer creates a new API server and wires the middleware chain
func NewServer(deps Dependencies) *Server {
	if deps.Audit == nil {
		deps.Audit = audit.NoOpLogger{}
	}

	s := &Server{
		router:  mux.NewRouter(),
		logger:  deps.Logger,
		metrics: deps.Metrics,
	}

	s.authHandlers = NewAuthHandlers(deps.Sessions, deps.Audit, deps.Logger)
	if deps.Users != nil {
		s.userHandlers = NewUserHandlers(deps.Users, deps.Audit)
	}
	s.viewingHandlers = NewViewingTenantHandlers(deps.Cookies, deps.Audit, deps.Metrics)
	s.tenantHandlers = NewTenantHandlers(deps.Tenants, deps.Provisioner, deps.Names, deps.Audit, deps.Metrics)
	s.resourceHandlers = NewResourceHandlers(deps.Registry, deps.Store, deps.Names, deps.Audit, deps.Metrics)

	s.setupRoutes()

	// Middleware order matters: panic recovery outermost, then
	// throttling, then authentication, then the tenant signals the
	// handlers read.
	var handler http.Handler = s.router
	handler = middleware.SiteTenant(handler)
	handler = middleware.ViewingTenant(handler)
	handler = middleware.NewAuthMiddleware(deps.Sessions, true).Handler(handler)
	if deps.Metrics != nil {
		handler = deps.Metrics.Middleware("api")(handler)
	}
	if deps.RateLimiter != nil {
		handler = deps.RateLimiter.Handler(handler)
	}
	if deps.Logger != nil {
		handler = observability.PanicRecovery(deps.Logger)(handler)
	}
	if deps.TracingEnabled {
		handler = otelhttp.NewHandler(handler, "sitehaven.api")
	}
	s.handler = handler

	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	// Login/logout/me are registered before the user CRUD routes so the
	// fixed /api/users/{login,logout,me} paths win over /api/users/{id}.
	s.authHandlers.RegisterRoutes(s.router)
	if s.userHandlers != nil {
		s.userHandlers.RegisterRoutes(s.router)
	}
	s.viewingHandlers.RegisterRoutes(s.router)
	s.tenantHandlers.RegisterRoutes(s.router)

	// Collection routes go last: /api/{collection} is a catch-all.
	s.resourceHandlers.RegisterRoutes(s.router)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Router exposes the underlying router for route inspection in tests
func (s *Server) Router() *mux.Router {
	return s.router
}

// RouteRegistrar is an interface for types that can register routes
type RouteRegistrar interface {
	RegisterRoutes(router *mux.Router)
}
