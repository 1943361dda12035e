package api

import (
	"net/http"

	"github.com/scolaris/scolaris/pkg/audit"
	"github.com/scolaris/scolaris/pkg/auth"
	"github.com/scolaris/scolaris/pkg/billing"
	"github.com/scolaris/scolaris/pkg/middleware"
)

// route declares one endpoint's authorization requirements. Handlers never
// re-check what the table already enforces.
type route struct {
	method  string
	path    string
	handler http.HandlerFunc

	// authRequired rejects anonymous requests; false still attaches a
	// principal when a valid token is presented.
	authRequired bool

	// requireSchool demands a resolved school scope (super admins pass
	// unscoped).
	requireSchool bool

	// roles restricts the route to these roles; empty means any
	// authenticated role.
	roles []auth.Role

	// feature gates the route on the school's subscription plan
	feature billing.FeatureName

	// strictLimit applies the credential-route rate policy instead of the
	// general one.
	strictLimit bool
}

func (s *Server) routes() []route {
	adminRoles := []auth.Role{auth.RoleSuperAdmin, auth.RoleAdmin, auth.RoleRegistrar}

	return []route{
		{method: http.MethodPost, path: "/api/auth/login", handler: s.handleLogin, strictLimit: true},
		{method: http.MethodGet, path: "/api/auth/me", handler: s.handleMe, authRequired: true},

		{method: http.MethodGet, path: "/api/subscription", handler: s.handleGetSubscription, authRequired: true, requireSchool: true},

		{method: http.MethodGet, path: "/api/students", handler: s.handleListStudents, authRequired: true, requireSchool: true},
		{method: http.MethodPost, path: "/api/students", handler: s.handleCreateStudent, authRequired: true, requireSchool: true, roles: adminRoles},
		{method: http.MethodGet, path: "/api/students/{id}", handler: s.handleGetStudent, authRequired: true, requireSchool: true},
		{method: http.MethodPut, path: "/api/students/{id}", handler: s.handleUpdateStudent, authRequired: true, requireSchool: true, roles: adminRoles},
		{method: http.MethodDelete, path: "/api/students/{id}", handler: s.handleDeleteStudent, authRequired: true, requireSchool: true, roles: adminRoles},

		{method: http.MethodGet, path: "/api/notifications", handler: s.handleListNotifications, authRequired: true},
		{method: http.MethodPost, path: "/api/notifications/mark-all-read", handler: s.handleMarkAllRead, authRequired: true, feature: billing.FeatureMessaging},
	}
}

// setupRoutes registers every route with its gate chain composed from the
// table. Order per route: RateLimit -> Auth -> Tenant -> RoleGate ->
// FeatureGate -> handler.
func (s *Server) setupRoutes() {
	for _, rt := range s.routes() {
		var h http.Handler = rt.handler

		if rt.feature != "" {
			h = s.featureGate.Require(rt.feature)(h)
		}
		if len(rt.roles) > 0 {
			h = middleware.RequireRole(s.metrics, rt.roles...)(h)
		}
		if rt.requireSchool {
			h = middleware.RequireSchoolContext(s.metrics)(h)
		}

		h = s.tenantMW.Handler(h)
		if rt.authRequired {
			h = s.authMW.Require(h)
		} else {
			h = s.authMW.Optional(h)
		}

		if rt.strictLimit {
			h = s.authLimiter.Handler(h)
		} else {
			h = s.apiLimiter.Handler(h)
		}

		// First stage inside the router: mux vars exist only here, and the
		// interceptor outside needs the path entity even for gate denials.
		h = audit.EntityFromRoute(h)

		s.router.Handle(rt.path, h).Methods(rt.method)
	}
}
