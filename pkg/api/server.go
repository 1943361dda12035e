package api

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/scolaris/scolaris/pkg/audit"
	"github.com/scolaris/scolaris/pkg/auth"
	"github.com/scolaris/scolaris/pkg/billing"
	"github.com/scolaris/scolaris/pkg/config"
	"github.com/scolaris/scolaris/pkg/httputil"
	"github.com/scolaris/scolaris/pkg/middleware"
	"github.com/scolaris/scolaris/pkg/observability"
	"github.com/scolaris/scolaris/pkg/storage"
)

// Server is the HTTP API server
type Server struct {
	router  *mux.Router
	handler http.Handler

	metrics *observability.Metrics

	issuer *auth.Issuer

	users         *storage.UserStore
	students      *storage.StudentStore
	notifications *storage.NotificationStore
	billing       billing.Service

	authMW      *middleware.AuthMiddleware
	tenantMW    *middleware.TenantContextMiddleware
	apiLimiter  *middleware.RateLimiter
	authLimiter *middleware.RateLimiter
	featureGate *middleware.FeatureGate
	interceptor *audit.Interceptor
}

// Deps carries the server's collaborators. Logger and Metrics may be nil in
// tests; everything else is required.
type Deps struct {
	Config  *config.Config
	Logger  *observability.Logger
	Metrics *observability.Metrics

	Verifier *auth.Verifier
	Issuer   *auth.Issuer

	Users         *storage.UserStore
	Students      *storage.StudentStore
	Notifications *storage.NotificationStore
	Billing       billing.Service

	Counters middleware.CounterStore
	Recorder audit.Recorder
}

// NewServer creates the API server and registers all routes
func NewServer(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = observability.NewLogger(observability.InfoLevel, io.Discard)
	}

	s := &Server{
		router:        mux.NewRouter(),
		metrics:       deps.Metrics,
		issuer:        deps.Issuer,
		users:         deps.Users,
		students:      deps.Students,
		notifications: deps.Notifications,
		billing:       deps.Billing,
	}

	s.authMW = middleware.NewAuthMiddleware(deps.Verifier, deps.Logger, deps.Metrics)
	s.tenantMW = middleware.NewTenantContextMiddleware(deps.Logger)
	s.featureGate = middleware.NewFeatureGate(deps.Billing, deps.Logger, deps.Metrics)
	s.interceptor = audit.NewInterceptor(deps.Recorder, deps.Logger, deps.Metrics)

	apiPolicy := middleware.GeneralPolicy()
	authPolicy := middleware.AuthPolicy()
	if deps.Config != nil {
		apiPolicy.Limit = deps.Config.RateLimit.APILimit
		apiPolicy.Window = deps.Config.RateLimit.Window
		authPolicy.Limit = deps.Config.RateLimit.AuthLimit
		authPolicy.Window = deps.Config.RateLimit.Window
	}
	s.apiLimiter = middleware.NewRateLimiter(deps.Counters, apiPolicy, deps.Logger, deps.Metrics)
	s.authLimiter = middleware.NewRateLimiter(deps.Counters, authPolicy, deps.Logger, deps.Metrics)

	s.setupRoutes()

	// The audit interceptor wraps everything, rate limiter included, so
	// denials at any gate are still recorded.
	handler := s.interceptor.Handler(s.router)
	if deps.Metrics != nil {
		handler = deps.Metrics.HTTPMetricsMiddleware(handler)
	}
	handler = contextLogger(handler, deps.Logger)
	handler = middleware.RequestID(handler)
	handler = recoverMiddleware(handler, deps.Logger)
	s.handler = otelhttp.NewHandler(handler, "scolaris.api")

	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Router exposes the bare mux for tests that bypass the outer wrappers
func (s *Server) Router() *mux.Router {
	return s.router
}

// contextLogger plants the request-scoped logger, enriched with the active
// trace, so handlers pick it up via observability.FromContext.
func contextLogger(next http.Handler, logger *observability.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lg := observability.LoggerWithTraceContext(r.Context(), logger)
		next.ServeHTTP(w, r.WithContext(observability.WithLogger(r.Context(), lg)))
	})
}

// recoverMiddleware turns a handler panic into a 500 instead of killing the
// connection.
func recoverMiddleware(next http.Handler, logger *observability.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if logger != nil {
					logger.WithField("panic", rec).WithField("path", r.URL.Path).Error("PANIC recovered")
				}
				httputil.WriteInternalError(w, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
