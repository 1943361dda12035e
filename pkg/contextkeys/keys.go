// Package contextkeys provides centralized context key definitions
//
// IMPORTANT: All context keys used across the application must be defined here.
// This prevents typos, documents dependencies, and makes key usage discoverable.
//
// USAGE PATTERN:
//
//	import "github.com/scolaris/scolaris/pkg/contextkeys"
//	ctx = context.WithValue(ctx, contextkeys.PrincipalKey, principal)
//	principal := ctx.Value(contextkeys.PrincipalKey).(*auth.Principal)
package contextkeys

// Key is the type for context keys to prevent collisions
type Key string

const (
	// PrincipalKey contains *auth.Principal
	// Set by: middleware.AuthMiddleware (pkg/middleware/auth.go)
	// Required by: tenant resolver, role gate, audit interceptor
	// Type: *auth.Principal
	PrincipalKey Key = "principal"

	// TenantKey contains *tenant.Context
	// Set by: middleware.TenantContextMiddleware (pkg/middleware/tenant.go)
	// Required by: feature gate, tenant-scoped handlers, audit interceptor
	// Type: *tenant.Context
	TenantKey Key = "tenant_context"

	// RequestIDKey contains request ID string (UUID)
	// Set by: middleware.RequestID (pkg/middleware/requestid.go)
	// Used by: Logger, audit trail, distributed tracing
	// Type: string
	RequestIDKey Key = "request_id"

	// UserIDKey contains user ID string
	// Set by: Auth middleware after token verification
	// Used by: Logger, audit trail
	// Type: string
	UserIDKey Key = "user_id"

	// LoggerKey contains *observability.Logger
	// Set by: Observability middleware
	// Used by: Handlers that need structured logging with request context
	// Type: *observability.Logger
	LoggerKey Key = "logger"

	// AuditRecorderKey contains the request's mutable audit capture
	// Set by: audit.Interceptor (pkg/audit/middleware.go)
	// Used by: auth and tenant middleware to attach actor and school scope
	// Type: *audit.Capture
	AuditRecorderKey Key = "audit_recorder"
)
