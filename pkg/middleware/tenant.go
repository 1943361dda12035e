package middleware

import (
	"net/http"

	"github.com/scolaris/scolaris/pkg/audit"
	"github.com/scolaris/scolaris/pkg/httputil"
	"github.com/scolaris/scolaris/pkg/observability"
	"github.com/scolaris/scolaris/pkg/tenant"
)

// TenantContextMiddleware resolves the request's school scope from the
// authenticated principal. Runs after auth; never denies by itself.
type TenantContextMiddleware struct {
	logger *observability.Logger
}

// NewTenantContextMiddleware creates the tenant resolver. logger may be nil.
func NewTenantContextMiddleware(logger *observability.Logger) *TenantContextMiddleware {
	return &TenantContextMiddleware{logger: logger}
}

// Handler resolves and attaches the tenant context. The schoolId query
// parameter is only ever honored for super admins; tenant.Resolve ignores it
// for everyone else, so callers cannot widen their own scope.
func (m *TenantContextMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := GetPrincipal(r.Context())

		// A malformed schoolId is ignored rather than rejected; the override
		// is advisory and only super admins can act on it anyway.
		override, err := httputil.QueryInt64(r, "schoolId")
		if err != nil {
			override = nil
		}

		tc := tenant.Resolve(principal, override)

		ctx := tenant.WithContext(r.Context(), tc)
		audit.CaptureFromContext(ctx).SetSchool(tc.TenantID)

		if m.logger != nil && tc.IsSuperAdmin && tc.TenantID != nil {
			m.logger.WithFields(map[string]interface{}{
				"school_id": *tc.TenantID,
				"path":      r.URL.Path,
			}).Debug("super admin operating with school override")
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireSchoolContext denies requests that reach a tenant-scoped route
// without a school scope. Super admins pass unscoped; everyone else needs a
// concrete school ID.
func RequireSchoolContext(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tc := tenant.FromContext(r.Context())
			if err := tc.RequireContext(); err != nil {
				if metrics != nil {
					metrics.GateDenialsTotal.WithLabelValues("tenant", tenant.CodeNoSchoolContext).Inc()
				}
				httputil.WriteErrorCode(w, http.StatusForbidden, err.Error(), tenant.CodeNoSchoolContext)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
