package middleware

import (
	"net/http"

	"github.com/scolaris/scolaris/pkg/auth"
	"github.com/scolaris/scolaris/pkg/httputil"
	"github.com/scolaris/scolaris/pkg/observability"
)

// RequireRole allows only principals whose role is in the given set.
// Matching is exact; there is no role hierarchy, so a route open to admins
// must list super_admin explicitly if super admins should pass.
func RequireRole(metrics *observability.Metrics, roles ...auth.Role) func(http.Handler) http.Handler {
	allowed := make(map[auth.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := GetPrincipal(r.Context())
			if principal == nil {
				if metrics != nil {
					metrics.GateDenialsTotal.WithLabelValues("role", "no_principal").Inc()
				}
				httputil.WriteForbidden(w, "Forbidden")
				return
			}

			if _, ok := allowed[principal.Role]; !ok {
				if metrics != nil {
					metrics.GateDenialsTotal.WithLabelValues("role", "role_mismatch").Inc()
				}
				httputil.WriteForbidden(w, "Forbidden: You do not have permission for this resource")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
