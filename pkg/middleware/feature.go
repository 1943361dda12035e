package middleware

import (
	"errors"
	"net/http"

	"github.com/scolaris/scolaris/pkg/billing"
	"github.com/scolaris/scolaris/pkg/httputil"
	"github.com/scolaris/scolaris/pkg/observability"
	"github.com/scolaris/scolaris/pkg/tenant"
)

// FeatureGate denies requests whose school's subscription plan does not
// include a required feature. Runs after tenant resolution.
type FeatureGate struct {
	billing billing.Service
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewFeatureGate creates the subscription feature gate. logger and metrics
// may be nil.
func NewFeatureGate(svc billing.Service, logger *observability.Logger, metrics *observability.Metrics) *FeatureGate {
	return &FeatureGate{
		billing: svc,
		logger:  logger,
		metrics: metrics,
	}
}

// Require gates the route on the named feature.
//
// Super admins bypass the gate entirely; they operate across schools and are
// never billed. An unscoped request cannot be gated and is a 400, not a 403:
// the client built the request wrong rather than hit a plan limit.
func (g *FeatureGate) Require(feature billing.FeatureName) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tc := tenant.FromContext(r.Context())
			if tc.IsSuperAdmin && tc.TenantID == nil {
				next.ServeHTTP(w, r)
				return
			}
			if tc.TenantID == nil {
				g.count(feature, "unscoped")
				httputil.WriteBadRequest(w, "School context required")
				return
			}

			err := g.billing.CheckFeature(r.Context(), *tc.TenantID, feature)
			if err == nil {
				g.count(feature, "allowed")
				next.ServeHTTP(w, r)
				return
			}

			var denied *billing.FeatureDeniedError
			switch {
			case errors.Is(err, billing.ErrUnknownFeature):
				g.count(feature, "unknown")
				httputil.WriteBadRequest(w, "Unknown feature")

			case errors.Is(err, billing.ErrNoSubscription):
				g.count(feature, "no_subscription")
				httputil.WriteErrorExtra(w, http.StatusForbidden, "No active subscription", map[string]interface{}{
					"feature_required": string(feature),
				})

			case errors.As(err, &denied):
				g.count(feature, "plan_denied")
				httputil.WriteErrorExtra(w, http.StatusForbidden, denied.Error(), map[string]interface{}{
					"feature":       string(denied.Feature),
					"required_plan": string(denied.RequiredPlan),
				})

			default:
				g.count(feature, "error")
				if g.logger != nil {
					g.logger.WithError(err).WithFields(map[string]interface{}{
						"school_id": *tc.TenantID,
						"feature":   string(feature),
					}).Error("subscription lookup failed")
				}
				httputil.WriteInternalError(w, "Feature verification failed")
			}
		})
	}
}

func (g *FeatureGate) count(feature billing.FeatureName, outcome string) {
	if g.metrics != nil {
		g.metrics.FeatureChecksTotal.WithLabelValues(string(feature), outcome).Inc()
	}
}
