package api

import (
	"net/http"

	"github.com/scolaris/scolaris/pkg/httputil"
	"github.com/scolaris/scolaris/pkg/observability"
	"github.com/scolaris/scolaris/pkg/tenant"
)

// handleGetSubscription returns the current tenant's active subscription
func (s *Server) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	tc := tenant.FromContext(r.Context())
	if tc.TenantID == nil {
		writeTenantError(w, tenant.ErrNoSchoolContext)
		return
	}

	sub, err := s.billing.ActiveSubscription(r.Context(), *tc.TenantID)
	if err != nil {
		observability.FromContext(r.Context()).WithError(err).WithField("school_id", *tc.TenantID).Error("subscription lookup failed")
		httputil.WriteInternalError(w, "Failed to load subscription")
		return
	}
	if sub == nil {
		httputil.WriteNotFound(w, "No active subscription")
		return
	}

	httputil.WriteSuccess(w, sub)
}
