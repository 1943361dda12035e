package api

import (
	"net/http"

	"github.com/scolaris/scolaris/pkg/httputil"
	"github.com/scolaris/scolaris/pkg/middleware"
	"github.com/scolaris/scolaris/pkg/observability"
)

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())

	limit := 20
	if v, err := httputil.QueryInt64(r, "limit"); err == nil && v != nil {
		limit = int(*v)
	}

	notifications, err := s.notifications.ListForUser(r.Context(), principal.ID, limit)
	if err != nil {
		observability.FromContext(r.Context()).WithError(err).Error("notification list failed")
		httputil.WriteInternalError(w, "Failed to list notifications")
		return
	}

	httputil.WriteSuccess(w, notifications)
}

// handleMarkAllRead flags every unread notification for the caller.
// Idempotent: a second call updates zero rows and still succeeds.
func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())

	updated, err := s.notifications.MarkAllRead(r.Context(), principal.ID)
	if err != nil {
		observability.FromContext(r.Context()).WithError(err).Error("mark all read failed")
		httputil.WriteInternalError(w, "Failed to mark notifications read")
		return
	}

	httputil.WriteSuccessMessage(w, "All notifications marked as read", map[string]interface{}{
		"updated": updated,
	})
}
