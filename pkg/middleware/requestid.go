package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/scolaris/scolaris/pkg/observability"
)

const requestIDHeader = "X-Request-ID"

// RequestID tags every request with an ID for log and audit correlation.
// An incoming X-Request-ID from a trusted proxy is kept; otherwise a new
// UUID is minted. The ID is echoed back on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		w.Header().Set(requestIDHeader, id)
		ctx := observability.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
