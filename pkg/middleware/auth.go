package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/scolaris/scolaris/pkg/audit"
	"github.com/scolaris/scolaris/pkg/auth"
	"github.com/scolaris/scolaris/pkg/contextkeys"
	"github.com/scolaris/scolaris/pkg/httputil"
	"github.com/scolaris/scolaris/pkg/observability"
)

// AuthMiddleware authenticates requests via Bearer tokens
type AuthMiddleware struct {
	verifier *auth.Verifier
	logger   *observability.Logger
	metrics  *observability.Metrics
}

// NewAuthMiddleware creates the token authentication middleware. logger and
// metrics may be nil.
func NewAuthMiddleware(verifier *auth.Verifier, logger *observability.Logger, metrics *observability.Metrics) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
		logger:   logger,
		metrics:  metrics,
	}
}

// Require rejects requests without a valid token. A missing credential is
// 401; a present-but-invalid one is 403. The split is a compatibility
// contract with existing clients, do not unify.
func (m *AuthMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := auth.ExtractBearer(r.Header.Get("Authorization"))

		principal, err := m.verifier.Authenticate(token)
		if err != nil {
			switch err {
			case auth.ErrNoToken:
				m.countFailure("missing")
				httputil.WriteUnauthorized(w, "No token provided")
			default:
				m.countFailure("invalid")
				if m.logger != nil {
					m.logger.WithError(err).WithField("path", r.URL.Path).Debug("token rejected")
				}
				httputil.WriteForbidden(w, "Invalid or expired token")
			}
			return
		}

		next.ServeHTTP(w, m.withPrincipal(r, principal))
	})
}

// Optional attaches a principal when a valid token is present but lets
// anonymous requests through. An invalid token is still rejected so clients
// never silently degrade to anonymous.
func (m *AuthMiddleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := auth.ExtractBearer(r.Header.Get("Authorization"))
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		principal, err := m.verifier.Authenticate(token)
		if err != nil {
			m.countFailure("invalid")
			httputil.WriteForbidden(w, "Invalid or expired token")
			return
		}

		next.ServeHTTP(w, m.withPrincipal(r, principal))
	})
}

func (m *AuthMiddleware) withPrincipal(r *http.Request, p *auth.Principal) *http.Request {
	ctx := context.WithValue(r.Context(), contextkeys.PrincipalKey, p)
	ctx = observability.WithUserID(ctx, strconv.FormatInt(p.ID, 10))
	audit.CaptureFromContext(ctx).SetActor(p)
	return r.WithContext(ctx)
}

func (m *AuthMiddleware) countFailure(kind string) {
	if m.metrics != nil {
		m.metrics.AuthFailuresTotal.WithLabelValues(kind).Inc()
	}
}

// GetPrincipal returns the authenticated principal, or nil for anonymous
// requests.
func GetPrincipal(ctx context.Context) *auth.Principal {
	if p, ok := ctx.Value(contextkeys.PrincipalKey).(*auth.Principal); ok {
		return p
	}
	return nil
}
