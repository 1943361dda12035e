package api

import (
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/scolaris/scolaris/pkg/auth"
	"github.com/scolaris/scolaris/pkg/httputil"
	"github.com/scolaris/scolaris/pkg/middleware"
	"github.com/scolaris/scolaris/pkg/observability"
	"github.com/scolaris/scolaris/pkg/storage"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string          `json:"token"`
	User  *auth.Principal `json:"user"`
}

// handleLogin verifies credentials and issues an access token.
// The response to a bad email and a bad password is identical so the
// endpoint cannot be used to probe for accounts.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		httputil.WriteBadRequest(w, "Email and password are required")
		return
	}

	user, err := s.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httputil.WriteUnauthorized(w, "Invalid email or password")
			return
		}
		observability.FromContext(r.Context()).WithError(err).Error("login lookup failed")
		httputil.WriteInternalError(w, "Login failed")
		return
	}

	if !user.IsActive {
		httputil.WriteForbidden(w, "Account is deactivated")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		httputil.WriteUnauthorized(w, "Invalid email or password")
		return
	}

	principal := principalFromUser(user)
	token, err := s.issuer.Issue(principal)
	if err != nil {
		observability.FromContext(r.Context()).WithError(err).Error("token issuance failed")
		httputil.WriteInternalError(w, "Login failed")
		return
	}

	httputil.WriteSuccess(w, loginResponse{Token: token, User: principal})
}

// handleMe returns the caller's account as stored, not the token claims:
// role or school changes take effect without re-login.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if principal == nil {
		httputil.WriteUnauthorized(w, "No token provided")
		return
	}

	user, err := s.users.GetByID(r.Context(), principal.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		observability.FromContext(r.Context()).WithError(err).Error("user lookup failed")
		httputil.WriteInternalError(w, "Failed to load user")
		return
	}

	httputil.WriteSuccess(w, user)
}

func principalFromUser(u *storage.User) *auth.Principal {
	p := &auth.Principal{
		ID:       u.ID,
		Email:    u.Email,
		Role:     auth.Role(u.Role),
		SchoolID: u.SchoolID,
	}
	if u.SchoolName != nil {
		p.SchoolName = *u.SchoolName
	}
	return p
}
