package auth

import "errors"

// Role is a user role name carried in the token
type Role string

const (
	RoleSuperAdmin  Role = "super_admin"
	RoleAdmin       Role = "admin"
	RoleTeacher     Role = "teacher"
	RoleStudent     Role = "student"
	RoleParent      Role = "parent"
	RoleStaff       Role = "staff"
	RoleRegistrar   Role = "registrar"
	RoleExamOfficer Role = "exam_officer"
)

// Principal is the authenticated identity for the duration of one request
type Principal struct {
	ID         int64  `json:"id"`
	Email      string `json:"email,omitempty"`
	Role       Role   `json:"role"`
	SchoolID   *int64 `json:"schoolId,omitempty"`
	SchoolName string `json:"schoolName,omitempty"`
}

// IsSuperAdmin reports whether the principal may operate across tenants
func (p *Principal) IsSuperAdmin() bool {
	return p != nil && p.Role == RoleSuperAdmin
}

var (
	// ErrNoToken means no credential was presented. Mapped to 401.
	ErrNoToken = errors.New("no token provided")

	// ErrInvalidToken means the credential was malformed, expired, or had a
	// bad signature. Mapped to 403; the split from ErrNoToken is a
	// compatibility contract, do not unify.
	ErrInvalidToken = errors.New("invalid or expired token")
)
