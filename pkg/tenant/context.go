package tenant

import (
	"context"
	"errors"

	"github.com/scolaris/scolaris/pkg/auth"
	"github.com/scolaris/scolaris/pkg/contextkeys"
)

// Error codes surfaced in the response envelope
const (
	CodeNoSchoolContext    = "NO_SCHOOL_CONTEXT"
	CodeSchoolAccessDenied = "SCHOOL_ACCESS_DENIED"
)

var (
	// ErrNoSchoolContext means the route needs a school scope and the request
	// has none. Mapped to 403 with code NO_SCHOOL_CONTEXT.
	ErrNoSchoolContext = errors.New("School context required for this operation")

	// ErrSchoolAccessDenied means a non-super-admin touched another school's
	// data. Mapped to 403 with code SCHOOL_ACCESS_DENIED.
	ErrSchoolAccessDenied = errors.New("Access denied to this school's data")
)

// Context is the per-request tenant scope.
//
// Invariant: IsSuperAdmin==false implies TenantID is exactly the principal's
// own school and was never substituted by caller input.
type Context struct {
	TenantID     *int64
	IsSuperAdmin bool
}

// Resolve derives the tenant context from the principal and an optional
// super-admin override. Rules, in order:
//
//  1. no principal: public request, unscoped
//  2. super_admin: override honored when supplied, otherwise unscoped
//  3. principal carries a school: scoped to that school
//  4. otherwise unscoped
func Resolve(p *auth.Principal, overrideTenantID *int64) Context {
	if p == nil {
		return Context{}
	}

	if p.IsSuperAdmin() {
		if overrideTenantID != nil {
			return Context{TenantID: overrideTenantID, IsSuperAdmin: true}
		}
		return Context{IsSuperAdmin: true}
	}

	if p.SchoolID != nil {
		return Context{TenantID: p.SchoolID}
	}

	return Context{}
}

// RequireContext fails when the request has no school scope and is not a
// super-admin operating cross-tenant.
func (c Context) RequireContext() error {
	if c.TenantID == nil && !c.IsSuperAdmin {
		return ErrNoSchoolContext
	}
	return nil
}

// ValidateAccess fails whenever a non-super-admin touches a resource owned by
// a different school. This must guard every tenant-scoped load by ID.
func (c Context) ValidateAccess(resourceTenantID int64) error {
	if c.IsSuperAdmin {
		return nil
	}
	if c.TenantID == nil {
		return ErrNoSchoolContext
	}
	if resourceTenantID != *c.TenantID {
		return ErrSchoolAccessDenied
	}
	return nil
}

// Scoped reports whether the request carries a concrete school ID
func (c Context) Scoped() bool {
	return c.TenantID != nil
}

// WithContext stores the tenant context on the request context
func WithContext(ctx context.Context, tc Context) context.Context {
	return context.WithValue(ctx, contextkeys.TenantKey, &tc)
}

// FromContext retrieves the tenant context; the zero Context (public,
// unscoped) is returned when none was resolved.
func FromContext(ctx context.Context) Context {
	if tc, ok := ctx.Value(contextkeys.TenantKey).(*Context); ok && tc != nil {
		return *tc
	}
	return Context{}
}
