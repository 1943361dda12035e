// Package tenant derives and enforces the school-scoped tenant context.
//
// Exactly one Context is derived per request from the Principal (plus an
// optional super-admin override). ValidateAccess is the single chokepoint
// that stops cross-tenant reads: every handler loading a tenant-scoped
// resource by ID must call it before returning data.
package tenant
