// Package api wires the HTTP surface: the gorilla/mux router, the
// declarative route table, and the resource handlers.
//
// Authorization requirements live in the route table (routes.go), never in
// handlers. The router composes the gates per route in a fixed order:
//
//	Audit -> RateLimit -> Auth -> TenantContext -> RoleGate -> FeatureGate -> handler
//
// Handlers assume the gates have run and only perform per-row tenant
// validation via tenant.Context.ValidateAccess.
package api
