// Package middleware implements the request authorization pipeline:
// rate limiting, token authentication, tenant scoping, role authorization,
// and subscription feature gating.
//
// # Pipeline order
//
// Every request passes the gates in a fixed order; a denial at any stage
// short-circuits the rest:
//
//	RateLimit -> Auth -> TenantContext -> (RequireRole / RequireFeature) -> handler
//
// The audit interceptor (pkg/audit) wraps the whole chain so denials are
// still captured.
//
// # Rate limiting
//
// Fixed-window counters behind an injected CounterStore. The in-process
// store serves a single instance; the Redis store keeps limits consistent
// across instances. Two policies: general API (100 req / 15 min) and
// credential routes (10 req / 15 min).
//
// # Status contract
//
// Missing credential is 401, anything invalid is 403. The asymmetry is a
// compatibility contract with existing clients.
//
// # Related Packages
//
//   - pkg/auth: token verification
//   - pkg/tenant: tenant context resolution and guards
//   - pkg/billing: subscription lookup for the feature gate
package middleware
