// Package billing exposes read access to school subscriptions for feature
// gating. The subscription lifecycle itself (plans, payment, renewal) is
// owned by the billing subsystem; the pipeline only asks "does this school's
// active plan include feature X".
//
// Lookups go through an expirable LRU cache so the feature gate stays off
// the database on the hot path. Store failures are reported as
// ErrLookupFailed and must surface as 500, never as a feature denial.
package billing
